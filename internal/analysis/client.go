// Package analysis is the HTTP client for the contract analysis backend.
//
// The backend does PDF extraction, summarization and market lookups; this
// client treats it as a black box and only speaks its wire contract.
package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/leaseiq/leaseiq/internal/model"
	"github.com/leaseiq/leaseiq/pkg/logger"
)

// Client calls the analysis backend.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *logger.Logger
}

// NewClient creates an analysis client for the given base URL, which includes
// the /api prefix.
func NewClient(baseURL string, log *logger.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 2 * time.Minute},
		logger:  log,
	}
}

// UploadResult is the response to a contract upload: the extracted summary
// fields plus the ids the backend filed the document under.
type UploadResult struct {
	Status   string        `json:"status"`
	FileID   string        `json:"file_id"`
	Filename string        `json:"filename"`
	Data     model.Summary `json:"data"`
}

// ChatResponse is a non-streaming negotiation chat reply.
type ChatResponse struct {
	AssistantMessage  string  `json:"assistant_message"`
	CounterEmailDraft *string `json:"counter_email_draft,omitempty"`
}

// MarketReport is the market price comparison for a VIN.
type MarketReport struct {
	Vehicle          map[string]any     `json:"vehicle"`
	MarketPrice      float64            `json:"market_price"`
	Difference       float64            `json:"difference"`
	Rating           string             `json:"rating"`
	DepreciationInfo string             `json:"depreciation_info"`
	SuggestedRange   map[string]float64 `json:"suggested_range"`
}

// SanitizeVIN maps the placeholder values extraction produces for a missing
// VIN onto the single form the backend recognizes.
func SanitizeVIN(vin string) string {
	switch strings.ToLower(strings.TrimSpace(vin)) {
	case "", "n/a", "undefined", "unknown":
		return "unknown"
	}
	return strings.TrimSpace(vin)
}

// Upload sends a contract PDF and returns the extracted summary.
func (c *Client) Upload(ctx context.Context, fileName string, contents io.Reader) (*UploadResult, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	part, err := mw.CreateFormFile("file", fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to build upload form: %w", err)
	}
	if _, err := io.Copy(part, contents); err != nil {
		return nil, fmt.Errorf("failed to read contract file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var result UploadResult
	if err := c.do(req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// AnalyzeContract runs the deep analysis pass for an uploaded contract. The
// payload shape belongs to the backend; it is passed through untyped.
func (c *Client) AnalyzeContract(ctx context.Context, fileID string) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/contracts/%s/analyze", c.baseURL, url.PathEscape(fileID)), nil)
	if err != nil {
		return nil, err
	}

	var result map[string]any
	if err := c.do(req, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// GetAnalysis fetches a previously computed analysis.
func (c *Client) GetAnalysis(ctx context.Context, fileID string) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/contracts/%s/analysis", c.baseURL, url.PathEscape(fileID)), nil)
	if err != nil {
		return nil, err
	}

	var result map[string]any
	if err := c.do(req, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// ContractChat sends a negotiation message scoped to one contract and returns
// the complete reply. Unlike Chat, this endpoint does not stream.
func (c *Client) ContractChat(ctx context.Context, fileID, message string) (*ChatResponse, error) {
	payload, err := json.Marshal(map[string]string{"message": message})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/contracts/%s/chat", c.baseURL, url.PathEscape(fileID)), bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	var result ChatResponse
	if err := c.do(req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// MarketInfo looks up the market price for a VIN, optionally comparing it to
// the contract price. contractPrice <= 0 skips the comparison.
func (c *Client) MarketInfo(ctx context.Context, vin string, contractPrice float64) (*MarketReport, error) {
	endpoint := fmt.Sprintf("%s/market-info/%s", c.baseURL, url.PathEscape(SanitizeVIN(vin)))
	if contractPrice > 0 {
		endpoint += "?contract_price=" + strconv.FormatFloat(contractPrice, 'f', -1, 64)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var result MarketReport
	if err := c.do(req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Chat starts a streaming chat request. filename scopes the conversation to
// an uploaded contract and may be empty. The caller owns the returned body
// and must close it; feed it to the stream package to consume.
func (c *Client) Chat(ctx context.Context, message, filename string) (io.ReadCloser, error) {
	payload, err := json.Marshal(map[string]string{
		"message":  message,
		"filename": filename,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("analysis backend unreachable: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, apiError(resp)
	}
	return resp.Body, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("analysis backend unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apiError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode analysis response: %w", err)
	}
	return nil
}

// apiError turns a FastAPI error body, {"detail": "..."}, into an error.
func apiError(resp *http.Response) error {
	var body struct {
		Detail string `json:"detail"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Detail != "" {
		return fmt.Errorf("analysis backend: %s (status %d)", body.Detail, resp.StatusCode)
	}
	return fmt.Errorf("analysis backend returned status %d", resp.StatusCode)
}
