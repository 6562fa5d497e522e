package analysis

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/leaseiq/leaseiq/pkg/logger"
)

func TestSanitizeVIN(t *testing.T) {
	cases := map[string]string{
		"":            "unknown",
		"  ":          "unknown",
		"N/A":         "unknown",
		"n/a":         "unknown",
		"undefined":   "unknown",
		"Unknown":     "unknown",
		"1HGEX0123":   "1HGEX0123",
		" 1HGEX0123 ": "1HGEX0123",
	}
	for in, want := range cases {
		require.Equal(t, want, SanitizeVIN(in), "input %q", in)
	}
}

func TestUpload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/upload", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1 << 20))

		f, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		require.Equal(t, "civic.pdf", header.Filename)

		contents, err := io.ReadAll(f)
		require.NoError(t, err)
		require.Equal(t, "%PDF-fake", string(contents))

		json.NewEncoder(w).Encode(map[string]any{
			"status":   "success",
			"file_id":  "12",
			"filename": "civic.pdf",
			"data":     map[string]any{"make": "Honda", "model": "Civic"},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/api", logger.Nop())
	result, err := c.Upload(context.Background(), "civic.pdf", strings.NewReader("%PDF-fake"))
	require.NoError(t, err)
	require.Equal(t, "12", result.FileID)
	require.Equal(t, "Honda", result.Data.String("make"))
}

func TestMarketInfoQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/market-info/1HGEX0123", r.URL.Path)
		require.Equal(t, "25000", r.URL.Query().Get("contract_price"))

		json.NewEncoder(w).Encode(MarketReport{
			MarketPrice: 24000,
			Difference:  1000,
			Rating:      "Standard Market Price.",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/api", logger.Nop())
	report, err := c.MarketInfo(context.Background(), "1HGEX0123", 25000)
	require.NoError(t, err)
	require.Equal(t, 24000.0, report.MarketPrice)
}

func TestMarketInfoSanitizesVIN(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/market-info/unknown", r.URL.Path)
		require.Empty(t, r.URL.Query().Get("contract_price"))
		json.NewEncoder(w).Encode(MarketReport{})
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/api", logger.Nop())
	_, err := c.MarketInfo(context.Background(), "N/A", 0)
	require.NoError(t, err)
}

func TestChatStreamsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/chat", r.URL.Path)

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "Hello", req["message"])
		require.Equal(t, "srv-civic.pdf", req["filename"])

		io.WriteString(w, `{"assistant_message": "Hi there"}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/api", logger.Nop())
	body, err := c.Chat(context.Background(), "Hello", "srv-civic.pdf")
	require.NoError(t, err)
	defer body.Close()

	raw, err := io.ReadAll(body)
	require.NoError(t, err)
	require.Equal(t, `{"assistant_message": "Hi there"}`, string(raw))
}

func TestErrorDetailSurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"detail": "Contract 99 not found."})
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/api", logger.Nop())
	_, err := c.AnalyzeContract(context.Background(), "99")
	require.Error(t, err)
	require.Contains(t, err.Error(), "Contract 99 not found.")
}
