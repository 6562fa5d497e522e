package model

import "fmt"

// Summary holds the extracted contract fields returned by the analysis
// backend. The field set is owned by that service; we pass it through.
type Summary map[string]any

// String reads a summary field as a display string, empty when absent.
func (s Summary) String(key string) string {
	if s == nil {
		return ""
	}
	v, ok := s[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%g", t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// Lease is one analysis thread around a single uploaded contract, or a
// contract-less chat. The client generates the id (millisecond timestamp) at
// creation; the server upserts by that same id.
type Lease struct {
	ID             int64     `json:"id"`
	CarName        string    `json:"carName"`
	FileName       string    `json:"fileName,omitempty"`
	ServerFilename string    `json:"serverFilename,omitempty"`
	Date           string    `json:"date,omitempty"`
	Summary        Summary   `json:"summary"`
	ChatHistory    []Message `json:"chatHistory"`
}

// Clone returns a deep copy safe to hand to other goroutines.
func (l *Lease) Clone() *Lease {
	cp := *l
	cp.ChatHistory = make([]Message, len(l.ChatHistory))
	copy(cp.ChatHistory, l.ChatHistory)
	if l.Summary != nil {
		cp.Summary = make(Summary, len(l.Summary))
		for k, v := range l.Summary {
			cp.Summary[k] = v
		}
	}
	return &cp
}

// StreamingIndex returns the index of the in-flight assistant message, or -1.
func (l *Lease) StreamingIndex() int {
	for i, m := range l.ChatHistory {
		if m.IsStreaming {
			return i
		}
	}
	return -1
}

// SaveLeaseRequest is the body of POST /api/leases/save.
type SaveLeaseRequest struct {
	UserID int   `json:"userId"`
	Data   Lease `json:"data"`
}

// SimulatorChatRequest is the body of POST /api/simulator/chat.
type SimulatorChatRequest struct {
	Message  string `json:"message"`
	FileID   int64  `json:"file_id"`
	ThreadID string `json:"threadId"`
}

// SimulatorChatResponse carries the dealer's reply.
type SimulatorChatResponse struct {
	AssistantMessage string `json:"assistant_message"`
}

// Suggestion is a canned question/answer pair shown in a simulator thread.
type Suggestion struct {
	ID       string `json:"id"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}
