package tui

import "github.com/leaseiq/leaseiq/internal/model"

// Message types for async operations
type (
	// refreshMsg re-renders the conversation from the controller while an
	// assistant reply is streaming in.
	refreshMsg struct{}

	// streamDoneMsg indicates the assistant reply finished or failed; the
	// terminal message is already in the conversation either way.
	streamDoneMsg struct{}

	// uploadDoneMsg indicates a contract upload finished.
	uploadDoneMsg struct {
		Lease *model.Lease
		Err   error
	}

	// simReplyMsg carries one dealer reply for a simulator thread.
	simReplyMsg struct {
		ThreadID string
		Text     string
		Err      error
	}

	// suggestionsMsg carries the canned question menus for both threads.
	suggestionsMsg struct {
		Catalog map[string][]model.Suggestion
	}
)
