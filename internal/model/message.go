// Package model defines data structures shared by the LeaseIQ server and client.
package model

// Sender identifies who authored a chat message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderAI   Sender = "ai"
)

// MessageType distinguishes plain text messages from file attachments.
type MessageType string

const (
	MessageTypeText MessageType = "text"
	MessageTypeFile MessageType = "file"
)

// Message is a single entry in a lease conversation.
//
// While an assistant reply is streaming, exactly one message in a conversation
// carries IsStreaming == true; its text is replaced in place as chunks arrive.
type Message struct {
	ID          int64       `json:"id"`
	Sender      Sender      `json:"sender"`
	Text        string      `json:"text"`
	Time        string      `json:"time,omitempty"`
	IsStreaming bool        `json:"isStreaming,omitempty"`
	Type        MessageType `json:"type,omitempty"`
	FileName    string      `json:"fileName,omitempty"`
}
