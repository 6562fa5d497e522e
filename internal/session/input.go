package session

// Input is what Send accepts: either fresh user content or an update to an
// in-flight assistant message. The variants carry only the fields that make
// sense for them, so a stream update can never masquerade as a user message.
type Input interface {
	isInput()
}

// NewText is a plain user message.
type NewText struct {
	Text string
}

// FileAttachment is a user message that references an uploaded file.
type FileAttachment struct {
	Text     string
	FileName string
}

// StreamUpdate carries one step of an assistant reply. Replace false appends
// the message (the streaming placeholder); Replace true rewrites the text of
// the message identified by MessageID, falling back to whichever assistant
// message is currently streaming. Streaming false marks the reply finished.
// Notice marks the text as a local connectivity notice that must never be
// written to the server, even in its final form.
type StreamUpdate struct {
	MessageID int64
	Text      string
	Streaming bool
	Replace   bool
	Notice    bool
}

func (NewText) isInput()        {}
func (FileAttachment) isInput() {}
func (StreamUpdate) isInput()   {}
