package session

import (
	"context"
	"io"

	"go.uber.org/zap"

	"github.com/leaseiq/leaseiq/internal/model"
	"github.com/leaseiq/leaseiq/internal/stream"
)

// connectionErrorText is appended as an assistant notice when the analysis
// backend cannot be reached. Notices never persist to the server.
const connectionErrorText = "Connection error. Please check if the backend is running."

// StreamReply runs one assistant reply against the conversation captured in
// target. open starts the request; the placeholder bubble is only registered
// once the request is accepted, so a refused connection leaves no empty
// message behind. Each chunk rewrites the placeholder in place; the final
// update clears the streaming flag and is the only form that persists.
func (c *Controller) StreamReply(ctx context.Context, target *model.Lease, open func(context.Context) (io.ReadCloser, error)) {
	if target == nil {
		return
	}

	body, err := open(ctx)
	if err != nil {
		c.logger.Warn("assistant request failed", zap.Int64("lease_id", target.ID), zap.Error(err))
		c.AddMessage(ctx, target.ID, model.Message{
			ID:     newID(),
			Sender: model.SenderAI,
			Text:   connectionErrorText,
			Time:   clockTime(),
		}, false)
		return
	}
	defer body.Close()

	placeholderID := newID()
	c.Send(ctx, StreamUpdate{MessageID: placeholderID, Streaming: true}, target)

	result, err := stream.Consume(ctx, body, func(preview string) {
		c.Send(ctx, StreamUpdate{
			MessageID: placeholderID,
			Text:      preview,
			Streaming: true,
			Replace:   true,
		}, target)
	})
	if err != nil {
		c.logger.Warn("assistant stream interrupted", zap.Int64("lease_id", target.ID), zap.Error(err))
		c.Send(ctx, StreamUpdate{
			MessageID: placeholderID,
			Text:      connectionErrorText,
			Replace:   true,
			Notice:    true,
		}, target)
		return
	}

	c.Send(ctx, StreamUpdate{
		MessageID: placeholderID,
		Text:      result.Text,
		Replace:   true,
	}, target)
}
