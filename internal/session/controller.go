// Package session owns the client's conversation state: the lease list, the
// active conversation pointer, the signed-in user, and their durable local
// copies. All mutation goes through the Controller so the streaming and
// persistence rules hold no matter which view triggered the change.
package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/leaseiq/leaseiq/internal/model"
	"github.com/leaseiq/leaseiq/internal/session/localstore"
	"github.com/leaseiq/leaseiq/pkg/logger"
)

// Local storage keys. All of them are cleared on logout; the conversation
// cache belongs to the signed-in user and must not outlive the session.
const (
	keyHistory  = "app_history"
	keyActiveID = "active_id"
	keyView     = "app_view"
	keySession  = "user_session"
	keyToken    = "token"
)

// DefaultView is the view shown before any navigation.
const DefaultView = "chat"

// RemoteStore is the server-side persistence surface. The server copy is
// authoritative on bootstrap; after that, writes flow one way and failures
// are logged, never surfaced to views.
type RemoteStore interface {
	Leases(ctx context.Context, userID int) ([]model.Lease, error)
	SaveLease(ctx context.Context, userID int, lease *model.Lease) error
	DeleteLease(ctx context.Context, id int64) error
}

// Controller holds the session state. Safe for concurrent use; accessors
// return deep copies so callers never alias the managed slices.
type Controller struct {
	mu     sync.Mutex
	logger *logger.Logger
	local  *localstore.Store
	remote RemoteStore

	user     *model.User
	token    string
	leases   []*model.Lease
	activeID int64
	view     string
}

// New creates a controller over the given stores.
func New(local *localstore.Store, remote RemoteStore, log *logger.Logger) *Controller {
	return &Controller{
		logger: log,
		local:  local,
		remote: remote,
		view:   DefaultView,
	}
}

// SetSession records a signed-in user and their token, durably.
func (c *Controller) SetSession(user model.User, token string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.user = &user
	c.token = token
	c.setLocal(keySession, user)
	c.setLocal(keyToken, token)
}

// User returns the signed-in user, nil when logged out.
func (c *Controller) User() *model.User {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.user == nil {
		return nil
	}
	u := *c.user
	return &u
}

// Token returns the bearer token for the current session.
func (c *Controller) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// Bootstrap restores cached state from local storage, then, when a user is
// present, replaces the lease list with the server's copy and re-resolves the
// active pointer by id. A fetch failure keeps the cached list.
func (c *Controller) Bootstrap(ctx context.Context) {
	c.mu.Lock()

	var user model.User
	if ok := c.getLocal(keySession, &user); ok {
		c.user = &user
	}
	c.getLocal(keyToken, &c.token)

	var cached []*model.Lease
	if ok := c.getLocal(keyHistory, &cached); ok {
		c.leases = cached
	}
	c.getLocal(keyActiveID, &c.activeID)

	var view string
	if ok := c.getLocal(keyView, &view); ok && view != "" {
		c.view = view
	}

	user2 := c.user
	c.mu.Unlock()

	if user2 == nil {
		return
	}

	fresh, err := c.remote.Leases(ctx, user2.ID)
	if err != nil {
		c.logger.Warn("failed to load leases from server, using cached list",
			zap.Int("user_id", user2.ID), zap.Error(err))
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.leases = make([]*model.Lease, len(fresh))
	for i := range fresh {
		lease := fresh[i]
		c.leases[i] = &lease
	}
	if c.activeID != 0 && c.leaseByID(c.activeID) == nil {
		c.activeID = 0
	}
	c.persistStateLocked()
}

// Leases returns a snapshot of the list, newest first.
func (c *Controller) Leases() []model.Lease {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]model.Lease, len(c.leases))
	for i, l := range c.leases {
		out[i] = *l.Clone()
	}
	return out
}

// Active returns a copy of the active conversation, nil when none.
func (c *Controller) Active() *model.Lease {
	c.mu.Lock()
	defer c.mu.Unlock()

	if lease := c.leaseByID(c.activeID); lease != nil {
		return lease.Clone()
	}
	return nil
}

// SetActive points the session at a conversation by id.
func (c *Controller) SetActive(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.leaseByID(id) == nil {
		return
	}
	c.activeID = id
	c.persistStateLocked()
}

// View returns the current view name.
func (c *Controller) View() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

// SetView records the current view durably.
func (c *Controller) SetView(view string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view = view
	c.persistStateLocked()
}

// AddMessage applies one message to the conversation with the given id.
//
// When update is true the message replaces the text of the entry whose id
// matches. Only when no id matches does it fall back to the first assistant
// message still streaming, so a finished reply can never swallow another
// stream's update just because it sits earlier in the history. With no match
// at all the call is a no-op and a late chunk cannot corrupt history.
// Otherwise the message is appended.
//
// The server copy is written only for user messages and for the final,
// non-streaming form of an assistant reply. Intermediate chunks and
// assistant-authored notices stay local.
func (c *Controller) AddMessage(ctx context.Context, leaseID int64, msg model.Message, update bool) {
	c.addMessage(ctx, leaseID, msg, update, true)
}

func (c *Controller) addMessage(ctx context.Context, leaseID int64, msg model.Message, update, allowRemote bool) {
	c.mu.Lock()

	lease := c.leaseByID(leaseID)
	if lease == nil {
		c.mu.Unlock()
		return
	}

	if update {
		idx := -1
		for i, m := range lease.ChatHistory {
			if m.ID == msg.ID {
				idx = i
				break
			}
		}
		if idx < 0 {
			for i, m := range lease.ChatHistory {
				if m.Sender == model.SenderAI && m.IsStreaming {
					idx = i
					break
				}
			}
		}
		if idx < 0 {
			c.mu.Unlock()
			return
		}
		lease.ChatHistory[idx].Text = msg.Text
		lease.ChatHistory[idx].IsStreaming = msg.IsStreaming
	} else {
		lease.ChatHistory = append(lease.ChatHistory, msg)
	}

	c.persistStateLocked()

	persist := allowRemote &&
		(msg.Sender == model.SenderUser ||
			(msg.Sender == model.SenderAI && update && !msg.IsStreaming))
	snapshot := lease.Clone()
	c.mu.Unlock()

	if persist {
		c.persistRemote(ctx, snapshot)
	}
}

// Send routes one Input and returns the conversation it landed in, so the
// caller can chain the assistant fetch on the right id even when a new
// conversation was just created. Returns nil for empty or unroutable input.
func (c *Controller) Send(ctx context.Context, in Input, target *model.Lease) *model.Lease {
	switch v := in.(type) {
	case StreamUpdate:
		// Stream updates always name their conversation explicitly; they are
		// never resolved against the active pointer, which may have moved
		// since the stream started.
		if target == nil {
			c.logger.Warn("dropping stream update with no target conversation",
				zap.Int64("message_id", v.MessageID))
			return nil
		}
		c.addMessage(ctx, target.ID, model.Message{
			ID:          v.MessageID,
			Sender:      model.SenderAI,
			Text:        v.Text,
			IsStreaming: v.Streaming,
		}, v.Replace, !v.Notice)
		return target

	case NewText:
		text := strings.TrimSpace(v.Text)
		if text == "" {
			return nil
		}
		return c.deliver(ctx, model.Message{
			ID:     newID(),
			Sender: model.SenderUser,
			Text:   text,
			Time:   clockTime(),
		}, target)

	case FileAttachment:
		return c.deliver(ctx, model.Message{
			ID:       newID(),
			Sender:   model.SenderUser,
			Text:     v.Text,
			Time:     clockTime(),
			Type:     model.MessageTypeFile,
			FileName: v.FileName,
		}, target)
	}
	return nil
}

// deliver appends a user message, creating a conversation when there is no
// target.
func (c *Controller) deliver(ctx context.Context, msg model.Message, target *model.Lease) *model.Lease {
	if target != nil {
		c.AddMessage(ctx, target.ID, msg, false)

		c.mu.Lock()
		defer c.mu.Unlock()
		if lease := c.leaseByID(target.ID); lease != nil {
			return lease.Clone()
		}
		return nil
	}

	lease := &model.Lease{
		ID:          newID(),
		CarName:     "New Conversation",
		FileName:    "General Inquiry",
		Date:        time.Now().Format("1/2/2006"),
		Summary:     model.Summary{},
		ChatHistory: []model.Message{msg},
	}
	if msg.Type == model.MessageTypeFile {
		lease.CarName = msg.FileName
		lease.FileName = msg.FileName
	}

	c.mu.Lock()
	c.leases = append([]*model.Lease{lease}, c.leases...)
	c.activeID = lease.ID
	c.persistStateLocked()
	snapshot := lease.Clone()
	c.mu.Unlock()

	c.persistRemote(ctx, snapshot)
	return snapshot
}

// MergeUploadResult folds a finished contract upload into the active
// conversation: the extracted fields become the summary and the title is
// derived from make and model, then VIN, then the file name stem. Returns
// the updated conversation for the caller to reveal, nil when there is no
// active conversation.
func (c *Controller) MergeUploadResult(ctx context.Context, serverFilename, fileName string, data model.Summary) *model.Lease {
	c.mu.Lock()

	lease := c.leaseByID(c.activeID)
	if lease == nil {
		c.mu.Unlock()
		return nil
	}

	title := strings.TrimSpace(data.String("make") + " " + data.String("model"))
	if data.String("make") == "" || data.String("model") == "" {
		title = data.String("vin")
	}
	if title == "" {
		title = fileName
		if i := strings.LastIndex(title, "."); i > 0 {
			title = title[:i]
		}
	}

	lease.CarName = title
	lease.ServerFilename = serverFilename
	lease.Summary = make(model.Summary, len(data))
	for k, v := range data {
		lease.Summary[k] = v
	}

	c.persistStateLocked()
	snapshot := lease.Clone()
	c.mu.Unlock()

	c.persistRemote(ctx, snapshot)
	return snapshot
}

// Delete removes a conversation optimistically: the list and active pointer
// change immediately, then the server delete runs. A remote failure is
// logged and the local removal stands.
func (c *Controller) Delete(ctx context.Context, id int64) {
	c.mu.Lock()

	kept := c.leases[:0]
	for _, l := range c.leases {
		if l.ID != id {
			kept = append(kept, l)
		}
	}
	c.leases = kept
	if c.activeID == id {
		c.activeID = 0
	}
	c.persistStateLocked()
	c.mu.Unlock()

	if err := c.remote.DeleteLease(ctx, id); err != nil {
		c.logger.Warn("failed to delete lease on server",
			zap.Int64("lease_id", id), zap.Error(err))
	}
}

// Logout clears the session from memory and from disk: user, token,
// conversation list, active pointer, and view preference.
func (c *Controller) Logout() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.user = nil
	c.token = ""
	c.leases = nil
	c.activeID = 0
	c.view = DefaultView

	if err := c.local.Delete(keySession, keyToken, keyHistory, keyActiveID, keyView); err != nil {
		c.logger.Warn("failed to clear local session", zap.Error(err))
	}
}

// leaseByID returns the managed lease with the given id. Caller holds mu.
func (c *Controller) leaseByID(id int64) *model.Lease {
	for _, l := range c.leases {
		if l.ID == id {
			return l
		}
	}
	return nil
}

// persistStateLocked mirrors the in-memory state to local storage. Caller
// holds mu. Session and active pointer are only ever written, not cleared
// here; Logout owns removal.
func (c *Controller) persistStateLocked() {
	list := make([]model.Lease, len(c.leases))
	for i, l := range c.leases {
		list[i] = *l
	}
	c.setLocal(keyHistory, list)
	c.setLocal(keyView, c.view)
	if c.user != nil {
		c.setLocal(keySession, *c.user)
	}
	if c.activeID != 0 {
		c.setLocal(keyActiveID, c.activeID)
	}
}

func (c *Controller) persistRemote(ctx context.Context, lease *model.Lease) {
	c.mu.Lock()
	user := c.user
	c.mu.Unlock()

	if user == nil {
		c.logger.Debug("no user session, skipping server save",
			zap.Int64("lease_id", lease.ID))
		return
	}
	if err := c.remote.SaveLease(ctx, user.ID, lease); err != nil {
		c.logger.Warn("failed to save lease to server",
			zap.Int64("lease_id", lease.ID), zap.Error(err))
	}
}

func (c *Controller) setLocal(key string, v any) {
	if err := c.local.Set(key, v); err != nil {
		c.logger.Warn("failed to write local state", zap.String("key", key), zap.Error(err))
	}
}

func (c *Controller) getLocal(key string, out any) bool {
	ok, err := c.local.Get(key, out)
	if err != nil {
		c.logger.Warn("failed to read local state", zap.String("key", key), zap.Error(err))
		return false
	}
	return ok
}

func clockTime() string {
	return time.Now().Format("3:04 PM")
}
