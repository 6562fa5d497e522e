package session

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/leaseiq/leaseiq/internal/model"
	"github.com/leaseiq/leaseiq/internal/session/localstore"
	"github.com/leaseiq/leaseiq/pkg/logger"
)

// fakeRemote records every save and delete so tests can assert exactly when
// the server copy was written.
type fakeRemote struct {
	LeasesFunc func(ctx context.Context, userID int) ([]model.Lease, error)
	saveErr    error
	deleteErr  error

	saves   []model.Lease
	deletes []int64
}

func (f *fakeRemote) Leases(ctx context.Context, userID int) ([]model.Lease, error) {
	if f.LeasesFunc != nil {
		return f.LeasesFunc(ctx, userID)
	}
	return nil, nil
}

func (f *fakeRemote) SaveLease(ctx context.Context, userID int, lease *model.Lease) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saves = append(f.saves, *lease.Clone())
	return nil
}

func (f *fakeRemote) DeleteLease(ctx context.Context, id int64) error {
	f.deletes = append(f.deletes, id)
	return f.deleteErr
}

func newTestController(t *testing.T, remote *fakeRemote) (*Controller, *localstore.Store) {
	t.Helper()
	local, err := localstore.Open(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, err)
	return New(local, remote, logger.Nop()), local
}

func signIn(c *Controller) {
	c.SetSession(model.User{ID: 42, Name: "Dana", Email: "dana@example.com"}, "tok")
}

func TestSendCreatesConversation(t *testing.T) {
	remote := &fakeRemote{}
	c, _ := newTestController(t, remote)
	signIn(c)

	lease := c.Send(context.Background(), NewText{Text: "Hello"}, nil)
	require.NotNil(t, lease)

	require.Equal(t, "New Conversation", lease.CarName)
	require.Equal(t, "General Inquiry", lease.FileName)
	require.NotZero(t, lease.ID)
	require.Empty(t, lease.Summary)
	require.Len(t, lease.ChatHistory, 1)
	require.Equal(t, model.SenderUser, lease.ChatHistory[0].Sender)
	require.Equal(t, "Hello", lease.ChatHistory[0].Text)

	active := c.Active()
	require.NotNil(t, active)
	require.Equal(t, lease.ID, active.ID)

	list := c.Leases()
	require.Len(t, list, 1)
	require.Equal(t, lease.ID, list[0].ID)

	require.Len(t, remote.saves, 1, "new conversation saves once")
}

func TestSendFileAttachmentTitlesConversation(t *testing.T) {
	remote := &fakeRemote{}
	c, _ := newTestController(t, remote)
	signIn(c)

	lease := c.Send(context.Background(), FileAttachment{Text: "here", FileName: "civic.pdf"}, nil)
	require.NotNil(t, lease)
	require.Equal(t, "civic.pdf", lease.CarName)
	require.Equal(t, "civic.pdf", lease.FileName)
	require.Equal(t, model.MessageTypeFile, lease.ChatHistory[0].Type)
}

func TestSendEmptyTextIsIgnored(t *testing.T) {
	remote := &fakeRemote{}
	c, _ := newTestController(t, remote)
	signIn(c)

	require.Nil(t, c.Send(context.Background(), NewText{Text: "   "}, nil))
	require.Empty(t, c.Leases())
	require.Empty(t, remote.saves)
}

func TestSendAppendsToExistingConversation(t *testing.T) {
	remote := &fakeRemote{}
	c, _ := newTestController(t, remote)
	signIn(c)

	first := c.Send(context.Background(), NewText{Text: "Hello"}, nil)
	second := c.Send(context.Background(), NewText{Text: "How bad is my APR?"}, first)

	require.Equal(t, first.ID, second.ID)
	require.Len(t, second.ChatHistory, 2)
	require.Len(t, c.Leases(), 1)
	require.Len(t, remote.saves, 2)
}

func TestStreamingLifecycle(t *testing.T) {
	remote := &fakeRemote{}
	c, _ := newTestController(t, remote)
	signIn(c)
	ctx := context.Background()

	lease := c.Send(ctx, NewText{Text: "Hello"}, nil)
	require.Len(t, remote.saves, 1, "user message saved before the placeholder exists")
	require.Len(t, remote.saves[0].ChatHistory, 1)

	placeholderID := newID()
	c.Send(ctx, StreamUpdate{MessageID: placeholderID, Streaming: true}, lease)
	require.Len(t, remote.saves, 1, "placeholder never saves")

	c.Send(ctx, StreamUpdate{MessageID: placeholderID, Text: "Hi", Streaming: true, Replace: true}, lease)
	c.Send(ctx, StreamUpdate{MessageID: placeholderID, Text: "Hi there", Streaming: true, Replace: true}, lease)
	require.Len(t, remote.saves, 1, "partial chunks never save")

	active := c.Active()
	streaming := 0
	for _, m := range active.ChatHistory {
		if m.IsStreaming {
			streaming++
		}
	}
	require.Equal(t, 1, streaming, "exactly one streaming message while in flight")
	require.Equal(t, "Hi there", active.ChatHistory[1].Text)

	c.Send(ctx, StreamUpdate{MessageID: placeholderID, Text: "Hi there!", Replace: true}, lease)

	active = c.Active()
	require.Len(t, active.ChatHistory, 2)
	require.False(t, active.ChatHistory[1].IsStreaming)
	require.Equal(t, "Hi there!", active.ChatHistory[1].Text)

	require.Len(t, remote.saves, 2, "exactly one save for the completed reply")
	final := remote.saves[1].ChatHistory
	require.Len(t, final, 2)
	require.Equal(t, "Hi there!", final[1].Text)
	require.False(t, final[1].IsStreaming)
}

func TestDuplicateFinalUpdateLeavesStateUnchanged(t *testing.T) {
	remote := &fakeRemote{}
	c, _ := newTestController(t, remote)
	signIn(c)
	ctx := context.Background()

	lease := c.Send(ctx, NewText{Text: "Hello"}, nil)
	id := newID()
	c.Send(ctx, StreamUpdate{MessageID: id, Streaming: true}, lease)
	c.Send(ctx, StreamUpdate{MessageID: id, Text: "done", Replace: true}, lease)

	before := c.Active()
	c.Send(ctx, StreamUpdate{MessageID: id, Text: "done", Replace: true}, lease)
	after := c.Active()

	require.Equal(t, before.ChatHistory, after.ChatHistory)
}

func TestLateChunkForUnknownMessageIsDropped(t *testing.T) {
	remote := &fakeRemote{}
	c, _ := newTestController(t, remote)
	signIn(c)
	ctx := context.Background()

	lease := c.Send(ctx, NewText{Text: "Hello"}, nil)
	id := newID()
	c.Send(ctx, StreamUpdate{MessageID: id, Streaming: true}, lease)
	c.Send(ctx, StreamUpdate{MessageID: id, Text: "final", Replace: true}, lease)

	// A chunk with a stale id and no streaming message left must not touch
	// the finished reply.
	c.Send(ctx, StreamUpdate{MessageID: newID(), Text: "zombie", Streaming: true, Replace: true}, lease)

	active := c.Active()
	require.Len(t, active.ChatHistory, 2)
	require.Equal(t, "final", active.ChatHistory[1].Text)
}

func TestFinalUpdateMatchesIDBeforeStreamingFallback(t *testing.T) {
	remote := &fakeRemote{}
	c, _ := newTestController(t, remote)
	signIn(c)
	ctx := context.Background()

	lease := c.Send(ctx, NewText{Text: "compare these replies"}, nil)

	// Two replies in flight: A stalls mid-stream, B finishes first. B's final
	// update names its own id and must land on B, not on the earlier
	// still-streaming A.
	idA := newID()
	c.Send(ctx, StreamUpdate{MessageID: idA, Streaming: true}, lease)
	c.Send(ctx, StreamUpdate{MessageID: idA, Text: "A partial", Streaming: true, Replace: true}, lease)

	idB := newID()
	c.Send(ctx, StreamUpdate{MessageID: idB, Streaming: true}, lease)
	c.Send(ctx, StreamUpdate{MessageID: idB, Text: "B final", Replace: true}, lease)

	active := c.Active()
	require.Len(t, active.ChatHistory, 3)
	require.Equal(t, "A partial", active.ChatHistory[1].Text)
	require.True(t, active.ChatHistory[1].IsStreaming, "stalled stream stays open")
	require.Equal(t, "B final", active.ChatHistory[2].Text)
	require.False(t, active.ChatHistory[2].IsStreaming)
}

func TestUpdateFallsBackToStreamingMessage(t *testing.T) {
	remote := &fakeRemote{}
	c, _ := newTestController(t, remote)
	signIn(c)
	ctx := context.Background()

	lease := c.Send(ctx, NewText{Text: "Hello"}, nil)
	c.Send(ctx, StreamUpdate{MessageID: newID(), Streaming: true}, lease)

	// An update whose id matches nothing still lands on the message that is
	// currently streaming.
	c.Send(ctx, StreamUpdate{MessageID: newID(), Text: "routed", Streaming: true, Replace: true}, lease)

	active := c.Active()
	require.Equal(t, "routed", active.ChatHistory[1].Text)
}

func TestAssistantNoticeNeverPersists(t *testing.T) {
	remote := &fakeRemote{}
	c, _ := newTestController(t, remote)
	signIn(c)
	ctx := context.Background()

	lease := c.Send(ctx, NewText{Text: "Hello"}, nil)
	require.Len(t, remote.saves, 1)

	c.AddMessage(ctx, lease.ID, model.Message{
		ID:     newID(),
		Sender: model.SenderAI,
		Text:   connectionErrorText,
	}, false)

	require.Len(t, remote.saves, 1, "appended assistant notice stays local")
	require.Len(t, c.Active().ChatHistory, 2)
}

func TestBootstrapReplacesCachedListFromServer(t *testing.T) {
	civic := model.Lease{
		ID:      7,
		CarName: "Honda Civic",
		Summary: model.Summary{"monthlyPayment": float64(320)},
	}
	remote := &fakeRemote{
		LeasesFunc: func(ctx context.Context, userID int) ([]model.Lease, error) {
			if userID != 42 {
				return nil, errors.New("unknown user")
			}
			return []model.Lease{civic}, nil
		},
	}
	c, local := newTestController(t, remote)

	require.NoError(t, local.Set(keySession, model.User{ID: 42, Name: "Dana"}))
	require.NoError(t, local.Set(keyToken, "tok"))
	require.NoError(t, local.Set(keyHistory, []model.Lease{{ID: 7, CarName: "stale"}, {ID: 9, CarName: "gone"}}))
	require.NoError(t, local.Set(keyActiveID, int64(7)))

	c.Bootstrap(context.Background())

	list := c.Leases()
	require.Len(t, list, 1)
	require.Equal(t, "Honda Civic", list[0].CarName)

	active := c.Active()
	require.NotNil(t, active)
	require.Equal(t, int64(7), active.ID)
	require.Equal(t, "320", active.Summary.String("monthlyPayment"))
	require.Equal(t, "tok", c.Token())
}

func TestBootstrapKeepsCacheWhenServerUnreachable(t *testing.T) {
	remote := &fakeRemote{
		LeasesFunc: func(ctx context.Context, userID int) ([]model.Lease, error) {
			return nil, errors.New("connection refused")
		},
	}
	c, local := newTestController(t, remote)

	require.NoError(t, local.Set(keySession, model.User{ID: 42}))
	require.NoError(t, local.Set(keyHistory, []model.Lease{{ID: 5, CarName: "Cached"}}))

	c.Bootstrap(context.Background())

	list := c.Leases()
	require.Len(t, list, 1)
	require.Equal(t, "Cached", list[0].CarName)
}

func TestBootstrapClearsActiveMissingFromServer(t *testing.T) {
	remote := &fakeRemote{
		LeasesFunc: func(ctx context.Context, userID int) ([]model.Lease, error) {
			return []model.Lease{{ID: 1, CarName: "Only"}}, nil
		},
	}
	c, local := newTestController(t, remote)

	require.NoError(t, local.Set(keySession, model.User{ID: 42}))
	require.NoError(t, local.Set(keyActiveID, int64(999)))

	c.Bootstrap(context.Background())
	require.Nil(t, c.Active())
}

func TestDeleteIsOptimistic(t *testing.T) {
	remote := &fakeRemote{deleteErr: errors.New("server down")}
	c, _ := newTestController(t, remote)
	signIn(c)
	ctx := context.Background()

	lease := c.Send(ctx, NewText{Text: "Hello"}, nil)
	require.NotNil(t, c.Active())

	c.Delete(ctx, lease.ID)

	require.Empty(t, c.Leases(), "removed locally even though the server failed")
	require.Nil(t, c.Active())
	require.Equal(t, []int64{lease.ID}, remote.deletes)
}

func TestMergeUploadResultDerivesTitle(t *testing.T) {
	remote := &fakeRemote{}
	c, _ := newTestController(t, remote)
	signIn(c)
	ctx := context.Background()

	c.Send(ctx, FileAttachment{FileName: "scan-001.pdf"}, nil)

	merged := c.MergeUploadResult(ctx, "srv-scan-001.pdf", "scan-001.pdf", model.Summary{
		"make":  "Honda",
		"model": "Civic",
		"vin":   "1HGEX0123",
	})
	require.NotNil(t, merged)
	require.Equal(t, "Honda Civic", merged.CarName)
	require.Equal(t, "srv-scan-001.pdf", merged.ServerFilename)
	require.Equal(t, "Honda", merged.Summary.String("make"))

	merged = c.MergeUploadResult(ctx, "srv.pdf", "scan-001.pdf", model.Summary{"vin": "1HGEX0123"})
	require.Equal(t, "1HGEX0123", merged.CarName)

	merged = c.MergeUploadResult(ctx, "srv.pdf", "scan-001.pdf", model.Summary{})
	require.Equal(t, "scan-001", merged.CarName)
}

func TestLogoutClearsSessionAndHistory(t *testing.T) {
	remote := &fakeRemote{}
	c, local := newTestController(t, remote)
	signIn(c)
	ctx := context.Background()

	c.Send(ctx, NewText{Text: "my private lease question"}, nil)
	c.Logout()

	require.Nil(t, c.User())
	require.Empty(t, c.Token())
	require.Empty(t, c.Leases())
	require.Nil(t, c.Active())
	require.Equal(t, DefaultView, c.View())

	var user model.User
	ok, err := local.Get(keySession, &user)
	require.NoError(t, err)
	require.False(t, ok, "session key removed")

	var cached []model.Lease
	ok, err = local.Get(keyHistory, &cached)
	require.NoError(t, err)
	require.False(t, ok, "conversation cache removed")

	// The next process on this machine must see nothing of the old session.
	c2 := New(local, remote, logger.Nop())
	c2.Bootstrap(ctx)
	require.Nil(t, c2.User())
	require.Empty(t, c2.Leases())
}

func TestNoRemoteWritesWithoutUser(t *testing.T) {
	remote := &fakeRemote{}
	c, _ := newTestController(t, remote)

	lease := c.Send(context.Background(), NewText{Text: "Hello"}, nil)
	require.NotNil(t, lease)
	require.Empty(t, remote.saves)
}

func TestNewIDMonotonic(t *testing.T) {
	a := newID()
	b := newID()
	require.Greater(t, b, a)
}
