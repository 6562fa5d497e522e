package simulator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/leaseiq/leaseiq/internal/model"
	"github.com/leaseiq/leaseiq/pkg/logger"
)

type fakeLeases struct {
	lease *model.Lease
}

func (f *fakeLeases) LeaseByID(ctx context.Context, id int64) (*model.Lease, error) {
	if f.lease == nil || f.lease.ID != id {
		return nil, errors.New("not found")
	}
	return f.lease, nil
}

func civicLookup() *fakeLeases {
	return &fakeLeases{lease: &model.Lease{
		ID:      7,
		CarName: "Honda Civic",
		Summary: model.Summary{"monthlyPayment": float64(320)},
	}}
}

func respond(t *testing.T, leases LeaseLookup, threadID, message string) *Reply {
	t.Helper()
	e := New(leases, nil, logger.Nop())
	reply, err := e.Respond(context.Background(), &model.SimulatorChatRequest{
		Message:  message,
		FileID:   7,
		ThreadID: threadID,
	})
	require.NoError(t, err)
	return reply
}

func TestCompetitorMatchBranch(t *testing.T) {
	reply := respond(t, civicLookup(), "thread-2", "Can you match this offer from another dealer?")
	require.Equal(t, "competitor", reply.Branch)
	require.Equal(t,
		"If you have a written quote for that Honda Civic, send it over. If your 320 payment is real, I'll do my best to beat it by at least $10-$15 a month.",
		reply.Text)
}

func TestCompetitorBeatKeyword(t *testing.T) {
	reply := respond(t, civicLookup(), "thread-2", "Could you BEAT their price?")
	require.Equal(t, "competitor", reply.Branch)
}

func TestCompetitorPricingBranch(t *testing.T) {
	reply := respond(t, civicLookup(), "thread-2", "Any discount available?")
	require.Equal(t, "pricing", reply.Branch)
	require.Contains(t, reply.Text, "aggressive on our Honda Civic pricing")
}

func TestPrimaryDiscountBranch(t *testing.T) {
	reply := respond(t, civicLookup(), "thread-1", "Is there a discount?")
	require.Equal(t, "payment", reply.Branch)
	require.Equal(t,
		"I understand budget is important for this Honda Civic. If we can get that 320 payment down a bit, are you prepared to sign today?",
		reply.Text)
}

func TestPrimaryFeesBranch(t *testing.T) {
	reply := respond(t, civicLookup(), "thread-1", "What about the fees?")
	require.Equal(t, "fees", reply.Branch)
	require.Contains(t, reply.Text, "waive the doc fee")
}

func TestThreadIsolation(t *testing.T) {
	// "match" means nothing to the primary dealer; it falls through to the
	// generic manager line instead of the competitor quote branch.
	reply := respond(t, civicLookup(), "thread-1", "Can you match it?")
	require.Equal(t, "generic", reply.Branch)
	require.Contains(t, reply.Text, "check with my manager")
}

func TestGenericCompetitorReply(t *testing.T) {
	reply := respond(t, civicLookup(), "thread-2", "Tell me about yourself")
	require.Equal(t, "generic", reply.Branch)
	require.Contains(t, reply.Text, "win your business on this Honda Civic")
}

func TestUnknownLeaseFallsBackToGenericWording(t *testing.T) {
	reply := respond(t, &fakeLeases{}, "thread-1", "Is there a discount?")
	require.Equal(t, "payment", reply.Branch)
	require.Equal(t,
		"I understand budget is important for this this vehicle. If we can get that monthly payment down a bit, are you prepared to sign today?",
		reply.Text)
}

func TestMissingMonthlyPaymentUsesGenericPaymentText(t *testing.T) {
	leases := &fakeLeases{lease: &model.Lease{ID: 7, CarName: "Honda Civic"}}
	reply := respond(t, leases, "thread-2", "beat it")
	require.Contains(t, reply.Text, "If your monthly payment is real")
}
