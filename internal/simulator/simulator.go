// Package simulator implements the scripted dealer negotiation simulator.
//
// Replies come from a small decision table keyed by thread and message
// keywords. The table is evaluated top to bottom and the first matching
// branch wins. Threads are fully isolated: thread-2 plays a competing dealer
// comparing offers, every other thread plays the primary dealer.
package simulator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/leaseiq/leaseiq/internal/llm"
	"github.com/leaseiq/leaseiq/internal/model"
	"github.com/leaseiq/leaseiq/pkg/logger"
	"github.com/leaseiq/leaseiq/pkg/metrics"
)

// CompetitorThreadID is the thread that negotiates against other dealers'
// quotes; all other thread ids get the primary dealer script.
const CompetitorThreadID = "thread-2"

// LeaseLookup resolves the lease a negotiation refers to.
type LeaseLookup interface {
	LeaseByID(ctx context.Context, id int64) (*model.Lease, error)
}

// Reply is a simulator response together with the branch that produced it,
// for metrics and the audit stream.
type Reply struct {
	Text   string
	Branch string
}

type branch struct {
	name     string
	keywords []string
	render   func(carName, paymentText string) string
}

var competitorBranches = []branch{
	{
		name:     "competitor",
		keywords: []string{"match", "better", "beat"},
		render: func(carName, paymentText string) string {
			return fmt.Sprintf("If you have a written quote for that %s, send it over. If your %s is real, I'll do my best to beat it by at least $10-$15 a month.", carName, paymentText)
		},
	},
	{
		name:     "pricing",
		keywords: []string{"discount", "cheaper"},
		render: func(carName, paymentText string) string {
			return fmt.Sprintf("We are aggressive on our %s pricing right now. Since you're comparing offers, tell me the best number you've seen and I'll see if my manager can top it.", carName)
		},
	},
}

var primaryBranches = []branch{
	{
		name:     "payment",
		keywords: []string{"discount"},
		render: func(carName, paymentText string) string {
			return fmt.Sprintf("I understand budget is important for this %s. If we can get that %s down a bit, are you prepared to sign today?", carName, paymentText)
		},
	},
	{
		name:     "fees",
		keywords: []string{"fees"},
		render: func(carName, paymentText string) string {
			return fmt.Sprintf("The fees on the %s are standard, but let me see if I can waive the doc fee for you.", carName)
		},
	},
}

func genericCompetitorReply(carName string) string {
	return fmt.Sprintf("I want to win your business on this %s. What would it take for you to stop shopping and sign with me today?", carName)
}

func genericPrimaryReply(carName string) string {
	return fmt.Sprintf("Regarding your request for the %s, let me check with my manager and get back to you.", carName)
}

// Engine routes simulator messages through the decision table, with an
// optional LLM fallback for messages no branch matches.
type Engine struct {
	leases LeaseLookup
	llm    llm.Client
	logger *logger.Logger
}

// New creates a simulator engine. llmClient may be nil; the generic canned
// replies are used instead.
func New(leases LeaseLookup, llmClient llm.Client, log *logger.Logger) *Engine {
	return &Engine{leases: leases, llm: llmClient, logger: log}
}

// Respond produces the dealer reply for one message.
func (e *Engine) Respond(ctx context.Context, req *model.SimulatorChatRequest) (*Reply, error) {
	carName := "this vehicle"
	paymentText := "monthly payment"

	lease, err := e.leases.LeaseByID(ctx, req.FileID)
	if err == nil && lease != nil {
		if lease.CarName != "" {
			carName = lease.CarName
		}
		if monthly := lease.Summary.String("monthlyPayment"); monthly != "" {
			paymentText = fmt.Sprintf("%s payment", monthly)
		}
	} else if err != nil {
		// An unknown lease id still gets a reply; the templates fall back to
		// their generic vehicle wording.
		e.logger.Debug("simulator lease lookup failed",
			zap.Int64("file_id", req.FileID), zap.Error(err))
	}

	msg := strings.ToLower(req.Message)
	table := primaryBranches
	if req.ThreadID == CompetitorThreadID {
		table = competitorBranches
	}

	for _, b := range table {
		for _, kw := range b.keywords {
			if strings.Contains(msg, kw) {
				metrics.RecordSimulatorReply(req.ThreadID, b.name)
				return &Reply{Text: b.render(carName, paymentText), Branch: b.name}, nil
			}
		}
	}

	if reply := e.llmFallback(ctx, req, carName, paymentText); reply != nil {
		return reply, nil
	}

	metrics.RecordSimulatorReply(req.ThreadID, "generic")
	if req.ThreadID == CompetitorThreadID {
		return &Reply{Text: genericCompetitorReply(carName), Branch: "generic"}, nil
	}
	return &Reply{Text: genericPrimaryReply(carName), Branch: "generic"}, nil
}

func (e *Engine) llmFallback(ctx context.Context, req *model.SimulatorChatRequest, carName, paymentText string) *Reply {
	if e.llm == nil {
		return nil
	}

	persona := "primary dealer for the customer's current offer"
	if req.ThreadID == CompetitorThreadID {
		persona = "competing dealer trying to win the customer away"
	}

	start := time.Now()
	resp, err := e.llm.Complete(ctx, &llm.CompletionRequest{
		System: fmt.Sprintf(
			"You are a car dealership salesperson playing the %s in a lease negotiation training simulator. The vehicle is %s and the customer's %s is under discussion. Reply in at most three sentences, staying in character.",
			persona, carName, paymentText),
		Messages:  []llm.ChatMessage{{Role: "user", Content: req.Message}},
		MaxTokens: 256,
	})
	if err != nil {
		metrics.RecordLLMFallback(e.llm.Name(), "error", time.Since(start).Seconds())
		e.logger.Warn("simulator LLM fallback failed", zap.Error(err))
		return nil
	}

	metrics.RecordLLMFallback(e.llm.Name(), "success", time.Since(start).Seconds())
	metrics.RecordSimulatorReply(req.ThreadID, "llm")
	return &Reply{Text: resp.Content, Branch: "llm"}
}
