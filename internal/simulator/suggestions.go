package simulator

import "github.com/leaseiq/leaseiq/internal/model"

// OpeningMessage is the canned dealer greeting for a thread.
func OpeningMessage(threadID string) string {
	if threadID == CompetitorThreadID {
		return "Hi, I can help you compare our offer with other dealers. Select a question or type your own."
	}
	return "Hi, how can I help you with the following questions? Please pick one or type your question."
}

var suggestionCatalog = map[string][]model.Suggestion{
	"thread-1": {
		{ID: "a-q1", Question: "What are the lease terms for this offer?", Answer: "For this vehicle, the lease is 36 months, 10k miles per year, at $350 per month with standard fees."},
		{ID: "a-q2", Question: "Can I reduce the monthly payment with a higher down payment?", Answer: "Yes. If you put $2,000 down, we can bring the monthly payment close to $330, depending on credit approval."},
		{ID: "a-q3", Question: "Are there any hidden fees I should know about?", Answer: "Besides the monthly payment, there is a documentation fee, registration, and a disposition fee at the end of the lease."},
		{ID: "a-q4", Question: "Is maintenance included in this lease?", Answer: "Regular maintenance is not included by default, but we can add a maintenance package for a small additional monthly fee."},
	},
	"thread-2": {
		{ID: "b-q1", Question: "Can you match the price from another dealer?", Answer: "If you share the exact quote, we will do our best to match or beat their monthly payment and terms."},
		{ID: "b-q2", Question: "What mileage options do you offer?", Answer: "We typically offer 10k, 12k, and 15k miles per year. The monthly payment increases slightly as mileage goes up."},
		{ID: "b-q3", Question: "Can you explain the excess mileage charges?", Answer: "Extra miles are usually charged between 15-25 cents per mile, depending on the specific model and lease program."},
		{ID: "b-q4", Question: "Do you offer any loyalty or college grad discounts?", Answer: "Yes, we have loyalty and college graduate rebates that can lower your due-at-signing or monthly payment if you qualify."},
	},
}

// Suggestions returns the canned question catalog for a thread, nil when the
// thread has none.
func Suggestions(threadID string) []model.Suggestion {
	return suggestionCatalog[threadID]
}
