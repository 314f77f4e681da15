package guard

import (
	"time"

	"github.com/omniagentpay/application-layer-sub001/internal/domain"
)

// Outcome is the full verdict of one evaluation pass.
type Outcome struct {
	Allowed      bool
	AutoApproved bool
	Results      []domain.GuardResult
}

// Evaluate runs every guard against the candidate. All guards run with no
// short-circuit so callers always get the complete reason set; AND semantics
// apply except for auto_approve, which is informational. The pass is pure
// aside from reading the ledger snapshot.
func Evaluate(candidate *domain.PaymentIntent, guards []Guard, ledger []domain.PaymentIntent, now time.Time) Outcome {
	out := Outcome{Allowed: true, Results: make([]domain.GuardResult, 0, len(guards))}
	for _, g := range guards {
		res := g.Evaluate(candidate, ledger, now)
		out.Results = append(out.Results, res)
		if aa, ok := g.(AutoApproveGuard); ok {
			out.AutoApproved = aa.AutoApproved(candidate)
			continue
		}
		if !res.Passed {
			out.Allowed = false
		}
	}
	return out
}
