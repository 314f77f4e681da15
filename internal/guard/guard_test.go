package guard

import (
	"reflect"
	"testing"
	"time"

	"github.com/omniagentpay/application-layer-sub001/internal/domain"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func candidate(amount float64) *domain.PaymentIntent {
	return &domain.PaymentIntent{
		ID:       "pi_candidate",
		Amount:   amount,
		WalletID: "wallet-123",
		Metadata: domain.Metadata{"user_id": "user-1"},
	}
}

func ledgerIntent(id string, amount float64, status domain.IntentStatus, age time.Duration) domain.PaymentIntent {
	return domain.PaymentIntent{
		ID:        id,
		Amount:    amount,
		WalletID:  "wallet-123",
		Status:    status,
		Metadata:  domain.Metadata{"user_id": "user-1"},
		CreatedAt: testNow.Add(-age),
	}
}

func TestBudgetGuard(t *testing.T) {
	g := BudgetGuard{base: base{id: "g1", name: "budget"}, Limit: 3000, Period: domain.PeriodDay}

	t.Run("within budget passes", func(t *testing.T) {
		ledger := []domain.PaymentIntent{
			ledgerIntent("pi_1", 1000, domain.IntentSucceeded, time.Hour),
			ledgerIntent("pi_2", 500, domain.IntentApproved, 2*time.Hour),
		}
		res := g.Evaluate(candidate(1000), ledger, testNow)
		if !res.Passed {
			t.Fatalf("expected pass, got %+v", res)
		}
	})

	t.Run("over budget fails", func(t *testing.T) {
		ledger := []domain.PaymentIntent{
			ledgerIntent("pi_1", 2500, domain.IntentSucceeded, time.Hour),
		}
		res := g.Evaluate(candidate(1000), ledger, testNow)
		if res.Passed {
			t.Fatal("expected budget failure")
		}
		if res.Reason == "" {
			t.Fatal("expected a reason on failure")
		}
	})

	t.Run("blocked and failed intents do not count", func(t *testing.T) {
		ledger := []domain.PaymentIntent{
			ledgerIntent("pi_1", 2900, domain.IntentBlocked, time.Hour),
			ledgerIntent("pi_2", 2900, domain.IntentFailed, time.Hour),
		}
		res := g.Evaluate(candidate(1000), ledger, testNow)
		if !res.Passed {
			t.Fatalf("blocked/failed spend counted: %+v", res)
		}
	})

	t.Run("spend outside the period does not count", func(t *testing.T) {
		ledger := []domain.PaymentIntent{
			ledgerIntent("pi_old", 2900, domain.IntentSucceeded, 25*time.Hour),
		}
		res := g.Evaluate(candidate(1000), ledger, testNow)
		if !res.Passed {
			t.Fatalf("stale spend counted: %+v", res)
		}
	})

	t.Run("other wallets do not count", func(t *testing.T) {
		other := ledgerIntent("pi_other", 2900, domain.IntentSucceeded, time.Hour)
		other.WalletID = "wallet-999"
		res := g.Evaluate(candidate(1000), []domain.PaymentIntent{other}, testNow)
		if !res.Passed {
			t.Fatalf("foreign wallet spend counted: %+v", res)
		}
	})
}

func TestSingleTxGuard(t *testing.T) {
	g := SingleTxGuard{base: base{id: "g2", name: "single_tx"}, Limit: 2000}
	if res := g.Evaluate(candidate(2000), nil, testNow); !res.Passed {
		t.Fatalf("amount at limit should pass: %+v", res)
	}
	if res := g.Evaluate(candidate(2000.01), nil, testNow); res.Passed {
		t.Fatal("amount over limit should fail")
	}
}

func TestRateLimitGuard(t *testing.T) {
	g := RateLimitGuard{base: base{id: "g3", name: "rate_limit"}, Limit: 2, Period: domain.PeriodHour}

	ledger := []domain.PaymentIntent{
		ledgerIntent("pi_1", 10, domain.IntentSucceeded, 10*time.Minute),
	}
	if res := g.Evaluate(candidate(10), ledger, testNow); !res.Passed {
		t.Fatalf("one prior intent under limit 2 should pass: %+v", res)
	}

	ledger = append(ledger, ledgerIntent("pi_2", 10, domain.IntentCreated, 5*time.Minute))
	if res := g.Evaluate(candidate(10), ledger, testNow); res.Passed {
		t.Fatal("limit reached, expected failure")
	}

	t.Run("old intents roll out of the window", func(t *testing.T) {
		ledger := []domain.PaymentIntent{
			ledgerIntent("pi_1", 10, domain.IntentSucceeded, 2*time.Hour),
			ledgerIntent("pi_2", 10, domain.IntentSucceeded, 3*time.Hour),
		}
		if res := g.Evaluate(candidate(10), ledger, testNow); !res.Passed {
			t.Fatalf("expired intents counted: %+v", res)
		}
	})

	t.Run("anonymous actors are keyed by wallet", func(t *testing.T) {
		anon := func(id, wallet string) domain.PaymentIntent {
			it := ledgerIntent(id, 10, domain.IntentCreated, 5*time.Minute)
			it.Metadata = domain.Metadata{}
			it.WalletID = wallet
			return it
		}
		ledger := []domain.PaymentIntent{
			anon("pi_1", "wallet-aaa"),
			anon("pi_2", "wallet-aaa"),
		}
		cand := &domain.PaymentIntent{ID: "pi_candidate", Amount: 10, WalletID: "wallet-bbb", Metadata: domain.Metadata{}}
		if res := g.Evaluate(cand, ledger, testNow); !res.Passed {
			t.Fatalf("anonymous intents from another wallet counted: %+v", res)
		}

		cand.WalletID = "wallet-aaa"
		if res := g.Evaluate(cand, ledger, testNow); res.Passed {
			t.Fatal("same anonymous wallet over the limit should fail")
		}
	})

	t.Run("anonymous and authenticated buckets stay separate", func(t *testing.T) {
		authed := ledgerIntent("pi_1", 10, domain.IntentCreated, 5*time.Minute)
		authed.WalletID = "wallet-aaa"
		anon := ledgerIntent("pi_2", 10, domain.IntentCreated, 5*time.Minute)
		anon.Metadata = domain.Metadata{}
		anon.WalletID = "wallet-aaa"

		cand := &domain.PaymentIntent{ID: "pi_candidate", Amount: 10, WalletID: "wallet-aaa", Metadata: domain.Metadata{}}
		// Only the anonymous wallet-aaa intent shares the candidate's bucket.
		if res := g.Evaluate(cand, []domain.PaymentIntent{authed, anon}, testNow); !res.Passed {
			t.Fatalf("authenticated intent leaked into the anonymous bucket: %+v", res)
		}
	})
}

func TestAutoApproveGuardNeverFails(t *testing.T) {
	g := AutoApproveGuard{base: base{id: "g4", name: "auto_approve"}, Threshold: 100}
	under := g.Evaluate(candidate(50), nil, testNow)
	over := g.Evaluate(candidate(500), nil, testNow)
	if !under.Passed || !over.Passed {
		t.Fatal("auto_approve must never fail")
	}
	if !g.AutoApproved(candidate(100)) {
		t.Fatal("amount at threshold should auto-approve")
	}
	if g.AutoApproved(candidate(100.01)) {
		t.Fatal("amount over threshold must not auto-approve")
	}
}

func TestEvaluateRunsAllGuards(t *testing.T) {
	guards := []Guard{
		SingleTxGuard{base: base{id: "g2", name: "single_tx"}, Limit: 50},
		BudgetGuard{base: base{id: "g1", name: "budget"}, Limit: 10, Period: domain.PeriodDay},
		AutoApproveGuard{base: base{id: "g4", name: "auto_approve"}, Threshold: 1000},
	}
	out := Evaluate(candidate(100), guards, nil, testNow)
	if out.Allowed {
		t.Fatal("expected blocked outcome")
	}
	// No short-circuit: the caller always gets the complete reason set.
	if len(out.Results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(out.Results))
	}
	failed := 0
	for _, r := range out.Results {
		if !r.Passed {
			failed++
		}
	}
	if failed != 2 {
		t.Fatalf("expected 2 failed guards, got %d", failed)
	}
	if !out.AutoApproved {
		t.Fatal("amount under auto-approve threshold")
	}
}

func TestEvaluateDeterministic(t *testing.T) {
	guards := []Guard{
		BudgetGuard{base: base{id: "g1", name: "budget"}, Limit: 3000, Period: domain.PeriodDay},
		SingleTxGuard{base: base{id: "g2", name: "single_tx"}, Limit: 2000},
	}
	ledger := []domain.PaymentIntent{
		ledgerIntent("pi_1", 1200, domain.IntentSucceeded, time.Hour),
	}
	first := Evaluate(candidate(700), guards, ledger, testNow)
	second := Evaluate(candidate(700), guards, ledger, testNow)
	if first.Allowed != second.Allowed || !reflect.DeepEqual(first.Results, second.Results) {
		t.Fatalf("re-evaluation diverged: %+v vs %+v", first, second)
	}
}

func TestFromConfig(t *testing.T) {
	cases := []struct {
		name    string
		cfg     domain.GuardConfig
		wantErr bool
	}{
		{"budget", domain.GuardConfig{ID: "a", Type: domain.GuardBudget, Limit: 100, Period: domain.PeriodDay}, false},
		{"single_tx", domain.GuardConfig{ID: "b", Type: domain.GuardSingleTx, Limit: 100}, false},
		{"rate_limit", domain.GuardConfig{ID: "c", Type: domain.GuardRateLimit, Limit: 5, Period: domain.PeriodHour}, false},
		{"auto_approve", domain.GuardConfig{ID: "d", Type: domain.GuardAutoApprove, Threshold: 10}, false},
		{"zero budget limit", domain.GuardConfig{ID: "e", Type: domain.GuardBudget}, true},
		{"unknown type", domain.GuardConfig{ID: "f", Type: "velocity"}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := FromConfig(tc.cfg)
			if (err != nil) != tc.wantErr {
				t.Fatalf("FromConfig(%s): err=%v wantErr=%v", tc.name, err, tc.wantErr)
			}
		})
	}
}
