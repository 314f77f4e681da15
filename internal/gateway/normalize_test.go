package gateway

import (
	"strings"
	"testing"

	"github.com/omniagentpay/application-layer-sub001/internal/domain"
)

func TestNormalizeSuccess(t *testing.T) {
	res := Normalize(map[string]any{
		"status":      "success",
		"tx_hash":     "0xdeadbeefcafe",
		"transfer_id": "9f1b2a3c-0000-1111-2222-333344445555",
	}, "ethereum")

	if !res.Success || res.Status != domain.ExecutionSucceeded {
		t.Fatalf("expected succeeded result, got %+v", res)
	}
	if res.TxHash != "0xdeadbeefcafe" {
		t.Fatalf("unexpected tx hash %q", res.TxHash)
	}
	if res.CircleTransferID != "9f1b2a3c-0000-1111-2222-333344445555" {
		t.Fatalf("unexpected transfer id %q", res.CircleTransferID)
	}
	if !strings.Contains(res.ExplorerURL, "etherscan.io/tx/0xdeadbeefcafe") {
		t.Fatalf("unexpected explorer url %q", res.ExplorerURL)
	}
}

func TestNormalizeFieldPriority(t *testing.T) {
	t.Run("tx_hash wins over blockchain_tx", func(t *testing.T) {
		res := Normalize(map[string]any{
			"status":        "success",
			"tx_hash":       "0xaaa111",
			"blockchain_tx": "0xbbb222",
		}, "base")
		if res.TxHash != "0xaaa111" {
			t.Fatalf("priority order violated: %q", res.TxHash)
		}
	})

	t.Run("blockchain_tx used when no explicit hash", func(t *testing.T) {
		res := Normalize(map[string]any{
			"status":        "success",
			"blockchain_tx": "0xbbb222",
		}, "base")
		if res.TxHash != "0xbbb222" {
			t.Fatalf("fallback field ignored: %q", res.TxHash)
		}
	})

	t.Run("transfer_id wins over id", func(t *testing.T) {
		res := Normalize(map[string]any{
			"status":      "success",
			"transfer_id": "transfer-1",
			"id":          "generic-1",
		}, "base")
		if res.CircleTransferID != "transfer-1" {
			t.Fatalf("transfer id priority violated: %q", res.CircleTransferID)
		}
	})
}

func TestNormalizeExplorerURLOnlyForGenuineHashes(t *testing.T) {
	t.Run("gateway UUID never builds an explorer link", func(t *testing.T) {
		res := Normalize(map[string]any{
			"status":  "success",
			"tx_hash": "9f1b2a3c-0000-1111-2222-333344445555",
		}, "ethereum")
		if res.ExplorerURL != "" {
			t.Fatalf("UUID produced explorer url %q", res.ExplorerURL)
		}
	})

	t.Run("64 hex chars without prefix builds one", func(t *testing.T) {
		hash := strings.Repeat("ab", 32)
		res := Normalize(map[string]any{"status": "success", "tx_hash": hash}, "polygon")
		if res.ExplorerURL == "" {
			t.Fatal("genuine hash produced no explorer url")
		}
	})

	t.Run("unknown chain falls back to generic explorer", func(t *testing.T) {
		res := Normalize(map[string]any{"status": "success", "tx_hash": "0xdead"}, "unknownchain")
		if !strings.Contains(res.ExplorerURL, "blockscan.com/tx/0xdead") {
			t.Fatalf("unexpected explorer url %q", res.ExplorerURL)
		}
	})
}

func TestNormalizeFailure(t *testing.T) {
	t.Run("message passes through", func(t *testing.T) {
		res := Normalize(map[string]any{"status": "failed", "message": "insufficient balance"}, "ethereum")
		if res.Success || res.Status != domain.ExecutionFailed {
			t.Fatalf("expected failed result, got %+v", res)
		}
		if res.Error != "insufficient balance" {
			t.Fatalf("message lost: %q", res.Error)
		}
	})

	t.Run("wallet lookup failure is rewritten to guidance", func(t *testing.T) {
		res := Normalize(map[string]any{"status": "failed", "message": "wallet abc not found"}, "ethereum")
		if !strings.Contains(res.Error, "wrong wallet format") {
			t.Fatalf("expected guided message, got %q", res.Error)
		}
		if !strings.Contains(res.Error, "wallet abc not found") {
			t.Fatalf("original message dropped: %q", res.Error)
		}
	})

	t.Run("missing message gets a default", func(t *testing.T) {
		res := Normalize(map[string]any{"status": "failed"}, "ethereum")
		if res.Error == "" {
			t.Fatal("expected a default error message")
		}
	})
}

func TestNormalizeSuccessShapes(t *testing.T) {
	cases := map[string]map[string]any{
		"boolean success": {"success": true},
		"status succeeded": {"status": "succeeded"},
		"status complete":  {"status": "complete"},
		"status confirmed": {"status": "confirmed"},
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			if res := Normalize(payload, "base"); !res.Success {
				t.Fatalf("shape %v not recognized as success", payload)
			}
		})
	}
	if res := Normalize(map[string]any{"success": false, "status": "success"}, "base"); res.Success {
		t.Fatal("explicit success=false must win over status text")
	}
}
