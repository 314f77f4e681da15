package gateway

import (
	"fmt"
	"strings"

	"github.com/omniagentpay/application-layer-sub001/internal/domain"
)

// Field-priority tables for the backend's heterogeneous response shapes.
// Order matters: the first populated field wins. Gateway-internal transfer
// and transaction ids are extracted separately and are never a substitute
// for a real transaction hash.
var (
	txHashFields        = []string{"tx_hash", "txHash", "transaction_hash", "blockchain_tx"}
	transferIDFields    = []string{"transfer_id", "transferId", "id"}
	transactionIDFields = []string{"transaction_id", "transactionId"}
	messageFields       = []string{"message", "error", "detail"}
)

var successStatuses = map[string]bool{
	"success":   true,
	"succeeded": true,
	"complete":  true,
	"completed": true,
	"confirmed": true,
}

var explorerBases = map[string]string{
	"ethereum":  "https://etherscan.io/tx/",
	"base":      "https://basescan.org/tx/",
	"arbitrum":  "https://arbiscan.io/tx/",
	"optimism":  "https://optimistic.etherscan.io/tx/",
	"polygon":   "https://polygonscan.com/tx/",
	"avalanche": "https://snowtrace.io/tx/",
}

// Normalize maps a raw backend response into the canonical execution result.
// The explorer URL is built only when the extracted hash looks like a genuine
// on-chain hash; gateway UUIDs never produce one.
func Normalize(payload map[string]any, chain string) domain.ExecutionResult {
	if isSuccess(payload) {
		res := domain.ExecutionResult{
			Success:             true,
			Status:              domain.ExecutionSucceeded,
			TxHash:              firstString(payload, txHashFields),
			CircleTransferID:    firstString(payload, transferIDFields),
			CircleTransactionID: firstString(payload, transactionIDFields),
		}
		if domain.IsOnChainHash(res.TxHash) {
			res.ExplorerURL = explorerURL(chain, res.TxHash)
		}
		return res
	}

	msg := firstString(payload, messageFields)
	if msg == "" {
		msg = "payment backend reported a failure"
	}
	if looksLikeWalletLookupFailure(msg) {
		msg = "wrong wallet format: the backend could not resolve the wallet reference. " +
			"Use the custodial wallet id issued by the payment backend, not an on-chain address (" + msg + ")"
	}
	return domain.ExecutionResult{
		Success: false,
		Status:  domain.ExecutionFailed,
		Error:   msg,
	}
}

func isSuccess(payload map[string]any) bool {
	if b, ok := payload["success"].(bool); ok {
		return b
	}
	if s, ok := payload["status"].(string); ok {
		return successStatuses[strings.ToLower(s)]
	}
	return false
}

func firstString(payload map[string]any, fields []string) string {
	for _, f := range fields {
		if v, ok := payload[f]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

// The dominant real-world failure is a caller passing an on-chain address
// where the backend expects its own wallet id; rewrite those messages into
// guidance.
func looksLikeWalletLookupFailure(msg string) bool {
	lower := strings.ToLower(msg)
	if !strings.Contains(lower, "wallet") {
		return false
	}
	for _, hint := range []string{"not found", "invalid", "lookup", "unknown", "does not exist"} {
		if strings.Contains(lower, hint) {
			return true
		}
	}
	return false
}

func explorerURL(chain, hash string) string {
	if base, ok := explorerBases[strings.ToLower(chain)]; ok {
		return base + hash
	}
	return fmt.Sprintf("https://blockscan.com/tx/%s", hash)
}
