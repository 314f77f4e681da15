package domain

import (
	"regexp"
	"time"
)

type ExecutionStatus string

const (
	ExecutionSucceeded ExecutionStatus = "succeeded"
	ExecutionFailed    ExecutionStatus = "failed"
)

// ExecutionResult is the canonical outcome of a payment-backend call. It is
// derived, never stored on its own; the owning intent absorbs its fields.
type ExecutionResult struct {
	Success             bool            `json:"success"`
	TxHash              string          `json:"tx_hash,omitempty"`
	CircleTransferID    string          `json:"circle_transfer_id,omitempty"`
	CircleTransactionID string          `json:"circle_transaction_id,omitempty"`
	ExplorerURL         string          `json:"explorer_url,omitempty"`
	Status              ExecutionStatus `json:"status"`
	Error               string          `json:"error,omitempty"`
}

var (
	onChainHashRe = regexp.MustCompile(`^(0x[0-9a-fA-F]+|[0-9a-fA-F]{64})$`)
	externalSigRe = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)
)

// IsOnChainHash reports whether s looks like a genuine blockchain transaction
// hash. Gateway-internal identifiers (UUIDs and the like) never match.
func IsOnChainHash(s string) bool {
	return s != "" && onChainHashRe.MatchString(s)
}

// IsExternallySignedWallet reports whether the wallet reference is an
// externally-signed wallet address rather than a custodial wallet id.
// Externally-signed wallets need a human in the loop and must never reach
// unattended execution.
func IsExternallySignedWallet(ref string) bool {
	return externalSigRe.MatchString(ref)
}

// MergeExecution folds a normalized execution result into the intent.
// Populated fields are never overwritten by absent ones, and a genuine
// on-chain tx hash is never clobbered by a lesser-quality identifier.
func (p *PaymentIntent) MergeExecution(res ExecutionResult, at time.Time) {
	if res.TxHash != "" {
		if !IsOnChainHash(p.TxHash) || IsOnChainHash(res.TxHash) {
			p.TxHash = res.TxHash
			p.BlockchainTxHash = res.TxHash
			p.SetMeta("tx_hash", res.TxHash)
		}
	}
	if res.CircleTransferID != "" {
		p.CircleTransferID = res.CircleTransferID
		p.SetMeta("circle_transfer_id", res.CircleTransferID)
	}
	if res.CircleTransactionID != "" {
		p.CircleTransactionID = res.CircleTransactionID
		p.SetMeta("circle_transaction_id", res.CircleTransactionID)
	}
	if res.ExplorerURL != "" {
		p.ExplorerURL = res.ExplorerURL
		p.SetMeta("explorer_url", res.ExplorerURL)
	}
	if res.Error != "" {
		p.SetMeta("execution_error", res.Error)
	}
	executedAt := at
	p.ExecutedAt = &executedAt
	if res.Success {
		p.Status = IntentSucceeded
	} else {
		p.Status = IntentFailed
	}
}
