/*
refseq.go - Payment and receipt reference codes

PURPOSE:
  Formats the human-readable reference codes stamped on payments and
  receipts: "FEE-000123", "RCP-000042". Codes are unique and strictly
  increasing across the whole store.

HARDENING NOTE:
  The sequence lives in the store (SequenceStore.NextSequence), which
  increments atomically. An earlier design kept an in-process counter
  seeded from the latest payment's reference; two concurrent payment
  requests could race between "read last reference" and "write new
  payment" and mint duplicate codes. That design is deliberately not
  reproduced here - the counter is a store-side critical section.

SEE ALSO:
  - store.go: SequenceStore contract
  - store/sqlite: Atomic UPDATE-based implementation
*/
package ledger

import (
	"context"
	"fmt"
)

// Sequence names, shared with store implementations that pre-seed
// counters from existing reference codes.
const (
	PaymentSequenceName = "fee_payment"
	ReceiptSequenceName = "receipt"
)

const (
	paymentRefPrefix = "FEE"
	receiptRefPrefix = "RCP"
)

func formatReference(prefix string, n uint64) string {
	return fmt.Sprintf("%s-%06d", prefix, n)
}

// nextPaymentReference mints the next FEE-NNNNNN code.
func (e *Engine) nextPaymentReference(ctx context.Context) (string, error) {
	n, err := e.store.NextSequence(ctx, PaymentSequenceName)
	if err != nil {
		return "", fmt.Errorf("payment reference: %w", err)
	}
	return formatReference(paymentRefPrefix, n), nil
}

// nextReceiptNumber mints the next RCP-NNNNNN code.
func (e *Engine) nextReceiptNumber(ctx context.Context) (string, error) {
	n, err := e.store.NextSequence(ctx, ReceiptSequenceName)
	if err != nil {
		return "", fmt.Errorf("receipt number: %w", err)
	}
	return formatReference(receiptRefPrefix, n), nil
}
