/*
payments.go - Payment lifecycle outside the waterfall

PURPOSE:
  Deletion, receipt issuance, and statistics. Each mutation re-invokes
  the recomputation unit on the touched statement so derived state never
  drifts from payment history.
*/
package ledger

import (
	"context"
	"fmt"
	"log"
	"time"
)

// DeletePayment removes a payment and recomputes its former statement.
// Payments with receipts cannot be deleted; the receipts go first.
func (e *Engine) DeletePayment(ctx context.Context, id PaymentID) error {
	p, err := e.store.GetPayment(ctx, id)
	if err != nil {
		return err
	}
	if p == nil {
		return &NotFoundError{Sentinel: ErrPaymentNotFound, ID: string(id)}
	}

	receipts, err := e.store.ListReceiptsByPayment(ctx, id)
	if err != nil {
		return err
	}
	if len(receipts) > 0 {
		return ErrPaymentHasReceipts
	}

	defer e.locks.acquire(p.StudentID)()

	if err := e.store.DeletePayment(ctx, id); err != nil {
		return fmt.Errorf("delete payment %s: %w", id, err)
	}

	// The statement may already be gone (period removed out of band);
	// deletion still succeeded.
	if _, err := e.Recompute(ctx, p.StatementID); err != nil && !IsNotFound(err) {
		return err
	}
	log.Printf("[PAYMENTS] deleted payment %s (%s), statement %s recomputed", id, p.Reference, p.StatementID)
	return nil
}

// RecordReceipt issues a receipt for a payment, marks the payment
// completed, and recomputes its statement.
func (e *Engine) RecordReceipt(ctx context.Context, paymentID PaymentID, amount Money, method string, paidAt time.Time, description string) (*Receipt, *Payment, error) {
	p, err := e.store.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, nil, err
	}
	if p == nil {
		return nil, nil, &NotFoundError{Sentinel: ErrPaymentNotFound, ID: string(paymentID)}
	}
	if !amount.IsPositive() {
		return nil, nil, ErrInvalidAmount
	}

	defer e.locks.acquire(p.StudentID)()

	number, err := e.nextReceiptNumber(ctx)
	if err != nil {
		return nil, nil, err
	}
	if paidAt.IsZero() {
		paidAt = nowUTC()
	}

	r := Receipt{
		ID:          ReceiptID(newID()),
		Number:      number,
		StudentID:   p.StudentID,
		PaymentID:   p.ID,
		Amount:      amount,
		Method:      method,
		IssuedAt:    paidAt,
		Description: description,
	}
	if err := e.store.CreateReceipt(ctx, r); err != nil {
		return nil, nil, fmt.Errorf("create receipt %s: %w", number, err)
	}

	p.Status = PaymentCompleted
	p.PaidAt = paidAt
	if err := e.store.UpdatePayment(ctx, *p); err != nil {
		return nil, nil, fmt.Errorf("complete payment %s: %w", p.ID, err)
	}

	if _, err := e.Recompute(ctx, p.StatementID); err != nil && !IsNotFound(err) {
		return nil, nil, err
	}
	return &r, p, nil
}

// PaymentStats aggregates payment counts by status and total amounts.
type PaymentStats struct {
	Total       int
	Completed   int
	Pending     int
	Failed      int
	Cancelled   int
	TotalAmount Money
}

func (e *Engine) PaymentStats(ctx context.Context) (*PaymentStats, error) {
	payments, err := e.store.ListPayments(ctx)
	if err != nil {
		return nil, err
	}

	stats := &PaymentStats{Total: len(payments), TotalAmount: ZeroMoney()}
	for _, p := range payments {
		switch p.Status {
		case PaymentCompleted:
			stats.Completed++
		case PaymentPending:
			stats.Pending++
		case PaymentFailed:
			stats.Failed++
		case PaymentCancelled:
			stats.Cancelled++
		}
		stats.TotalAmount = stats.TotalAmount.Add(p.Amount)
	}
	return stats, nil
}
