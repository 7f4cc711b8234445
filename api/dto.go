/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *Request: Request body types from clients
  - *Response: Response types returned to clients

MONEY:
  Amounts arrive as JSON numbers on requests (what the bursar keys in) and
  leave as fixed-point decimal strings on responses so clients never see
  float artifacts.
*/
package api

import (
	"time"

	"github.com/clearledger/fee-engine/ledger"
)

// =============================================================================
// REQUESTS
// =============================================================================

type CreateStudentRequest struct {
	AdmissionNo string `json:"admissionNumber"`
	FullName    string `json:"fullName"`
	ClassID     string `json:"classId"`
	ClassName   string `json:"className"`
}

type ChangeClassRequest struct {
	ClassID string `json:"classId"`
}

type CreateTermRequest struct {
	AcademicYear string `json:"academicYear"`
	Term         string `json:"term"`
	StartDate    string `json:"startDate"` // RFC3339 or YYYY-MM-DD
	EndDate      string `json:"endDate"`
}

type CreateClassFeeRequest struct {
	ClassID   string  `json:"classId"`
	ClassName string  `json:"className"`
	Term      string  `json:"term"`
	Amount    float64 `json:"amount"`
}

type CreatePaymentRequest struct {
	StudentID    string  `json:"studentId"`
	StatementID  string  `json:"studentFeeStatementId,omitempty"`
	AcademicYear string  `json:"academicYear,omitempty"`
	Term         string  `json:"term,omitempty"`
	ClassFeeID   string  `json:"classFeeId,omitempty"`
	Amount       float64 `json:"amount,omitempty"`
	Method       string  `json:"paymentMethod,omitempty"`
	Note         string  `json:"notes,omitempty"`
	RecordedBy   string  `json:"createdById"`
}

type RecordReceiptRequest struct {
	Amount      float64 `json:"amount"`
	Method      string  `json:"paymentMethod,omitempty"`
	PaymentDate string  `json:"paymentDate,omitempty"`
	Description string  `json:"description,omitempty"`
}

type StartSweepRequest struct {
	IntervalMinutes int `json:"intervalMinutes"`
}

// =============================================================================
// RESPONSES
// =============================================================================

type StudentResponse struct {
	ID          string `json:"id"`
	AdmissionNo string `json:"admissionNumber"`
	FullName    string `json:"fullName"`
	ClassID     string `json:"classId"`
	ClassName   string `json:"className"`
	Status      string `json:"status"`
}

func toStudentResponse(s ledger.Student) StudentResponse {
	return StudentResponse{
		ID:          string(s.ID),
		AdmissionNo: s.AdmissionNo,
		FullName:    s.FullName,
		ClassID:     string(s.ClassID),
		ClassName:   s.ClassName,
		Status:      string(s.Status),
	}
}

type TermResponse struct {
	AcademicYear string `json:"academicYear"`
	Term         string `json:"term"`
	StartDate    string `json:"startDate"`
	EndDate      string `json:"endDate"`
	Active       bool   `json:"isActive"`
}

func toTermResponse(tp ledger.TermPeriod, now time.Time) TermResponse {
	return TermResponse{
		AcademicYear: string(tp.AcademicYear),
		Term:         string(tp.Term),
		StartDate:    tp.Start.Format(time.RFC3339),
		EndDate:      tp.End.Format(time.RFC3339),
		Active:       tp.IsActive(now),
	}
}

func toTermResponses(tps []ledger.TermPeriod, now time.Time) []TermResponse {
	out := make([]TermResponse, 0, len(tps))
	for _, tp := range tps {
		out = append(out, toTermResponse(tp, now))
	}
	return out
}

type ClassFeeResponse struct {
	ID        string `json:"id"`
	ClassID   string `json:"classId"`
	ClassName string `json:"className"`
	Term      string `json:"term"`
	Amount    string `json:"amount"`
}

func toClassFeeResponse(f ledger.ClassFee) ClassFeeResponse {
	return ClassFeeResponse{
		ID:        string(f.ID),
		ClassID:   string(f.ClassID),
		ClassName: f.ClassName,
		Term:      string(f.Term),
		Amount:    f.Amount.String(),
	}
}

type StatementResponse struct {
	ID              string `json:"id"`
	StudentID       string `json:"studentId"`
	AcademicYear    string `json:"academicYear"`
	Term            string `json:"term"`
	ClassName       string `json:"className"`
	CurrentTermFee  string `json:"currentTermFee"`
	PreviousBalance string `json:"previousBalance"`
	TotalPayable    string `json:"totalPayable"`
	AmountPaid      string `json:"amountPaid"`
	BalanceAmount   string `json:"balanceAmount"`
	Status          string `json:"status"`
	DueDate         string `json:"dueDate"`
}

func toStatementResponse(st ledger.Statement) StatementResponse {
	return StatementResponse{
		ID:              string(st.ID),
		StudentID:       string(st.StudentID),
		AcademicYear:    string(st.AcademicYear),
		Term:            string(st.Term),
		ClassName:       st.ClassName,
		CurrentTermFee:  st.CurrentTermFee.String(),
		PreviousBalance: st.PreviousBalance.String(),
		TotalPayable:    st.TotalPayable.String(),
		AmountPaid:      st.AmountPaid.String(),
		BalanceAmount:   st.BalanceAmount.String(),
		Status:          string(st.Status),
		DueDate:         st.DueDate.Format(time.RFC3339),
	}
}

func toStatementResponses(sts []ledger.Statement) []StatementResponse {
	out := make([]StatementResponse, 0, len(sts))
	for _, st := range sts {
		out = append(out, toStatementResponse(st))
	}
	return out
}

type PaymentResponse struct {
	ID          string `json:"id"`
	Reference   string `json:"referenceNumber"`
	StudentID   string `json:"studentId"`
	StatementID string `json:"studentFeeStatementId"`
	Amount      string `json:"amount"`
	Method      string `json:"paymentMethod"`
	Status      string `json:"status"`
	PaidAt      string `json:"paymentDate"`
	Note        string `json:"notes,omitempty"`
}

func toPaymentResponse(p ledger.Payment) PaymentResponse {
	return PaymentResponse{
		ID:          string(p.ID),
		Reference:   p.Reference,
		StudentID:   string(p.StudentID),
		StatementID: string(p.StatementID),
		Amount:      p.Amount.String(),
		Method:      p.Method,
		Status:      string(p.Status),
		PaidAt:      p.PaidAt.Format(time.RFC3339),
		Note:        p.Note,
	}
}

func toPaymentResponses(ps []ledger.Payment) []PaymentResponse {
	out := make([]PaymentResponse, 0, len(ps))
	for _, p := range ps {
		out = append(out, toPaymentResponse(p))
	}
	return out
}

type ReceiptResponse struct {
	ID          string `json:"id"`
	PaymentID   string `json:"feePaymentId"`
	Number      string `json:"receiptNumber"`
	Amount      string `json:"amount"`
	Method      string `json:"paymentMethod"`
	PaidAt      string `json:"paymentDate"`
	Description string `json:"description,omitempty"`
}

func toReceiptResponse(r ledger.Receipt) ReceiptResponse {
	return ReceiptResponse{
		ID:          string(r.ID),
		PaymentID:   string(r.PaymentID),
		Number:      r.Number,
		Amount:      r.Amount.String(),
		Method:      r.Method,
		PaidAt:      r.IssuedAt.Format(time.RFC3339),
		Description: r.Description,
	}
}

// AllocationResponse reports the full arrears-first allocation outcome: one
// payment row per statement that absorbed money, plus the target statement
// after recalculation.
type AllocationResponse struct {
	Payments       []PaymentResponse `json:"payments"`
	FinalStatement StatementResponse `json:"finalStatement"`
}

type TermResultResponse struct {
	AcademicYear string   `json:"academicYear"`
	Term         string   `json:"term"`
	Updated      int      `json:"count"`
	Status       string   `json:"status"`
	Error        string   `json:"error,omitempty"`
	Failures     []string `json:"failedStatements,omitempty"`
}

type RecalcResponse struct {
	TotalUpdated int                  `json:"totalUpdated"`
	Results      []TermResultResponse `json:"results"`
}

func toRecalcResponse(r *ledger.RecalcReport) RecalcResponse {
	out := RecalcResponse{TotalUpdated: r.TotalUpdated}
	for _, tr := range r.Results {
		resp := TermResultResponse{
			AcademicYear: string(tr.AcademicYear),
			Term:         string(tr.Term),
			Updated:      tr.Updated,
			Status:       "success",
			Error:        tr.Err,
		}
		if tr.Err != "" {
			resp.Status = "failed"
		}
		for _, f := range tr.Failures {
			resp.Failures = append(resp.Failures, string(f.StatementID)+": "+f.Reason)
		}
		out.Results = append(out.Results, resp)
	}
	return out
}

type SweepStatusResponse struct {
	Running         bool   `json:"isRunning"`
	IntervalMinutes int    `json:"intervalMinutes,omitempty"`
	Message         string `json:"message"`
}

type PaymentStatsResponse struct {
	Total       int    `json:"totalPayments"`
	Completed   int    `json:"completedPayments"`
	Pending     int    `json:"pendingPayments"`
	Failed      int    `json:"failedPayments"`
	Cancelled   int    `json:"cancelledPayments"`
	TotalAmount string `json:"totalAmountCollected"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
