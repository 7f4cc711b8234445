/*
handlers.go - HTTP API handlers for the fee ledger engine

PURPOSE:
  Exposes the fee ledger engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Students:
    GET    /api/students                     List all students
    POST   /api/students                     Enroll student (creates active-term statements)
    GET    /api/students/{id}                Get student details
    GET    /api/students/{id}/statements     Per-student statement ledger
    GET    /api/students/{id}/payments       Per-student payment history
    PUT    /api/students/{id}/class          Change class (collapses active statements)
    POST   /api/students/{id}/recalculate    Recalculate all of a student's statements

  Terms:
    GET    /api/terms                        List term periods
    POST   /api/terms                        Create a term period
    PUT    /api/terms                        Update a term period's dates
    GET    /api/terms/active                 Terms active right now

  Payments:
    GET    /api/payments                     List payments
    POST   /api/payments                     Record payment (arrears-first allocation)
    GET    /api/payments/stats               Aggregate payment counters
    DELETE /api/payments/{id}                Delete payment and recalculate
    POST   /api/payments/{id}/receipts       Record a receipt against a payment
    GET    /api/payments/{id}/receipts       List receipts for a payment

  Recalculation:
    POST   /api/statements/{id}/recalculate  Single statement
    POST   /api/recalculate/term             One (year, term) cohort
    POST   /api/recalculate/year/{year}      All terms of a year
    POST   /api/recalculate/active           All currently active terms

  Sweep:
    POST   /api/sweep/start                  Start the scheduled sweep
    POST   /api/sweep/stop                   Stop the scheduled sweep
    GET    /api/sweep/status                 Sweep state and interval

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input
  3. Call domain logic (engine, sweeper)
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 409: Conflict (duplicate statement, payment has receipts)
  - 500: Internal errors
  Classification comes from ledger.IsValidation / IsNotFound / IsConflict.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/clearledger/fee-engine/ledger"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Engine  *ledger.Engine
	Sweeper *ledger.Sweeper
}

// NewHandler creates a new handler around the engine and its sweeper.
func NewHandler(engine *ledger.Engine, sweeper *ledger.Sweeper) *Handler {
	return &Handler{Engine: engine, Sweeper: sweeper}
}

// =============================================================================
// STUDENT HANDLERS
// =============================================================================

// ListStudents returns all students.
// GET /api/students
func (h *Handler) ListStudents(w http.ResponseWriter, r *http.Request) {
	students, err := h.Engine.Store().ListStudents(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list students", err)
		return
	}

	out := make([]StudentResponse, 0, len(students))
	for _, s := range students {
		out = append(out, toStudentResponse(s))
	}
	writeJSON(w, http.StatusOK, out)
}

// CreateStudent enrolls a student and opens statements for every active term.
// POST /api/students
func (h *Handler) CreateStudent(w http.ResponseWriter, r *http.Request) {
	var req CreateStudentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.FullName == "" || req.ClassID == "" {
		writeError(w, http.StatusBadRequest, "fullName and classId are required", nil)
		return
	}

	ctx := r.Context()
	student := &ledger.Student{
		ID:          ledger.StudentID(uuid.NewString()),
		AdmissionNo: req.AdmissionNo,
		FullName:    req.FullName,
		ClassID:     ledger.ClassID(req.ClassID),
		ClassName:   req.ClassName,
		Status:      ledger.StudentActive,
	}
	if err := h.Engine.Store().CreateStudent(ctx, *student); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create student", err)
		return
	}

	// Enrollment opens statements for every term active today. Failure here
	// does not undo the enrollment; the sweep or next payment repairs it.
	if _, err := h.Engine.EnsureStatements(ctx, student.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "Student created but statement setup failed", err)
		return
	}

	writeJSON(w, http.StatusCreated, toStudentResponse(*student))
}

// GetStudent returns one student.
// GET /api/students/{id}
func (h *Handler) GetStudent(w http.ResponseWriter, r *http.Request) {
	id := ledger.StudentID(chi.URLParam(r, "id"))
	student, err := h.Engine.Store().GetStudent(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load student", err)
		return
	}
	if student == nil {
		writeError(w, http.StatusNotFound, "Student not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toStudentResponse(*student))
}

// ListStudentStatements returns a student's full statement ledger.
// GET /api/students/{id}/statements
func (h *Handler) ListStudentStatements(w http.ResponseWriter, r *http.Request) {
	id := ledger.StudentID(chi.URLParam(r, "id"))
	statements, err := h.Engine.Store().ListStatementsByStudent(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list statements", err)
		return
	}
	writeJSON(w, http.StatusOK, toStatementResponses(statements))
}

// ListStudentPayments returns a student's payment history.
// GET /api/students/{id}/payments
func (h *Handler) ListStudentPayments(w http.ResponseWriter, r *http.Request) {
	id := ledger.StudentID(chi.URLParam(r, "id"))
	payments, err := h.Engine.Store().ListPaymentsByStudent(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list payments", err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentResponses(payments))
}

// ChangeStudentClass moves a student to a new class and collapses the
// student's active-term statements onto the new fee schedule.
// PUT /api/students/{id}/class
func (h *Handler) ChangeStudentClass(w http.ResponseWriter, r *http.Request) {
	id := ledger.StudentID(chi.URLParam(r, "id"))

	var req ChangeClassRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ClassID == "" {
		writeError(w, http.StatusBadRequest, "classId is required", nil)
		return
	}

	statements, err := h.Engine.ApplyClassChange(r.Context(), id, ledger.ClassID(req.ClassID))
	if err != nil {
		writeDomainError(w, "Failed to change class", err)
		return
	}
	student, err := h.Engine.Store().GetStudent(r.Context(), id)
	if err != nil || student == nil {
		writeError(w, http.StatusInternalServerError, "Class changed but student reload failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"student":    toStudentResponse(*student),
		"statements": toStatementResponses(statements),
	})
}

// RecalculateStudent recomputes every statement belonging to a student.
// POST /api/students/{id}/recalculate
func (h *Handler) RecalculateStudent(w http.ResponseWriter, r *http.Request) {
	id := ledger.StudentID(chi.URLParam(r, "id"))
	statements, err := h.Engine.RecomputeStudent(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to recalculate student statements", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":    fmt.Sprintf("Recalculated %d statement(s)", len(statements)),
		"count":      len(statements),
		"statements": toStatementResponses(statements),
	})
}

// =============================================================================
// TERM HANDLERS
// =============================================================================

// ListTerms returns all term periods, optionally filtered by academic year.
// GET /api/terms?academicYear=2026-2027
func (h *Handler) ListTerms(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var (
		terms []ledger.TermPeriod
		err   error
	)
	if year := r.URL.Query().Get("academicYear"); year != "" {
		terms, err = h.Engine.Store().ListTermsByYear(ctx, ledger.AcademicYear(year))
	} else {
		terms, err = h.Engine.Store().ListTerms(ctx)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list terms", err)
		return
	}
	writeJSON(w, http.StatusOK, toTermResponses(terms, time.Now().UTC()))
}

// CreateTerm registers a term period.
// POST /api/terms
func (h *Handler) CreateTerm(w http.ResponseWriter, r *http.Request) {
	var req CreateTermRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	term, err := ledger.ParseTerm(req.Term)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid term", err)
		return
	}
	start, err := parseDate(req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid startDate", err)
		return
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid endDate", err)
		return
	}

	tp := &ledger.TermPeriod{
		AcademicYear: ledger.AcademicYear(req.AcademicYear),
		Term:         term,
		Start:        start,
		End:          end,
	}
	if err := tp.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid term period", err)
		return
	}
	if err := h.Engine.Store().CreateTerm(r.Context(), *tp); err != nil {
		writeDomainError(w, "Failed to create term", err)
		return
	}
	writeJSON(w, http.StatusCreated, toTermResponse(*tp, time.Now().UTC()))
}

// UpdateTerm replaces the date window of an existing term period.
// A date change can move statements in or out of the active window, so the
// cohort's balances are recalculated afterwards. That recalculation is
// best-effort: the date change is already saved, so a recompute failure is
// logged and the update still succeeds.
// PUT /api/terms
func (h *Handler) UpdateTerm(w http.ResponseWriter, r *http.Request) {
	var req CreateTermRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	term, err := ledger.ParseTerm(req.Term)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid term", err)
		return
	}
	start, err := parseDate(req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid startDate", err)
		return
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid endDate", err)
		return
	}

	tp := &ledger.TermPeriod{
		AcademicYear: ledger.AcademicYear(req.AcademicYear),
		Term:         term,
		Start:        start,
		End:          end,
	}
	if err := tp.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid term period", err)
		return
	}
	if err := h.Engine.Store().UpdateTerm(r.Context(), *tp); err != nil {
		writeDomainError(w, "Failed to update term", err)
		return
	}

	if _, err := h.Engine.RecomputeTerm(r.Context(), tp.AcademicYear, tp.Term); err != nil {
		log.Printf("[terms] balance recalculation after date change failed for %s %s: %v",
			tp.AcademicYear, tp.Term, err)
	}

	writeJSON(w, http.StatusOK, toTermResponse(*tp, time.Now().UTC()))
}

// ListActiveTerms returns the terms whose window covers the current time.
// GET /api/terms/active
func (h *Handler) ListActiveTerms(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	terms, err := ledger.ActiveTerms(r.Context(), h.Engine.Store(), now)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list active terms", err)
		return
	}
	writeJSON(w, http.StatusOK, toTermResponses(terms, now))
}

// =============================================================================
// CLASS FEE HANDLERS
// =============================================================================

// CreateClassFee registers a fee amount for a (class, term) pair.
// POST /api/class-fees
func (h *Handler) CreateClassFee(w http.ResponseWriter, r *http.Request) {
	var req CreateClassFeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	term, err := ledger.ParseTerm(req.Term)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid term", err)
		return
	}
	if req.ClassID == "" {
		writeError(w, http.StatusBadRequest, "classId is required", nil)
		return
	}
	amount := ledger.NewMoney(req.Amount)
	if !amount.IsPositive() {
		writeError(w, http.StatusBadRequest, "amount must be greater than zero", nil)
		return
	}

	fee := &ledger.ClassFee{
		ID:        ledger.ClassFeeID(uuid.NewString()),
		ClassID:   ledger.ClassID(req.ClassID),
		ClassName: req.ClassName,
		Term:      term,
		Amount:    amount,
	}
	if err := h.Engine.Store().CreateClassFee(r.Context(), *fee); err != nil {
		writeDomainError(w, "Failed to create class fee", err)
		return
	}
	writeJSON(w, http.StatusCreated, toClassFeeResponse(*fee))
}

// =============================================================================
// PAYMENT HANDLERS
// =============================================================================

// ListPayments returns all payments, newest first.
// GET /api/payments
func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := h.Engine.Store().ListPayments(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list payments", err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentResponses(payments))
}

// CreatePayment records a payment with arrears-first allocation across the
// student's pending statements.
// POST /api/payments
func (h *Handler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var req CreatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.StudentID == "" {
		writeError(w, http.StatusBadRequest, "studentId is required", nil)
		return
	}

	alloc := ledger.AllocationRequest{
		StudentID:   ledger.StudentID(req.StudentID),
		StatementID: ledger.StatementID(req.StatementID),
		ClassFeeID:  ledger.ClassFeeID(req.ClassFeeID),
		Amount:      ledger.NewMoney(req.Amount),
		Method:      req.Method,
		Note:        req.Note,
		RecordedBy:  ledger.ActorID(req.RecordedBy),
	}
	if req.AcademicYear != "" && req.Term != "" {
		term, err := ledger.ParseTerm(req.Term)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid term", err)
			return
		}
		alloc.AcademicYear = ledger.AcademicYear(req.AcademicYear)
		alloc.Term = term
	}

	result, err := h.Engine.AllocatePayment(r.Context(), alloc)
	if err != nil {
		writeDomainError(w, "Failed to record payment", err)
		return
	}

	writeJSON(w, http.StatusCreated, AllocationResponse{
		Payments:       toPaymentResponses(result.Payments),
		FinalStatement: toStatementResponse(result.FinalStatement),
	})
}

// GetPayment returns one payment.
// GET /api/payments/{id}
func (h *Handler) GetPayment(w http.ResponseWriter, r *http.Request) {
	id := ledger.PaymentID(chi.URLParam(r, "id"))
	payment, err := h.Engine.Store().GetPayment(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load payment", err)
		return
	}
	if payment == nil {
		writeError(w, http.StatusNotFound, "Payment not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentResponse(*payment))
}

// DeletePayment removes a payment and recalculates the affected statement.
// Refuses when receipts reference the payment.
// DELETE /api/payments/{id}
func (h *Handler) DeletePayment(w http.ResponseWriter, r *http.Request) {
	id := ledger.PaymentID(chi.URLParam(r, "id"))
	if err := h.Engine.DeletePayment(r.Context(), id); err != nil {
		writeDomainError(w, "Failed to delete payment", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Payment deleted"})
}

// RecordReceipt attaches a receipt to a payment and marks it completed.
// POST /api/payments/{id}/receipts
func (h *Handler) RecordReceipt(w http.ResponseWriter, r *http.Request) {
	id := ledger.PaymentID(chi.URLParam(r, "id"))

	var req RecordReceiptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	paidAt := time.Now().UTC()
	if req.PaymentDate != "" {
		parsed, err := parseDate(req.PaymentDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid paymentDate", err)
			return
		}
		paidAt = parsed
	}

	receipt, payment, err := h.Engine.RecordReceipt(r.Context(), id,
		ledger.NewMoney(req.Amount), req.Method, paidAt, req.Description)
	if err != nil {
		writeDomainError(w, "Failed to record receipt", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"receipt": toReceiptResponse(*receipt),
		"payment": toPaymentResponse(*payment),
	})
}

// ListReceipts returns the receipts recorded against a payment.
// GET /api/payments/{id}/receipts
func (h *Handler) ListReceipts(w http.ResponseWriter, r *http.Request) {
	id := ledger.PaymentID(chi.URLParam(r, "id"))
	receipts, err := h.Engine.Store().ListReceiptsByPayment(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list receipts", err)
		return
	}
	out := make([]ReceiptResponse, 0, len(receipts))
	for _, rc := range receipts {
		out = append(out, toReceiptResponse(rc))
	}
	writeJSON(w, http.StatusOK, out)
}

// GetPaymentStats returns aggregate payment counters.
// GET /api/payments/stats
func (h *Handler) GetPaymentStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Engine.PaymentStats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute payment stats", err)
		return
	}
	writeJSON(w, http.StatusOK, PaymentStatsResponse{
		Total:       stats.Total,
		Completed:   stats.Completed,
		Pending:     stats.Pending,
		Failed:      stats.Failed,
		Cancelled:   stats.Cancelled,
		TotalAmount: stats.TotalAmount.String(),
	})
}

// =============================================================================
// STATEMENT HANDLERS
// =============================================================================

// GetStatement returns one statement.
// GET /api/statements/{id}
func (h *Handler) GetStatement(w http.ResponseWriter, r *http.Request) {
	id := ledger.StatementID(chi.URLParam(r, "id"))
	st, err := h.Engine.Store().GetStatement(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load statement", err)
		return
	}
	if st == nil {
		writeError(w, http.StatusNotFound, "Statement not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toStatementResponse(*st))
}

// RecalculateStatement recomputes one statement from its completed payments.
// POST /api/statements/{id}/recalculate
func (h *Handler) RecalculateStatement(w http.ResponseWriter, r *http.Request) {
	id := ledger.StatementID(chi.URLParam(r, "id"))
	st, err := h.Engine.Recompute(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to recalculate statement", err)
		return
	}
	writeJSON(w, http.StatusOK, toStatementResponse(*st))
}

// =============================================================================
// RECALCULATION HANDLERS
// =============================================================================

// RecalculateTerm recomputes all statements of one (year, term) cohort.
// POST /api/recalculate/term?academicYear=2026-2027&term=term1
func (h *Handler) RecalculateTerm(w http.ResponseWriter, r *http.Request) {
	year := r.URL.Query().Get("academicYear")
	rawTerm := r.URL.Query().Get("term")
	if year == "" || rawTerm == "" {
		writeError(w, http.StatusBadRequest, "academicYear and term are required", nil)
		return
	}
	term, err := ledger.ParseTerm(rawTerm)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid term", err)
		return
	}

	count, err := h.Engine.RecomputeTerm(r.Context(), ledger.AcademicYear(year), term)
	if err != nil {
		writeDomainError(w, "Failed to recalculate term", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": fmt.Sprintf("Recalculated %d statement(s) for %s %s", count, year, term),
		"count":   count,
	})
}

// RecalculateYear recomputes all statements across a year's terms.
// POST /api/recalculate/year/{year}
func (h *Handler) RecalculateYear(w http.ResponseWriter, r *http.Request) {
	year := ledger.AcademicYear(chi.URLParam(r, "year"))
	report, err := h.Engine.RecomputeYear(r.Context(), year)
	if err != nil {
		writeDomainError(w, "Failed to recalculate year", err)
		return
	}
	writeJSON(w, http.StatusOK, toRecalcResponse(report))
}

// RecalculateActiveTerms recomputes statements of every active term.
// POST /api/recalculate/active
func (h *Handler) RecalculateActiveTerms(w http.ResponseWriter, r *http.Request) {
	report, err := h.Engine.RecomputeActiveTerms(r.Context())
	if err != nil {
		writeDomainError(w, "Failed to recalculate active terms", err)
		return
	}
	writeJSON(w, http.StatusOK, toRecalcResponse(report))
}

// =============================================================================
// SWEEP HANDLERS
// =============================================================================

// StartSweep starts the periodic balance sweep.
// POST /api/sweep/start
func (h *Handler) StartSweep(w http.ResponseWriter, r *http.Request) {
	var req StartSweepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.Sweeper.Start(req.IntervalMinutes); err != nil {
		writeDomainError(w, "Failed to start sweep", err)
		return
	}
	writeSweepStatus(w, h.Sweeper.Status())
}

// StopSweep stops the periodic balance sweep.
// POST /api/sweep/stop
func (h *Handler) StopSweep(w http.ResponseWriter, r *http.Request) {
	h.Sweeper.Stop()
	writeSweepStatus(w, h.Sweeper.Status())
}

// GetSweepStatus reports whether the sweep is running and at what interval.
// GET /api/sweep/status
func (h *Handler) GetSweepStatus(w http.ResponseWriter, r *http.Request) {
	writeSweepStatus(w, h.Sweeper.Status())
}

func writeSweepStatus(w http.ResponseWriter, s ledger.SweepStatus) {
	writeJSON(w, http.StatusOK, SweepStatusResponse{
		Running:         s.Running,
		IntervalMinutes: s.IntervalMinutes,
		Message:         s.Message,
	})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps ledger error categories to HTTP status codes.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	status := http.StatusInternalServerError
	switch {
	case ledger.IsValidation(err):
		status = http.StatusBadRequest
	case ledger.IsNotFound(err):
		status = http.StatusNotFound
	case ledger.IsConflict(err):
		status = http.StatusConflict
	}
	writeError(w, status, message, err)
}

// parseDate accepts RFC3339 or a bare YYYY-MM-DD date.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognized date %q", s)
	}
	return t.UTC(), nil
}
