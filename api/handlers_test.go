package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearledger/fee-engine/api"
	"github.com/clearledger/fee-engine/ledger"
	"github.com/clearledger/fee-engine/ledger/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

type testEnv struct {
	router  http.Handler
	mem     *store.Memory
	engine  *ledger.Engine
	sweeper *ledger.Sweeper
}

func newTestEnv(t *testing.T) *testEnv {
	mem := store.NewMemory()
	engine := ledger.NewEngine(mem)
	sweeper := ledger.NewSweeper(engine)
	t.Cleanup(sweeper.Stop)

	h := api.NewHandler(engine, sweeper)
	return &testEnv{
		router:  api.NewRouter(h),
		mem:     mem,
		engine:  engine,
		sweeper: sweeper,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out), "body: %s", rec.Body.String())
	return out
}

// seedActivePeriod registers an active term plus a class fee for "p4".
func (e *testEnv) seedActivePeriod(t *testing.T, term ledger.Term, fee float64) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()
	require.NoError(t, e.mem.CreateTerm(ctx, ledger.TermPeriod{
		AcademicYear: "2026-2027",
		Term:         term,
		Start:        now.AddDate(0, -1, 0),
		End:          now.AddDate(0, 2, 0),
	}))
	require.NoError(t, e.mem.CreateClassFee(ctx, ledger.ClassFee{
		ID:        ledger.ClassFeeID(fmt.Sprintf("fee-%s", term)),
		ClassID:   "p4",
		ClassName: "Primary Four",
		Term:      term,
		Amount:    ledger.NewMoney(fee),
	}))
}

// =============================================================================
// STUDENT ENDPOINTS
// =============================================================================

func TestAPI_CreateStudent_OpensStatements(t *testing.T) {
	// GIVEN: An active term with a class fee
	// WHEN: Enrolling a student over HTTP
	// THEN: 201, and the student's statement ledger has one pending row

	env := newTestEnv(t)
	env.seedActivePeriod(t, ledger.Term1, 900)

	rec := env.do(t, http.MethodPost, "/api/students", api.CreateStudentRequest{
		AdmissionNo: "ADM-001",
		FullName:    "Akello Grace",
		ClassID:     "p4",
		ClassName:   "Primary Four",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	student := decode[api.StudentResponse](t, rec)
	assert.NotEmpty(t, student.ID)
	assert.Equal(t, "active", student.Status)

	rec = env.do(t, http.MethodGet, "/api/students/"+student.ID+"/statements", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	statements := decode[[]api.StatementResponse](t, rec)
	require.Len(t, statements, 1)
	assert.Equal(t, "pending", statements[0].Status)
	assert.Equal(t, "900.00", statements[0].BalanceAmount)
}

func TestAPI_CreateStudent_MissingFields(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/students", api.CreateStudentRequest{FullName: "No Class"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPI_GetStudent_NotFound(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/students/ghost", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =============================================================================
// PAYMENT FLOW
// =============================================================================

func TestAPI_PaymentFlow_ArrearsFirst(t *testing.T) {
	// GIVEN: A student with unpaid term1 arrears and a term2 statement
	// WHEN: Posting a payment targeting term2
	// THEN: The response shows the arrears rows and the final statement

	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.mem.CreateStudent(ctx, ledger.Student{
		ID: "stu-1", FullName: "Okot David", ClassID: "p4", ClassName: "Primary Four",
		Status: ledger.StudentActive,
	}))

	now := time.Now().UTC()
	mkStatement := func(id string, term ledger.Term, amount float64) {
		total := ledger.NewMoney(amount)
		require.NoError(t, env.mem.CreateStatement(ctx, ledger.Statement{
			ID: ledger.StatementID(id), StudentID: "stu-1", AcademicYear: "2026-2027",
			Term: term, ClassName: "Primary Four", CurrentTermFee: total,
			TotalPayable: total, AmountPaid: ledger.ZeroMoney(), BalanceAmount: total,
			Status: ledger.StatementPending, CreatedAt: now,
		}))
	}
	mkStatement("st-1", ledger.Term1, 500)
	mkStatement("st-2", ledger.Term2, 1000)

	rec := env.do(t, http.MethodPost, "/api/payments", api.CreatePaymentRequest{
		StudentID:   "stu-1",
		StatementID: "st-2",
		Amount:      800,
		RecordedBy:  "bursar-1",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	result := decode[api.AllocationResponse](t, rec)
	require.Len(t, result.Payments, 2)
	assert.Equal(t, "500.00", result.Payments[0].Amount)
	assert.Equal(t, "300.00", result.Payments[1].Amount)
	assert.Equal(t, "st-2", result.FinalStatement.ID)
	assert.Equal(t, "700.00", result.FinalStatement.BalanceAmount)
}

func TestAPI_Payment_UnknownStudent_404(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/payments", api.CreatePaymentRequest{
		StudentID: "ghost",
		Amount:    100,
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPI_DeletePayment_WithReceipts_409(t *testing.T) {
	// GIVEN: A payment with a receipt recorded over HTTP
	// WHEN: Deleting the payment
	// THEN: 409 conflict

	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.mem.CreateStudent(ctx, ledger.Student{
		ID: "stu-1", FullName: "Okot David", ClassID: "p4", Status: ledger.StudentActive,
	}))
	total := ledger.NewMoney(500)
	require.NoError(t, env.mem.CreateStatement(ctx, ledger.Statement{
		ID: "st-1", StudentID: "stu-1", AcademicYear: "2026-2027", Term: ledger.Term1,
		CurrentTermFee: total, TotalPayable: total, BalanceAmount: total,
		AmountPaid: ledger.ZeroMoney(), Status: ledger.StatementPending, CreatedAt: time.Now().UTC(),
	}))

	rec := env.do(t, http.MethodPost, "/api/payments", api.CreatePaymentRequest{
		StudentID: "stu-1", StatementID: "st-1", Amount: 500,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	result := decode[api.AllocationResponse](t, rec)
	paymentID := result.Payments[0].ID

	rec = env.do(t, http.MethodPost, "/api/payments/"+paymentID+"/receipts", api.RecordReceiptRequest{
		Amount: 500, Method: "bank",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodDelete, "/api/payments/"+paymentID, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

// =============================================================================
// RECALCULATION ENDPOINTS
// =============================================================================

func TestAPI_RecalculateTerm(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.mem.CreateStudent(ctx, ledger.Student{
		ID: "stu-1", ClassID: "p4", Status: ledger.StudentActive,
	}))
	total := ledger.NewMoney(100)
	require.NoError(t, env.mem.CreateStatement(ctx, ledger.Statement{
		ID: "st-1", StudentID: "stu-1", AcademicYear: "2026-2027", Term: ledger.Term1,
		TotalPayable: total, BalanceAmount: total, AmountPaid: ledger.ZeroMoney(),
		Status: ledger.StatementPending, CreatedAt: time.Now().UTC(),
	}))

	rec := env.do(t, http.MethodPost, "/api/recalculate/term?academicYear=2026-2027&term=term1", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	out := decode[map[string]any](t, rec)
	assert.EqualValues(t, 1, out["count"])
}

func TestAPI_RecalculateTerm_BadTerm(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/recalculate/term?academicYear=2026-2027&term=summer", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// SWEEP ENDPOINTS
// =============================================================================

func TestAPI_SweepLifecycle(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/sweep/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	status := decode[api.SweepStatusResponse](t, rec)
	assert.False(t, status.Running)

	rec = env.do(t, http.MethodPost, "/api/sweep/start", api.StartSweepRequest{IntervalMinutes: 15})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	status = decode[api.SweepStatusResponse](t, rec)
	assert.True(t, status.Running)
	assert.Equal(t, 15, status.IntervalMinutes)

	rec = env.do(t, http.MethodPost, "/api/sweep/stop", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	status = decode[api.SweepStatusResponse](t, rec)
	assert.False(t, status.Running)
}

func TestAPI_SweepStart_BadInterval(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/sweep/start", api.StartSweepRequest{IntervalMinutes: 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/sweep/start", api.StartSweepRequest{IntervalMinutes: 2000})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// TERM ENDPOINTS
// =============================================================================

func TestAPI_CreateTerm_AndListActive(t *testing.T) {
	env := newTestEnv(t)
	now := time.Now().UTC()

	rec := env.do(t, http.MethodPost, "/api/terms", api.CreateTermRequest{
		AcademicYear: "2026-2027",
		Term:         "term1",
		StartDate:    now.AddDate(0, -1, 0).Format(time.RFC3339),
		EndDate:      now.AddDate(0, 2, 0).Format(time.RFC3339),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[api.TermResponse](t, rec)
	assert.True(t, created.Active)

	rec = env.do(t, http.MethodGet, "/api/terms/active", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	active := decode[[]api.TermResponse](t, rec)
	require.Len(t, active, 1)
	assert.Equal(t, "term1", active[0].Term)
}

func TestAPI_UpdateTerm_RecalculatesCohort(t *testing.T) {
	// GIVEN: A term period and a statement whose stored balance has drifted
	//        from its completed payments
	// WHEN: Updating the term's dates over HTTP
	// THEN: 200, the dates change, and the cohort's balances are rebuilt

	env := newTestEnv(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, env.mem.CreateTerm(ctx, ledger.TermPeriod{
		AcademicYear: "2026-2027",
		Term:         ledger.Term1,
		Start:        now.AddDate(0, -1, 0),
		End:          now.AddDate(0, 2, 0),
	}))
	require.NoError(t, env.mem.CreateStudent(ctx, ledger.Student{
		ID: "stu-1", ClassID: "p4", Status: ledger.StudentActive,
	}))
	total := ledger.NewMoney(100)
	require.NoError(t, env.mem.CreateStatement(ctx, ledger.Statement{
		ID: "st-1", StudentID: "stu-1", AcademicYear: "2026-2027", Term: ledger.Term1,
		TotalPayable: total, BalanceAmount: total, AmountPaid: ledger.ZeroMoney(),
		Status: ledger.StatementPending, CreatedAt: now,
	}))
	require.NoError(t, env.mem.CreatePayment(ctx, ledger.Payment{
		ID: "pay-1", Reference: "FEE-000001", StudentID: "stu-1", StatementID: "st-1",
		Amount: total, Status: ledger.PaymentCompleted, PaidAt: now, CreatedAt: now,
	}))

	rec := env.do(t, http.MethodPut, "/api/terms", api.CreateTermRequest{
		AcademicYear: "2026-2027",
		Term:         "term1",
		StartDate:    now.AddDate(0, -6, 0).Format(time.RFC3339),
		EndDate:      now.AddDate(0, -4, 0).Format(time.RFC3339),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[api.TermResponse](t, rec)
	assert.False(t, updated.Active, "term moved into the past should no longer be active")

	st, err := env.mem.GetStatement(ctx, "st-1")
	require.NoError(t, err)
	require.NotNil(t, st)
	assert.Equal(t, ledger.StatementCompleted, st.Status)
	assert.True(t, st.BalanceAmount.IsZero(), "balance = %s", st.BalanceAmount)
}

func TestAPI_UpdateTerm_UnknownPeriod_404(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPut, "/api/terms", api.CreateTermRequest{
		AcademicYear: "2031-2032",
		Term:         "term3",
		StartDate:    "2032-01-01",
		EndDate:      "2032-04-30",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPI_CreateTerm_InvalidDates(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/terms", api.CreateTermRequest{
		AcademicYear: "2026-2027",
		Term:         "term1",
		StartDate:    "2026-12-01",
		EndDate:      "2026-09-01", // before start
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
