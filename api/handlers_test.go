package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleur/rewards-engine/api"
	"github.com/fleur/rewards-engine/ledger/store"
	"github.com/fleur/rewards-engine/rewards"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	svc := rewards.NewService(store.NewMemory(), rewards.DefaultConfig())
	return api.NewRouter(api.NewHandler(svc))
}

func do(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestAPI_Health(t *testing.T) {
	rec := do(t, newTestRouter(t), http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAPI_Rules(t *testing.T) {
	rec := do(t, newTestRouter(t), http.MethodGet, "/api/rules", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rules := decode[rewards.Rules](t, rec)
	assert.Equal(t, int64(250), rules.SignupBonus)
	assert.Equal(t, int64(5), rules.RoutineTaskDailyCap)
}

func TestAPI_CheckInFlow(t *testing.T) {
	router := newTestRouter(t)

	// First check-in of the day succeeds
	rec := do(t, router, http.MethodPost, "/api/users/u1/check-in", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[rewards.Result](t, rec)
	assert.True(t, res.OK)
	assert.Equal(t, int64(1), res.Points)

	// Second is a rule violation: still 200, ok:false
	rec = do(t, router, http.MethodPost, "/api/users/u1/check-in", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	res = decode[rewards.Result](t, rec)
	assert.False(t, res.OK)
	assert.Equal(t, "Already checked in today", res.Message)

	// Undo, then re-check-in works
	rec = do(t, router, http.MethodDelete, "/api/users/u1/check-in", nil)
	assert.True(t, decode[rewards.Result](t, rec).OK)

	rec = do(t, router, http.MethodPost, "/api/users/u1/check-in", nil)
	assert.True(t, decode[rewards.Result](t, rec).OK)
}

func TestAPI_RoutineTaskDailyCap(t *testing.T) {
	router := newTestRouter(t)

	for i := 1; i <= 5; i++ {
		rec := do(t, router, http.MethodPost, fmt.Sprintf("/api/users/u1/routine/tasks/t%d/complete", i), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, decode[rewards.Result](t, rec).OK, "task %d", i)
	}

	rec := do(t, router, http.MethodPost, "/api/users/u1/routine/tasks/t6/complete", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[rewards.Result](t, rec)
	assert.False(t, res.OK)
	assert.Equal(t, "Daily limit reached", res.Message)

	balance := decode[api.BalanceDTO](t, do(t, router, http.MethodGet, "/api/users/u1/balance", nil))
	assert.Equal(t, int64(5), balance.Balance)
}

func TestAPI_StepDeletedClawback(t *testing.T) {
	router := newTestRouter(t)

	do(t, router, http.MethodPost, "/api/users/u1/routine/tasks/t1/complete", nil)
	do(t, router, http.MethodPost, "/api/users/u1/routine/tasks/t2/complete", nil)

	rec := do(t, router, http.MethodDelete, "/api/users/u1/routine/tasks/t1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cb := decode[api.ClawbackDTO](t, rec)
	assert.Equal(t, 1, cb.ReversedEntries)
	assert.Equal(t, int64(1), cb.Points)

	balance := decode[api.BalanceDTO](t, do(t, router, http.MethodGet, "/api/users/u1/balance", nil))
	assert.Equal(t, int64(1), balance.Balance)
}

func TestAPI_SignupBonusIdempotent(t *testing.T) {
	router := newTestRouter(t)

	res := decode[rewards.Result](t, do(t, router, http.MethodPost, "/api/users/u1/signup-bonus", nil))
	assert.True(t, res.OK)
	assert.Equal(t, int64(250), res.Points)

	res = decode[rewards.Result](t, do(t, router, http.MethodPost, "/api/users/u1/signup-bonus", nil))
	assert.False(t, res.OK)
	assert.True(t, res.AlreadyGranted)

	balance := decode[api.BalanceDTO](t, do(t, router, http.MethodGet, "/api/users/u1/balance", nil))
	assert.Equal(t, int64(250), balance.Balance)
	assert.Equal(t, "Sprout", balance.Tier.Name)
}

func TestAPI_PostEngagement(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/api/users/u1/community/engagement",
		api.EngagementRequest{PostID: "p1", Likes: 250, Comments: 25})
	require.Equal(t, http.StatusOK, rec.Code)

	res := decode[rewards.EngagementResult](t, rec)
	assert.Equal(t, int64(2), res.LikePoints)
	assert.Equal(t, int64(10), res.CommentPoints)
	assert.Equal(t, int64(12), res.Total)
}

func TestAPI_PostEngagementMalformedBody(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/users/u1/community/engagement",
		bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPI_Purchase(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/api/users/u1/purchases",
		api.PurchaseRequest{AmountUSD: "19.99"})
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[rewards.Result](t, rec)
	assert.True(t, res.OK)
	assert.Equal(t, int64(19), res.Points)

	// Malformed amount is a 400
	rec = do(t, router, http.MethodPost, "/api/users/u1/purchases",
		api.PurchaseRequest{AmountUSD: "nineteen"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPI_Ledger(t *testing.T) {
	router := newTestRouter(t)

	do(t, router, http.MethodPost, "/api/users/u1/check-in", nil)
	do(t, router, http.MethodPost, "/api/users/u1/referrals", nil)

	rec := do(t, router, http.MethodGet, "/api/users/u1/ledger", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	feed := decode[api.LedgerDTO](t, rec)
	require.Len(t, feed.Entries, 2)
	// Newest first
	assert.Equal(t, "refer_friend", feed.Entries[0].Reason)
	assert.Equal(t, "daily_check_in", feed.Entries[1].Reason)
	assert.Equal(t, int64(21), feed.Balance)
	assert.NotZero(t, feed.Entries[0].Timestamp)
}

func TestAPI_UsersAreIsolated(t *testing.T) {
	router := newTestRouter(t)

	do(t, router, http.MethodPost, "/api/users/u1/check-in", nil)

	balance := decode[api.BalanceDTO](t, do(t, router, http.MethodGet, "/api/users/u2/balance", nil))
	assert.Equal(t, int64(0), balance.Balance)
	assert.False(t, balance.CheckedIn)
}
