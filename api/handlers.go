/*
handlers.go - HTTP handlers for the rewards API

PURPOSE:
  Implements the HTTP surface. Each handler follows the same shape:
  1. Parse URL params and request body
  2. Fetch the user's action facade from the rewards service
  3. Call domain logic
  4. Serialize the result

ERROR HANDLING:
  - 200 with ok:false  Rule violation (a value, not a failure)
  - 400                Invalid input (bad amount, malformed body)
  - 500                Store failures on account open

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/fleur/rewards-engine/ledger"
	"github.com/fleur/rewards-engine/rewards"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service *rewards.Service

	// HistoryLimit caps the activity feed response. Defaults to 50.
	HistoryLimit int
}

// NewHandler creates a new handler over a rewards service.
func NewHandler(svc *rewards.Service) *Handler {
	return &Handler{Service: svc, HistoryLimit: 50}
}

// actions resolves the facade for the {id} URL param. Writes the error
// response itself and returns nil when resolution fails.
func (h *Handler) actions(w http.ResponseWriter, r *http.Request) *rewards.Actions {
	userID := chi.URLParam(r, "id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "Missing user id", nil)
		return nil
	}

	x, err := h.Service.Actions(r.Context(), ledger.UserID(userID))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to open account", err)
		return nil
	}
	return x
}

// =============================================================================
// READ SELECTORS
// =============================================================================

// GetBalance returns balance, tier, streak, and referral state.
// GET /api/users/{id}/balance
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	x := h.actions(w, r)
	if x == nil {
		return
	}
	a := x.Account()

	balance := a.Balance()
	current, next, progress := rewards.TierProgress(balance)

	writeJSON(w, http.StatusOK, BalanceDTO{
		UserID:        string(a.UserID()),
		Balance:       balance,
		Tier:          current,
		NextTier:      next,
		TierProgress:  progress,
		Streak:        a.Streak(),
		CheckedIn:     a.CheckedInToday(),
		ReferralCount: a.ReferralCount(),
	})
}

// GetLedger returns recent entries, newest first.
// GET /api/users/{id}/ledger
func (h *Handler) GetLedger(w http.ResponseWriter, r *http.Request) {
	x := h.actions(w, r)
	if x == nil {
		return
	}
	a := x.Account()

	limit := h.HistoryLimit
	if limit <= 0 {
		limit = 50
	}

	writeJSON(w, http.StatusOK, LedgerDTO{
		UserID:  string(a.UserID()),
		Balance: a.Balance(),
		Entries: toEntryDTOs(a.History(limit)),
	})
}

// GetRules returns the point-value constants table.
// GET /api/rules
func (h *Handler) GetRules(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Service.Rules())
}

// =============================================================================
// CHECK-IN
// =============================================================================

// CheckIn records the daily check-in.
// POST /api/users/{id}/check-in
func (h *Handler) CheckIn(w http.ResponseWriter, r *http.Request) {
	x := h.actions(w, r)
	if x == nil {
		return
	}
	res := x.OnDailyCheckIn(r.Context())
	observeResult("check_in", string(rewards.ReasonDailyCheckIn), res.Points, res.OK)
	writeJSON(w, http.StatusOK, res)
}

// UndoCheckIn reverses today's check-in.
// DELETE /api/users/{id}/check-in
func (h *Handler) UndoCheckIn(w http.ResponseWriter, r *http.Request) {
	x := h.actions(w, r)
	if x == nil {
		return
	}
	res := x.OnDailyCheckInUndone(r.Context())
	observeResult("undo_check_in", string(rewards.ReasonDailyCheckIn), res.Points, res.OK)
	writeJSON(w, http.StatusOK, res)
}

// =============================================================================
// ROUTINE EVENTS
// =============================================================================

// RoutineStarted grants the one-time routine-creation bonus.
// POST /api/users/{id}/routine/start
func (h *Handler) RoutineStarted(w http.ResponseWriter, r *http.Request) {
	h.grantOnce(w, r, "routine_started", (*rewards.Actions).OnRoutineStarted)
}

// FirstRoutineStep grants the one-time first-step bonus.
// POST /api/users/{id}/routine/first-step
func (h *Handler) FirstRoutineStep(w http.ResponseWriter, r *http.Request) {
	h.grantOnce(w, r, "first_routine_step", (*rewards.Actions).OnFirstRoutineStep)
}

// RoutineTaskCompleted awards capped routine-task points.
// POST /api/users/{id}/routine/tasks/{taskID}/complete
func (h *Handler) RoutineTaskCompleted(w http.ResponseWriter, r *http.Request) {
	x := h.actions(w, r)
	if x == nil {
		return
	}
	res := x.OnRoutineTaskCompleted(r.Context(), chi.URLParam(r, "taskID"))
	observeResult("routine_task", string(rewards.ReasonRoutineTask), res.Points, res.OK)
	writeJSON(w, http.StatusOK, res)
}

// RoutineTaskUndone reverses today's credit for a task.
// DELETE /api/users/{id}/routine/tasks/{taskID}/complete
func (h *Handler) RoutineTaskUndone(w http.ResponseWriter, r *http.Request) {
	x := h.actions(w, r)
	if x == nil {
		return
	}
	res := x.OnRoutineTaskUndone(r.Context(), chi.URLParam(r, "taskID"))
	observeResult("undo_routine_task", string(rewards.ReasonRoutineTask), res.Points, res.OK)
	writeJSON(w, http.StatusOK, res)
}

// RoutineStepDeleted claws back all points the step ever earned.
// DELETE /api/users/{id}/routine/tasks/{taskID}
func (h *Handler) RoutineStepDeleted(w http.ResponseWriter, r *http.Request) {
	x := h.actions(w, r)
	if x == nil {
		return
	}
	res := x.OnRoutineStepDeleted(r.Context(), chi.URLParam(r, "taskID"))
	observeResult("step_deleted", string(rewards.ReasonRoutineTask), -res.Points, true)
	writeJSON(w, http.StatusOK, ClawbackDTO{
		OK:              true,
		ReversedEntries: res.Reversed,
		Points:          res.Points,
	})
}

// =============================================================================
// COMMUNITY EVENTS
// =============================================================================

// FirstPost grants the one-time first-post bonus.
// POST /api/users/{id}/community/first-post
func (h *Handler) FirstPost(w http.ResponseWriter, r *http.Request) {
	h.grantOnce(w, r, "first_post", (*rewards.Actions).OnFirstPost)
}

// FirstComment grants the one-time first-comment bonus.
// POST /api/users/{id}/community/first-comment
func (h *Handler) FirstComment(w http.ResponseWriter, r *http.Request) {
	h.grantOnce(w, r, "first_comment", (*rewards.Actions).OnFirstComment)
}

// FirstLike grants the one-time first-like bonus.
// POST /api/users/{id}/community/first-like
func (h *Handler) FirstLike(w http.ResponseWriter, r *http.Request) {
	h.grantOnce(w, r, "first_like", (*rewards.Actions).OnFirstLike)
}

// PostEngagement awards points for new likes/comments on a post.
// POST /api/users/{id}/community/engagement
func (h *Handler) PostEngagement(w http.ResponseWriter, r *http.Request) {
	x := h.actions(w, r)
	if x == nil {
		return
	}

	var req EngagementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	res, err := x.OnPostEngagement(r.Context(), req.PostID, req.Likes, req.Comments)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to award engagement points", err)
		return
	}
	observeResult("post_engagement", string(rewards.ReasonEngagementLikes), res.Total, true)
	writeJSON(w, http.StatusOK, res)
}

// =============================================================================
// REFERRAL, REVIEW, PURCHASE, SIGNUP
// =============================================================================

// ReferralConfirmed awards capped referral points.
// POST /api/users/{id}/referrals
func (h *Handler) ReferralConfirmed(w http.ResponseWriter, r *http.Request) {
	x := h.actions(w, r)
	if x == nil {
		return
	}
	res := x.OnReferralConfirmed(r.Context())
	observeResult("referral", string(rewards.ReasonReferFriend), res.Points, res.OK)
	writeJSON(w, http.StatusOK, res)
}

// WriteReview awards review points. No once-guard.
// POST /api/users/{id}/reviews
func (h *Handler) WriteReview(w http.ResponseWriter, r *http.Request) {
	x := h.actions(w, r)
	if x == nil {
		return
	}

	var req ReviewRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body", err)
			return
		}
	}

	e, err := x.OnWriteReview(r.Context(), ledger.Meta(req.Meta))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to award review points", err)
		return
	}
	observeResult("write_review", string(rewards.ReasonWriteReview), e.Delta, true)
	writeJSON(w, http.StatusOK, rewards.Result{OK: true, Points: e.Delta, Message: "Thanks for the review!"})
}

// PurchaseConfirmed awards floor(amountUSD) points for an order.
// POST /api/users/{id}/purchases
func (h *Handler) PurchaseConfirmed(w http.ResponseWriter, r *http.Request) {
	x := h.actions(w, r)
	if x == nil {
		return
	}

	var req PurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	amount, err := decimal.NewFromString(req.AmountUSD)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid amount_usd", err)
		return
	}

	res, err := x.OnPurchaseConfirmed(r.Context(), amount, ledger.Meta(req.Meta))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to award purchase points", err)
		return
	}
	observeResult("purchase", string(rewards.ReasonPurchase), res.Points, res.OK)
	writeJSON(w, http.StatusOK, res)
}

// SignupBonus grants the one-time account-creation bonus.
// POST /api/users/{id}/signup-bonus
func (h *Handler) SignupBonus(w http.ResponseWriter, r *http.Request) {
	h.grantOnce(w, r, "signup_bonus", (*rewards.Actions).OnSignupBonus)
}

// grantOnce is the shared shape of every one-time grant endpoint.
func (h *Handler) grantOnce(w http.ResponseWriter, r *http.Request, op string,
	fn func(*rewards.Actions, context.Context) (rewards.Result, error)) {

	x := h.actions(w, r)
	if x == nil {
		return
	}

	res, err := fn(x, r.Context())
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to issue grant", err)
		return
	}
	observeResult(op, op, res.Points, res.OK)
	writeJSON(w, http.StatusOK, res)
}

// =============================================================================
// RESPONSE HELPERS
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
