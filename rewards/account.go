/*
account.go - The points ledger store for a single user

PURPOSE:
  Account maintains the authoritative points balance, the append-only
  entry history, the one-time-grant registry, date-keyed daily
  counters, and the bounded referral counter for one user. It owns all
  mutation logic; the Actions facade never touches ledger state
  directly (single-writer discipline).

STATE IS A PROJECTION:
  Everything but the entry log is derived. On open, the account replays
  persisted entries to rebuild balance, grants, daily counters, and the
  referral count. No cached value can disagree with the log: any
  mutation appends an entry first and updates the projection from it.

CORRECTIONS:
  Mistakes are never edited away. Undoing a check-in or a routine task
  appends a compensating entry with negated delta referencing the
  original. Both entries remain in the ledger forever.

DAILY COUNTERS:
  Counters are keyed by calendar date (UTC) and retained for a bounded
  number of days (CounterRetentionDays). Stale buckets are evicted on
  write; the streak walk is therefore bounded by the retention window.

PERSISTENCE:
  Writes to the store are best-effort: a failed write is logged and
  swallowed, and the in-memory state remains correct for the session.
  No operation ever surfaces a persistence error to the caller.

SEE ALSO:
  - actions.go: Domain-event facade over this type
  - ledger/store.go: Persistence contract
*/
package rewards

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/fleur/rewards-engine/ledger"
)

// =============================================================================
// CONFIG
// =============================================================================

// Config tunes an Account. Zero values fall back to defaults.
type Config struct {
	Rules Rules

	// ClawbackStreakBonus also reverses a same-day streak bonus when the
	// check-in that triggered it is undone. The source behavior leaves
	// the bonus in place, so this is off by default.
	ClawbackStreakBonus bool

	// CounterRetentionDays bounds the daily counter map. Buckets older
	// than this many days are evicted and never read again.
	CounterRetentionDays int

	// Now is the clock. Tests override it to simulate multi-day flows.
	Now func() time.Time

	// Logger receives swallowed persistence failures. Defaults to the
	// standard logger.
	Logger *log.Logger
}

// DefaultConfig returns the production configuration.
func DefaultConfig() Config {
	return Config{
		Rules:                DefaultRules(),
		CounterRetentionDays: 400,
	}
}

func (c Config) withDefaults() Config {
	if c.Rules == (Rules{}) {
		c.Rules = DefaultRules()
	}
	if c.CounterRetentionDays <= 0 {
		c.CounterRetentionDays = 400
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// =============================================================================
// ACCOUNT
// =============================================================================

// dayCounter holds per-calendar-day gate state.
type dayCounter struct {
	CheckedIn         bool
	RoutineTaskPoints int64 // gross points awarded, reversals do not refund the cap
}

// Account is the points ledger store for one user. Safe for concurrent
// use; every public operation is atomic.
type Account struct {
	mu     sync.Mutex
	userID ledger.UserID
	store  ledger.Store // nil = in-memory only
	cfg    Config

	entries   []ledger.Entry
	balance   int64
	grants    map[GrantFlag]time.Time
	days      map[ledger.Day]*dayCounter
	reversed  map[ledger.EntryID]bool
	referrals int
}

// NewAccount creates an empty account with no persistence.
func NewAccount(userID ledger.UserID, cfg Config) *Account {
	return &Account{
		userID:   userID,
		cfg:      cfg.withDefaults(),
		grants:   make(map[GrantFlag]time.Time),
		days:     make(map[ledger.Day]*dayCounter),
		reversed: make(map[ledger.EntryID]bool),
	}
}

// OpenAccount loads a user's entries from the store and replays them
// into live state. Subsequent mutations are written through.
func OpenAccount(ctx context.Context, userID ledger.UserID, store ledger.Store, cfg Config) (*Account, error) {
	a := NewAccount(userID, cfg)
	a.store = store

	entries, err := store.Load(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load entries for %s: %w", userID, err)
	}
	for _, e := range entries {
		a.entries = append(a.entries, e)
		a.apply(e)
	}
	return a, nil
}

// UserID returns the account owner.
func (a *Account) UserID() ledger.UserID { return a.userID }

// =============================================================================
// MUTATIONS
// =============================================================================

// Earn appends an entry with delta = +amount. Returns an
// InvalidAmountError when amount is not positive; no entry is written.
func (a *Account) Earn(ctx context.Context, amount int64, reason ledger.Reason, meta ledger.Meta) (ledger.Entry, error) {
	if amount <= 0 {
		return ledger.Entry{}, &ledger.InvalidAmountError{Amount: amount, Reason: reason}
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	e := a.newEntry(amount, reason, meta)
	a.append(ctx, e)
	return e, nil
}

// GrantOnce issues a one-time grant. If the flag is already set the
// call is an idempotent no-op reporting AlreadyGranted - critical for
// safe retry from the client.
func (a *Account) GrantOnce(ctx context.Context, flag GrantFlag, amount int64, reason ledger.Reason) (Result, error) {
	if amount <= 0 {
		return Result{}, &ledger.InvalidAmountError{Amount: amount, Reason: reason}
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, granted := a.grants[flag]; granted {
		return Result{OK: false, AlreadyGranted: true, Message: "Already granted"}, nil
	}

	e := a.newEntry(amount, reason, nil)
	e.IdempotencyKey = grantKey(a.userID, flag)
	a.append(ctx, e)
	a.grants[flag] = e.At // covers reasons outside the standard mapping

	return Result{OK: true, Points: amount, Message: fmt.Sprintf("+%d points", amount)}, nil
}

// CheckIn records the daily check-in. Once per calendar day; every
// streak of StreakLength consecutive days earns an extra bonus.
func (a *Account) CheckIn(ctx context.Context) Result {
	a.mu.Lock()
	defer a.mu.Unlock()

	today := a.today()
	if a.day(today).CheckedIn {
		return Result{OK: false, Message: "Already checked in today"}
	}

	a.append(ctx, a.newEntry(a.cfg.Rules.DailyCheckIn, ReasonDailyCheckIn, nil))
	points := a.cfg.Rules.DailyCheckIn
	msg := fmt.Sprintf("Checked in! +%d point", points)

	streak := a.streak(today)
	if streak > 0 && streak%a.cfg.Rules.StreakLength == 0 {
		a.append(ctx, a.newEntry(a.cfg.Rules.StreakBonus, ReasonStreakBonus,
			ledger.Meta{"streak": fmt.Sprintf("%d", streak)}))
		points += a.cfg.Rules.StreakBonus
		msg = fmt.Sprintf("Checked in! %d-day streak bonus, +%d points", streak, points)
	}

	return Result{OK: true, Points: points, Message: msg}
}

// UndoCheckIn reverses today's check-in and clears the checked-in flag
// so CheckIn can run again the same day. A streak bonus already paid
// today is left in place unless ClawbackStreakBonus is set.
func (a *Account) UndoCheckIn(ctx context.Context) Result {
	a.mu.Lock()
	defer a.mu.Unlock()

	today := a.today()
	e, ok := a.findReversible(today, ReasonDailyCheckIn, "")
	if !ok {
		return Result{OK: false, Message: "No check-in to undo today"}
	}

	points := -e.Delta
	a.reverse(ctx, e)

	if a.cfg.ClawbackStreakBonus {
		if bonus, ok := a.findReversible(today, ReasonStreakBonus, ""); ok {
			a.reverse(ctx, bonus)
			points -= bonus.Delta
		}
	}

	return Result{OK: true, Points: points, Message: "Check-in undone"}
}

// CompleteRoutineTask awards routine-task points, capped at
// RoutineTaskDailyCap gross points per day across all tasks combined.
func (a *Account) CompleteRoutineTask(ctx context.Context, taskID string) Result {
	a.mu.Lock()
	defer a.mu.Unlock()

	today := a.today()
	if a.day(today).RoutineTaskPoints >= a.cfg.Rules.RoutineTaskDailyCap {
		return Result{OK: false, Points: 0, Message: "Daily limit reached"}
	}

	points := a.cfg.Rules.RoutineTask
	a.append(ctx, a.newEntry(points, ReasonRoutineTask, ledger.Meta{MetaTaskID: taskID}))
	return Result{OK: true, Points: points, Message: fmt.Sprintf("Task completed! +%d point", points)}
}

// UndoRoutineTask reverses today's credit for a task. Refuses to go
// net-negative for a task that was never credited today.
func (a *Account) UndoRoutineTask(ctx context.Context, taskID string) Result {
	a.mu.Lock()
	defer a.mu.Unlock()

	e, ok := a.findReversible(a.today(), ReasonRoutineTask, taskID)
	if !ok {
		return Result{OK: false, Points: 0, Message: "No points to undo for this task today"}
	}

	a.reverse(ctx, e)
	return Result{OK: true, Points: -e.Delta, Message: "Task undone"}
}

// ReverseEntry appends a compensating entry for a positive,
// not-yet-reversed entry, regardless of date.
func (a *Account) ReverseEntry(ctx context.Context, id ledger.EntryID) Result {
	a.mu.Lock()
	defer a.mu.Unlock()

	e, ok := a.find(id)
	if !ok {
		return Result{OK: false, Message: "Entry not found"}
	}
	if e.Delta <= 0 {
		return Result{OK: false, Message: "Entry is not reversible"}
	}
	if a.reversed[e.ID] {
		return Result{OK: false, Message: "Entry already reversed"}
	}

	a.reverse(ctx, e)
	return Result{OK: true, Points: -e.Delta, Message: "Entry reversed"}
}

// AddReferral awards referral points, bounded by the lifetime cap.
func (a *Account) AddReferral(ctx context.Context) Result {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.referrals >= a.cfg.Rules.ReferralCap {
		return Result{OK: false, Message: "Referral limit reached"}
	}

	points := a.cfg.Rules.Referral
	a.append(ctx, a.newEntry(points, ReasonReferFriend, nil))
	return Result{
		OK:     true,
		Points: points,
		Message: fmt.Sprintf("Referral confirmed! +%d points (%d/%d)",
			points, a.referrals, a.cfg.Rules.ReferralCap),
	}
}

// ClawbackTask reverses every un-reversed positive routine-task entry
// for a task, regardless of date. Used when a routine step is deleted.
func (a *Account) ClawbackTask(ctx context.Context, taskID string) ClawbackResult {
	a.mu.Lock()
	defer a.mu.Unlock()

	var res ClawbackResult
	// Snapshot first: reversing appends to a.entries while iterating.
	var targets []ledger.Entry
	for _, e := range a.entries {
		if e.Reason == ReasonRoutineTask && e.Delta > 0 && !a.reversed[e.ID] && e.Meta[MetaTaskID] == taskID {
			targets = append(targets, e)
		}
	}
	for _, e := range targets {
		a.reverse(ctx, e)
		res.Reversed++
		res.Points += e.Delta
	}
	return res
}

// =============================================================================
// SELECTORS (read-only)
// =============================================================================

// Balance returns the current balance: the sum of all entry deltas.
func (a *Account) Balance() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.balance
}

// Entries returns a chronological copy of the full ledger.
func (a *Account) Entries() []ledger.Entry {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]ledger.Entry, len(a.entries))
	copy(out, a.entries)
	return out
}

// History returns up to limit entries, newest first. For activity feeds.
func (a *Account) History(limit int) []ledger.Entry {
	a.mu.Lock()
	defer a.mu.Unlock()

	n := len(a.entries)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]ledger.Entry, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, a.entries[i])
	}
	return out
}

// HasGrant reports whether a one-time grant has been issued.
func (a *Account) HasGrant(flag GrantFlag) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.grants[flag]
	return ok
}

// Grants returns a copy of the grant registry.
func (a *Account) Grants() map[GrantFlag]time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[GrantFlag]time.Time, len(a.grants))
	for k, v := range a.grants {
		out[k] = v
	}
	return out
}

// ReferralCount returns the number of confirmed referrals (0..cap).
func (a *Account) ReferralCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.referrals
}

// CheckedInToday reports whether today's check-in has happened.
func (a *Account) CheckedInToday() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.day(a.today()).CheckedIn
}

// Streak returns the current consecutive-day check-in streak. A streak
// broken yesterday counts as 0; a streak alive but not yet extended
// today still counts.
func (a *Account) Streak() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	today := a.today()
	if a.day(today).CheckedIn {
		return a.streak(today)
	}
	return a.streak(today.Prev())
}

// Rules returns the constants table this account runs on.
func (a *Account) Rules() Rules { return a.cfg.Rules }

// =============================================================================
// INTERNALS (callers hold a.mu)
// =============================================================================

func (a *Account) today() ledger.Day { return ledger.DayOf(a.cfg.Now()) }

// day returns the counter bucket for d, creating it if absent.
func (a *Account) day(d ledger.Day) *dayCounter {
	c := a.days[d]
	if c == nil {
		c = &dayCounter{}
		a.days[d] = c
		a.evict(d)
	}
	return c
}

// evict drops counter buckets older than the retention window.
func (a *Account) evict(latest ledger.Day) {
	cutoff := latest.AddDays(-a.cfg.CounterRetentionDays)
	for d := range a.days {
		if d.Before(cutoff) {
			delete(a.days, d)
		}
	}
}

// streak counts consecutive checked-in days ending at (and including) d.
func (a *Account) streak(d ledger.Day) int {
	n := 0
	for {
		c := a.days[d]
		if c == nil || !c.CheckedIn {
			return n
		}
		n++
		d = d.Prev()
	}
}

func (a *Account) newEntry(delta int64, reason ledger.Reason, meta ledger.Meta) ledger.Entry {
	return ledger.Entry{
		ID:     ledger.NewEntryID(),
		UserID: a.userID,
		Delta:  delta,
		Reason: reason,
		At:     a.cfg.Now().UTC(),
		Meta:   meta.Clone(),
	}
}

// append records the entry, updates the projection, and persists
// best-effort. This is the single write path.
func (a *Account) append(ctx context.Context, e ledger.Entry) {
	a.entries = append(a.entries, e)
	a.apply(e)
	a.persist(ctx, e)
}

// apply folds one entry into the derived state. Shared between live
// mutation and replay-on-open so the two can never diverge.
func (a *Account) apply(e ledger.Entry) {
	a.balance += e.Delta

	if e.ReversalOf != "" {
		a.reversed[e.ReversalOf] = true
	}

	if e.Delta > 0 {
		if flag, ok := reasonGrants[e.Reason]; ok {
			if _, seen := a.grants[flag]; !seen {
				a.grants[flag] = e.At
			}
		} else if flag, ok := parseGrantKey(e.IdempotencyKey); ok {
			if _, seen := a.grants[flag]; !seen {
				a.grants[flag] = e.At
			}
		}
	}

	switch e.Reason {
	case ReasonDailyCheckIn:
		if e.Delta > 0 {
			a.day(e.Day()).CheckedIn = true
		}
	case ReasonDailyCheckIn.Reversed():
		a.day(e.Day()).CheckedIn = false
	case ReasonRoutineTask:
		if e.Delta > 0 {
			a.day(e.Day()).RoutineTaskPoints += e.Delta
		}
	case ReasonReferFriend:
		if e.Delta > 0 {
			a.referrals++
		}
	case ReasonReferFriend.Reversed():
		a.referrals--
	}
}

// reverse appends the compensating entry for e.
func (a *Account) reverse(ctx context.Context, e ledger.Entry) ledger.Entry {
	re := ledger.Entry{
		ID:         ledger.NewEntryID(),
		UserID:     a.userID,
		Delta:      -e.Delta,
		Reason:     e.Reason.Reversed(),
		At:         a.cfg.Now().UTC(),
		Meta:       e.Meta.Clone(),
		ReversalOf: e.ID,
	}
	a.append(ctx, re)
	return re
}

// persist writes through to the store. Failures are logged and
// swallowed: in-memory state stays authoritative for the session.
func (a *Account) persist(ctx context.Context, e ledger.Entry) {
	if a.store == nil {
		return
	}
	if err := a.store.Append(ctx, e); err != nil {
		logger := a.cfg.Logger
		if logger == nil {
			logger = log.Default()
		}
		logger.Printf("rewards: persist entry %s (%s %+d) for %s failed: %v",
			e.ID, e.Reason, e.Delta, a.userID, err)
	}
}

func (a *Account) find(id ledger.EntryID) (ledger.Entry, bool) {
	for _, e := range a.entries {
		if e.ID == id {
			return e, true
		}
	}
	return ledger.Entry{}, false
}

// findReversible returns the latest positive, un-reversed entry with
// the given reason on day d. taskID filters on Meta[taskId] when set.
func (a *Account) findReversible(d ledger.Day, reason ledger.Reason, taskID string) (ledger.Entry, bool) {
	for i := len(a.entries) - 1; i >= 0; i-- {
		e := a.entries[i]
		if e.Reason != reason || e.Delta <= 0 || e.Day() != d || a.reversed[e.ID] {
			continue
		}
		if taskID != "" && e.Meta[MetaTaskID] != taskID {
			continue
		}
		return e, true
	}
	return ledger.Entry{}, false
}

// =============================================================================
// GRANT IDEMPOTENCY KEYS
// =============================================================================

func grantKey(userID ledger.UserID, flag GrantFlag) string {
	return fmt.Sprintf("grant:%s:%s", userID, flag)
}

func parseGrantKey(key string) (GrantFlag, bool) {
	if !strings.HasPrefix(key, "grant:") {
		return "", false
	}
	i := strings.LastIndex(key, ":")
	if i < 0 || i == len(key)-1 {
		return "", false
	}
	return GrantFlag(key[i+1:]), true
}
