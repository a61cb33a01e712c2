package engine

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"strconv"
	"sync"

	"github.com/joescharf/worktime/internal/models"
	"github.com/joescharf/worktime/internal/store"
	"github.com/joescharf/worktime/internal/wallclock"
)

// TrackingState is the single in-flight tracking run.
type TrackingState struct {
	ProjectID      string            `json:"project_id"`
	ProjectName    string            `json:"project_name"`
	ActivityType   *string           `json:"activity_type"`
	AppName        string            `json:"app_name"`
	StartedAt      wallclock.Instant `json:"started_at"`
	LastActivityAt wallclock.Instant `json:"last_activity_at"`
	// IdleSeconds is the total of the gaps carved out of this run.
	IdleSeconds int64 `json:"idle_seconds"`
	// AppSeconds is the active time credited to each sampled application.
	AppSeconds map[string]int64 `json:"app_seconds,omitempty"`
}

// topApp is the application with the most credited seconds, ties broken by
// name. Without samples it is the configured app name.
func (s *TrackingState) topApp() string {
	best, bestSeconds := s.AppName, int64(-1)
	for app, n := range s.AppSeconds {
		if n > bestSeconds || (n == bestSeconds && app < best) {
			best, bestSeconds = app, n
		}
	}
	return best
}

// activeSeconds is the elapsed wall time up to end minus carved-out idle gaps.
func (s *TrackingState) activeSeconds(end wallclock.Instant) int64 {
	n := end.Sub(s.StartedAt) - s.IdleSeconds
	if n < 0 {
		return 0
	}
	return n
}

// PendingIdlePeriod is a detected silence gap awaiting attribution.
type PendingIdlePeriod struct {
	StartTime wallclock.Instant `json:"start_time"`
	EndTime   wallclock.Instant `json:"end_time"`
	Minutes   int64             `json:"minutes"`
	Resolved  bool              `json:"resolved"`
	ProjectID string            `json:"project_id,omitempty"`
}

func newPending(start, end wallclock.Instant, projectID string) *PendingIdlePeriod {
	return &PendingIdlePeriod{
		StartTime: start,
		EndTime:   end,
		Minutes:   end.Sub(start) / 60,
		ProjectID: projectID,
	}
}

// Status is a point-in-time view of the tracker.
type Status struct {
	IsTracking           bool               `json:"is_tracking"`
	ElapsedSeconds       int64              `json:"elapsed_seconds"`
	ProjectID            string             `json:"project_id,omitempty"`
	ProjectName          string             `json:"project_name,omitempty"`
	ActivityType         *string            `json:"activity_type,omitempty"`
	AppName              string             `json:"app_name,omitempty"`
	StartedAt            *wallclock.Instant `json:"started_at,omitempty"`
	LastActivityAt       *wallclock.Instant `json:"last_activity_at,omitempty"`
	IdleThresholdMinutes int                `json:"idle_threshold_minutes"`
	PendingIdle          *PendingIdlePeriod `json:"pending_idle,omitempty"`
	AppSeconds           map[string]int64   `json:"app_seconds,omitempty"`
}

// StopResult describes a completed tracking run.
type StopResult struct {
	// Session is nil when the run accrued less than one active second.
	Session     *models.Session    `json:"session"`
	Seconds     int64              `json:"seconds"`
	PendingIdle *PendingIdlePeriod `json:"pending_idle,omitempty"`
}

// Tracker owns the tracking slot and the pending idle period. All
// transitions are serialized by mu and either apply fully or not at all.
type Tracker struct {
	store  store.Store
	clock  Clock
	logger *slog.Logger
	cfg    Config

	mu             sync.Mutex
	threshold      int
	state          *TrackingState
	pending        *PendingIdlePeriod
	lastCheckpoint wallclock.Instant
	undelivered    []*models.TrackingEvent
	subs           map[int]chan models.TrackingEvent
	nextSub        int
}

// NewTracker creates a tracker. A nil clock uses the system clock and a nil
// logger uses slog.Default().
func NewTracker(s store.Store, clock Clock, logger *slog.Logger, cfg Config) *Tracker {
	if clock == nil {
		clock = SystemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.withDefaults()
	return &Tracker{
		store:     s,
		clock:     clock,
		logger:    logger,
		cfg:       cfg,
		threshold: cfg.IdleThresholdMinutes,
		subs:      make(map[int]chan models.TrackingEvent),
	}
}

func (t *Tracker) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, t.cfg.StoreTimeout)
}

func (t *Tracker) thresholdSeconds() int64 {
	return int64(t.threshold) * 60
}

// StartTracking begins a tracking run for an active project.
func (t *Tracker) StartTracking(ctx context.Context, projectID string, activityType *string) (*Status, error) {
	const op = "start tracking"
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != nil {
		return nil, newError(op, projectID, ErrAlreadyTracking, "project %s is being tracked", t.state.ProjectID)
	}

	ctx, cancel := t.storeCtx(ctx)
	defer cancel()

	p, err := activeProject(ctx, t.store, op, projectID)
	if err != nil {
		return nil, err
	}
	activity, err := resolveActivityType(ctx, t.store, op, projectID, activityType)
	if err != nil {
		return nil, err
	}

	now := t.clock.Now()
	state := &TrackingState{
		ProjectID:      p.ID,
		ProjectName:    p.Name,
		ActivityType:   activity,
		AppName:        t.cfg.AppName,
		StartedAt:      now,
		LastActivityAt: now,
		AppSeconds:     map[string]int64{},
	}
	if err := t.store.SaveCheckpoint(ctx, checkpointOf(state, now)); err != nil {
		return nil, StoreError(op, projectID, err)
	}

	t.state = state
	t.lastCheckpoint = now
	t.logger.Info("tracking started", "project", p.Name, "activity", models.Deref(state.ActivityType), "at", now)
	return t.statusLocked(now), nil
}

// Tick records observed activity. A gap since the previous tick longer than
// the idle threshold is carved out as the pending idle period unless one is
// already outstanding, in which case the gap counts as active time.
func (t *Tracker) Tick(ctx context.Context, appName string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state == nil {
		return newError("tick", "", ErrNotTracking, "")
	}

	now := t.clock.Now()
	if now < t.state.LastActivityAt {
		return nil
	}

	if appName == "" {
		appName = t.state.AppName
	}

	gap := now.Sub(t.state.LastActivityAt)
	carved := false
	if gap > t.thresholdSeconds() {
		if t.pending == nil {
			carved = true
			t.pending = newPending(t.state.LastActivityAt, now, t.state.ProjectID)
			t.state.IdleSeconds += gap
			t.logger.Info("idle gap detected", "project", t.state.ProjectName, "start", t.pending.StartTime, "minutes", t.pending.Minutes)
			t.publish(ctx, &models.TrackingEvent{
				Kind:      models.EventIdleDetected,
				ProjectID: t.state.ProjectID,
				Seconds:   gap,
				Reason:    "activity resumed after silence",
			})
		} else {
			t.logger.Warn("idle gap not carved out, previous idle period unresolved",
				"gap_seconds", gap, "pending_start", t.pending.StartTime)
		}
	}

	if !carved && gap > 0 {
		if t.state.AppSeconds == nil {
			t.state.AppSeconds = map[string]int64{}
		}
		t.state.AppSeconds[appName] += gap
	}
	t.state.LastActivityAt = now
	t.state.AppName = appName

	if now.Sub(t.lastCheckpoint) >= int64(t.cfg.CheckpointInterval.Seconds()) {
		cctx, cancel := t.storeCtx(ctx)
		defer cancel()
		if err := t.store.SaveCheckpoint(cctx, checkpointOf(t.state, now)); err != nil {
			t.logger.Warn("failed to save tracking checkpoint", "error", err)
		} else {
			t.lastCheckpoint = now
		}
	}
	return nil
}

// StopTracking ends the run at the current instant and persists one session
// when at least one active second accrued. A pending idle period survives.
func (t *Tracker) StopTracking(ctx context.Context) (*StopResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state == nil {
		return nil, newError("stop tracking", "", ErrNotTracking, "")
	}

	state := t.state
	end := t.clock.Now()
	sess, err := t.finishLocked(ctx, "stop tracking", end)
	if err != nil {
		return nil, err
	}
	t.logger.Info("tracking stopped", "project", state.ProjectName, "seconds", state.activeSeconds(end))
	return &StopResult{Session: sess, Seconds: state.activeSeconds(end), PendingIdle: t.copyPending()}, nil
}

// CheckIdle is the auto-stop watchdog. When no activity was observed for
// longer than the idle threshold, tracking stops at the last confirmed
// activity, the silent interval becomes pending and a durable
// tracking-auto-stopped event is emitted. It returns nil when nothing fired.
func (t *Tracker) CheckIdle(ctx context.Context) (*models.TrackingEvent, error) {
	const op = "auto-stop"
	t.mu.Lock()
	defer t.mu.Unlock()

	t.flushLocked(ctx)

	if t.state == nil {
		return nil, nil
	}
	now := t.clock.Now()
	last := t.state.LastActivityAt
	if now.Sub(last) <= t.thresholdSeconds() {
		return nil, nil
	}

	state := t.state
	seconds := state.activeSeconds(last)
	sess, err := t.finishLocked(ctx, op, last)
	if err != nil {
		return nil, err
	}

	if t.pending == nil {
		t.pending = newPending(last, now, state.ProjectID)
	} else {
		t.logger.Warn("silent interval not recorded, previous idle period unresolved",
			"start", last, "end", now)
	}

	ev := &models.TrackingEvent{
		Kind:      models.EventAutoStopped,
		ProjectID: state.ProjectID,
		Seconds:   seconds,
		Reason:    "idle-timeout",
	}
	if sess != nil {
		ev.SessionID = sess.ID
	}
	t.logger.Info("tracking auto-stopped", "project", state.ProjectName, "seconds", seconds, "last_activity", last)
	t.publish(ctx, ev)
	return ev, nil
}

// finishLocked persists the run ending at end and clears the tracking
// state. On store failure the state is left untouched.
func (t *Tracker) finishLocked(ctx context.Context, op string, end wallclock.Instant) (*models.Session, error) {
	ctx, cancel := t.storeCtx(ctx)
	defer cancel()

	state := t.state
	var sess *models.Session
	if seconds := state.activeSeconds(end); seconds >= 1 {
		sess = &models.Session{
			ProjectID:    state.ProjectID,
			AppName:      state.topApp(),
			Seconds:      seconds,
			Type:         models.SessionTypeComputer,
			ActivityType: state.ActivityType,
			Timestamp:    state.StartedAt,
		}
		if err := t.store.CreateSession(ctx, sess); err != nil {
			return nil, StoreError(op, state.ProjectID, err)
		}
	}

	// A stale checkpoint is recognized on Recover and not recorded twice.
	if err := t.store.ClearCheckpoint(ctx); err != nil {
		t.logger.Warn("failed to clear tracking checkpoint", "error", err)
	}
	t.state = nil
	return sess, nil
}

// Status returns the current tracking state. It never touches the store.
func (t *Tracker) Status() *Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.statusLocked(t.clock.Now())
}

func (t *Tracker) statusLocked(now wallclock.Instant) *Status {
	st := &Status{
		IdleThresholdMinutes: t.threshold,
		PendingIdle:          t.copyPending(),
	}
	if t.state == nil {
		return st
	}
	started, last := t.state.StartedAt, t.state.LastActivityAt
	st.IsTracking = true
	st.ElapsedSeconds = t.state.activeSeconds(now)
	st.ProjectID = t.state.ProjectID
	st.ProjectName = t.state.ProjectName
	st.ActivityType = t.state.ActivityType
	st.AppName = t.state.AppName
	st.AppSeconds = maps.Clone(t.state.AppSeconds)
	st.StartedAt = &started
	st.LastActivityAt = &last
	return st
}

// IdleThreshold returns the idle threshold in minutes.
func (t *Tracker) IdleThreshold() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.threshold
}

// SetIdleThreshold persists and applies a new idle threshold.
func (t *Tracker) SetIdleThreshold(ctx context.Context, minutes int) error {
	const op = "set idle threshold"
	if minutes <= 0 {
		return newError(op, "", ErrInvalidThreshold, "%d minutes must be a positive integer", minutes)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	ctx, cancel := t.storeCtx(ctx)
	defer cancel()
	if err := t.store.SetSetting(ctx, idleThresholdSetting, strconv.Itoa(minutes)); err != nil {
		return StoreError(op, "", err)
	}
	t.threshold = minutes
	t.logger.Info("idle threshold updated", "minutes", minutes)
	return nil
}

// LoadSettings applies the persisted idle threshold, if any.
func (t *Tracker) LoadSettings(ctx context.Context) error {
	ctx, cancel := t.storeCtx(ctx)
	defer cancel()

	v, err := t.store.GetSetting(ctx, idleThresholdSetting)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return StoreError("load settings", idleThresholdSetting, err)
	}

	minutes, err := strconv.Atoi(v)
	if err != nil || minutes <= 0 {
		t.logger.Warn("ignoring invalid persisted idle threshold", "value", v)
		return nil
	}

	t.mu.Lock()
	t.threshold = minutes
	t.mu.Unlock()
	return nil
}

// Checkpoint saves the running session's progress up to the last confirmed
// activity, so a restart recovers everything tracked so far. It is a no-op
// when not tracking.
func (t *Tracker) Checkpoint(ctx context.Context) error {
	const op = "checkpoint tracking"
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state == nil {
		return nil
	}
	ctx, cancel := t.storeCtx(ctx)
	defer cancel()

	last := t.state.LastActivityAt
	if err := t.store.SaveCheckpoint(ctx, checkpointOf(t.state, last)); err != nil {
		return StoreError(op, t.state.ProjectID, err)
	}
	t.lastCheckpoint = last
	t.logger.Info("tracking checkpoint saved", "project", t.state.ProjectName, "seconds", t.state.activeSeconds(last))
	return nil
}

// Recover turns the checkpoint of an interrupted run into a session. It
// returns nil when there was nothing to recover.
func (t *Tracker) Recover(ctx context.Context) (*models.Session, error) {
	const op = "recover tracking"
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != nil {
		return nil, nil
	}

	ctx, cancel := t.storeCtx(ctx)
	defer cancel()

	cp, err := t.store.GetCheckpoint(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, StoreError(op, "", err)
	}

	var sess *models.Session
	if cp.ActiveSeconds >= 1 {
		sess, err = t.recoverSession(ctx, cp)
		if err != nil {
			return nil, err
		}
	}

	if err := t.store.ClearCheckpoint(ctx); err != nil {
		return nil, StoreError(op, "", err)
	}

	if sess != nil {
		t.logger.Info("recovered interrupted tracking run", "project", cp.ProjectID, "seconds", sess.Seconds)
		t.publish(ctx, &models.TrackingEvent{
			Kind:      models.EventRecovered,
			ProjectID: sess.ProjectID,
			SessionID: sess.ID,
			Seconds:   sess.Seconds,
			Reason:    "process restarted while tracking",
		})
	}
	return sess, nil
}

func (t *Tracker) recoverSession(ctx context.Context, cp *models.Checkpoint) (*models.Session, error) {
	const op = "recover tracking"

	if _, err := t.store.GetProject(ctx, cp.ProjectID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			t.logger.Warn("dropping checkpoint for missing project", "project", cp.ProjectID)
			return nil, nil
		}
		return nil, StoreError(op, cp.ProjectID, err)
	}

	existing, err := t.store.GetSessionsInRange(ctx, cp.StartedAt, cp.StartedAt)
	if err != nil {
		return nil, StoreError(op, cp.ProjectID, err)
	}
	for _, s := range existing {
		if s.ProjectID == cp.ProjectID && s.Timestamp == cp.StartedAt && s.Type == models.SessionTypeComputer {
			return nil, nil
		}
	}

	sess := &models.Session{
		ProjectID:    cp.ProjectID,
		AppName:      cp.AppName,
		Seconds:      cp.ActiveSeconds,
		Type:         models.SessionTypeComputer,
		ActivityType: cp.ActivityType,
		Timestamp:    cp.StartedAt,
	}
	if err := t.store.CreateSession(ctx, sess); err != nil {
		return nil, StoreError(op, cp.ProjectID, err)
	}
	return sess, nil
}

func checkpointOf(s *TrackingState, now wallclock.Instant) *models.Checkpoint {
	return &models.Checkpoint{
		ProjectID:     s.ProjectID,
		ActivityType:  s.ActivityType,
		AppName:       s.topApp(),
		StartedAt:     s.StartedAt,
		ActiveSeconds: s.activeSeconds(now),
	}
}

func (t *Tracker) copyPending() *PendingIdlePeriod {
	if t.pending == nil {
		return nil
	}
	p := *t.pending
	return &p
}
