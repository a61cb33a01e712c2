package engine

import (
	"context"
	"errors"
	"log/slog"

	"github.com/joescharf/worktime/internal/models"
	"github.com/joescharf/worktime/internal/store"
	"github.com/joescharf/worktime/internal/wallclock"
)

// Editor validates and applies changes to stored sessions.
type Editor struct {
	store  store.Store
	logger *slog.Logger
	cfg    Config
}

// NewEditor creates a session editor. A nil logger uses slog.Default().
func NewEditor(s store.Store, logger *slog.Logger, cfg Config) *Editor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Editor{store: s, logger: logger, cfg: cfg.withDefaults()}
}

// SplitResult holds the two sessions produced by a split.
type SplitResult struct {
	First  *models.Session `json:"first"`
	Second *models.Session `json:"second"`
}

// ManualSession describes a session entered by hand.
type ManualSession struct {
	ProjectID    string            `json:"project_id"`
	AppName      string            `json:"app_name"`
	Seconds      int64             `json:"seconds"`
	ActivityType *string           `json:"activity_type"`
	Timestamp    wallclock.Instant `json:"timestamp"`
}

func (e *Editor) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, e.cfg.StoreTimeout)
}

func (e *Editor) load(ctx context.Context, op, id string) (*models.Session, error) {
	sess, err := e.store.GetSession(ctx, id)
	if err != nil {
		return nil, StoreError(op, id, err)
	}
	return sess, nil
}

func (e *Editor) save(ctx context.Context, op string, sess *models.Session) error {
	if err := e.store.UpdateSession(ctx, sess); err != nil {
		return StoreError(op, sess.ID, err)
	}
	return nil
}

// UpdateDuration replaces the session's seconds.
func (e *Editor) UpdateDuration(ctx context.Context, id string, seconds int64) (*models.Session, error) {
	const op = "update duration"
	if seconds <= 0 {
		return nil, newError(op, id, ErrInvalidDuration, "%ds must be positive", seconds)
	}

	ctx, cancel := e.storeCtx(ctx)
	defer cancel()

	sess, err := e.load(ctx, op, id)
	if err != nil {
		return nil, err
	}
	sess.Seconds = seconds
	if err := e.save(ctx, op, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// UpdateActivityType replaces the session's activity type; nil clears it.
func (e *Editor) UpdateActivityType(ctx context.Context, id string, activityType *string) (*models.Session, error) {
	const op = "update activity type"
	ctx, cancel := e.storeCtx(ctx)
	defer cancel()

	sess, err := e.load(ctx, op, id)
	if err != nil {
		return nil, err
	}
	activity, err := resolveActivityType(ctx, e.store, op, id, activityType)
	if err != nil {
		return nil, err
	}
	sess.ActivityType = activity
	if err := e.save(ctx, op, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Retime replaces timestamp, seconds and activity type in one write.
func (e *Editor) Retime(ctx context.Context, id string, timestamp wallclock.Instant, seconds int64, activityType *string) (*models.Session, error) {
	const op = "retime session"
	if timestamp == 0 {
		return nil, newError(op, id, ErrInvalidTimestamp, "timestamp is required")
	}
	if seconds <= 0 {
		return nil, newError(op, id, ErrInvalidDuration, "%ds must be positive", seconds)
	}

	ctx, cancel := e.storeCtx(ctx)
	defer cancel()

	sess, err := e.load(ctx, op, id)
	if err != nil {
		return nil, err
	}
	activity, err := resolveActivityType(ctx, e.store, op, id, activityType)
	if err != nil {
		return nil, err
	}
	sess.Timestamp = timestamp
	sess.Seconds = seconds
	sess.ActivityType = activity
	if err := e.save(ctx, op, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Split divides a session at firstSeconds. The original keeps its id and
// start; the second part starts exactly where the first ends.
func (e *Editor) Split(ctx context.Context, id string, firstSeconds int64, firstActivity, secondActivity *string) (*SplitResult, error) {
	const op = "split session"
	ctx, cancel := e.storeCtx(ctx)
	defer cancel()

	orig, err := e.load(ctx, op, id)
	if err != nil {
		return nil, err
	}
	if firstSeconds <= 0 || firstSeconds >= orig.Seconds {
		return nil, newError(op, id, ErrInvalidSplit, "first part %ds must be within (0, %d)", firstSeconds, orig.Seconds)
	}
	first, err := resolveActivityType(ctx, e.store, op, id, firstActivity)
	if err != nil {
		return nil, err
	}
	second, err := resolveActivityType(ctx, e.store, op, id, secondActivity)
	if err != nil {
		return nil, err
	}

	before := *orig
	shrunk := *orig
	shrunk.Seconds = firstSeconds
	shrunk.ActivityType = first
	tail := &models.Session{
		ProjectID:    orig.ProjectID,
		AppName:      orig.AppName,
		Seconds:      orig.Seconds - firstSeconds,
		Type:         orig.Type,
		ActivityType: second,
		Timestamp:    orig.Timestamp.Add(firstSeconds),
	}

	if sp, ok := e.store.(store.Splitter); ok {
		if err := sp.SplitSession(ctx, &shrunk, tail); err != nil {
			return nil, StoreError(op, id, err)
		}
		return &SplitResult{First: &shrunk, Second: tail}, nil
	}

	if err := e.save(ctx, op, &shrunk); err != nil {
		return nil, err
	}
	if err := e.store.CreateSession(ctx, tail); err != nil {
		return nil, e.rollbackSplit(ctx, op, &before, err)
	}
	return &SplitResult{First: &shrunk, Second: tail}, nil
}

// rollbackSplit restores the original after the insert half of a split
// failed. If the restore fails too the caller gets ErrPartialFailure.
func (e *Editor) rollbackSplit(ctx context.Context, op string, before *models.Session, insertErr error) error {
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.cfg.StoreTimeout)
	defer cancel()

	if err := e.store.UpdateSession(rctx, before); err != nil {
		e.logger.Error("split rollback failed, session needs manual reconciliation",
			"session", before.ID, "original_seconds", before.Seconds, "insert_error", insertErr, "rollback_error", err)
		return &Error{
			Op:     op,
			ID:     before.ID,
			Err:    ErrPartialFailure,
			Detail: "original shrunk but second part not inserted: " + errors.Join(insertErr, err).Error(),
		}
	}
	return StoreError(op, before.ID, insertErr)
}

// Delete removes a session.
func (e *Editor) Delete(ctx context.Context, id string) error {
	ctx, cancel := e.storeCtx(ctx)
	defer cancel()

	if err := e.store.DeleteSession(ctx, id); err != nil {
		return StoreError("delete session", id, err)
	}
	return nil
}

// CreateManual records a manually entered session. The project may be
// archived but must exist.
func (e *Editor) CreateManual(ctx context.Context, in ManualSession) (*models.Session, error) {
	const op = "create session"
	if in.Timestamp == 0 {
		return nil, newError(op, in.ProjectID, ErrInvalidTimestamp, "timestamp is required")
	}
	if in.Seconds <= 0 {
		return nil, newError(op, in.ProjectID, ErrInvalidDuration, "%ds must be positive", in.Seconds)
	}

	ctx, cancel := e.storeCtx(ctx)
	defer cancel()

	if _, err := e.store.GetProject(ctx, in.ProjectID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, newError(op, in.ProjectID, ErrInvalidProject, "unknown project")
		}
		return nil, StoreError(op, in.ProjectID, err)
	}
	activity, err := resolveActivityType(ctx, e.store, op, in.ProjectID, in.ActivityType)
	if err != nil {
		return nil, err
	}

	appName := in.AppName
	if appName == "" {
		appName = ManualAppName
	}
	sess := &models.Session{
		ProjectID:    in.ProjectID,
		AppName:      appName,
		Seconds:      in.Seconds,
		Type:         models.SessionTypeManual,
		ActivityType: activity,
		Timestamp:    in.Timestamp,
	}
	if err := e.store.CreateSession(ctx, sess); err != nil {
		return nil, StoreError(op, in.ProjectID, err)
	}
	return sess, nil
}
