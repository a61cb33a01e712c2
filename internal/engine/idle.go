package engine

import (
	"context"

	"github.com/joescharf/worktime/internal/models"
)

// CheckPending returns a copy of the outstanding idle period, or nil.
func (t *Tracker) CheckPending() *PendingIdlePeriod {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.copyPending()
}

// AttributeToProject books the pending idle period as off-computer time on
// projectID and clears it.
func (t *Tracker) AttributeToProject(ctx context.Context, projectID string) (*models.Session, error) {
	const op = "attribute idle"
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.pending == nil {
		return nil, newError(op, projectID, ErrNoPendingIdle, "")
	}

	ctx, cancel := t.storeCtx(ctx)
	defer cancel()

	if _, err := activeProject(ctx, t.store, op, projectID); err != nil {
		return nil, err
	}

	seconds := t.pending.Minutes * 60
	if seconds <= 0 {
		return nil, newError(op, projectID, ErrInvalidDuration, "idle period of %ds rounds to 0 minutes", t.pending.EndTime.Sub(t.pending.StartTime))
	}

	sess := &models.Session{
		ProjectID: projectID,
		AppName:   IdleAppName,
		Seconds:   seconds,
		Type:      models.SessionTypeOffComputer,
		Timestamp: t.pending.StartTime,
	}
	if err := t.store.CreateSession(ctx, sess); err != nil {
		return nil, StoreError(op, projectID, err)
	}

	t.logger.Info("idle time attributed", "project", projectID, "minutes", t.pending.Minutes)
	t.pending = nil
	return sess, nil
}

// AttributeAsBreak discards the pending idle period without creating a
// session.
func (t *Tracker) AttributeAsBreak() (*PendingIdlePeriod, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.pending == nil {
		return nil, newError("attribute break", "", ErrNoPendingIdle, "")
	}
	resolved := t.copyPending()
	resolved.Resolved = true
	t.pending = nil
	t.logger.Info("idle time discarded as break", "minutes", resolved.Minutes)
	return resolved, nil
}
