package engine

import (
	"context"
	"errors"
	"strings"

	"github.com/joescharf/worktime/internal/models"
	"github.com/joescharf/worktime/internal/store"
)

// resolveActivityType returns the canonical stored name for name, matching
// case-insensitively. A nil or empty name resolves to nil.
func resolveActivityType(ctx context.Context, st store.Store, op, id string, name *string) (*string, error) {
	if name == nil || strings.TrimSpace(*name) == "" {
		return nil, nil
	}
	types, err := st.ListActivityTypes(ctx)
	if err != nil {
		return nil, StoreError(op, id, err)
	}
	for _, t := range types {
		if strings.EqualFold(t.Name, strings.TrimSpace(*name)) {
			return models.StringPtr(t.Name), nil
		}
	}
	return nil, newError(op, id, ErrNotFound, "activity type %q", *name)
}

// activeProject loads a project and rejects unknown or archived ones.
func activeProject(ctx context.Context, st store.Store, op, projectID string) (*models.Project, error) {
	p, err := st.GetProject(ctx, projectID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, newError(op, projectID, ErrInvalidProject, "unknown project")
		}
		return nil, StoreError(op, projectID, err)
	}
	if p.IsArchived() {
		return nil, newError(op, projectID, ErrInvalidProject, "project %q is archived", p.Name)
	}
	return p, nil
}
