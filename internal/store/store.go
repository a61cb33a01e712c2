package store

import (
	"context"

	"github.com/joescharf/worktime/internal/models"
	"github.com/joescharf/worktime/internal/wallclock"
)

// EventFilter specifies filters for listing tracking events.
type EventFilter struct {
	AfterID     int64
	UnackedOnly bool
	Limit       int
}

// Store defines the persistence interface for worktime.
type Store interface {
	// Projects
	CreateProject(ctx context.Context, p *models.Project) error
	GetProject(ctx context.Context, id string) (*models.Project, error)
	GetProjectByName(ctx context.Context, name string) (*models.Project, error)
	ListProjects(ctx context.Context, status models.ProjectStatus) ([]*models.Project, error)
	UpdateProject(ctx context.Context, p *models.Project) error
	ArchiveProject(ctx context.Context, id string) error
	ReactivateProject(ctx context.Context, id string) error
	DeleteProject(ctx context.Context, id string) error

	// Sessions
	CreateSession(ctx context.Context, s *models.Session) error
	GetSession(ctx context.Context, id string) (*models.Session, error)
	GetSessionsInRange(ctx context.Context, start, end wallclock.Instant) ([]*models.Session, error)
	ListProjectSessions(ctx context.Context, projectID string) ([]*models.Session, error)
	UpdateSession(ctx context.Context, s *models.Session) error
	DeleteSession(ctx context.Context, id string) error

	// Activity Types
	CreateActivityType(ctx context.Context, a *models.ActivityType) error
	GetActivityType(ctx context.Context, id string) (*models.ActivityType, error)
	ListActivityTypes(ctx context.Context) ([]*models.ActivityType, error)
	UpdateActivityType(ctx context.Context, a *models.ActivityType) error
	DeleteActivityType(ctx context.Context, id string) error

	// Notes
	CreateNote(ctx context.Context, n *models.Note) error
	ListNotesInRange(ctx context.Context, start, end wallclock.Instant) ([]*models.Note, error)
	UpdateNote(ctx context.Context, n *models.Note) error
	DeleteNote(ctx context.Context, id string) error

	// Settings
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error

	// Tracking Events
	AppendEvent(ctx context.Context, e *models.TrackingEvent) error
	ListEvents(ctx context.Context, filter EventFilter) ([]*models.TrackingEvent, error)
	AckEvent(ctx context.Context, id int64) error

	// Checkpoint
	SaveCheckpoint(ctx context.Context, c *models.Checkpoint) error
	GetCheckpoint(ctx context.Context) (*models.Checkpoint, error)
	ClearCheckpoint(ctx context.Context) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Splitter is implemented by stores that can shrink a session and insert
// its second part in a single transaction.
type Splitter interface {
	SplitSession(ctx context.Context, original, second *models.Session) error
}
