package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/joescharf/worktime/internal/models"
	"github.com/joescharf/worktime/internal/wallclock"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore implements Store using modernc.org/sqlite (pure Go, no CGO).
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)
var _ Splitter = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// Ensure parent directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite only supports one concurrent writer. Limiting to a single connection
	// serializes all DB access through Go's connection pool, preventing
	// "database is locked" errors between the sampler loop and HTTP requests.
	db.SetMaxOpenConns(1)

	pragmas := []struct{ stmt, desc string }{
		{"PRAGMA journal_mode=WAL", "enable WAL mode"},
		{"PRAGMA busy_timeout=5000", "set busy timeout"},
		{"PRAGMA foreign_keys=ON", "enable foreign keys"},
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p.stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: %w", p.desc, err)
		}
	}

	return &SQLiteStore{db: db}, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// newULID generates a new ULID string.
func newULID() string {
	return ulid.Make().String()
}

// Migrate runs all embedded SQL migration files in order.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		filename TEXT PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT (datetime('now'))
	)`)
	if err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()

		var count int
		err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations WHERE filename = ?", name).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %s: %w", name, err)
		}
		if count > 0 {
			continue
		}

		data, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}

		if _, err := s.db.ExecContext(ctx, string(data)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}

		if _, err := s.db.ExecContext(ctx, "INSERT INTO schema_migrations (filename) VALUES (?)", name); err != nil {
			return fmt.Errorf("record migration %s: %w", name, err)
		}
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- Projects ---

const projectColumns = `id, name, description, status, created_at, closed_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*models.Project, error) {
	p := &models.Project{}
	var status string
	var closedAt sql.NullTime
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &status, &p.CreatedAt, &closedAt); err != nil {
		return nil, err
	}
	p.Status = models.ProjectStatus(status)
	if closedAt.Valid {
		p.ClosedAt = &closedAt.Time
	}
	return p, nil
}

func (s *SQLiteStore) CreateProject(ctx context.Context, p *models.Project) error {
	if p.ID == "" {
		p.ID = newULID()
	}
	if p.Status == "" {
		p.Status = models.ProjectStatusActive
	}
	p.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO projects (id, name, description, status, created_at, closed_at) VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Description, string(p.Status), p.CreatedAt, p.ClosedAt,
	)
	if err != nil {
		return wrapErr("create project", err)
	}
	return nil
}

func (s *SQLiteStore) GetProject(ctx context.Context, id string) (*models.Project, error) {
	p, err := scanProject(s.db.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("project", id)
	}
	if err != nil {
		return nil, wrapErr("get project", err)
	}
	return p, nil
}

func (s *SQLiteStore) GetProjectByName(ctx context.Context, name string) (*models.Project, error) {
	p, err := scanProject(s.db.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE name = ?`, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("project", name)
	}
	if err != nil {
		return nil, wrapErr("get project by name", err)
	}
	return p, nil
}

func (s *SQLiteStore) ListProjects(ctx context.Context, status models.ProjectStatus) ([]*models.Project, error) {
	var rows *sql.Rows
	var err error
	if status != "" {
		rows, err = s.db.QueryContext(ctx,
			`SELECT `+projectColumns+` FROM projects WHERE status = ? ORDER BY name`, string(status))
	} else {
		rows, err = s.db.QueryContext(ctx,
			`SELECT `+projectColumns+` FROM projects ORDER BY name`)
	}
	if err != nil {
		return nil, wrapErr("list projects", err)
	}
	defer func() { _ = rows.Close() }()

	var projects []*models.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, wrapErr("scan project", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("list projects", err)
	}
	return projects, nil
}

func (s *SQLiteStore) UpdateProject(ctx context.Context, p *models.Project) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE projects SET name=?, description=?, status=?, closed_at=? WHERE id=?`,
		p.Name, p.Description, string(p.Status), p.ClosedAt, p.ID,
	)
	if err != nil {
		return wrapErr("update project", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return notFound("project", p.ID)
	}
	return nil
}

func (s *SQLiteStore) ArchiveProject(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE projects SET status=?, closed_at=? WHERE id=?`,
		string(models.ProjectStatusArchived), time.Now().UTC(), id,
	)
	if err != nil {
		return wrapErr("archive project", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return notFound("project", id)
	}
	return nil
}

func (s *SQLiteStore) ReactivateProject(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE projects SET status=?, closed_at=NULL WHERE id=?`,
		string(models.ProjectStatusActive), id,
	)
	if err != nil {
		return wrapErr("reactivate project", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return notFound("project", id)
	}
	return nil
}

// DeleteProject removes a project and its notes. Projects with recorded
// sessions cannot be deleted; archive them instead.
func (s *SQLiteStore) DeleteProject(ctx context.Context, id string) error {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sessions WHERE project_id = ?", id).Scan(&count); err != nil {
		return wrapErr("delete project", err)
	}
	if count > 0 {
		return fmt.Errorf("delete project %s: has %d sessions: %w", id, count, ErrConflict)
	}

	result, err := s.db.ExecContext(ctx, "DELETE FROM projects WHERE id = ?", id)
	if err != nil {
		return wrapErr("delete project", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return notFound("project", id)
	}
	return nil
}

// --- Sessions ---

const sessionColumns = `id, project_id, app_name, seconds, session_type, activity_type, timestamp`

func scanSession(row rowScanner) (*models.Session, error) {
	sess := &models.Session{}
	var sessionType string
	var activity sql.NullString
	var ts int64
	if err := row.Scan(&sess.ID, &sess.ProjectID, &sess.AppName, &sess.Seconds, &sessionType, &activity, &ts); err != nil {
		return nil, err
	}
	sess.Type = models.SessionType(sessionType)
	if activity.Valid {
		sess.ActivityType = &activity.String
	}
	sess.Timestamp = wallclock.Instant(ts)
	return sess, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertSession(ctx context.Context, db execer, sess *models.Session) error {
	if sess.ID == "" {
		sess.ID = newULID()
	}
	if sess.Type == "" {
		sess.Type = models.SessionTypeComputer
	}
	_, err := db.ExecContext(ctx,
		`INSERT INTO sessions (`+sessionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sess.ID, sess.ProjectID, sess.AppName, sess.Seconds, string(sess.Type),
		nullString(sess.ActivityType), int64(sess.Timestamp),
	)
	return err
}

func updateSession(ctx context.Context, db execer, sess *models.Session) error {
	result, err := db.ExecContext(ctx,
		`UPDATE sessions SET project_id=?, app_name=?, seconds=?, session_type=?, activity_type=?, timestamp=? WHERE id=?`,
		sess.ProjectID, sess.AppName, sess.Seconds, string(sess.Type),
		nullString(sess.ActivityType), int64(sess.Timestamp), sess.ID,
	)
	if err != nil {
		return wrapErr("update session", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return notFound("session", sess.ID)
	}
	return nil
}

func (s *SQLiteStore) CreateSession(ctx context.Context, sess *models.Session) error {
	if err := insertSession(ctx, s.db, sess); err != nil {
		return wrapErr("create session", err)
	}
	return nil
}

func (s *SQLiteStore) GetSession(ctx context.Context, id string) (*models.Session, error) {
	sess, err := scanSession(s.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("session", id)
	}
	if err != nil {
		return nil, wrapErr("get session", err)
	}
	return sess, nil
}

// GetSessionsInRange returns every session whose interval intersects
// [start, end], ordered by start instant and then insertion order.
func (s *SQLiteStore) GetSessionsInRange(ctx context.Context, start, end wallclock.Instant) ([]*models.Session, error) {
	return s.querySessions(ctx, "get sessions in range",
		`SELECT `+sessionColumns+` FROM sessions
		WHERE timestamp <= ? AND timestamp + seconds > ?
		ORDER BY timestamp, rowid`, int64(end), int64(start))
}

func (s *SQLiteStore) ListProjectSessions(ctx context.Context, projectID string) ([]*models.Session, error) {
	return s.querySessions(ctx, "list project sessions",
		`SELECT `+sessionColumns+` FROM sessions WHERE project_id = ? ORDER BY timestamp, rowid`, projectID)
}

func (s *SQLiteStore) querySessions(ctx context.Context, op, query string, args ...any) ([]*models.Session, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer func() { _ = rows.Close() }()

	var sessions []*models.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, wrapErr("scan session", err)
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(op, err)
	}
	return sessions, nil
}

func (s *SQLiteStore) UpdateSession(ctx context.Context, sess *models.Session) error {
	return updateSession(ctx, s.db, sess)
}

func (s *SQLiteStore) DeleteSession(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id)
	if err != nil {
		return wrapErr("delete session", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return notFound("session", id)
	}
	return nil
}

// SplitSession persists the shrunk original and inserts second within one
// transaction. Either both writes are visible or neither is.
func (s *SQLiteStore) SplitSession(ctx context.Context, original, second *models.Session) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapErr("split session", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := updateSession(ctx, tx, original); err != nil {
		return err
	}
	if err := insertSession(ctx, tx, second); err != nil {
		return wrapErr("split session", err)
	}
	if err := tx.Commit(); err != nil {
		return wrapErr("split session", err)
	}
	return nil
}

// --- Activity Types ---

const activityTypeColumns = `id, name, color_variant, pattern, display_order`

func scanActivityType(row rowScanner) (*models.ActivityType, error) {
	a := &models.ActivityType{}
	var pattern string
	if err := row.Scan(&a.ID, &a.Name, &a.ColorVariant, &pattern, &a.DisplayOrder); err != nil {
		return nil, err
	}
	a.Pattern = models.Pattern(pattern)
	return a, nil
}

func (s *SQLiteStore) CreateActivityType(ctx context.Context, a *models.ActivityType) error {
	if a.ID == "" {
		a.ID = newULID()
	}
	if a.Pattern == "" {
		a.Pattern = models.PatternSolid
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO activity_types (`+activityTypeColumns+`) VALUES (?, ?, ?, ?, ?)`,
		a.ID, a.Name, a.ColorVariant, string(a.Pattern), a.DisplayOrder,
	)
	if err != nil {
		return wrapErr("create activity type", err)
	}
	return nil
}

func (s *SQLiteStore) GetActivityType(ctx context.Context, id string) (*models.ActivityType, error) {
	a, err := scanActivityType(s.db.QueryRowContext(ctx,
		`SELECT `+activityTypeColumns+` FROM activity_types WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("activity type", id)
	}
	if err != nil {
		return nil, wrapErr("get activity type", err)
	}
	return a, nil
}

func (s *SQLiteStore) ListActivityTypes(ctx context.Context) ([]*models.ActivityType, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+activityTypeColumns+` FROM activity_types ORDER BY display_order, name`)
	if err != nil {
		return nil, wrapErr("list activity types", err)
	}
	defer func() { _ = rows.Close() }()

	var types []*models.ActivityType
	for rows.Next() {
		a, err := scanActivityType(rows)
		if err != nil {
			return nil, wrapErr("scan activity type", err)
		}
		types = append(types, a)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("list activity types", err)
	}
	return types, nil
}

// UpdateActivityType updates the type and, on rename, relabels the
// sessions that referenced the old name.
func (s *SQLiteStore) UpdateActivityType(ctx context.Context, a *models.ActivityType) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapErr("update activity type", err)
	}
	defer func() { _ = tx.Rollback() }()

	var oldName string
	err = tx.QueryRowContext(ctx, "SELECT name FROM activity_types WHERE id = ?", a.ID).Scan(&oldName)
	if errors.Is(err, sql.ErrNoRows) {
		return notFound("activity type", a.ID)
	}
	if err != nil {
		return wrapErr("update activity type", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE activity_types SET name=?, color_variant=?, pattern=?, display_order=? WHERE id=?`,
		a.Name, a.ColorVariant, string(a.Pattern), a.DisplayOrder, a.ID,
	); err != nil {
		return wrapErr("update activity type", err)
	}

	if oldName != a.Name {
		if _, err := tx.ExecContext(ctx,
			"UPDATE sessions SET activity_type = ? WHERE activity_type = ? COLLATE NOCASE", a.Name, oldName,
		); err != nil {
			return wrapErr("relabel sessions", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return wrapErr("update activity type", err)
	}
	return nil
}

// DeleteActivityType removes the type and clears it from every session
// that referenced it. Sessions themselves are kept.
func (s *SQLiteStore) DeleteActivityType(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapErr("delete activity type", err)
	}
	defer func() { _ = tx.Rollback() }()

	var name string
	err = tx.QueryRowContext(ctx, "SELECT name FROM activity_types WHERE id = ?", id).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return notFound("activity type", id)
	}
	if err != nil {
		return wrapErr("delete activity type", err)
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE sessions SET activity_type = NULL WHERE activity_type = ? COLLATE NOCASE", name,
	); err != nil {
		return wrapErr("clear session activity types", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM activity_types WHERE id = ?", id); err != nil {
		return wrapErr("delete activity type", err)
	}

	if err := tx.Commit(); err != nil {
		return wrapErr("delete activity type", err)
	}
	return nil
}

// --- Notes ---

func (s *SQLiteStore) CreateNote(ctx context.Context, n *models.Note) error {
	if n.ID == "" {
		n.ID = newULID()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO notes (id, project_id, text, timestamp) VALUES (?, ?, ?, ?)`,
		n.ID, n.ProjectID, n.Text, int64(n.Timestamp),
	)
	if err != nil {
		return wrapErr("create note", err)
	}
	return nil
}

func (s *SQLiteStore) ListNotesInRange(ctx context.Context, start, end wallclock.Instant) ([]*models.Note, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, project_id, text, timestamp FROM notes
		WHERE timestamp >= ? AND timestamp <= ? ORDER BY timestamp, rowid`, int64(start), int64(end))
	if err != nil {
		return nil, wrapErr("list notes", err)
	}
	defer func() { _ = rows.Close() }()

	var notes []*models.Note
	for rows.Next() {
		n := &models.Note{}
		var ts int64
		if err := rows.Scan(&n.ID, &n.ProjectID, &n.Text, &ts); err != nil {
			return nil, wrapErr("scan note", err)
		}
		n.Timestamp = wallclock.Instant(ts)
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("list notes", err)
	}
	return notes, nil
}

func (s *SQLiteStore) UpdateNote(ctx context.Context, n *models.Note) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE notes SET project_id=?, text=?, timestamp=? WHERE id=?`,
		n.ProjectID, n.Text, int64(n.Timestamp), n.ID,
	)
	if err != nil {
		return wrapErr("update note", err)
	}
	if c, _ := result.RowsAffected(); c == 0 {
		return notFound("note", n.ID)
	}
	return nil
}

func (s *SQLiteStore) DeleteNote(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM notes WHERE id = ?", id)
	if err != nil {
		return wrapErr("delete note", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return notFound("note", id)
	}
	return nil
}

// --- Settings ---

func (s *SQLiteStore) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", notFound("setting", key)
	}
	if err != nil {
		return "", wrapErr("get setting", err)
	}
	return value, nil
}

func (s *SQLiteStore) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return wrapErr("set setting", err)
	}
	return nil
}

// --- Tracking Events ---

func (s *SQLiteStore) AppendEvent(ctx context.Context, e *models.TrackingEvent) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO tracking_events (kind, project_id, session_id, seconds, reason, acked, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(e.Kind), e.ProjectID, e.SessionID, e.Seconds, e.Reason, boolToInt(e.Acked), e.CreatedAt,
	)
	if err != nil {
		return wrapErr("append event", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return wrapErr("append event", err)
	}
	e.ID = id
	return nil
}

func (s *SQLiteStore) ListEvents(ctx context.Context, filter EventFilter) ([]*models.TrackingEvent, error) {
	query := `SELECT id, kind, project_id, session_id, seconds, reason, acked, created_at FROM tracking_events`
	var conditions []string
	var args []any

	if filter.AfterID > 0 {
		conditions = append(conditions, "id > ?")
		args = append(args, filter.AfterID)
	}
	if filter.UnackedOnly {
		conditions = append(conditions, "acked = 0")
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY id"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapErr("list events", err)
	}
	defer func() { _ = rows.Close() }()

	var events []*models.TrackingEvent
	for rows.Next() {
		e := &models.TrackingEvent{}
		var kind string
		if err := rows.Scan(&e.ID, &kind, &e.ProjectID, &e.SessionID, &e.Seconds, &e.Reason, &e.Acked, &e.CreatedAt); err != nil {
			return nil, wrapErr("scan event", err)
		}
		e.Kind = models.EventKind(kind)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("list events", err)
	}
	return events, nil
}

func (s *SQLiteStore) AckEvent(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, "UPDATE tracking_events SET acked = 1 WHERE id = ?", id)
	if err != nil {
		return wrapErr("ack event", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return notFound("event", fmt.Sprint(id))
	}
	return nil
}

// --- Checkpoint ---

func (s *SQLiteStore) SaveCheckpoint(ctx context.Context, c *models.Checkpoint) error {
	c.UpdatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tracking_checkpoint (id, project_id, activity_type, app_name, started_at, active_seconds, updated_at)
		VALUES (1, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			project_id = excluded.project_id,
			activity_type = excluded.activity_type,
			app_name = excluded.app_name,
			started_at = excluded.started_at,
			active_seconds = excluded.active_seconds,
			updated_at = excluded.updated_at`,
		c.ProjectID, nullString(c.ActivityType), c.AppName, int64(c.StartedAt), c.ActiveSeconds, c.UpdatedAt,
	)
	if err != nil {
		return wrapErr("save checkpoint", err)
	}
	return nil
}

func (s *SQLiteStore) GetCheckpoint(ctx context.Context) (*models.Checkpoint, error) {
	c := &models.Checkpoint{}
	var activity sql.NullString
	var startedAt int64
	err := s.db.QueryRowContext(ctx,
		`SELECT project_id, activity_type, app_name, started_at, active_seconds, updated_at
		FROM tracking_checkpoint WHERE id = 1`,
	).Scan(&c.ProjectID, &activity, &c.AppName, &startedAt, &c.ActiveSeconds, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("checkpoint", "current")
	}
	if err != nil {
		return nil, wrapErr("get checkpoint", err)
	}
	if activity.Valid {
		c.ActivityType = &activity.String
	}
	c.StartedAt = wallclock.Instant(startedAt)
	return c, nil
}

func (s *SQLiteStore) ClearCheckpoint(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM tracking_checkpoint WHERE id = 1"); err != nil {
		return wrapErr("clear checkpoint", err)
	}
	return nil
}
