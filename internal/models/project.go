package models

import "time"

// ProjectStatus represents the lifecycle state of a project.
type ProjectStatus string

const (
	ProjectStatusActive   ProjectStatus = "active"
	ProjectStatusArchived ProjectStatus = "archived"
)

// Project is a unit of work that sessions and notes are attributed to.
// Archiving is a status transition; archived projects keep their history.
type Project struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Status      ProjectStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	ClosedAt    *time.Time    `json:"closed_at,omitempty"`
}

// IsArchived reports whether the project no longer accepts new tracking.
func (p *Project) IsArchived() bool {
	return p.Status == ProjectStatusArchived
}
