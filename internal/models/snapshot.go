package models

import (
	"time"

	"github.com/google/uuid"
)

// Snapshot describes one published pipeline run. Publishing replaces the
// previous snapshot and every school in it.
type Snapshot struct {
	RunID       uuid.UUID `json:"runId"`
	Mode        string    `json:"mode"`
	Records     int       `json:"records"`
	Sources     SourceMix `json:"sources"`
	GeneratedAt time.Time `json:"generatedAt"`
	PublishedAt time.Time `json:"publishedAt"`
}
