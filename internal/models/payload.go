package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// SchoolPayload stores a complete School, sub-records included, as a JSON
// document column. The scalar columns next to it only exist for filtering.
type SchoolPayload struct {
	School *School
}

// Scan implements sql.Scanner. Drivers hand back JSON as []byte (pgx jsonb,
// sqlite blobs) or string (sqlite TEXT).
func (p *SchoolPayload) Scan(value interface{}) error {
	if value == nil {
		p.School = nil
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("failed to scan SchoolPayload: expected []byte or string, got %T", value)
	}

	var s School
	if err := json.Unmarshal(raw, &s); err != nil {
		return fmt.Errorf("failed to unmarshal school payload: %w", err)
	}
	p.School = &s
	return nil
}

// Value implements driver.Valuer.
func (p SchoolPayload) Value() (driver.Value, error) {
	if p.School == nil {
		return nil, nil
	}

	doc, err := json.Marshal(p.School)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal school payload: %w", err)
	}
	return string(doc), nil
}
