package presentation

import (
	"time"

	"github.com/loomkit/loom/internal/core/serialize"
	"github.com/loomkit/loom/internal/snapshot"
)

// SnapshotDTO represents a stored snapshot for presentation
type SnapshotDTO struct {
	GUID        string `json:"guid"`
	Name        string `json:"name"`
	RootID      string `json:"root_id"`
	RecordCount int    `json:"record_count"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
	Deleted     bool   `json:"deleted,omitempty"`
}

// RecordDTO represents one serialized component record
type RecordDTO struct {
	ID         string         `json:"id"`
	Kind       string         `json:"kind"`
	Properties map[string]any `json:"properties,omitempty"`
	ParentID   string         `json:"parent_id,omitempty"`
	Bindings   []BindingDTO   `json:"bindings,omitempty"`
}

// BindingDTO represents a property binding between two records
type BindingDTO struct {
	ControllerID       string `json:"controller_id"`
	ControllerProperty string `json:"controller_property"`
	Property           string `json:"property"`
}

// FromSnapshot converts a stored snapshot to a DTO.
func FromSnapshot(s *snapshot.Snapshot) SnapshotDTO {
	return SnapshotDTO{
		GUID:        s.GUID,
		Name:        s.Name,
		RootID:      string(s.RootID),
		RecordCount: len(s.Records),
		CreatedAt:   s.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   s.UpdatedAt.UTC().Format(time.RFC3339),
		Deleted:     s.Deleted(),
	}
}

// FromSnapshots converts a slice of stored snapshots to DTOs.
func FromSnapshots(snaps []*snapshot.Snapshot) []SnapshotDTO {
	dtos := make([]SnapshotDTO, len(snaps))
	for i, s := range snaps {
		dtos[i] = FromSnapshot(s)
	}
	return dtos
}

// FromRecord converts a serialized record to a DTO.
func FromRecord(rec serialize.Record) RecordDTO {
	bindings := make([]BindingDTO, len(rec.Relationships.Bindings))
	for i, b := range rec.Relationships.Bindings {
		bindings[i] = BindingDTO{
			ControllerID:       string(b.ControllerID),
			ControllerProperty: b.ControllerProperty,
			Property:           b.Property,
		}
	}

	return RecordDTO{
		ID:         string(rec.ID),
		Kind:       string(rec.Kind),
		Properties: rec.Properties,
		ParentID:   string(rec.Relationships.ParentID),
		Bindings:   bindings,
	}
}

// FromRecords converts a slice of serialized records to DTOs.
func FromRecords(recs []serialize.Record) []RecordDTO {
	dtos := make([]RecordDTO, len(recs))
	for i, rec := range recs {
		dtos[i] = FromRecord(rec)
	}
	return dtos
}
