package snapshot

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/loomkit/loom/internal/core/ident"
	"github.com/loomkit/loom/internal/core/serialize"
)

// snapshotColumns is the list of columns selected by snapshot queries.
const snapshotColumns = `id, guid, name, root_id, records, record_count,
	created_at, updated_at, deleted_at`

// Snapshot is a named, GUID-tagged serialized graph.
type Snapshot struct {
	ID        int64
	GUID      string
	Name      string
	RootID    ident.ID
	Records   []serialize.Record
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

// Deleted reports whether the snapshot has been soft-deleted.
func (s *Snapshot) Deleted() bool {
	return s.DeletedAt != nil
}

// NotFoundError reports a lookup for a GUID with no live snapshot.
type NotFoundError struct {
	GUID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("snapshot not found: %s", e.GUID)
}

// Repository reads and writes snapshots through a Store.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repository over an open store.
func NewRepository(store *Store) *Repository {
	return &Repository{db: store.DB()}
}

// scanSnapshot scans a row into a Snapshot, decoding the record payload.
func scanSnapshot(scanner interface{ Scan(...any) error }) (*Snapshot, error) {
	var (
		snap      Snapshot
		payload   []byte
		count     int
		createdAt int64
		updatedAt int64
		deletedAt sql.NullInt64
	)
	err := scanner.Scan(
		&snap.ID, &snap.GUID, &snap.Name, &snap.RootID, &payload, &count,
		&createdAt, &updatedAt, &deletedAt,
	)
	if err != nil {
		return nil, err
	}

	snap.Records, err = serialize.DecodeRecords(payload)
	if err != nil {
		return nil, fmt.Errorf("decoding snapshot %s: %w", snap.GUID, err)
	}
	snap.CreatedAt = time.Unix(createdAt, 0)
	snap.UpdatedAt = time.Unix(updatedAt, 0)
	if deletedAt.Valid {
		t := time.Unix(deletedAt.Int64, 0)
		snap.DeletedAt = &t
	}
	return &snap, nil
}

// Save persists a snapshot. A snapshot without an ID is inserted and
// given a GUID when it has none; an existing snapshot is updated in
// place.
func (r *Repository) Save(snap *Snapshot) error {
	payload, err := serialize.EncodeRecords(snap.Records)
	if err != nil {
		return fmt.Errorf("encoding snapshot records: %w", err)
	}
	now := time.Now().Unix()

	if snap.ID == 0 {
		if snap.GUID == "" {
			snap.GUID = uuid.NewString()
		}
		result, err := r.db.Exec(
			`INSERT INTO snapshots (guid, name, root_id, records, record_count, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			snap.GUID, snap.Name, string(snap.RootID), payload, len(snap.Records), now, now,
		)
		if err != nil {
			return fmt.Errorf("failed to insert snapshot: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get last insert id: %w", err)
		}
		snap.ID = id
		snap.CreatedAt = time.Unix(now, 0)
		snap.UpdatedAt = time.Unix(now, 0)
		return nil
	}

	_, err = r.db.Exec(
		`UPDATE snapshots SET name = ?, root_id = ?, records = ?, record_count = ?, updated_at = ?
		 WHERE id = ?`,
		snap.Name, string(snap.RootID), payload, len(snap.Records), now, snap.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update snapshot: %w", err)
	}
	snap.UpdatedAt = time.Unix(now, 0)
	return nil
}

// FindByGUID retrieves a snapshot by its GUID. Soft-deleted snapshots
// are not returned.
func (r *Repository) FindByGUID(guid string) (*Snapshot, error) {
	row := r.db.QueryRow(
		`SELECT `+snapshotColumns+` FROM snapshots WHERE guid = ? AND deleted_at IS NULL`,
		guid,
	)
	snap, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{GUID: guid}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find snapshot by guid: %w", err)
	}
	return snap, nil
}

// ListFilter narrows List results.
type ListFilter struct {
	Name           string
	IncludeDeleted bool
	Limit          int
}

// List retrieves snapshots matching the filter, newest first.
func (r *Repository) List(filter ListFilter) ([]*Snapshot, error) {
	query := `SELECT ` + snapshotColumns + ` FROM snapshots`
	var (
		conds []string
		args  []any
	)
	if filter.Name != "" {
		conds = append(conds, `name = ?`)
		args = append(args, filter.Name)
	}
	if !filter.IncludeDeleted {
		conds = append(conds, `deleted_at IS NULL`)
	}
	for i, cond := range conds {
		if i == 0 {
			query += ` WHERE ` + cond
		} else {
			query += ` AND ` + cond
		}
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var snapshots []*Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}
		snapshots = append(snapshots, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshot rows: %w", err)
	}
	return snapshots, nil
}

// Delete soft-deletes a snapshot by setting its deleted_at timestamp.
func (r *Repository) Delete(guid string) error {
	now := time.Now().Unix()
	result, err := r.db.Exec(
		`UPDATE snapshots SET deleted_at = ?, updated_at = ?
		 WHERE guid = ? AND deleted_at IS NULL`,
		now, now, guid,
	)
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return &NotFoundError{GUID: guid}
	}
	return nil
}
