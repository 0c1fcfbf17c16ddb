package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"mediamorph/internal/api"
)

// StatusUploaded marks an entry recording a completed upload with no
// conversion attached yet.
const StatusUploaded = "uploaded"

// Entry is one journal record: either a completed upload or a conversion
// submission whose status mirrors the server job.
type Entry struct {
	ID               int64
	Kind             api.Kind
	MediaID          int64
	ConversionID     int64
	OriginalFilename string
	TargetFormat     string
	Status           string
	Progress         int
	ErrorMessage     string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

const entryColumns = "id, kind, media_id, conversion_id, original_filename, target_format, status, progress, error_message, created_at, updated_at"

func scanEntry(scanner interface{ Scan(dest ...any) error }) (*Entry, error) {
	var (
		id           int64
		kind         string
		mediaID      int64
		conversionID sql.NullInt64
		filename     sql.NullString
		targetFormat sql.NullString
		status       string
		progress     sql.NullInt64
		errorMessage sql.NullString
		createdRaw   string
		updatedRaw   string
	)
	if err := scanner.Scan(
		&id,
		&kind,
		&mediaID,
		&conversionID,
		&filename,
		&targetFormat,
		&status,
		&progress,
		&errorMessage,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	entry := &Entry{
		ID:               id,
		Kind:             api.Kind(kind),
		MediaID:          mediaID,
		ConversionID:     conversionID.Int64,
		OriginalFilename: filename.String,
		TargetFormat:     targetFormat.String,
		Status:           status,
		Progress:         int(progress.Int64),
		ErrorMessage:     errorMessage.String,
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		entry.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		entry.UpdatedAt = updated
	}
	return entry, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableID(value int64) any {
	if value <= 0 {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	return time.Parse(time.RFC3339Nano, value)
}

// RecordUpload journals a completed upload.
func (s *Store) RecordUpload(ctx context.Context, kind api.Kind, asset api.MediaAsset) (*Entry, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO journal_entries (
            kind, media_id, conversion_id, original_filename, target_format,
            status, progress, error_message, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(kind),
		asset.ID,
		nil,
		nullableString(asset.OriginalFilename),
		nil,
		StatusUploaded,
		100,
		nil,
		now,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert upload entry: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

// RecordConversion journals a newly submitted conversion job.
func (s *Store) RecordConversion(ctx context.Context, kind api.Kind, job api.ConversionJob, filename string) (*Entry, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO journal_entries (
            kind, media_id, conversion_id, original_filename, target_format,
            status, progress, error_message, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(kind),
		job.MediaID(),
		nullableID(job.ID),
		nullableString(filename),
		nullableString(job.TargetFormat),
		string(job.Status),
		job.Progress,
		nullableString(job.ErrorMessage),
		now,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert conversion entry: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

// UpdateConversion refreshes the journaled status of a conversion from a
// polled snapshot. Unknown conversions are ignored; the journal only tracks
// jobs this client submitted.
func (s *Store) UpdateConversion(ctx context.Context, kind api.Kind, job api.ConversionJob) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.execWithRetry(
		ctx,
		`UPDATE journal_entries
         SET status = ?, progress = ?, error_message = ?, updated_at = ?
         WHERE kind = ? AND conversion_id = ?`,
		string(job.Status),
		job.Progress,
		nullableString(job.ErrorMessage),
		now,
		string(kind),
		job.ID,
	)
	if err != nil {
		return fmt.Errorf("update conversion entry: %w", err)
	}
	return nil
}

// GetByID fetches one entry.
func (s *Store) GetByID(ctx context.Context, id int64) (*Entry, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx,
		"SELECT "+entryColumns+" FROM journal_entries WHERE id = ?", id)
	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("journal entry %d not found", id)
		}
		return nil, fmt.Errorf("get journal entry: %w", err)
	}
	return entry, nil
}

// List returns entries newest first.
func (s *Store) List(ctx context.Context) ([]*Entry, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+entryColumns+" FROM journal_entries ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, fmt.Errorf("list journal entries: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan journal entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journal entries: %w", err)
	}
	return entries, nil
}

// ListPending returns conversion entries that have not reached a terminal
// status, newest first.
func (s *Store) ListPending(ctx context.Context) ([]*Entry, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+entryColumns+` FROM journal_entries
         WHERE conversion_id IS NOT NULL AND status NOT IN (?, ?)
         ORDER BY created_at DESC, id DESC`,
		string(api.JobCompleted), string(api.JobFailed))
	if err != nil {
		return nil, fmt.Errorf("list pending entries: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan journal entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending entries: %w", err)
	}
	return entries, nil
}
