package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"photofilter/internal/domain"
)

// JobRepositorySQLite implements domain.JobRepository on a modernc sqlite
// database opened with infra.OpenSQLite.
type JobRepositorySQLite struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteJobRepository(db *sql.DB) *JobRepositorySQLite {
	return &JobRepositorySQLite{db: db, now: time.Now}
}

const sqliteImageColumns = `id, original_url, filtered_url, filter_type, status, failure_reason, created_at`

func (r *JobRepositorySQLite) Create(ctx context.Context, originalRef string, style domain.Style) (*domain.Job, error) {
	createdAt := r.now().UTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO images (original_url, filter_type, status, created_at) VALUES (?, ?, ?, ?)`,
		originalRef, string(style), string(domain.JobStatusProcessing), createdAt.UnixMilli(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: insert image: %v", domain.ErrStorage, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("%w: insert image id: %v", domain.ErrStorage, err)
	}
	return &domain.Job{
		ID:          id,
		OriginalRef: originalRef,
		Style:       style,
		Status:      domain.JobStatusProcessing,
		CreatedAt:   time.UnixMilli(createdAt.UnixMilli()).UTC(),
	}, nil
}

func (r *JobRepositorySQLite) Get(ctx context.Context, id int64) (*domain.Job, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+sqliteImageColumns+` FROM images WHERE id = ?`, id)
	job, err := scanSQLiteJob(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("%w: select image: %v", domain.ErrStorage, err)
	}
	return job, nil
}

func (r *JobRepositorySQLite) Update(ctx context.Context, id int64, patch domain.JobPatch) (*domain.Job, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	if patch.Status == nil {
		return r.Get(ctx, id)
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE images
         SET status = ?,
             filtered_url = COALESCE(?, filtered_url),
             failure_reason = COALESCE(?, failure_reason)
         WHERE id = ? AND status = ?`,
		string(*patch.Status),
		nullableSQLString(patch.FilteredRef),
		nullableSQLString(nullableReason(patch.FailureReason)),
		id,
		string(domain.JobStatusProcessing),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: update image: %v", domain.ErrStorage, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("%w: update image: %v", domain.ErrStorage, err)
	}
	current, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, fmt.Errorf("%w: job %d is %s", domain.ErrJobFinalized, id, current.Status)
	}
	return current, nil
}

func (r *JobRepositorySQLite) FailProcessing(ctx context.Context, reason domain.FailureReason) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE images SET status = ?, failure_reason = ? WHERE status = ?`,
		string(domain.JobStatusFailed), string(reason), string(domain.JobStatusProcessing),
	)
	if err != nil {
		return 0, fmt.Errorf("%w: fail processing images: %v", domain.ErrStorage, err)
	}
	return res.RowsAffected()
}

func scanSQLiteJob(row *sql.Row) (*domain.Job, error) {
	var (
		job         domain.Job
		style       string
		status      string
		filteredRef sql.NullString
		reason      sql.NullString
		createdMs   int64
	)
	if err := row.Scan(&job.ID, &job.OriginalRef, &filteredRef, &style, &status, &reason, &createdMs); err != nil {
		return nil, err
	}
	job.Style = domain.Style(style)
	job.Status = domain.JobStatus(status)
	if filteredRef.Valid {
		ref := filteredRef.String
		job.FilteredRef = &ref
	}
	if reason.Valid {
		fr := domain.FailureReason(reason.String)
		job.FailureReason = &fr
	}
	job.CreatedAt = time.UnixMilli(createdMs).UTC()
	return &job, nil
}

func nullableSQLString(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

var _ domain.JobRepository = (*JobRepositorySQLite)(nil)
