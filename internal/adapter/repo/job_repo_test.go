package repo

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"photofilter/internal/domain"
	"photofilter/internal/infra"
	"photofilter/internal/sqlinline"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type stubRow struct {
	scan func(dest ...any) error
}

func (r stubRow) Scan(dest ...any) error {
	if r.scan == nil {
		return pgx.ErrNoRows
	}
	return r.scan(dest...)
}

type imageRow struct {
	id        int64
	original  string
	filtered  *string
	style     string
	status    string
	reason    *string
	createdAt time.Time
}

func (r imageRow) row() stubRow {
	return stubRow{scan: func(dest ...any) error {
		*dest[0].(*int64) = r.id
		*dest[1].(*string) = r.original
		*dest[2].(**string) = r.filtered
		*dest[3].(*string) = r.style
		*dest[4].(*string) = r.status
		*dest[5].(**string) = r.reason
		*dest[6].(*time.Time) = r.createdAt
		return nil
	}}
}

type stubExecutor struct {
	queries []string
	args    [][]any
	rows    map[string]stubRow
	tag     pgconn.CommandTag
	execErr error
}

func (s *stubExecutor) record(query string, args []any) {
	if _, _, err := infra.ExtractMarker(query); err != nil {
		panic("query without marker: " + query)
	}
	s.queries = append(s.queries, query)
	s.args = append(s.args, args)
}

func (s *stubExecutor) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	s.record(query, args)
	return s.tag, s.execErr
}

func (s *stubExecutor) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	s.record(query, args)
	if row, ok := s.rows[query]; ok {
		return row
	}
	return stubRow{}
}

func TestJobRepositoryPGCreateScansRow(t *testing.T) {
	created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	exec := &stubExecutor{rows: map[string]stubRow{
		sqlinline.QInsertImage: imageRow{id: 7, original: "/uploads/a.jpg", style: "anime", status: "processing", createdAt: created}.row(),
	}}
	repo := NewJobRepository(exec)

	job, err := repo.Create(context.Background(), "/uploads/a.jpg", domain.StyleAnime)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if job.ID != 7 || job.Status != domain.JobStatusProcessing || job.Style != domain.StyleAnime {
		t.Fatalf("unexpected job: %+v", job)
	}
	if !job.CreatedAt.Equal(created) {
		t.Fatalf("expected created_at %v, got %v", created, job.CreatedAt)
	}
	if job.FilteredRef != nil || job.FailureReason != nil {
		t.Fatalf("new job must not carry a result: %+v", job)
	}
	if got := exec.args[0]; got[0] != "/uploads/a.jpg" || got[1] != "anime" {
		t.Fatalf("unexpected insert args: %v", got)
	}
}

func TestJobRepositoryPGCreateWrapsStorageError(t *testing.T) {
	exec := &stubExecutor{rows: map[string]stubRow{
		sqlinline.QInsertImage: {scan: func(dest ...any) error { return errors.New("connection reset") }},
	}}
	_, err := NewJobRepository(exec).Create(context.Background(), "/uploads/a.jpg", domain.StyleAnime)
	if !errors.Is(err, domain.ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
}

func TestJobRepositoryPGGetNotFound(t *testing.T) {
	exec := &stubExecutor{}
	_, err := NewJobRepository(exec).Get(context.Background(), 42)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestJobRepositoryPGUpdateCompleted(t *testing.T) {
	url := "https://cdn.example/out.png"
	exec := &stubExecutor{rows: map[string]stubRow{
		sqlinline.QUpdateImage: imageRow{id: 3, original: "/uploads/b.png", filtered: &url, style: "cartoon", status: "completed"}.row(),
	}}
	job, err := NewJobRepository(exec).Update(context.Background(), 3, domain.CompletedPatch(url))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if job.Status != domain.JobStatusCompleted || job.FilteredRef == nil || *job.FilteredRef != url {
		t.Fatalf("unexpected job: %+v", job)
	}
	args := exec.args[0]
	if args[0] != int64(3) {
		t.Fatalf("expected id arg 3, got %v", args[0])
	}
	if status, ok := args[1].(*string); !ok || status == nil || *status != "completed" {
		t.Fatalf("unexpected status arg: %#v", args[1])
	}
	if reason, ok := args[3].(*string); !ok || reason != nil {
		t.Fatalf("expected nil reason arg, got %#v", args[3])
	}
}

func TestJobRepositoryPGUpdateTerminalJobIsRefused(t *testing.T) {
	url := "https://cdn.example/out.png"
	exec := &stubExecutor{rows: map[string]stubRow{
		sqlinline.QSelectImage: imageRow{id: 3, original: "/uploads/b.png", filtered: &url, style: "cartoon", status: "completed"}.row(),
	}}
	_, err := NewJobRepository(exec).Update(context.Background(), 3, domain.FailedPatch(domain.ReasonTimeout))
	if !errors.Is(err, domain.ErrJobFinalized) {
		t.Fatalf("expected ErrJobFinalized, got %v", err)
	}
	if len(exec.queries) != 2 || exec.queries[1] != sqlinline.QSelectImage {
		t.Fatalf("expected read-back after empty update, got %d queries", len(exec.queries))
	}
}

func TestJobRepositoryPGUpdateUnknownID(t *testing.T) {
	_, err := NewJobRepository(&stubExecutor{}).Update(context.Background(), 99, domain.FailedPatch(domain.ReasonTimeout))
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestJobRepositoryPGUpdateRejectsInvalidPatch(t *testing.T) {
	exec := &stubExecutor{}
	status := domain.JobStatusCompleted
	_, err := NewJobRepository(exec).Update(context.Background(), 1, domain.JobPatch{Status: &status})
	if !errors.Is(err, domain.ErrInvalidPatch) {
		t.Fatalf("expected ErrInvalidPatch, got %v", err)
	}
	if len(exec.queries) != 0 {
		t.Fatalf("invalid patch must not reach the database")
	}
}

func TestJobRepositoryPGFailProcessing(t *testing.T) {
	exec := &stubExecutor{tag: pgconn.NewCommandTag("UPDATE 3")}
	n, err := NewJobRepository(exec).FailProcessing(context.Background(), domain.ReasonInterrupted)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 rows, got %d", n)
	}
	if !strings.Contains(exec.queries[0], "where status = 'processing'") {
		t.Fatalf("unexpected query: %s", exec.queries[0])
	}
	if exec.args[0][0] != "interrupted" {
		t.Fatalf("unexpected reason arg: %v", exec.args[0][0])
	}
}
