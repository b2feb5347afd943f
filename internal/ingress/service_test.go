package ingress

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"photofilter/internal/adapter/repo"
	"photofilter/internal/domain"
	"photofilter/internal/orchestrator"
	"photofilter/internal/storage"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

type stubLauncher struct {
	mu    sync.Mutex
	tasks []orchestrator.Task
	err   error
}

func (s *stubLauncher) Launch(task orchestrator.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.tasks = append(s.tasks, task)
	return nil
}

type failingWriter struct{}

func (failingWriter) Write(ctx context.Context, key string, data []byte) (string, error) {
	return "", errors.New("disk full")
}

func (failingWriter) Remove(ctx context.Context, key string) error {
	return nil
}

type failingCreateRepository struct {
	*repo.JobRepositoryMemory
}

func (failingCreateRepository) Create(ctx context.Context, originalRef string, style domain.Style) (*domain.Job, error) {
	return nil, fmt.Errorf("%w: connection reset", domain.ErrStorage)
}

func newService(t *testing.T, launcher Launcher) (*Service, *repo.JobRepositoryMemory, *storage.FileStore) {
	t.Helper()
	files, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("file store: %v", err)
	}
	jobs := repo.NewMemoryJobRepository()
	return NewService(jobs, files, launcher, 1024, zerolog.Nop()), jobs, files
}

func TestSubmitAcceptsImage(t *testing.T) {
	launcher := &stubLauncher{}
	svc, jobs, files := newService(t, launcher)

	job, err := svc.Submit(context.Background(), Upload{Data: pngHeader, Filename: "me.PNG"}, "anime")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if job.Status != domain.JobStatusProcessing || job.Style != domain.StyleAnime {
		t.Fatalf("unexpected job: %+v", job)
	}
	if !strings.HasPrefix(job.OriginalRef, "/uploads/") || !strings.HasSuffix(job.OriginalRef, ".png") {
		t.Fatalf("original ref = %q", job.OriginalRef)
	}
	stored, err := files.Read(context.Background(), job.OriginalRef)
	if err != nil {
		t.Fatalf("read stored upload: %v", err)
	}
	if string(stored) != string(pngHeader) {
		t.Fatalf("stored bytes differ")
	}
	if _, err := jobs.Get(context.Background(), job.ID); err != nil {
		t.Fatalf("job not readable: %v", err)
	}
	if len(launcher.tasks) != 1 {
		t.Fatalf("launches = %d, want 1", len(launcher.tasks))
	}
	task := launcher.tasks[0]
	if task.JobID != job.ID || task.MIME != "image/png" || task.Style != domain.StyleAnime {
		t.Fatalf("unexpected task: %+v", task)
	}
}

func TestSubmitValidation(t *testing.T) {
	cases := []struct {
		name  string
		data  []byte
		style string
		want  error
	}{
		{"empty", nil, "anime", domain.ErrInvalidInput},
		{"too large", append(append([]byte{}, pngHeader...), make([]byte, 2048)...), "anime", ErrTooLarge},
		{"unknown style", pngHeader, "sketch", domain.ErrInvalidInput},
		{"missing style", pngHeader, "", domain.ErrInvalidInput},
		{"not an image", []byte("%PDF-1.7 hello"), "anime", domain.ErrInvalidInput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			launcher := &stubLauncher{}
			svc, jobs, _ := newService(t, launcher)
			_, err := svc.Submit(context.Background(), Upload{Data: tc.data, Filename: "x.png"}, tc.style)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if len(launcher.tasks) != 0 {
				t.Fatalf("rejected submission was launched")
			}
			if _, err := jobs.Get(context.Background(), 1); !errors.Is(err, domain.ErrNotFound) {
				t.Fatalf("rejected submission created a job")
			}
		})
	}
}

func TestSubmitStorageFailure(t *testing.T) {
	jobs := repo.NewMemoryJobRepository()
	svc := NewService(jobs, failingWriter{}, &stubLauncher{}, 0, zerolog.Nop())
	_, err := svc.Submit(context.Background(), Upload{Data: pngHeader}, "cartoon")
	if !errors.Is(err, domain.ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
	if svc.MaxBytes() != DefaultMaxBytes {
		t.Fatalf("max bytes = %d", svc.MaxBytes())
	}
}

func TestSubmitRemovesUploadWhenCreateFails(t *testing.T) {
	files, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("file store: %v", err)
	}
	launcher := &stubLauncher{}
	jobs := failingCreateRepository{repo.NewMemoryJobRepository()}
	svc := NewService(jobs, files, launcher, 1024, zerolog.Nop())

	_, err = svc.Submit(context.Background(), Upload{Data: pngHeader, Filename: "me.png"}, "anime")
	if !errors.Is(err, domain.ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
	entries, err := os.ReadDir(filepath.Join(files.BasePath(), uploadPrefix))
	if err != nil {
		t.Fatalf("read uploads dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("orphaned uploads left behind: %d", len(entries))
	}
	if len(launcher.tasks) != 0 {
		t.Fatalf("launched %d tasks without a job", len(launcher.tasks))
	}
}

func TestSubmitWhileShuttingDown(t *testing.T) {
	launcher := &stubLauncher{err: orchestrator.ErrShuttingDown}
	svc, jobs, _ := newService(t, launcher)

	job, err := svc.Submit(context.Background(), Upload{Data: pngHeader}, "cartoon")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	got, _ := jobs.Get(context.Background(), job.ID)
	if got.Status != domain.JobStatusFailed || *got.FailureReason != domain.ReasonInterrupted {
		t.Fatalf("refused job not failed: %+v", got)
	}
}

func TestSubmitConcurrentJobsGetDistinctIDs(t *testing.T) {
	launcher := &stubLauncher{}
	svc, _, _ := newService(t, launcher)

	const n = 20
	var wg sync.WaitGroup
	ids := make(chan int64, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			job, err := svc.Submit(context.Background(), Upload{Data: pngHeader}, "watercolor")
			if err != nil {
				t.Errorf("submit: %v", err)
				return
			}
			ids <- job.ID
		}()
	}
	wg.Wait()
	close(ids)
	seen := map[int64]bool{}
	for id := range ids {
		if seen[id] {
			t.Fatalf("duplicate id %d", id)
		}
		seen[id] = true
	}
	if len(seen) != n {
		t.Fatalf("ids = %d, want %d", len(seen), n)
	}
}

func TestStatusNotFound(t *testing.T) {
	svc, _, _ := newService(t, &stubLauncher{})
	if _, err := svc.Status(context.Background(), 9); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestExtension(t *testing.T) {
	cases := map[[2]string]string{
		{"photo.JPEG", "image/jpeg"}: ".jpeg",
		{"", "image/png"}:            ".png",
		{"noext", "image/webp"}:      ".webp",
		{"weird.exe", "image/gif"}:   ".gif",
		{"", "image/x-icon"}:         ".img",
	}
	for in, want := range cases {
		if got := extension(in[0], in[1]); got != want {
			t.Fatalf("extension(%q, %q) = %q, want %q", in[0], in[1], got, want)
		}
	}
}
