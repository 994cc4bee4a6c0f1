package generation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/adcraft/creative-engine/internal/domain"
	"github.com/adcraft/creative-engine/internal/storage"
)

// stubProviders records call order and serves canned responses.
type stubProviders struct {
	mu      sync.Mutex
	calls   []string
	err     error
	release chan struct{}
}

func (s *stubProviders) record(prompt string) {
	s.mu.Lock()
	s.calls = append(s.calls, prompt)
	s.mu.Unlock()
}

func (s *stubProviders) callOrder() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func (s *stubProviders) setErr(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

func (s *stubProviders) failWith() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *stubProviders) GenerateImage(ctx context.Context, req domain.GenerationRequest) (*domain.GeneratedAsset, error) {
	s.record(req.Prompt)
	if s.release != nil {
		select {
		case <-s.release:
		case <-ctx.Done():
		}
	}
	if err := s.failWith(); err != nil {
		return nil, err
	}
	return &domain.GeneratedAsset{
		Type:     domain.MediaTypeImage,
		URL:      "https://cdn.adcraft.dev/stub/" + req.Prompt + ".png",
		Provider: "stub",
		Cost:     0.05,
	}, nil
}

func (s *stubProviders) GenerateVideo(ctx context.Context, req domain.GenerationRequest) (*domain.GeneratedAsset, error) {
	s.record(req.Prompt)
	if err := s.failWith(); err != nil {
		return nil, err
	}
	return &domain.GeneratedAsset{Type: domain.MediaTypeVideo, URL: "https://cdn.adcraft.dev/stub/" + req.Prompt + ".mp4", Provider: "stub"}, nil
}

var _ ProviderService = (*stubProviders)(nil)

func newTestService(providers ProviderService, maxConcurrent, maxRetries int) *Service {
	return NewService(Options{
		Providers:        providers,
		MaxConcurrent:    maxConcurrent,
		MaxRetries:       maxRetries,
		PollInterval:     5 * time.Millisecond,
		ProgressInterval: time.Hour,
	})
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("condition not reached within deadline")
}

func imageRequest(prompt string) domain.GenerationRequest {
	return domain.GenerationRequest{Type: domain.MediaTypeImage, Prompt: prompt}
}

func TestQueueGenerationReturnsImmediately(t *testing.T) {
	stub := &stubProviders{release: make(chan struct{})}
	svc := newTestService(stub, 1, 0)
	// Dispatch loop deliberately not started: enqueueing must not depend on it.

	started := time.Now()
	id, err := svc.QueueGeneration(imageRequest("slow"), domain.PriorityNormal)
	if err != nil {
		t.Fatalf("queue failed: %v", err)
	}
	if elapsed := time.Since(started); elapsed > 100*time.Millisecond {
		t.Fatalf("enqueue blocked for %v", elapsed)
	}
	item, ok := svc.GetQueueStatus(id)
	if !ok || item.Status != domain.StatusQueued {
		t.Fatalf("item = %#v, want queued", item)
	}
	if len(stub.callOrder()) != 0 {
		t.Fatalf("provider called before dispatch")
	}
	close(stub.release)
}

func TestQueueGenerationValidation(t *testing.T) {
	svc := newTestService(&stubProviders{}, 1, 0)

	if _, err := svc.QueueGeneration(domain.GenerationRequest{Type: domain.MediaTypeImage}, domain.PriorityNormal); !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("empty prompt: err = %v, want ErrInvalidRequest", err)
	}
	if _, err := svc.QueueGeneration(domain.GenerationRequest{Type: domain.MediaTypeVideo, Prompt: "p"}, domain.PriorityNormal); !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("video without source image: err = %v, want ErrInvalidRequest", err)
	}
	if _, err := svc.QueueGeneration(imageRequest("p"), domain.Priority("urgent")); !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("unknown priority: err = %v, want ErrInvalidRequest", err)
	}

	id, err := svc.QueueGeneration(imageRequest("p"), "")
	if err != nil {
		t.Fatalf("blank priority should default: %v", err)
	}
	item, _ := svc.GetQueueStatus(id)
	if item.Priority != domain.PriorityNormal || item.Request.Quality != domain.QualityStandard {
		t.Fatalf("defaults not applied: %#v", item)
	}
}

func TestHighPriorityDispatchedFirst(t *testing.T) {
	stub := &stubProviders{}
	svc := newTestService(stub, 1, 0)

	for _, entry := range []struct {
		prompt   string
		priority domain.Priority
	}{
		{"low", domain.PriorityLow},
		{"high", domain.PriorityHigh},
		{"normal", domain.PriorityNormal},
	} {
		if _, err := svc.QueueGeneration(imageRequest(entry.prompt), entry.priority); err != nil {
			t.Fatalf("queue %s: %v", entry.prompt, err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.Start(ctx)

	waitFor(t, func() bool { return len(stub.callOrder()) == 3 })
	order := stub.callOrder()
	if order[0] != "high" || order[1] != "normal" || order[2] != "low" {
		t.Fatalf("dispatch order = %v, want [high normal low]", order)
	}
}

func TestRetriesExhaustToTerminalError(t *testing.T) {
	stub := &stubProviders{err: errors.New("provider down")}
	svc := newTestService(stub, 1, 3)

	id, err := svc.QueueGeneration(imageRequest("doomed"), domain.PriorityNormal)
	if err != nil {
		t.Fatalf("queue failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.Start(ctx)

	waitFor(t, func() bool {
		item, _ := svc.GetQueueStatus(id)
		return item.Status == domain.StatusError
	})

	item, _ := svc.GetQueueStatus(id)
	if item.RetryCount != 3 {
		t.Fatalf("retry count = %d, want 3", item.RetryCount)
	}
	if item.Error == "" {
		t.Fatalf("terminal item missing error message")
	}

	// One initial attempt plus three retries, never a fifth.
	time.Sleep(30 * time.Millisecond)
	if calls := len(stub.callOrder()); calls != 4 {
		t.Fatalf("provider called %d times, want 4", calls)
	}
}

func TestCompletionCarriesResult(t *testing.T) {
	stub := &stubProviders{}
	svc := newTestService(stub, 2, 0)

	id, err := svc.QueueGeneration(imageRequest("hero"), domain.PriorityNormal)
	if err != nil {
		t.Fatalf("queue failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.Start(ctx)

	waitFor(t, func() bool {
		item, _ := svc.GetQueueStatus(id)
		return item.Status == domain.StatusComplete
	})
	item, _ := svc.GetQueueStatus(id)
	if item.Progress != 100 || item.Result == nil || item.Result.Provider != "stub" {
		t.Fatalf("completed item = %#v", item)
	}
}

func TestCancelInFlightDiscardsResult(t *testing.T) {
	stub := &stubProviders{release: make(chan struct{})}
	svc := newTestService(stub, 1, 0)

	id, err := svc.QueueGeneration(imageRequest("cancel-me"), domain.PriorityNormal)
	if err != nil {
		t.Fatalf("queue failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.Start(ctx)

	waitFor(t, func() bool {
		item, _ := svc.GetQueueStatus(id)
		return item.Status == domain.StatusProcessing
	})
	if err := svc.CancelGeneration(id); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	close(stub.release)

	time.Sleep(30 * time.Millisecond)
	item, _ := svc.GetQueueStatus(id)
	if item.Status != domain.StatusCancelled || item.Result != nil {
		t.Fatalf("cancelled item = %#v, want no result", item)
	}
}

func TestCancelQueuedItemNeverDispatches(t *testing.T) {
	stub := &stubProviders{}
	svc := newTestService(stub, 1, 0)

	id, err := svc.QueueGeneration(imageRequest("never"), domain.PriorityNormal)
	if err != nil {
		t.Fatalf("queue failed: %v", err)
	}
	if err := svc.CancelGeneration(id); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.Start(ctx)

	time.Sleep(30 * time.Millisecond)
	if calls := len(stub.callOrder()); calls != 0 {
		t.Fatalf("cancelled item dispatched %d times", calls)
	}
}

func TestRetryGenerationRequeuesErroredItem(t *testing.T) {
	stub := &stubProviders{err: errors.New("down")}
	svc := newTestService(stub, 1, 0)

	id, err := svc.QueueGeneration(imageRequest("flaky"), domain.PriorityNormal)
	if err != nil {
		t.Fatalf("queue failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.Start(ctx)

	waitFor(t, func() bool {
		item, _ := svc.GetQueueStatus(id)
		return item.Status == domain.StatusError
	})

	stub.setErr(nil)

	if err := svc.RetryGeneration(id); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	waitFor(t, func() bool {
		item, _ := svc.GetQueueStatus(id)
		return item.Status == domain.StatusComplete
	})
}

func TestEstimateDuration(t *testing.T) {
	tests := []struct {
		name string
		req  domain.GenerationRequest
		want time.Duration
	}{
		{"image standard", domain.GenerationRequest{Type: domain.MediaTypeImage, Quality: domain.QualityStandard}, 45 * time.Second},
		{"image hd", domain.GenerationRequest{Type: domain.MediaTypeImage, Quality: domain.QualityHD}, 67500 * time.Millisecond},
		{"image ultra", domain.GenerationRequest{Type: domain.MediaTypeImage, Quality: domain.QualityUltra}, 90 * time.Second},
		{"video default length", domain.GenerationRequest{Type: domain.MediaTypeVideo, Quality: domain.QualityStandard}, 180 * time.Second},
		{"video ten seconds hd", domain.GenerationRequest{Type: domain.MediaTypeVideo, Quality: domain.QualityHD, Duration: 10}, 540 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := estimateDuration(tt.req); got != tt.want {
				t.Fatalf("estimate = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUsageSummary(t *testing.T) {
	stub := &stubProviders{}
	svc := newTestService(stub, 2, 0)

	okID, _ := svc.QueueGeneration(imageRequest("ok"), domain.PriorityNormal)
	cancelID, _ := svc.QueueGeneration(imageRequest("gone"), domain.PriorityLow)
	if err := svc.CancelGeneration(cancelID); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.Start(ctx)
	waitFor(t, func() bool {
		item, _ := svc.GetQueueStatus(okID)
		return item.Status == domain.StatusComplete
	})

	summary := svc.Usage()
	if summary.Total != 2 || summary.Completed != 1 || summary.Cancelled != 1 {
		t.Fatalf("summary = %+v", summary)
	}
	if summary.Images != 2 || summary.TotalCost != 0.05 || summary.CompletedLast != 1 {
		t.Fatalf("summary detail = %+v", summary)
	}
}

// stubDownloader serves a fixed payload for any url.
type stubDownloader struct {
	data        []byte
	contentType string
	err         error
}

func (s *stubDownloader) Download(ctx context.Context, url string) ([]byte, string, error) {
	if s.err != nil {
		return nil, "", s.err
	}
	return s.data, s.contentType, nil
}

func TestCompletionArchivesAsset(t *testing.T) {
	files, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("file store: %v", err)
	}
	payload := []byte("png-bytes")
	svc := NewService(Options{
		Providers:        &stubProviders{},
		Files:            files,
		Downloader:       &stubDownloader{data: payload, contentType: "image/png"},
		MaxConcurrent:    1,
		PollInterval:     5 * time.Millisecond,
		ProgressInterval: time.Hour,
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.Start(ctx)

	id, err := svc.QueueGeneration(imageRequest("archive-me"), domain.PriorityNormal)
	if err != nil {
		t.Fatalf("queue failed: %v", err)
	}
	waitFor(t, func() bool {
		item, _ := svc.GetQueueStatus(id)
		return item.Status == domain.StatusComplete
	})

	item, _ := svc.GetQueueStatus(id)
	wantKey := "generated/images/" + id + ".png"
	if item.Result == nil || item.Result.StorageKey != wantKey {
		t.Fatalf("result = %+v, want storage key %s", item.Result, wantKey)
	}
	if item.Result.Metadata.FileSize != int64(len(payload)) {
		t.Fatalf("file size = %d, want %d", item.Result.Metadata.FileSize, len(payload))
	}
	stored, err := files.Read(context.Background(), wantKey)
	if err != nil || string(stored) != string(payload) {
		t.Fatalf("stored payload = %q, err %v", stored, err)
	}
}

func TestArchiveFailureKeepsRemoteURL(t *testing.T) {
	files, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("file store: %v", err)
	}
	svc := NewService(Options{
		Providers:        &stubProviders{},
		Files:            files,
		Downloader:       &stubDownloader{err: errors.New("upstream gone")},
		MaxConcurrent:    1,
		PollInterval:     5 * time.Millisecond,
		ProgressInterval: time.Hour,
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.Start(ctx)

	id, err := svc.QueueGeneration(imageRequest("flaky"), domain.PriorityNormal)
	if err != nil {
		t.Fatalf("queue failed: %v", err)
	}
	waitFor(t, func() bool {
		item, _ := svc.GetQueueStatus(id)
		return item.Status == domain.StatusComplete
	})

	item, _ := svc.GetQueueStatus(id)
	if item.Result == nil || item.Result.StorageKey != "" {
		t.Fatalf("result = %+v, want empty storage key", item.Result)
	}
	if item.Result.URL == "" {
		t.Fatalf("remote url dropped on archive failure")
	}
}
