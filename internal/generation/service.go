package generation

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/adcraft/creative-engine/internal/domain"
	"github.com/adcraft/creative-engine/internal/infra"
	"github.com/adcraft/creative-engine/internal/storage"
)

const (
	baseImageEstimate = 45 * time.Second
	baseVideoEstimate = 180 * time.Second
	defaultVideoSecs  = 5
)

// ProviderService is the slice of the provider layer the queue needs.
type ProviderService interface {
	GenerateImage(ctx context.Context, req domain.GenerationRequest) (*domain.GeneratedAsset, error)
	GenerateVideo(ctx context.Context, req domain.GenerationRequest) (*domain.GeneratedAsset, error)
}

// Downloader fetches a generated asset's payload from its provider URL so it
// can be archived before the signed URL expires.
type Downloader interface {
	Download(ctx context.Context, url string) ([]byte, string, error)
}

// Options configures the generation service.
type Options struct {
	Providers        ProviderService
	Store            *Store
	Files            *storage.FileStore
	Downloader       Downloader
	Logger           *infra.Logger
	MaxConcurrent    int
	MaxRetries       int
	PollInterval     time.Duration
	DispatchDelay    time.Duration
	ProgressInterval time.Duration
}

// Service is the generation facade: it validates and enqueues requests,
// drives the dispatch loop, and exposes read-only queue snapshots. The loop
// is the single writer of item state.
type Service struct {
	providers        ProviderService
	store            *Store
	files            *storage.FileStore
	downloader       Downloader
	logger           infra.Logger
	maxConcurrent    int
	maxRetries       int
	pollInterval     time.Duration
	progressInterval time.Duration

	slots *semaphore.Weighted
	pace  *rate.Limiter
	kick  chan struct{}

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

// NewService constructs a generation service. Call Start to begin draining
// the queue.
func NewService(opts Options) *Service {
	store := opts.Store
	if store == nil {
		store = NewStore()
	}
	logger := zerolog.New(io.Discard)
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	maxConcurrent := opts.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 3
	}
	maxRetries := opts.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	pollInterval := opts.PollInterval
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	progressInterval := opts.ProgressInterval
	if progressInterval <= 0 {
		progressInterval = 3 * time.Second
	}
	pace := rate.NewLimiter(rate.Inf, 1)
	if opts.DispatchDelay > 0 {
		pace = rate.NewLimiter(rate.Every(opts.DispatchDelay), 1)
	}
	return &Service{
		providers:        opts.Providers,
		store:            store,
		files:            opts.Files,
		downloader:       opts.Downloader,
		logger:           logger,
		maxConcurrent:    maxConcurrent,
		maxRetries:       maxRetries,
		pollInterval:     pollInterval,
		progressInterval: progressInterval,
		slots:            semaphore.NewWeighted(int64(maxConcurrent)),
		pace:             pace,
		kick:             make(chan struct{}, 1),
		cancels:          make(map[string]context.CancelFunc),
	}
}

// Start launches the dispatch loop. It returns immediately; the loop stops
// when ctx is cancelled.
func (s *Service) Start(ctx context.Context) {
	go s.run(ctx)
}

func (s *Service) run(ctx context.Context) {
	s.logger.Info().Int("max_concurrent", s.maxConcurrent).Msg("generation: dispatch loop started")
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("generation: dispatch loop stopped")
			return
		case <-s.kick:
		case <-ticker.C:
		}
		s.dispatch(ctx)
	}
}

// dispatch fills free processing slots with queued items in priority order.
func (s *Service) dispatch(ctx context.Context) {
	free := s.maxConcurrent - s.store.CountProcessing()
	if free <= 0 {
		return
	}
	for _, item := range s.store.NextQueued(free) {
		if err := s.pace.Wait(ctx); err != nil {
			return
		}
		if !s.slots.TryAcquire(1) {
			return
		}
		id := item.ID
		if !s.store.MarkProcessing(id) {
			s.slots.Release(1)
			continue
		}
		go func() {
			defer s.slots.Release(1)
			defer s.nudge()
			s.process(ctx, id)
		}()
	}
}

// QueueGeneration validates the request, stores a queued item, and returns
// its id without waiting for any network work.
func (s *Service) QueueGeneration(req domain.GenerationRequest, priority domain.Priority) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	if req.Quality == "" {
		req.Quality = domain.QualityStandard
	}
	switch priority {
	case domain.PriorityLow, domain.PriorityNormal, domain.PriorityHigh:
	case "":
		priority = domain.PriorityNormal
	default:
		return "", fmt.Errorf("%w: unknown priority %q", domain.ErrInvalidRequest, priority)
	}

	now := time.Now()
	item := domain.QueueItem{
		ID:                  uuid.NewString(),
		Type:                req.Type,
		Status:              domain.StatusQueued,
		EstimatedCompletion: now.Add(estimateDuration(req)),
		Request:             req,
		MaxRetries:          s.maxRetries,
		Priority:            priority,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	s.store.Put(item)
	s.logger.Info().
		Str("queue_id", item.ID).
		Str("type", string(req.Type)).
		Str("priority", string(priority)).
		Msg("generation: queued")
	s.nudge()
	return item.ID, nil
}

// GetQueueStatus returns a snapshot of one item.
func (s *Service) GetQueueStatus(id string) (domain.QueueItem, bool) {
	return s.store.Get(id)
}

// GetAllQueueItems returns snapshots of every item.
func (s *Service) GetAllQueueItems() []domain.QueueItem {
	return s.store.List()
}

// CancelGeneration cancels a queued or processing item. An in-flight provider
// call is cancelled best-effort; its result, should it still arrive, is
// discarded by the store's status guard.
func (s *Service) CancelGeneration(id string) error {
	if err := s.store.Cancel(id); err != nil {
		return err
	}
	s.mu.Lock()
	cancel := s.cancels[id]
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	s.logger.Info().Str("queue_id", id).Msg("generation: cancelled")
	return nil
}

// RetryGeneration re-queues a terminally errored item with a fresh budget.
func (s *Service) RetryGeneration(id string) error {
	if err := s.store.ManualRetry(id); err != nil {
		return err
	}
	s.logger.Info().Str("queue_id", id).Msg("generation: manual retry")
	s.nudge()
	return nil
}

func (s *Service) process(ctx context.Context, id string) {
	item, ok := s.store.Get(id)
	if !ok {
		return
	}

	itemCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancels[id] = cancel
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.cancels, id)
		s.mu.Unlock()
		cancel()
	}()

	stopProgress := s.startProgress(itemCtx, id)
	defer stopProgress()

	var asset *domain.GeneratedAsset
	var err error
	switch item.Type {
	case domain.MediaTypeVideo:
		asset, err = s.providers.GenerateVideo(itemCtx, item.Request)
	default:
		asset, err = s.providers.GenerateImage(itemCtx, item.Request)
	}

	if err != nil {
		if requeued := s.store.FailOrRequeue(id, err.Error()); requeued {
			s.logger.Warn().Err(err).Str("queue_id", id).Msg("generation: attempt failed, requeued")
			s.nudge()
		} else {
			s.logger.Error().Err(err).Str("queue_id", id).Msg("generation: failed")
		}
		return
	}
	s.archive(itemCtx, id, item.Type, asset)
	if !s.store.Complete(id, asset) {
		s.logger.Info().Str("queue_id", id).Msg("generation: discarding result for item no longer processing")
		return
	}
	s.logger.Info().
		Str("queue_id", id).
		Str("provider", asset.Provider).
		Dur("generation_time", asset.GenerationTime).
		Msg("generation: complete")
}

// startProgress bumps the item's progress on a fixed cadence while the
// provider call is in flight. The store caps progress below 100 until the
// real completion lands.
func (s *Service) startProgress(ctx context.Context, id string) func() {
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(s.progressInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case <-ticker.C:
				s.store.BumpProgress(id, 10)
			}
		}
	}()
	var once sync.Once
	return func() { once.Do(func() { close(done) }) }
}

// archive persists the asset payload through the file store so the result
// outlives the provider's signed URL. A failed download or write keeps the
// remote URL and leaves the item completable.
func (s *Service) archive(ctx context.Context, id string, mediaType domain.MediaType, asset *domain.GeneratedAsset) {
	if s.files == nil || s.downloader == nil || asset == nil || asset.URL == "" {
		return
	}
	data, contentType, err := s.downloader.Download(ctx, asset.URL)
	if err != nil {
		s.logger.Warn().Err(err).Str("queue_id", id).Msg("generation: asset download failed, keeping remote url")
		return
	}
	key := fmt.Sprintf("generated/%ss/%s%s", mediaType, id, extensionFor(contentType))
	stored, err := s.files.Write(ctx, key, data)
	if err != nil {
		s.logger.Warn().Err(err).Str("queue_id", id).Msg("generation: asset archive failed")
		return
	}
	asset.StorageKey = stored
	if asset.Metadata.FileSize == 0 {
		asset.Metadata.FileSize = int64(len(data))
	}
	s.logger.Info().Str("queue_id", id).Str("storage_key", stored).Msg("generation: asset archived")
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "video/mp4":
		return ".mp4"
	case "video/webm":
		return ".webm"
	case "", "image/png":
		return ".png"
	default:
		return ".bin"
	}
}

func (s *Service) nudge() {
	select {
	case s.kick <- struct{}{}:
	default:
	}
}

// estimateDuration applies the completion-time heuristic: images scale with
// the quality multiplier, videos additionally with their length.
func estimateDuration(req domain.GenerationRequest) time.Duration {
	multiplier := req.Quality.Multiplier()
	if req.Type == domain.MediaTypeVideo {
		secs := req.Duration
		if secs <= 0 {
			secs = defaultVideoSecs
		}
		scale := float64(secs) / float64(defaultVideoSecs)
		return time.Duration(float64(baseVideoEstimate) * scale * multiplier)
	}
	return time.Duration(float64(baseImageEstimate) * multiplier)
}

// UsageSummary aggregates queue activity for the stats endpoint.
type UsageSummary struct {
	Total         int     `json:"total"`
	Queued        int     `json:"queued"`
	Processing    int     `json:"processing"`
	Completed     int     `json:"completed"`
	Failed        int     `json:"failed"`
	Cancelled     int     `json:"cancelled"`
	Images        int     `json:"images"`
	Videos        int     `json:"videos"`
	TotalCost     float64 `json:"total_cost"`
	CompletedLast int     `json:"completed_last_24h"`
}

// Usage derives a summary from the current queue snapshot.
func (s *Service) Usage() UsageSummary {
	var summary UsageSummary
	cutoff := time.Now().Add(-24 * time.Hour)
	for _, item := range s.store.List() {
		summary.Total++
		switch item.Status {
		case domain.StatusQueued:
			summary.Queued++
		case domain.StatusProcessing:
			summary.Processing++
		case domain.StatusComplete:
			summary.Completed++
			if item.UpdatedAt.After(cutoff) {
				summary.CompletedLast++
			}
			if item.Result != nil {
				summary.TotalCost += item.Result.Cost
			}
		case domain.StatusError:
			summary.Failed++
		case domain.StatusCancelled:
			summary.Cancelled++
		}
		switch item.Type {
		case domain.MediaTypeImage:
			summary.Images++
		case domain.MediaTypeVideo:
			summary.Videos++
		}
	}
	return summary
}
