// Package service contains the application services sitting between the
// HTTP layer and the pipeline: batch ingestion and catalog queries.
package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bookskyapp/booksky-server/internal/domain"
	"github.com/bookskyapp/booksky-server/internal/id"
	"github.com/bookskyapp/booksky-server/internal/pipeline"
	"github.com/bookskyapp/booksky-server/internal/store"
	"github.com/bookskyapp/booksky-server/internal/validation"
)

// RawSkeet is one inbound post as delivered by the feed client.
type RawSkeet struct {
	Handle      string    `json:"handle"`
	DisplayName string    `json:"display_name"`
	Text        string    `json:"text" validate:"required,max=3000"`
	URI         string    `json:"uri" validate:"required,max=512"`
	LikeCount   int       `json:"like_count" validate:"gte=0"`
	PostedAt    time.Time `json:"posted_at"`
}

// SkeetOutcome pairs one raw skeet with its pipeline result or failure.
type SkeetOutcome struct {
	URI       string           `json:"uri"`
	Duplicate bool             `json:"duplicate,omitempty"`
	Result    *pipeline.Result `json:"result,omitempty"`
	Error     string           `json:"error,omitempty"`
}

// BatchResult summarizes one ingestion batch.
type BatchResult struct {
	BatchID    string         `json:"batch_id"`
	Received   int            `json:"received"`
	Linked     int            `json:"linked"`
	Dropped    int            `json:"dropped"`
	Duplicates int            `json:"duplicates"`
	Failed     int            `json:"failed"`
	Outcomes   []SkeetOutcome `json:"outcomes"`
}

// IngestService persists inbound skeets and runs them through the
// classification pipeline with a bounded worker pool.
type IngestService struct {
	store       store.Store
	coordinator *pipeline.Coordinator
	validator   *validation.Validator
	workers     int
	logger      *slog.Logger
}

// NewIngestService creates the ingestion service.
func NewIngestService(st store.Store, coordinator *pipeline.Coordinator, validator *validation.Validator, workers int, logger *slog.Logger) *IngestService {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &IngestService{
		store:       st,
		coordinator: coordinator,
		validator:   validator,
		workers:     workers,
		logger:      logger,
	}
}

// IngestOne validates, persists, and classifies a single skeet.
// Re-submitting a known URI reruns classification idempotently and reports
// the skeet as a duplicate.
func (s *IngestService) IngestOne(ctx context.Context, raw RawSkeet) (*SkeetOutcome, error) {
	if err := s.validator.Validate(raw); err != nil {
		return nil, err
	}
	return s.process(ctx, raw), nil
}

// IngestBatch runs a batch of skeets through the pipeline concurrently.
// Outcomes keep the input order. Invalid entries fail individually without
// sinking the batch.
func (s *IngestService) IngestBatch(ctx context.Context, skeets []RawSkeet) (*BatchResult, error) {
	batch := &BatchResult{
		BatchID:  uuid.NewString(),
		Received: len(skeets),
		Outcomes: make([]SkeetOutcome, len(skeets)),
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < s.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				batch.Outcomes[i] = *s.process(ctx, skeets[i])
			}
		}()
	}

	for i := range skeets {
		select {
		case jobs <- i:
		case <-ctx.Done():
			// Mark everything not yet handed out as failed.
			close(jobs)
			wg.Wait()
			for j := range batch.Outcomes {
				if batch.Outcomes[j].URI == "" {
					batch.Outcomes[j] = SkeetOutcome{URI: skeets[j].URI, Error: ctx.Err().Error()}
				}
			}
			s.tally(batch)
			return batch, ctx.Err()
		}
	}
	close(jobs)
	wg.Wait()

	s.tally(batch)
	s.logger.Info("batch ingested",
		"batch_id", batch.BatchID,
		"received", batch.Received,
		"linked", batch.Linked,
		"dropped", batch.Dropped,
		"duplicates", batch.Duplicates,
		"failed", batch.Failed,
	)
	return batch, nil
}

// process handles one skeet end to end: validate, persist, classify.
func (s *IngestService) process(ctx context.Context, raw RawSkeet) *SkeetOutcome {
	outcome := &SkeetOutcome{URI: raw.URI}

	if err := s.validator.Validate(raw); err != nil {
		outcome.Error = err.Error()
		return outcome
	}

	post, duplicate, err := s.persistPost(ctx, raw)
	if err != nil {
		outcome.Error = err.Error()
		return outcome
	}
	outcome.Duplicate = duplicate

	result, err := s.coordinator.ClassifyAndLink(ctx, post)
	if err != nil {
		outcome.Error = err.Error()
		return outcome
	}
	outcome.Result = result
	return outcome
}

// persistPost stores the post, deduplicating on URI. A lost create race
// resolves by fetching whichever row won.
func (s *IngestService) persistPost(ctx context.Context, raw RawSkeet) (*domain.Post, bool, error) {
	if existing, err := s.store.GetPostByURI(ctx, raw.URI); err == nil {
		return existing, true, nil
	} else if !store.IsNotFound(err) {
		return nil, false, err
	}

	post := &domain.Post{
		Handle:      raw.Handle,
		DisplayName: raw.DisplayName,
		Text:        raw.Text,
		URI:         raw.URI,
		LikeCount:   raw.LikeCount,
		PostedAt:    raw.PostedAt,
	}
	if post.PostedAt.IsZero() {
		post.PostedAt = time.Now()
	}
	post.ID = id.MustGenerate("post")
	post.InitTimestamps()

	err := s.store.CreatePost(ctx, post)
	if store.IsAlreadyExists(err) {
		existing, gerr := s.store.GetPostByURI(ctx, raw.URI)
		if gerr != nil {
			return nil, false, gerr
		}
		return existing, true, nil
	}
	if err != nil {
		return nil, false, err
	}
	return post, false, nil
}

func (s *IngestService) tally(batch *BatchResult) {
	for _, o := range batch.Outcomes {
		switch {
		case o.Error != "":
			batch.Failed++
		case o.Duplicate:
			batch.Duplicates++
			if o.Result != nil && o.Result.Linked() {
				batch.Linked++
			}
		case o.Result != nil && o.Result.Linked():
			batch.Linked++
		default:
			batch.Dropped++
		}
	}
}
