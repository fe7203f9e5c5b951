package api

import (
	"encoding/json/v2"
	"net/http"
	"strconv"

	"github.com/bookskyapp/booksky-server/internal/http/response"
	"github.com/bookskyapp/booksky-server/internal/service"
)

// maxBatchSize bounds a single ingest request.
const maxBatchSize = 500

// handleClassifySkeet ingests and classifies a single skeet.
func (s *Server) handleClassifySkeet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var raw service.RawSkeet
	if err := json.UnmarshalRead(r.Body, &raw); err != nil {
		response.BadRequest(w, "Invalid JSON body", s.logger)
		return
	}

	outcome, err := s.ingestService.IngestOne(ctx, raw)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	if outcome.Error != "" {
		s.logger.Error("Failed to classify skeet", "uri", raw.URI, "error", outcome.Error)
		response.InternalError(w, "Failed to classify skeet", s.logger)
		return
	}

	response.Success(w, outcome, s.logger)
}

// handleIngestBatch ingests and classifies a batch of skeets.
func (s *Server) handleIngestBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body struct {
		Skeets []service.RawSkeet `json:"skeets"`
	}
	if err := json.UnmarshalRead(r.Body, &body); err != nil {
		response.BadRequest(w, "Invalid JSON body", s.logger)
		return
	}
	if len(body.Skeets) == 0 {
		response.BadRequest(w, "Batch is empty", s.logger)
		return
	}
	if len(body.Skeets) > maxBatchSize {
		response.BadRequest(w, "Batch exceeds "+strconv.Itoa(maxBatchSize)+" skeets", s.logger)
		return
	}

	batch, err := s.ingestService.IngestBatch(ctx, body.Skeets)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, batch, s.logger)
}

// handleListPosts returns recently ingested posts.
func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if v, err := strconv.Atoi(limitStr); err == nil && v > 0 && v <= 500 {
			limit = v
		}
	}

	posts, err := s.catalogService.ListPosts(ctx, limit)
	if err != nil {
		s.logger.Error("Failed to list posts", "error", err)
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, posts, s.logger)
}
