// Package main provides a tool to seed the database with the genre taxonomy
// and, optionally, a batch of sample skeets run through the full pipeline.
//
// Usage:
//
//	DATABASE_PATH=~/Booksky/booksky.db go run ./cmd/seed
//	DATABASE_PATH=~/Booksky/booksky.db go run ./cmd/seed --sample-skeets
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/bookskyapp/booksky-server/internal/classify"
	"github.com/bookskyapp/booksky-server/internal/domain"
	"github.com/bookskyapp/booksky-server/internal/extract"
	"github.com/bookskyapp/booksky-server/internal/id"
	"github.com/bookskyapp/booksky-server/internal/pipeline"
	"github.com/bookskyapp/booksky-server/internal/resolve"
	"github.com/bookskyapp/booksky-server/internal/search"
	"github.com/bookskyapp/booksky-server/internal/service"
	"github.com/bookskyapp/booksky-server/internal/store"
	"github.com/bookskyapp/booksky-server/internal/store/sqlite"
	"github.com/bookskyapp/booksky-server/internal/taxonomy"
	"github.com/bookskyapp/booksky-server/internal/validation"
)

var sampleSkeets = flag.Bool("sample-skeets", false, "Run a batch of sample skeets through the pipeline")

func main() {
	flag.Parse()

	dbPath := os.Getenv("DATABASE_PATH")
	if dbPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			log.Fatalf("Failed to resolve home directory: %v", err)
		}
		dbPath = filepath.Join(home, "Booksky", "booksky.db")
	}

	fmt.Printf("Opening database at: %s\n", dbPath)

	logger := slog.Default()

	st, err := sqlite.Open(dbPath, logger)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer st.Close()

	ctx := context.Background()

	seeded, err := seedGenres(ctx, st)
	if err != nil {
		log.Fatalf("Failed to seed genres: %v", err)
	}
	fmt.Printf("Seeded %d genres (%d already present)\n", seeded, len(taxonomy.Defaults)-seeded)

	if !*sampleSkeets {
		fmt.Println("Seeding complete!")
		return
	}

	index, err := search.NewBookIndex(search.Options{
		DataPath: filepath.Dir(dbPath),
		Logger:   logger,
	})
	if err != nil {
		log.Fatalf("Failed to open title index: %v", err)
	}
	defer index.Close()

	coordinator := pipeline.New(
		st,
		extract.New(0.40),
		resolve.New(st, index, logger, resolve.Options{FuzzyThreshold: 0.85, CreationThreshold: 0.75}),
		classify.New(taxonomy.Defaults, 1.0),
		index,
		logger,
	)
	ingest := service.NewIngestService(st, coordinator, validation.New(), 2, logger)

	batch, err := ingest.IngestBatch(ctx, sampleBatch())
	if err != nil {
		log.Fatalf("Failed to ingest sample skeets: %v", err)
	}

	fmt.Printf("Ingested %d sample skeets: %d linked, %d dropped, %d duplicates, %d failed\n",
		batch.Received, batch.Linked, batch.Dropped, batch.Duplicates, batch.Failed)

	shelf, err := st.ListShelf(ctx)
	if err != nil {
		log.Fatalf("Failed to read shelf: %v", err)
	}
	for _, entry := range shelf {
		handle := ""
		if post, err := st.GetPost(ctx, entry.Skeet.PostID); err == nil {
			handle = post.Handle
		}
		fmt.Printf("  %-28s %-16s %s\n", entry.Book.Title, entry.Genre.Slug, handle)
	}

	fmt.Println("Seeding complete!")
}

// seedGenres inserts any taxonomy genre missing from the store.
func seedGenres(ctx context.Context, st store.Store) (int, error) {
	seeded := 0
	for _, sig := range taxonomy.Defaults {
		if _, err := st.GetGenreBySlug(ctx, sig.Slug); err == nil {
			continue
		} else if !store.IsNotFound(err) {
			return seeded, err
		}

		g := &domain.Genre{
			Name:        sig.Name,
			Slug:        sig.Slug,
			Description: sig.Description,
			Priority:    sig.Priority,
			Fallback:    sig.Fallback,
		}
		g.ID = id.MustGenerate("genre")
		g.InitTimestamps()

		err := st.CreateGenre(ctx, g)
		if store.IsAlreadyExists(err) {
			continue
		}
		if err != nil {
			return seeded, err
		}
		seeded++
	}
	return seeded, nil
}

// sampleBatch returns a handful of realistic posts covering the main
// pipeline paths: creation, reuse, fuzzy match, and drops.
func sampleBatch() []service.RawSkeet {
	now := time.Now()
	posts := []struct {
		handle string
		text   string
	}{
		{"weirbot.bsky.social", "Just finished 'Project Hail Mary' by Andy Weir and I'm still thinking about the aliens. Best sci-fi I've read in years."},
		{"spacecadet.bsky.social", "Reading Project Hail Mary for the second time. The spaceship sections hold up."},
		{"cozyreader.bsky.social", "Currently reading 'The Fifth Season'. The magic system in this fantasy is unreal."},
		{"nightowl.bsky.social", "\"Gone Girl\" kept me up until 3am. What a thriller, the suspense never lets go."},
		{"heartstrings.bsky.social", "Finished 'Beach Read' and cried twice. Peak romance, I love these two."},
		{"groundhog.bsky.social", "'Atomic Habits' actually changed my morning routine. Great self-help for building discipline."},
		{"chattergram.bsky.social", "beautiful morning for a walk, no books today"},
		{"typosrus.bsky.social", "Just finished 'Project Hail Marry', so good!"},
	}

	skeets := make([]service.RawSkeet, len(posts))
	for i, p := range posts {
		skeets[i] = service.RawSkeet{
			Handle:   p.handle,
			Text:     p.text,
			URI:      fmt.Sprintf("at://did:plc:seed/app.bsky.feed.post/%d", i+1),
			PostedAt: now.Add(time.Duration(-i) * time.Minute),
		}
	}
	return skeets
}
