// Package pipeline runs the ingestion flow: fetch from every configured
// source, enrich headlines with sentiment and ticker tags, and persist
// through the dedup gateway, accumulating a per-run summary.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/stonksfeed/internal/nlp"
	"github.com/seenimoa/stonksfeed/internal/source"
	"github.com/seenimoa/stonksfeed/internal/store"
	"github.com/seenimoa/stonksfeed/pkg/models"
)

// ErrNoGateway reports a run attempted without a configured destination
// store. This is the one configuration-level failure that is fatal.
var ErrNoGateway = errors.New("pipeline: no destination store configured")

// Summary aggregates the outcome counts of one pipeline run. Per-item and
// per-source failures are converted into counts at the smallest possible
// scope; a run always produces a summary.
type Summary struct {
	Fetched      int `json:"fetched"`
	Inserted     int `json:"inserted"`
	Duplicates   int `json:"duplicates"`
	Stale        int `json:"stale"`
	InsertErrors int `json:"insert_errors"`
	SourceErrors int `json:"source_errors"`
}

// Options configures pipeline behavior.
type Options struct {
	// PermissiveTickers enables the permissive ticker-extraction pass.
	PermissiveTickers bool
}

// Gateway is the persistence surface the pipeline writes through.
type Gateway interface {
	Insert(ctx context.Context, a *models.Article) (store.Outcome, error)
}

// Pipeline orchestrates sources, enrichment, and persistence.
type Pipeline struct {
	sources []source.Source
	gateway Gateway
	opts    Options
	logger  *slog.Logger
}

// New creates a pipeline over the given sources and gateway.
func New(sources []source.Source, gateway Gateway, opts Options, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		sources: sources,
		gateway: gateway,
		opts:    opts,
		logger:  logger,
	}
}

// Run executes one full ingestion pass. Sources fetch concurrently; one
// source's failure never aborts the others. The only fatal condition is a
// missing gateway, which is a configuration error.
func (p *Pipeline) Run(ctx context.Context) (*Summary, error) {
	if p.gateway == nil {
		return nil, ErrNoGateway
	}

	summary := &Summary{}
	var (
		mu       sync.Mutex
		articles []models.Article
	)

	var g errgroup.Group
	for _, src := range p.sources {
		src := src
		g.Go(func() error {
			fetched, err := src.Fetch(ctx)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				summary.SourceErrors++
				p.logger.Error("source fetch failed", "source", src.Name(), "error", err)
				return nil
			}
			articles = append(articles, fetched...)
			p.logger.Info("source fetched", "source", src.Name(), "articles", len(fetched))
			return nil
		})
	}
	g.Wait()

	summary.Fetched = len(articles)

	for i := range articles {
		a := &articles[i]
		Enrich(a, p.opts.PermissiveTickers)

		outcome, err := p.gateway.Insert(ctx, a)
		if err != nil {
			summary.InsertErrors++
			p.logger.Error("insert failed", "headline", a.Headline, "error", err)
			continue
		}
		switch outcome {
		case store.Inserted:
			summary.Inserted++
		case store.SkippedDuplicate:
			summary.Duplicates++
		case store.SkippedStale:
			summary.Stale++
		}
	}

	p.logger.Info("pipeline run complete",
		"fetched", summary.Fetched,
		"inserted", summary.Inserted,
		"duplicates", summary.Duplicates,
		"stale", summary.Stale,
		"insert_errors", summary.InsertErrors,
		"source_errors", summary.SourceErrors,
	)
	return summary, nil
}

// Enrich populates the sentiment and ticker fields from the headline.
// Exposed for backfill use; it mutates the article in place and is the
// only mutation a record sees between construction and persistence.
func Enrich(a *models.Article, permissiveTickers bool) {
	score, label := nlp.AnalyzeSentiment(a.Headline)
	a.SentimentScore = &score
	a.SentimentLabel = label
	a.Tickers = nlp.ExtractTickers(a.Headline, permissiveTickers)
}
