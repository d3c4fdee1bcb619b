package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/seenimoa/stonksfeed/internal/source"
	"github.com/seenimoa/stonksfeed/internal/store"
	"github.com/seenimoa/stonksfeed/pkg/models"
)

// fakeSource returns canned articles or a canned error.
type fakeSource struct {
	name     string
	articles []models.Article
	err      error
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Fetch(_ context.Context) ([]models.Article, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.articles, nil
}

// fakeGateway records inserts and dedups on the natural key in memory.
type fakeGateway struct {
	mu       sync.Mutex
	seen     map[[2]any]bool
	inserted []models.Article
	stale    func(a *models.Article) bool
	failOn   string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{seen: make(map[[2]any]bool)}
}

func (g *fakeGateway) Insert(_ context.Context, a *models.Article) (store.Outcome, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failOn != "" && a.Headline == g.failOn {
		return 0, errors.New("disk on fire")
	}
	if g.stale != nil && g.stale(a) {
		return store.SkippedStale, nil
	}
	key := [2]any{a.Headline, a.PubDate}
	if g.seen[key] {
		return store.SkippedDuplicate, nil
	}
	g.seen[key] = true
	g.inserted = append(g.inserted, *a)
	return store.Inserted, nil
}

func TestRunCountsOutcomes(t *testing.T) {
	sources := []source.Source{
		&fakeSource{name: "feed", articles: []models.Article{
			{Headline: "Stock soars to record highs", PubDate: 100, Kind: models.SourceFeedItem},
			{Headline: "Stock soars to record highs", PubDate: 100, Kind: models.SourceFeedItem}, // duplicate
		}},
		&fakeSource{name: "forum", articles: []models.Article{
			{Headline: "Buy $AAPL and NVDA now", PubDate: 200, Kind: models.SourceForumPost},
		}},
	}
	gw := newFakeGateway()
	p := New(sources, gw, Options{}, nil)

	summary, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Fetched != 3 {
		t.Fatalf("got fetched %d, want 3", summary.Fetched)
	}
	if summary.Inserted != 2 || summary.Duplicates != 1 {
		t.Fatalf("got inserted %d / duplicates %d, want 2 / 1", summary.Inserted, summary.Duplicates)
	}
}

func TestRunEnrichesBeforePersisting(t *testing.T) {
	sources := []source.Source{
		&fakeSource{name: "feed", articles: []models.Article{
			{Headline: "Buy $AAPL and NVDA now", PubDate: 1, Kind: models.SourceFeedItem},
		}},
	}
	gw := newFakeGateway()
	p := New(sources, gw, Options{}, nil)

	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(gw.inserted) != 1 {
		t.Fatalf("got %d inserted, want 1", len(gw.inserted))
	}

	a := gw.inserted[0]
	if a.SentimentScore == nil || a.SentimentLabel == "" {
		t.Fatalf("sentiment not populated: %+v", a)
	}
	want := []string{"AAPL", "NVDA"}
	if len(a.Tickers) != 2 || a.Tickers[0] != want[0] || a.Tickers[1] != want[1] {
		t.Fatalf("got tickers %v, want %v", a.Tickers, want)
	}
}

func TestRunSourceFailureDoesNotAbortOthers(t *testing.T) {
	sources := []source.Source{
		&fakeSource{name: "broken", err: &source.FetchError{Source: "broken", Err: errors.New("timeout")}},
		&fakeSource{name: "ok", articles: []models.Article{
			{Headline: "Markets open flat", PubDate: 5, Kind: models.SourceFeedItem},
		}},
	}
	gw := newFakeGateway()
	p := New(sources, gw, Options{}, nil)

	summary, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("run must not fail on a source error: %v", err)
	}
	if summary.SourceErrors != 1 {
		t.Fatalf("got %d source errors, want 1", summary.SourceErrors)
	}
	if summary.Inserted != 1 {
		t.Fatalf("got %d inserted, want the healthy source's article", summary.Inserted)
	}
}

func TestRunCountsStaleSeparately(t *testing.T) {
	sources := []source.Source{
		&fakeSource{name: "feed", articles: []models.Article{
			{Headline: "ancient news", PubDate: 1, Kind: models.SourceFeedItem},
			{Headline: "fresh news", PubDate: 2, Kind: models.SourceFeedItem},
		}},
	}
	gw := newFakeGateway()
	gw.stale = func(a *models.Article) bool { return a.Headline == "ancient news" }
	p := New(sources, gw, Options{}, nil)

	summary, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Stale != 1 || summary.Duplicates != 0 {
		t.Fatalf("got stale %d / duplicates %d, want 1 / 0", summary.Stale, summary.Duplicates)
	}
	if summary.Inserted != 1 {
		t.Fatalf("got inserted %d, want 1", summary.Inserted)
	}
}

func TestRunCountsInsertErrors(t *testing.T) {
	sources := []source.Source{
		&fakeSource{name: "feed", articles: []models.Article{
			{Headline: "cursed row", PubDate: 1, Kind: models.SourceFeedItem},
			{Headline: "good row", PubDate: 2, Kind: models.SourceFeedItem},
		}},
	}
	gw := newFakeGateway()
	gw.failOn = "cursed row"
	p := New(sources, gw, Options{}, nil)

	summary, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.InsertErrors != 1 || summary.Inserted != 1 {
		t.Fatalf("got errors %d / inserted %d, want 1 / 1", summary.InsertErrors, summary.Inserted)
	}
}

func TestRunWithoutGatewayIsFatal(t *testing.T) {
	p := New(nil, nil, Options{}, nil)
	if _, err := p.Run(context.Background()); !errors.Is(err, ErrNoGateway) {
		t.Fatalf("got %v, want ErrNoGateway", err)
	}
}

func TestEnrichIsDeterministic(t *testing.T) {
	a := models.Article{Headline: "Shares plunge on weak earnings"}
	b := a
	Enrich(&a, false)
	Enrich(&b, false)
	if *a.SentimentScore != *b.SentimentScore || a.SentimentLabel != b.SentimentLabel {
		t.Fatalf("enrichment not deterministic: %+v vs %+v", a, b)
	}
	if a.SentimentLabel != models.SentimentBearish {
		t.Fatalf("got label %q, want bearish", a.SentimentLabel)
	}
}
