// Package store provides the dedup/persistence gateway. Articles are
// keyed by (headline, pubdate); inserts are single atomic conditional
// writes, so concurrent pipeline runs are safe: the first writer wins
// and every later writer sees a duplicate outcome.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/seenimoa/stonksfeed/pkg/models"
)

// Outcome is the result of one insert attempt.
type Outcome int

const (
	// Inserted means the article was written.
	Inserted Outcome = iota
	// SkippedDuplicate means a stored article already holds the same
	// (headline, pubdate) key. Expected steady state on re-runs.
	SkippedDuplicate
	// SkippedStale means the age filter rejected the article before any
	// write was attempted.
	SkippedStale
)

func (o Outcome) String() string {
	switch o {
	case Inserted:
		return "inserted"
	case SkippedDuplicate:
		return "skipped_duplicate"
	case SkippedStale:
		return "skipped_stale"
	default:
		return "unknown"
	}
}

// Options configures optional gateway behavior.
type Options struct {
	// MaxAge, when > 0, rejects articles whose pubdate is older than
	// now - MaxAge. Articles with pubdate 0 bypass the check (their age
	// is unknowable).
	MaxAge time.Duration

	// Retention, when > 0, stamps each inserted row with an expiry so
	// the store can reclaim it after the window. Expiry never affects
	// the dedup key.
	Retention time.Duration
}

// Store is the SQLite-backed article gateway.
type Store struct {
	db   *sql.DB
	opts Options
	now  func() time.Time
}

const createTableSQL = `
CREATE TABLE IF NOT EXISTS articles (
	headline TEXT NOT NULL,
	pubdate INTEGER NOT NULL,
	publisher TEXT NOT NULL DEFAULT '',
	feed_title TEXT NOT NULL DEFAULT '',
	link TEXT NOT NULL DEFAULT '',
	source_kind TEXT NOT NULL DEFAULT '',
	author TEXT NOT NULL DEFAULT '',
	time_approximate INTEGER NOT NULL DEFAULT 0,
	sentiment_score REAL,
	sentiment_label TEXT NOT NULL DEFAULT '',
	tickers TEXT NOT NULL DEFAULT '[]',
	inserted_at INTEGER NOT NULL,
	expires_at INTEGER,
	PRIMARY KEY (headline, pubdate)
);
CREATE INDEX IF NOT EXISTS idx_articles_pubdate ON articles(pubdate DESC);
`

// Open opens (creating if needed) the SQLite database at path.
func Open(path string, opts Options) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}

	// WAL keeps concurrent readers cheap while the pipeline writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: set WAL mode: %w", err)
	}
	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: create tables: %w", err)
	}

	return &Store{db: db, opts: opts, now: time.Now}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Insert attempts a conditional write of one article. It returns
// SkippedStale when the age filter rejects the article (no write is
// attempted), SkippedDuplicate when a row with the same (headline,
// pubdate) key already exists, and Inserted otherwise. An error is a hard
// failure, reported distinctly from both skip outcomes.
func (s *Store) Insert(ctx context.Context, a *models.Article) (Outcome, error) {
	now := s.now()

	if s.opts.MaxAge > 0 && a.PubDate > 0 {
		age := now.Unix() - a.PubDate
		if age > int64(s.opts.MaxAge.Seconds()) {
			return SkippedStale, nil
		}
	}

	tickers, err := json.Marshal(tickersOrEmpty(a.Tickers))
	if err != nil {
		return 0, fmt.Errorf("store: encode tickers: %w", err)
	}

	var expiresAt any
	if s.opts.Retention > 0 {
		expiresAt = now.Add(s.opts.Retention).Unix()
	}

	var score any
	if a.SentimentScore != nil {
		score = *a.SentimentScore
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO articles (
			headline, pubdate, publisher, feed_title, link, source_kind,
			author, time_approximate, sentiment_score, sentiment_label,
			tickers, inserted_at, expires_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(headline, pubdate) DO NOTHING`,
		a.Headline, a.PubDate, a.Publisher, a.FeedTitle, a.Link,
		string(a.Kind), a.Author, boolToInt(a.TimeApproximate), score,
		string(a.SentimentLabel), string(tickers), now.Unix(), expiresAt,
	)
	if err != nil {
		return 0, fmt.Errorf("store: insert %q: %w", a.Headline, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("store: rows affected: %w", err)
	}
	if n == 0 {
		return SkippedDuplicate, nil
	}
	return Inserted, nil
}

// List returns up to limit stored articles, newest first by pubdate.
// Rows past their expiry are excluded even before PurgeExpired reclaims
// them.
func (s *Store) List(ctx context.Context, limit int) ([]models.Article, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT headline, pubdate, publisher, feed_title, link, source_kind,
		       author, time_approximate, sentiment_score, sentiment_label, tickers
		FROM articles
		WHERE expires_at IS NULL OR expires_at > ?
		ORDER BY pubdate DESC
		LIMIT ?`,
		s.now().Unix(), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}
	defer rows.Close()

	var articles []models.Article
	for rows.Next() {
		var (
			a           models.Article
			kind        string
			label       string
			approximate int
			score       sql.NullFloat64
			tickersJSON string
		)
		if err := rows.Scan(
			&a.Headline, &a.PubDate, &a.Publisher, &a.FeedTitle, &a.Link,
			&kind, &a.Author, &approximate, &score, &label, &tickersJSON,
		); err != nil {
			return nil, fmt.Errorf("store: scan: %w", err)
		}
		a.Kind = models.SourceKind(kind)
		a.SentimentLabel = models.SentimentLabel(label)
		a.TimeApproximate = approximate != 0
		if score.Valid {
			v := score.Float64
			a.SentimentScore = &v
		}
		if tickersJSON != "" && tickersJSON != "[]" {
			if err := json.Unmarshal([]byte(tickersJSON), &a.Tickers); err != nil {
				return nil, fmt.Errorf("store: decode tickers for %q: %w", a.Headline, err)
			}
		}
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

// Count returns the number of unexpired stored articles.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM articles WHERE expires_at IS NULL OR expires_at > ?`,
		s.now().Unix(),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("store: count: %w", err)
	}
	return n, nil
}

// PurgeExpired deletes rows past their expiry and reports how many were
// reclaimed.
func (s *Store) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM articles WHERE expires_at IS NOT NULL AND expires_at <= ?`,
		s.now().Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("store: purge expired: %w", err)
	}
	return res.RowsAffected()
}

func tickersOrEmpty(t []string) []string {
	if t == nil {
		return []string{}
	}
	return t
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
