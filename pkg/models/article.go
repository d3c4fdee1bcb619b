// Package models defines the core data structures used throughout stonksfeed.
package models

// SourceKind identifies which kind of adapter produced an article.
type SourceKind string

const (
	// SourceFeedItem marks articles parsed from a structured feed document.
	SourceFeedItem SourceKind = "feed_item"
	// SourceForumPost marks articles scraped from a forum page.
	SourceForumPost SourceKind = "forum_post"
)

// SentimentLabel classifies a headline's compound sentiment score.
type SentimentLabel string

const (
	SentimentBullish SentimentLabel = "bullish"
	SentimentBearish SentimentLabel = "bearish"
	SentimentNeutral SentimentLabel = "neutral"
)

// Article is the canonical, source-independent representation of one news
// article or forum post. (Headline, PubDate) is the natural identity key;
// the store refuses to persist two articles sharing that pair.
type Article struct {
	Publisher string     `json:"publisher"`
	FeedTitle string     `json:"feed_title"`
	Headline  string     `json:"headline"`
	Link      string     `json:"link"`
	PubDate   int64      `json:"pubdate"` // Unix epoch seconds; 0 when the source carried no date
	Kind      SourceKind `json:"source_kind"`
	Author    string     `json:"author,omitempty"`

	// TimeApproximate is set when PubDate was substituted from the
	// scrape-time wall clock because the true post time could not be
	// resolved. Consumers can then treat ordering as best-effort.
	TimeApproximate bool `json:"time_approximate,omitempty"`

	// Enrichment fields, populated by the pipeline before persistence.
	SentimentScore *float64       `json:"sentiment_score,omitempty"` // compound score in [-1, 1]
	SentimentLabel SentimentLabel `json:"sentiment_label,omitempty"`
	Tickers        []string       `json:"tickers,omitempty"` // sorted, deduplicated, uppercase
}

// Key returns the article's natural identity pair.
func (a *Article) Key() (headline string, pubdate int64) {
	return a.Headline, a.PubDate
}
