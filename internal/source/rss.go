package source

import (
	"context"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
	"github.com/mmcdole/gofeed"
	"golang.org/x/net/html"

	"github.com/seenimoa/stonksfeed/internal/infra"
	"github.com/seenimoa/stonksfeed/pkg/models"
)

// FeedSource fetches and parses one structured feed document (RSS/Atom).
type FeedSource struct {
	publisher string
	title     string
	url       string
	parser    *gofeed.Parser
	limiter   *infra.RateLimiter
}

// NewFeed creates a feed adapter for the given source URL and display
// metadata.
func NewFeed(publisher, title, url string) *FeedSource {
	return &FeedSource{
		publisher: publisher,
		title:     title,
		url:       url,
		parser:    gofeed.NewParser(),
		limiter:   infra.NewRateLimiter(2, time.Second),
	}
}

// Name returns the source identifier used in logs and summaries.
func (s *FeedSource) Name() string {
	return s.publisher + " / " + s.title
}

// Fetch retrieves the feed document and converts its items to canonical
// articles. A missing headline or link skips that item only; items without
// a parseable publish date get pubdate 0.
func (s *FeedSource) Fetch(ctx context.Context) ([]models.Article, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, &FetchError{Source: s.Name(), Err: err}
	}

	body, err := fetchBody(ctx, httpClient, s.url)
	if err != nil {
		return nil, &FetchError{Source: s.Name(), Err: err}
	}

	return s.parse(body), nil
}

// parse converts a feed document body to articles. gofeed handles
// well-formed documents; feeds whose <link> URL ends up in a sibling text
// node (a common artifact of HTML-ish feed markup, where <link> is a void
// tag) are recovered through a tolerant second pass.
func (s *FeedSource) parse(body []byte) []models.Article {
	feed, err := s.parser.ParseString(string(body))
	if err != nil {
		// Malformed document: the tolerant pass is all we have.
		return s.fromLoose(parseLooseItems(body))
	}

	var loose []looseItem // built lazily, only when a link is missing
	articles := make([]models.Article, 0, len(feed.Items))
	for _, item := range feed.Items {
		headline := strings.TrimSpace(item.Title)
		link := strings.TrimSpace(item.Link)

		if link == "" {
			if loose == nil {
				loose = parseLooseItems(body)
			}
			link = looseLinkFor(loose, headline)
		}
		if headline == "" || link == "" {
			// Per-item parse failure: skip and continue.
			continue
		}

		a := models.Article{
			Publisher: s.publisher,
			FeedTitle: s.title,
			Headline:  headline,
			Link:      link,
			Kind:      models.SourceFeedItem,
			Author:    feedItemAuthor(item),
		}
		if item.PublishedParsed != nil {
			a.PubDate = item.PublishedParsed.Unix()
		} else if item.Published != "" {
			a.PubDate = parsePubDate(item.Published)
		}
		articles = append(articles, a)
	}

	return articles
}

// looseItem is one <item> as recovered by the tolerant pass.
type looseItem struct {
	headline string
	link     string
	author   string
	pubdate  string
}

// parseLooseItems extracts items from a feed document parsed as HTML.
// HTML parsing treats <link> as a void element, which moves the URL into
// the following text node; that is exactly the encoding this pass exists
// to tolerate.
func parseLooseItems(body []byte) []looseItem {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil
	}

	var items []looseItem
	doc.Find("item").Each(func(_ int, sel *goquery.Selection) {
		it := looseItem{
			headline: strings.TrimSpace(sel.Find("title").First().Text()),
			author:   strings.TrimSpace(sel.Find("author").First().Text()),
			pubdate:  strings.TrimSpace(sel.Find("pubdate").First().Text()),
		}

		linkSel := sel.Find("link").First()
		it.link = strings.TrimSpace(linkSel.Text())
		if it.link == "" && linkSel.Length() > 0 {
			it.link = siblingText(linkSel.Get(0))
		}

		items = append(items, it)
	})
	return items
}

// siblingText returns the first non-empty text node following n.
func siblingText(n *html.Node) string {
	for next := n.NextSibling; next != nil; next = next.NextSibling {
		if next.Type == html.ElementNode {
			break
		}
		if next.Type == html.TextNode {
			if text := strings.TrimSpace(next.Data); text != "" {
				return text
			}
		}
	}
	return ""
}

// looseLinkFor finds the tolerant-pass link for a headline.
func looseLinkFor(items []looseItem, headline string) string {
	for _, it := range items {
		if it.headline == headline {
			return it.link
		}
	}
	return ""
}

// fromLoose builds articles entirely from the tolerant pass.
func (s *FeedSource) fromLoose(items []looseItem) []models.Article {
	articles := make([]models.Article, 0, len(items))
	for _, it := range items {
		if it.headline == "" || it.link == "" {
			continue
		}
		articles = append(articles, models.Article{
			Publisher: s.publisher,
			FeedTitle: s.title,
			Headline:  it.headline,
			Link:      it.link,
			PubDate:   parsePubDate(it.pubdate),
			Kind:      models.SourceFeedItem,
			Author:    it.author,
		})
	}
	return articles
}

// feedItemAuthor extracts the best available author name from a feed item.
func feedItemAuthor(item *gofeed.Item) string {
	if item.Author != nil && item.Author.Name != "" {
		return item.Author.Name
	}
	for _, p := range item.Authors {
		if p != nil && p.Name != "" {
			return p.Name
		}
	}
	return ""
}

// parsePubDate converts a publish-date string to epoch seconds with a
// permissive parser. An absent or unparseable date yields 0 rather than
// failing the item.
func parsePubDate(value string) int64 {
	if value == "" {
		return 0
	}
	t, err := dateparse.ParseAny(value)
	if err != nil {
		return 0
	}
	return t.Unix()
}
