package source

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/stonksfeed/internal/infra"
	"github.com/seenimoa/stonksfeed/pkg/models"
	"github.com/seenimoa/stonksfeed/pkg/utils"
)

const (
	forumPublisher = "Silicon Investor"
	forumRootURL   = "https://www.siliconinvestor.com/"

	// defaultDetailLimit bounds how many post detail pages are fetched
	// concurrently during the detail phase.
	defaultDetailLimit = 4
)

// msgIDPattern extracts the numeric message id from hrefs like
// "readmsg.aspx?msgid=35394904".
var msgIDPattern = regexp.MustCompile(`msgid=(\d+)`)

// errNoDate reports a detail page without any date-shaped To:/From: cell.
var errNoDate = errors.New("no date-shaped cell on post page")

// ForumSource scrapes one Silicon Investor forum listing page. The index
// page yields headline, link and author cheaply; an accurate post time
// requires fetching each post's detail page (see resolvePostDate).
type ForumSource struct {
	title       string
	url         string
	rootURL     string
	limiter     *infra.RateLimiter
	detailLimit int
	now         func() time.Time
}

// NewForum creates a forum adapter for the given listing page URL and
// display title.
func NewForum(title, url string) *ForumSource {
	return &ForumSource{
		title:       title,
		url:         url,
		rootURL:     forumRootURL,
		limiter:     infra.NewRateLimiter(2, time.Second),
		detailLimit: defaultDetailLimit,
		now:         time.Now,
	}
}

// Name returns the source identifier used in logs and summaries.
func (s *ForumSource) Name() string {
	return forumPublisher + " / " + s.title
}

// candidate is one post discovered on the index page.
type candidate struct {
	msgID    string
	headline string
	link     string
	author   string
}

// Fetch scrapes the listing page, then resolves each post's publish time
// from its detail page. Detail failures are independent: a post whose date
// cannot be resolved falls back to the wall clock captured at scrape start
// and is marked time-approximate.
func (s *ForumSource) Fetch(ctx context.Context) ([]models.Article, error) {
	// Captured once; every fallback in this scrape shares it.
	fallback := s.now().In(utils.Pacific).Unix()

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, &FetchError{Source: s.Name(), Err: err}
	}
	body, err := fetchBody(ctx, httpClient, s.url)
	if err != nil {
		return nil, &FetchError{Source: s.Name(), Err: err}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil, &FetchError{Source: s.Name(), Err: fmt.Errorf("parse index page: %w", err)}
	}

	posts := s.parseIndex(doc)

	type resolution struct {
		epoch int64
		err   error
	}
	resolved := make([]resolution, len(posts))

	var g errgroup.Group
	g.SetLimit(s.detailLimit)
	for i, post := range posts {
		i, post := i, post
		g.Go(func() error {
			epoch, err := s.resolvePostDate(ctx, post.link)
			resolved[i] = resolution{epoch: epoch, err: err}
			return nil // failures fall back, never cancel siblings
		})
	}
	g.Wait()

	articles := make([]models.Article, 0, len(posts))
	for i, post := range posts {
		a := models.Article{
			Publisher: forumPublisher,
			FeedTitle: s.title,
			Headline:  post.headline,
			Link:      post.link,
			Kind:      models.SourceForumPost,
			Author:    post.author,
		}
		if r := resolved[i]; r.err == nil {
			a.PubDate = r.epoch
		} else {
			a.PubDate = fallback
			a.TimeApproximate = true
		}
		articles = append(articles, a)
	}

	return articles, nil
}

// parseIndex extracts post candidates from the listing page. Rows without
// a recognizable post link, with an empty link text, or repeating an
// already-seen message id (duplicate anchor rendering) are skipped.
func (s *ForumSource) parseIndex(doc *goquery.Document) []candidate {
	var posts []candidate
	seen := make(map[string]bool)

	doc.Find(`tr[align="left"]`).Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 4 {
			return
		}

		linkTag := cells.Eq(1).Find(`a[href*="readmsg"]`).First()
		if linkTag.Length() == 0 {
			return
		}
		href, _ := linkTag.Attr("href")

		msgID := extractMessageID(href)
		if msgID != "" {
			if seen[msgID] {
				return
			}
			seen[msgID] = true
		}

		headline := strings.TrimSpace(linkTag.Text())
		if headline == "" {
			return
		}

		author := strings.TrimSpace(cells.Eq(2).Find(`a[href*="profile"]`).First().Text())

		posts = append(posts, candidate{
			msgID:    msgID,
			headline: headline,
			link:     s.buildLink(href),
			author:   author,
		})
	})

	return posts
}

// resolvePostDate fetches a post's detail page and extracts its timestamp.
func (s *ForumSource) resolvePostDate(ctx context.Context, postURL string) (int64, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return 0, err
	}
	body, err := fetchBody(ctx, detailClient, postURL)
	if err != nil {
		return 0, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return 0, err
	}

	value, ok := matchPostDate(postTableRows(doc))
	if !ok {
		return 0, errNoDate
	}
	return parsePostDate(value)
}

// TableRow is one label/value pair from a post detail page's header table.
type TableRow struct {
	Label string
	Value string
}

// postTableRows collects the label/value rows of the message header table.
func postTableRows(doc *goquery.Document) []TableRow {
	table := doc.Find("div#msgcontentDiv").First().Find("table").First()

	var rows []TableRow
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}
		rows = append(rows, TableRow{
			Label: strings.TrimSpace(cells.Eq(0).Text()),
			Value: strings.TrimSpace(cells.Eq(1).Text()),
		})
	})
	return rows
}

// matchPostDate finds the timestamp cell in a post's header table. The row
// label differs by post type: replies carry the date next to "To:", while
// original posts carry it next to "From:", unless that cell holds a
// message ordinal such as "3 of 10", which is not a date. Rows are checked
// top to bottom; the first date-shaped match wins.
func matchPostDate(rows []TableRow) (string, bool) {
	for _, row := range rows {
		if strings.HasPrefix(row.Label, "To:") && dateShaped(row.Value) {
			return row.Value, true
		}
		if strings.HasPrefix(row.Label, "From:") &&
			strings.Contains(row.Value, "/") && !strings.Contains(row.Value, "of") {
			return row.Value, true
		}
	}
	return "", false
}

// dateShaped reports whether a cell value looks like a date: it contains a
// slash and at least one digit.
func dateShaped(value string) bool {
	if !strings.Contains(value, "/") {
		return false
	}
	return strings.ContainsAny(value, "0123456789")
}

// parsePostDate converts a string like "1/16/2026 10:29:34 AM" to epoch
// seconds. Values without timezone information are localized to the
// forum's fixed Pacific reference timezone.
func parsePostDate(value string) (int64, error) {
	t, err := dateparse.ParseIn(value, utils.Pacific)
	if err != nil {
		return 0, err
	}
	return t.Unix(), nil
}

// extractMessageID pulls the numeric message id out of a post href, or ""
// when the href carries none.
func extractMessageID(href string) string {
	m := msgIDPattern.FindStringSubmatch(href)
	if m == nil {
		return ""
	}
	return m[1]
}

// buildLink absolutizes a partial post href against the forum root.
func (s *ForumSource) buildLink(partial string) string {
	if strings.HasPrefix(partial, "http") {
		return partial
	}
	return s.rootURL + partial
}
