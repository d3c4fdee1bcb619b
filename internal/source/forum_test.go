package source

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/seenimoa/stonksfeed/internal/infra"
	"github.com/seenimoa/stonksfeed/pkg/utils"
)

const indexPage = `<html><body><table>
<tr align="left">
  <td>1</td>
  <td><a href="readmsg.aspx?msgid=100">Reply about NVDA earnings</a></td>
  <td><a href="profile.aspx?userid=7">alice</a></td>
  <td>1/16/2026</td>
</tr>
<tr align="left">
  <td>2</td>
  <td><a href="readmsg.aspx?msgid=200">Original thread post</a></td>
  <td><a href="profile.aspx?userid=9">bob</a></td>
  <td>1/15/2026</td>
</tr>
<tr align="left">
  <td>3</td>
  <td><a href="readmsg.aspx?msgid=100">Reply about NVDA earnings</a></td>
  <td><a href="profile.aspx?userid=7">alice</a></td>
  <td>1/16/2026</td>
</tr>
<tr align="left">
  <td>4</td>
  <td>no post link in this row</td>
  <td></td>
  <td></td>
</tr>
</table></body></html>`

// Reply post: the "From:" cell holds a message ordinal, the "To:" row
// carries the timestamp.
const replyDetailPage = `<html><body><div id="msgcontentDiv"><table>
<tr><td>From: bob</td><td>3 of 10</td></tr>
<tr><td>To: alice</td><td>1/16/2026 10:29:34 AM</td></tr>
</table></div></body></html>`

// Original post: the timestamp sits in the "From:" row.
const originalDetailPage = `<html><body><div id="msgcontentDiv"><table>
<tr><td>From: bob</td><td>1/15/2026 9:00:00 AM</td></tr>
</table></div></body></html>`

// No date anywhere: only an ordinal.
const datelessDetailPage = `<html><body><div id="msgcontentDiv"><table>
<tr><td>From: bob</td><td>3 of 10</td></tr>
</table></div></body></html>`

func forumServer(t *testing.T, details map[string]string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/subject.aspx", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, indexPage)
	})
	mux.HandleFunc("/readmsg.aspx", func(w http.ResponseWriter, r *http.Request) {
		page, ok := details[r.URL.Query().Get("msgid")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, page)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testForum(srv *httptest.Server) *ForumSource {
	s := NewForum("AMD, ARMH, INTC, NVDA", srv.URL+"/subject.aspx?subjectid=1")
	s.rootURL = srv.URL + "/"
	s.now = func() time.Time { return time.Date(2026, 1, 20, 12, 0, 0, 0, time.UTC) }
	s.limiter = infra.NewRateLimiter(100, time.Second) // keep tests fast
	return s
}

func TestForumFetchResolvesDates(t *testing.T) {
	srv := forumServer(t, map[string]string{
		"100": replyDetailPage,
		"200": originalDetailPage,
	})
	s := testForum(srv)

	articles, err := s.Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	// Duplicate msgid row and the linkless row are skipped.
	if len(articles) != 2 {
		t.Fatalf("got %d articles, want 2", len(articles))
	}

	reply := articles[0]
	if reply.Headline != "Reply about NVDA earnings" || reply.Author != "alice" {
		t.Fatalf("index fields wrong: %+v", reply)
	}
	if reply.Publisher != "Silicon Investor" || reply.Kind != "forum_post" {
		t.Fatalf("record metadata wrong: %+v", reply)
	}
	wantReply := time.Date(2026, 1, 16, 10, 29, 34, 0, utils.Pacific).Unix()
	if reply.PubDate != wantReply {
		t.Fatalf("got pubdate %d, want %d (the To: row date)", reply.PubDate, wantReply)
	}
	if reply.TimeApproximate {
		t.Fatal("resolved date must not be marked approximate")
	}

	wantOriginal := time.Date(2026, 1, 15, 9, 0, 0, 0, utils.Pacific).Unix()
	if articles[1].PubDate != wantOriginal {
		t.Fatalf("got pubdate %d, want %d (the From: row date)", articles[1].PubDate, wantOriginal)
	}
}

func TestForumFallbackOnDatelessDetail(t *testing.T) {
	srv := forumServer(t, map[string]string{
		"100": datelessDetailPage,
		"200": originalDetailPage,
	})
	s := testForum(srv)
	wantFallback := s.now().In(utils.Pacific).Unix()

	articles, err := s.Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(articles) != 2 {
		t.Fatalf("got %d articles, want 2", len(articles))
	}

	a := articles[0]
	if a.PubDate != wantFallback {
		t.Fatalf("got pubdate %d, want fallback capture time %d", a.PubDate, wantFallback)
	}
	if !a.TimeApproximate {
		t.Fatal("fallback record must be marked time-approximate")
	}

	// Sibling resolution was unaffected by the dateless post.
	if articles[1].TimeApproximate {
		t.Fatal("resolved sibling wrongly marked approximate")
	}
}

func TestForumFallbackOnDetailFetchFailure(t *testing.T) {
	// msgid 200 has no detail page: the mux returns 404.
	srv := forumServer(t, map[string]string{
		"100": replyDetailPage,
	})
	s := testForum(srv)
	wantFallback := s.now().In(utils.Pacific).Unix()

	articles, err := s.Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(articles) != 2 {
		t.Fatalf("got %d articles, want failed detail fetch kept as fallback", len(articles))
	}
	if articles[1].PubDate != wantFallback || !articles[1].TimeApproximate {
		t.Fatalf("got %+v, want fallback time and approximate flag", articles[1])
	}
}

func TestForumIndexFetchFailureIsFetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	s := testForum(srv)
	s.url = srv.URL + "/subject.aspx?subjectid=1"
	if _, err := s.Fetch(context.Background()); err == nil {
		t.Fatal("expected fetch error when the index page is unavailable")
	}
}

func TestMatchPostDate(t *testing.T) {
	tests := []struct {
		name string
		rows []TableRow
		want string
		ok   bool
	}{
		{
			name: "reply post prefers To row over ordinal From row",
			rows: []TableRow{
				{Label: "From: bob", Value: "3 of 10"},
				{Label: "To: alice", Value: "1/16/2026 10:29:34 AM"},
			},
			want: "1/16/2026 10:29:34 AM",
			ok:   true,
		},
		{
			name: "original post takes From row date",
			rows: []TableRow{
				{Label: "From: bob", Value: "1/15/2026 9:00:00 AM"},
			},
			want: "1/15/2026 9:00:00 AM",
			ok:   true,
		},
		{
			name: "ordinal only yields no match",
			rows: []TableRow{
				{Label: "From: bob", Value: "3 of 10"},
			},
			ok: false,
		},
		{
			name: "To row without digits is not date-shaped",
			rows: []TableRow{
				{Label: "To: alice", Value: "n/a"},
			},
			ok: false,
		},
		{
			name: "empty table",
			rows: nil,
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := matchPostDate(tt.rows)
			if ok != tt.ok || got != tt.want {
				t.Fatalf("got (%q, %v), want (%q, %v)", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestParsePostDateLocalizesToPacific(t *testing.T) {
	got, err := parsePostDate("1/16/2026 10:29:34 AM")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := time.Date(2026, 1, 16, 10, 29, 34, 0, utils.Pacific).Unix()
	if got != want {
		t.Fatalf("got %d, want %d (localized to Pacific)", got, want)
	}
}

func TestExtractMessageID(t *testing.T) {
	if got := extractMessageID("readmsg.aspx?msgid=35394904"); got != "35394904" {
		t.Fatalf("got %q, want 35394904", got)
	}
	if got := extractMessageID("profile.aspx?userid=7"); got != "" {
		t.Fatalf("got %q, want empty for non-post href", got)
	}
}
