package mediawiki

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/wikirefs/internal/harvest"
)

const disambiguationHTML = `<div class="mw-parser-output">
<p><b>Mercury</b> may refer to:</p>
<div id="toc"><ul><li class="toclevel-1 tocsection-1"><a href="#Science">Science</a></li></ul></div>
<ul>
<li><a href="/wiki/Mercury_(planet)">Mercury (planet)</a>, the closest planet to the Sun</li>
<li><a href="/wiki/Mercury_(element)">Mercury (element)</a>, a chemical element</li>
<li>An entry without a link</li>
</ul>
</div>`

// fakeWiki emulates the subset of the action API the client uses.
type fakeWiki struct {
	requests  atomic.Int32
	userAgent atomic.Value
}

func (f *fakeWiki) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.requests.Add(1)
	f.userAgent.Store(r.UserAgent())
	q := r.URL.Query()
	if q.Get("format") != "json" || q.Get("formatversion") != "2" {
		http.Error(w, "bad format", http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/json")

	switch {
	case q.Get("list") == "search":
		f.search(w, q.Get("srsearch"))
	case q.Get("prop") == "info|pageprops":
		f.info(w, q.Get("titles"))
	case q.Get("prop") == "extlinks":
		f.extlinks(w, q.Get("titles"), q.Get("elcontinue"))
	case q.Get("action") == "parse":
		writeJSON(w, map[string]any{"parse": map[string]any{"title": q.Get("page"), "text": disambiguationHTML}})
	default:
		http.Error(w, "unexpected request", http.StatusBadRequest)
	}
}

func (f *fakeWiki) search(w http.ResponseWriter, query string) {
	switch query {
	case "Alan Turing":
		writeJSON(w, map[string]any{"query": map[string]any{"search": []map[string]any{
			{"title": "Alan Turing"}, {"title": "Turing Award"},
		}}})
	case "broken":
		writeJSON(w, map[string]any{"error": map[string]any{"code": "maxlag", "info": "Waiting for replicas"}})
	case "server-error":
		http.Error(w, "boom", http.StatusInternalServerError)
	default:
		writeJSON(w, map[string]any{"query": map[string]any{"search": []any{}}})
	}
}

func (f *fakeWiki) info(w http.ResponseWriter, title string) {
	page := map[string]any{"title": title}
	switch title {
	case "Alan Turing":
	case "Turing":
		page["title"] = "Alan Turing"
	case "Mercury":
		page["pageprops"] = map[string]string{"disambiguation": ""}
	case "Bad|Title":
		page = map[string]any{"title": title, "invalid": true, "invalidreason": "contains illegal characters"}
	default:
		page["missing"] = true
	}
	writeJSON(w, map[string]any{"query": map[string]any{"pages": []any{page}}})
}

func (f *fakeWiki) extlinks(w http.ResponseWriter, title, cont string) {
	if title != "Alan Turing" {
		writeJSON(w, map[string]any{"query": map[string]any{"pages": []any{map[string]any{"title": title}}}})
		return
	}
	if cont == "" {
		writeJSON(w, map[string]any{
			"continue": map[string]string{"elcontinue": "1|2", "continue": "||"},
			"query": map[string]any{"pages": []any{map[string]any{
				"title":    title,
				"extlinks": []map[string]string{{"url": "https://a.com"}, {"url": "//b.org/path"}},
			}}},
		})
		return
	}
	writeJSON(w, map[string]any{"query": map[string]any{"pages": []any{map[string]any{
		"title":    title,
		"extlinks": []map[string]string{{"url": "http://c.net"}},
	}}}})
}

func writeJSON(w http.ResponseWriter, v any) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		panic(fmt.Sprintf("encode fake response: %v", err))
	}
}

func newTestClient(t *testing.T) (*Client, *fakeWiki) {
	t.Helper()
	wiki := &fakeWiki{}
	srv := httptest.NewServer(wiki)
	t.Cleanup(srv.Close)

	client, err := New(Config{
		APIURL:    srv.URL + "/w/api.php",
		UserAgent: "wikirefs-test",
		Timeout:   2 * time.Second,
	}, zap.NewNop())
	require.NoError(t, err)
	return client, wiki
}

func TestSearchReturnsTitlesInOrder(t *testing.T) {
	t.Parallel()

	client, wiki := newTestClient(t)

	titles, err := client.Search(context.Background(), "Alan Turing")

	require.NoError(t, err)
	require.Equal(t, []string{"Alan Turing", "Turing Award"}, titles)
	require.Equal(t, "wikirefs-test", wiki.userAgent.Load())
}

func TestSearchEmpty(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t)

	titles, err := client.Search(context.Background(), "nothing matches")

	require.NoError(t, err)
	require.Empty(t, titles)
}

func TestSearchAPIError(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t)

	_, err := client.Search(context.Background(), "broken")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "maxlag", apiErr.Code)
}

func TestSearchHTTPError(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t)

	_, err := client.Search(context.Background(), "server-error")

	require.Error(t, err)
	require.Contains(t, err.Error(), "500")
}

func TestPageFollowsContinuation(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t)

	page, err := client.Page(context.Background(), "Alan Turing")

	require.NoError(t, err)
	require.Equal(t, "Alan Turing", page.Title)
	require.Equal(t, []string{"https://a.com", "http://b.org/path", "http://c.net"}, page.References)
}

func TestPageUsesResolvedTitle(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t)

	page, err := client.Page(context.Background(), "Turing")

	require.NoError(t, err)
	require.Equal(t, "Alan Turing", page.Title)
}

func TestPageMissing(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t)

	_, err := client.Page(context.Background(), "Turing Award")

	require.ErrorIs(t, err, harvest.ErrPageNotFound)
}

func TestPageInvalidTitle(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t)

	_, err := client.Page(context.Background(), "Bad|Title")

	require.Error(t, err)
	require.NotErrorIs(t, err, harvest.ErrPageNotFound)
	require.Contains(t, err.Error(), "illegal characters")
}

func TestPageDisambiguation(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t)

	_, err := client.Page(context.Background(), "Mercury")

	var dis *harvest.DisambiguationError
	require.ErrorAs(t, err, &dis)
	require.Equal(t, "Mercury", dis.Title)
	require.Equal(t, []string{"Mercury (planet)", "Mercury (element)"}, dis.Options)
}

func TestPageRepeatedLookupsHitTheAPI(t *testing.T) {
	t.Parallel()

	client, wiki := newTestClient(t)

	_, err := client.Page(context.Background(), "Turing Award")
	require.ErrorIs(t, err, harvest.ErrPageNotFound)
	_, err = client.Page(context.Background(), "Turing Award")
	require.ErrorIs(t, err, harvest.ErrPageNotFound)

	require.Equal(t, int32(2), wiki.requests.Load())
}

func TestPageCanceledContext(t *testing.T) {
	t.Parallel()

	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		<-block
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(block) })

	client, err := New(Config{APIURL: srv.URL, Timeout: 5 * time.Second}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = client.Page(ctx, "Anything")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewRejectsBadURL(t *testing.T) {
	t.Parallel()

	_, err := New(Config{APIURL: "::not a url"}, nil)
	require.Error(t, err)
}

func TestNewAppliesDefaults(t *testing.T) {
	t.Parallel()

	client, err := New(Config{}, nil)
	require.NoError(t, err)
	require.Equal(t, DefaultAPIURL, client.cfg.APIURL)
	require.Equal(t, DefaultUserAgent, client.cfg.UserAgent)
	require.Equal(t, DefaultTimeout, client.cfg.Timeout)
	require.Equal(t, DefaultSearchLimit, client.cfg.SearchLimit)
}

func TestAddProtocol(t *testing.T) {
	t.Parallel()

	require.Equal(t, "https://x", addProtocol("https://x"))
	require.Equal(t, "http://x", addProtocol("http://x"))
	require.Equal(t, "http://x/y", addProtocol("//x/y"))
}

func TestParseOptionsSkipsTOC(t *testing.T) {
	t.Parallel()

	options, err := parseOptions(disambiguationHTML)
	require.NoError(t, err)
	require.Equal(t, []string{"Mercury (planet)", "Mercury (element)"}, options)
}
