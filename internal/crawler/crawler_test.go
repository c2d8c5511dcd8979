package crawler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	replayr "github.com/HRemonen/Replayr"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer() *httptest.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}

		fmt.Fprint(w, `<html><body>
			<a href="/a">A</a>
			<a href="/b">B</a>
			<a href="/a#again">A again</a>
			<form method="post" action="/login"><input name="user" value="bob"></form>
		</body></html>`)
	})

	mux.HandleFunc("/a", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<a href="/">home</a><a href="/deep">deep</a>`)
	})

	mux.HandleFunc("/b", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<form action="/search"><input name="q" value=""></form>`)
	})

	mux.HandleFunc("/deep", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<a href="/deeper">deeper</a>`)
	})

	return httptest.NewServer(mux)
}

func newTestCrawler(store replayr.Storer) *Crawler {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	f := replayr.NewFetcher(replayr.WithIgnoreRobots(true), replayr.WithLogger(logger))

	c := NewCrawler(f, store)
	c.Logger = logger

	return c
}

func urls(reqs []replayr.Request) []string {
	out := make([]string, 0, len(reqs))
	for _, req := range reqs {
		out = append(out, req.Method().String()+" "+req.URL())
	}

	return out
}

func TestCrawl_DepthOne(t *testing.T) {
	server := newTestServer()
	defer server.Close()

	store := replayr.NewInMemoryStore()

	added, err := newTestCrawler(store).Crawl(context.Background(), server.URL+"/", 1)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"GET " + server.URL + "/",
		"POST " + server.URL + "/login",
		"GET " + server.URL + "/a",
		"GET " + server.URL + "/b",
	}, urls(added))

	for i, req := range added {
		assert.Equal(t, int64(i+1), req.ID())
	}

	stored, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, stored, len(added))

	login := stored[1]
	assert.Equal(t, "user=bob", login.Body())
	assert.Equal(t, []string{"application/x-www-form-urlencoded"}, replayr.Values(login.Headers(), "Content-Type"))
}

func TestCrawl_DepthTwo(t *testing.T) {
	server := newTestServer()
	defer server.Close()

	store := replayr.NewInMemoryStore()

	added, err := newTestCrawler(store).Crawl(context.Background(), server.URL+"/", 2)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"GET " + server.URL + "/",
		"POST " + server.URL + "/login",
		"GET " + server.URL + "/a",
		"GET " + server.URL + "/b",
		"GET " + server.URL + "/deep",
		"GET " + server.URL + "/search?q=",
	}, urls(added))
}

func TestCrawl_KeepsExistingRecords(t *testing.T) {
	server := newTestServer()
	defer server.Close()

	ctx := context.Background()
	store := replayr.NewInMemoryStore()

	existing, err := replayr.NewRequest(1, replayr.MethodDelete, "/items/1", nil, "")
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, existing))

	added, err := newTestCrawler(store).Crawl(ctx, server.URL+"/", 1)
	require.NoError(t, err)
	require.NotEmpty(t, added)
	assert.Equal(t, int64(2), added[0].ID())

	got, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.True(t, existing.Equal(got))
}

func TestCrawl_StartPageError(t *testing.T) {
	server := newTestServer()
	server.Close()

	store := replayr.NewInMemoryStore()

	added, err := newTestCrawler(store).Crawl(context.Background(), server.URL+"/", 1)
	assert.Error(t, err)
	assert.Len(t, added, 1, "the start URL is stored before it is fetched")
}

func TestCrawl_Canceled(t *testing.T) {
	server := newTestServer()
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestCrawler(replayr.NewInMemoryStore()).Crawl(ctx, server.URL+"/", 2)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCrawler_StoreComparesHeaders(t *testing.T) {
	ctx := context.Background()
	store := replayr.NewInMemoryStore()

	c := newTestCrawler(store)
	c.stored = make(map[string][]replayr.Request)

	plain, err := replayr.NewRequest(0, replayr.MethodPost, "http://example.com/login", nil, "user=bob")
	require.NoError(t, err)
	typed := plain.AddHeader("Content-Type", "application/x-www-form-urlencoded")

	require.NoError(t, c.store(ctx, plain))
	require.NoError(t, c.store(ctx, typed))
	require.NoError(t, c.store(ctx, typed.WithID(9)))

	require.Len(t, c.added, 2)
	assert.Empty(t, c.added[0].Headers())
	assert.Equal(t, typed.Headers(), c.added[1].Headers())
}
