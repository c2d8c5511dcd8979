package crawler

import (
	"context"

	replayr "github.com/HRemonen/Replayr"
	"github.com/HRemonen/Replayr/internal/parser"
	"github.com/sirupsen/logrus"
)

// Crawler discovers Requests by following links from a start page and stores
// one Request per distinct link or form it finds.
type Crawler struct {
	Fetcher *replayr.Fetcher
	Store   replayr.Storer
	Logger  logrus.FieldLogger

	visited map[string]bool
	// stored holds the Requests added so far with id 0, keyed by String.
	stored  map[string][]replayr.Request
	added   []replayr.Request
}

// NewCrawler creates a new Crawler sending with f and storing into store.
func NewCrawler(f *replayr.Fetcher, store replayr.Storer) *Crawler {
	return &Crawler{
		Fetcher: f,
		Store:   store,
		Logger:  logrus.StandardLogger(),
	}
}

// Crawl fetches the page at u and recursively the pages linked from it, down
// to depth levels. A depth of 1 fetches only u. It returns the Requests added
// to the store. Pages below the start page that fail to load are logged and
// skipped.
func (c *Crawler) Crawl(ctx context.Context, u string, depth int) ([]replayr.Request, error) {
	c.visited = make(map[string]bool)
	c.stored = make(map[string][]replayr.Request)
	c.added = nil

	start, err := replayr.NewRequest(0, replayr.MethodGet, u, nil, "")
	if err != nil {
		return nil, err
	}

	if err := c.store(ctx, start); err != nil {
		return c.added, err
	}

	err = c.crawl(ctx, u, depth)

	return c.added, err
}

func (c *Crawler) crawl(ctx context.Context, u string, depth int) error {
	if depth <= 0 || c.visited[u] {
		return nil
	}

	c.visited[u] = true

	page, err := replayr.NewRequest(0, replayr.MethodGet, u, nil, "")
	if err != nil {
		return err
	}

	res, err := c.Fetcher.Send(ctx, page)
	if err != nil {
		return err
	}

	links, err := parser.ExtractLinks(res.Reader(), res.URL)
	if err != nil {
		return err
	}

	forms, err := parser.ExtractForms(res.Reader(), res.URL)
	if err != nil {
		c.Logger.WithError(err).WithField("url", u).Warn("skipped forms")
	}

	c.Logger.WithFields(logrus.Fields{
		"url":   u,
		"depth": depth,
		"links": len(links),
		"forms": len(forms),
	}).Info("crawled page")

	for _, form := range forms {
		if err := c.store(ctx, form); err != nil {
			return err
		}
	}

	for _, link := range links {
		req, err := replayr.NewRequest(0, replayr.MethodGet, link, nil, "")
		if err != nil {
			return err
		}

		if err := c.store(ctx, req); err != nil {
			return err
		}
	}

	for _, link := range links {
		if err := c.crawl(ctx, link, depth-1); err != nil {
			c.Logger.WithError(err).WithField("url", link).Warn("error crawling page")
		}
	}

	return nil
}

// store puts req into the store with the next free id, unless an identical
// Request was already stored during this crawl.
func (c *Crawler) store(ctx context.Context, req replayr.Request) error {
	unassigned := req.WithID(0)
	for _, prev := range c.stored[unassigned.String()] {
		if prev.Equal(unassigned) {
			return nil
		}
	}

	id, err := c.Store.NextID(ctx)
	if err != nil {
		return err
	}

	req = req.WithID(id)
	if err := c.Store.Put(ctx, req); err != nil {
		return err
	}

	c.stored[unassigned.String()] = append(c.stored[unassigned.String()], unassigned)
	c.added = append(c.added, req)

	return nil
}
