// Package mediawiki implements the harvest collaborator against the MediaWiki
// action API using gocolly.
package mediawiki

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/JakeFAU/wikirefs/internal/harvest"
)

// Defaults used when Config leaves a field empty.
const (
	DefaultAPIURL      = "https://en.wikipedia.org/w/api.php"
	DefaultUserAgent   = "wikirefs/1.0 (+https://github.com/JakeFAU/wikirefs)"
	DefaultTimeout     = 15 * time.Second
	DefaultSearchLimit = 10
)

// Config controls the API client.
type Config struct {
	APIURL      string
	UserAgent   string
	Timeout     time.Duration
	SearchLimit int
}

// Client talks to a MediaWiki action API endpoint.
type Client struct {
	cfg           Config
	baseCollector *colly.Collector
	logger        *zap.Logger
}

var _ harvest.Client = (*Client)(nil)

// APIError is an error object returned by the API itself.
type APIError struct {
	Code string `json:"code"`
	Info string `json:"info"`
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return e.Info
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Info)
}

// New builds a Client.
func New(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	if _, err := url.ParseRequestURI(cfg.APIURL); err != nil {
		return nil, fmt.Errorf("parse api url %q: %w", cfg.APIURL, err)
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.SearchLimit <= 0 {
		cfg.SearchLimit = DefaultSearchLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	// Clones share the base collector's HTTP backend, so transport and timeout
	// are configured once here.
	c := colly.NewCollector(colly.Async(false), colly.AllowURLRevisit(), colly.UserAgent(cfg.UserAgent))
	transport := newHTTPTransport()
	c.WithTransport(transport)
	c.SetRequestTimeout(cfg.Timeout)

	return &Client{
		cfg:           cfg,
		baseCollector: c,
		logger:        logger,
	}, nil
}

// Search returns the titles matching query in ranking order.
func (c *Client) Search(ctx context.Context, query string) ([]string, error) {
	params := url.Values{
		"action":   {"query"},
		"list":     {"search"},
		"srsearch": {query},
		"srlimit":  {strconv.Itoa(c.cfg.SearchLimit)},
		"srprop":   {""},
	}
	var resp struct {
		Query struct {
			Search []struct {
				Title string `json:"title"`
			} `json:"search"`
		} `json:"query"`
	}
	if err := c.call(ctx, params, &resp); err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	titles := make([]string, 0, len(resp.Query.Search))
	for _, hit := range resp.Query.Search {
		titles = append(titles, hit.Title)
	}
	return titles, nil
}

// Page resolves title exactly (redirects are followed, no suggestions) and
// loads its external links.
func (c *Client) Page(ctx context.Context, title string) (harvest.Page, error) {
	info, err := c.pageInfo(ctx, title)
	if err != nil {
		return harvest.Page{}, err
	}
	if _, ok := info.PageProps["disambiguation"]; ok {
		options, err := c.disambiguationOptions(ctx, info.Title)
		if err != nil {
			return harvest.Page{}, err
		}
		return harvest.Page{}, &harvest.DisambiguationError{Title: info.Title, Options: options}
	}
	refs, err := c.externalLinks(ctx, info.Title)
	if err != nil {
		return harvest.Page{}, err
	}
	return harvest.Page{Title: info.Title, References: refs}, nil
}

type pageInfo struct {
	Title         string            `json:"title"`
	Missing       bool              `json:"missing"`
	Invalid       bool              `json:"invalid"`
	InvalidReason string            `json:"invalidreason"`
	PageProps     map[string]string `json:"pageprops"`
}

func (c *Client) pageInfo(ctx context.Context, title string) (pageInfo, error) {
	params := url.Values{
		"action":    {"query"},
		"prop":      {"info|pageprops"},
		"inprop":    {"url"},
		"ppprop":    {"disambiguation"},
		"redirects": {""},
		"titles":    {title},
	}
	var resp struct {
		Query struct {
			Pages []pageInfo `json:"pages"`
		} `json:"query"`
	}
	if err := c.call(ctx, params, &resp); err != nil {
		return pageInfo{}, fmt.Errorf("page info %q: %w", title, err)
	}
	if len(resp.Query.Pages) == 0 {
		return pageInfo{}, fmt.Errorf("page info %q: %w", title, harvest.ErrPageNotFound)
	}
	page := resp.Query.Pages[0]
	switch {
	case page.Missing:
		return pageInfo{}, fmt.Errorf("page info %q: %w", title, harvest.ErrPageNotFound)
	case page.Invalid:
		return pageInfo{}, fmt.Errorf("page info %q: invalid title: %s", title, page.InvalidReason)
	}
	return page, nil
}

func (c *Client) externalLinks(ctx context.Context, title string) ([]string, error) {
	params := url.Values{
		"action":  {"query"},
		"prop":    {"extlinks"},
		"ellimit": {"max"},
		"titles":  {title},
	}
	refs := []string{}
	for {
		var resp struct {
			Continue map[string]string `json:"continue"`
			Query    struct {
				Pages []struct {
					ExtLinks []struct {
						URL string `json:"url"`
					} `json:"extlinks"`
				} `json:"pages"`
			} `json:"query"`
		}
		if err := c.call(ctx, params, &resp); err != nil {
			return nil, fmt.Errorf("external links %q: %w", title, err)
		}
		for _, page := range resp.Query.Pages {
			for _, link := range page.ExtLinks {
				refs = append(refs, addProtocol(link.URL))
			}
		}
		if len(resp.Continue) == 0 {
			return refs, nil
		}
		for k, v := range resp.Continue {
			params.Set(k, v)
		}
	}
}

// addProtocol prefixes protocol-relative links with http:.
func addProtocol(link string) string {
	if strings.HasPrefix(link, "http") {
		return link
	}
	return "http:" + link
}

func (c *Client) call(ctx context.Context, params url.Values, out any) error {
	params.Set("format", "json")
	params.Set("formatversion", "2")
	target := c.cfg.APIURL + "?" + params.Encode()

	body, err := c.get(ctx, target)
	if err != nil {
		return err
	}
	var envelope struct {
		Error *APIError `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("decode api response: %w", err)
	}
	if envelope.Error != nil {
		return envelope.Error
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode api response: %w", err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, target string) ([]byte, error) {
	var (
		body     []byte
		fetchErr error
	)
	collector := c.baseCollector.Clone()

	collector.OnResponse(func(r *colly.Response) {
		body = append([]byte(nil), r.Body...)
	})
	collector.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode != 0 {
			fetchErr = fmt.Errorf("status %d: %w", r.StatusCode, err)
			return
		}
		fetchErr = err
	})

	start := time.Now()
	if err := runCollector(ctx, collector, target, &fetchErr); err != nil {
		return nil, err
	}
	c.logger.Debug("api call complete",
		zap.String("url", target),
		zap.Duration("duration", time.Since(start)),
		zap.Int("bytes", len(body)),
	)
	if body == nil {
		return nil, errors.New("empty api response")
	}
	return body, nil
}

func runCollector(ctx context.Context, collector *colly.Collector, target string, fetchErr *error) error {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(target)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("api call canceled: %w", ctx.Err())
	case err := <-done:
		if *fetchErr != nil {
			return fmt.Errorf("api response failed: %w", *fetchErr)
		}
		if err != nil {
			return fmt.Errorf("api visit failed: %w", err)
		}
		return nil
	}
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   16,
		IdleConnTimeout:       90 * time.Second,
	}
}
