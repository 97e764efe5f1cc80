// Package realdata fetches published facts about schools. Every fetch is
// best effort: callers treat any error as "not available" and fall back to
// synthetic values.
package realdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/stwalsh4118/schoolter/internal/metrics"
	"github.com/stwalsh4118/schoolter/internal/models"
)

// ErrNotAvailable means the source has nothing usable for the request.
var ErrNotAvailable = errors.New("real data not available")

const (
	kindOfsted      = "ofsted"
	kindPerformance = "performance"
	kindContact     = "contact"

	maxBodyBytes = 2 << 20
	userAgent    = "schoolter-enrich/1.0"
)

// Client talks to a facts service that serves JSON at
// {base}/ofsted/{urn} and {base}/performance/{urn}, and scrapes school
// websites for contact details.
type Client struct {
	baseURL string
	http    *http.Client
	metrics *metrics.Metrics
}

// NewClient creates a client whose requests time out after timeout. A nil
// m disables latency reporting.
func NewClient(baseURL string, timeout time.Duration, m *metrics.Metrics) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		metrics: m,
	}
}

// FetchOfsted returns the latest inspection facts for urn.
func (c *Client) FetchOfsted(ctx context.Context, urn string) (*models.OfstedFacts, error) {
	var facts models.OfstedFacts
	err := c.observe(kindOfsted, func() error {
		return c.getJSON(ctx, c.factsURL(kindOfsted, urn), &facts)
	})
	if err != nil {
		return nil, err
	}
	if facts.Rating == "" {
		return nil, fmt.Errorf("%w: ofsted facts for %s carry no rating", ErrNotAvailable, urn)
	}
	return &facts, nil
}

// FetchPerformance returns published attainment for urn.
func (c *Client) FetchPerformance(ctx context.Context, urn string) (*models.Performance, error) {
	var perf models.Performance
	err := c.observe(kindPerformance, func() error {
		return c.getJSON(ctx, c.factsURL(kindPerformance, urn), &perf)
	})
	if err != nil {
		return nil, err
	}
	if perf.KS2 == nil && perf.KS4 == nil && perf.KS5 == nil {
		return nil, fmt.Errorf("%w: no performance blocks for %s", ErrNotAvailable, urn)
	}
	return &perf, nil
}

// FetchContact scrapes the school's own website.
func (c *Client) FetchContact(ctx context.Context, s *models.School) (*models.ContactFacts, error) {
	if s.Website == "" {
		return nil, fmt.Errorf("%w: %s has no website", ErrNotAvailable, s.URN)
	}

	var facts *models.ContactFacts
	err := c.observe(kindContact, func() error {
		body, err := c.get(ctx, s.Website, "text/html")
		if err != nil {
			return err
		}
		defer body.Close()

		facts, err = ParseContact(body)
		return err
	})
	if err != nil {
		return nil, err
	}
	if *facts == (models.ContactFacts{}) {
		return nil, fmt.Errorf("%w: no contact details on %s", ErrNotAvailable, s.Website)
	}
	return facts, nil
}

func (c *Client) factsURL(kind, urn string) string {
	return c.baseURL + "/" + kind + "/" + url.PathEscape(urn)
}

func (c *Client) observe(kind string, fetch func() error) error {
	start := time.Now()
	err := fetch()
	if c.metrics != nil {
		c.metrics.ObserveFetch(kind, err == nil, time.Since(start))
	}
	return err
}

func (c *Client) getJSON(ctx context.Context, rawURL string, dst interface{}) error {
	body, err := c.get(ctx, rawURL, "application/json")
	if err != nil {
		return err
	}
	defer body.Close()

	if err := json.NewDecoder(body).Decode(dst); err != nil {
		return fmt.Errorf("%w: failed to decode %s: %v", ErrNotAvailable, rawURL, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, rawURL, accept string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotAvailable, err)
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotAvailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %s returned %d", ErrNotAvailable, rawURL, resp.StatusCode)
	}
	return limitedBody{Reader: io.LimitReader(resp.Body, maxBodyBytes), Closer: resp.Body}, nil
}

type limitedBody struct {
	io.Reader
	io.Closer
}
