// Package market downloads historical hourly reserve prices from an
// OAuth2-protected market data API and turns them into price tables.
package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/kilianp07/flexbid/core/logger"
)

// Point is the price of one delivery period.
type Point struct {
	Start time.Time
	End   time.Time
	Price float64
}

// Source fetches the prices delivered in [start, end).
type Source interface {
	Fetch(ctx context.Context, start, end time.Time) ([]Point, error)
}

// Response is the envelope shared by the market data resources: one or more
// named lists of series, each holding timestamped values.
type Response map[string][]Series

type Series struct {
	StartDate string  `json:"start_date"`
	EndDate   string  `json:"end_date"`
	Values    []Value `json:"values"`
}

type Value struct {
	StartDate string   `json:"start_date"`
	EndDate   string   `json:"end_date"`
	Price     *float64 `json:"price"`
}

// Points flattens every series with a price, sorted by start time.
func (r Response) Points() ([]Point, error) {
	var out []Point
	for _, list := range r {
		for _, s := range list {
			for _, v := range s.Values {
				if v.Price == nil {
					continue
				}
				start, err := time.Parse(time.RFC3339, v.StartDate)
				if err != nil {
					return nil, fmt.Errorf("failed to parse time: %w", err)
				}
				end, err := time.Parse(time.RFC3339, v.EndDate)
				if err != nil {
					return nil, fmt.Errorf("failed to parse time: %w", err)
				}
				out = append(out, Point{Start: start.UTC(), End: end.UTC(), Price: *v.Price})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

// Client queries one resource URL. The date range is sent as the start_date
// and end_date query parameters.
type Client struct {
	url  string
	auth *ClientCred
	http *http.Client
	log  logger.Logger
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }
func WithLogger(l logger.Logger) Option    { return func(c *Client) { c.log = l } }

func NewClient(resourceURL string, auth *ClientCred, opts ...Option) *Client {
	c := &Client{url: resourceURL, auth: auth, http: &http.Client{Timeout: 30 * time.Second}}
	for _, o := range opts {
		o(c)
	}
	c.log = logger.OrNop(c.log)
	return c
}

func (c *Client) Fetch(ctx context.Context, start, end time.Time) ([]Point, error) {
	u, err := url.Parse(c.url)
	if err != nil {
		return nil, fmt.Errorf("invalid resource url: %w", err)
	}
	q := u.Query()
	q.Set("start_date", start.Format(time.RFC3339))
	q.Set("end_date", end.Format(time.RFC3339))
	u.RawQuery = q.Encode()

	resp, err := c.do(ctx, u.String())
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		_ = resp.Body.Close()
		c.auth.Invalidate()
		if resp, err = c.do(ctx, u.String()); err != nil {
			return nil, err
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, body)
	}
	var r Response
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	pts, err := r.Points()
	if err != nil {
		return nil, err
	}
	c.log.Debugw("market prices fetched", map[string]any{"start": start, "end": end, "points": len(pts)})
	return pts, nil
}

func (c *Client) do(ctx context.Context, u string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if err := c.auth.SetAuthHeader(req); err != nil {
		return nil, fmt.Errorf("failed to set auth header: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	return resp, nil
}
