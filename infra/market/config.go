package market

import (
	"fmt"
	"net/url"
	"time"
)

// Sides of the reserve market a price table belongs to.
const (
	SideUp   = "up"
	SideDown = "down"
)

// Config locates the market data API.
type Config struct {
	Auth Credentials `json:"auth"`
	// UpURL and DownURL are the resources serving the Up and Down reserve prices.
	UpURL   string `json:"up_url"`
	DownURL string `json:"down_url"`
	// ChunkDays bounds the range of one request; zero means seven days.
	ChunkDays int `json:"chunk_days"`
}

// Enabled reports whether a token endpoint is configured.
func (c Config) Enabled() bool { return c.Auth.TokenURL != "" }

func (c Config) Validate() error {
	if !c.Enabled() {
		return nil
	}
	if c.Auth.ClientID == "" || c.Auth.ClientSecret == "" {
		return fmt.Errorf("client_id and client_secret are required")
	}
	for name, u := range map[string]string{"token_url": c.Auth.TokenURL, "up_url": c.UpURL, "down_url": c.DownURL} {
		if u == "" {
			continue
		}
		if _, err := url.ParseRequestURI(u); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}
	if c.ChunkDays < 0 {
		return fmt.Errorf("chunk_days must be non-negative")
	}
	return nil
}

// Chunk returns the request range as a duration.
func (c Config) Chunk() time.Duration {
	if c.ChunkDays == 0 {
		return DefaultChunk
	}
	return time.Duration(c.ChunkDays) * 24 * time.Hour
}

// NewSource returns the client of the given side.
func NewSource(c Config, side string, opts ...Option) (Source, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("market api is not configured")
	}
	var u string
	switch side {
	case SideUp:
		u = c.UpURL
	case SideDown:
		u = c.DownURL
	default:
		return nil, fmt.Errorf("unknown market side: %s", side)
	}
	if u == "" {
		return nil, fmt.Errorf("no url configured for the %s market", side)
	}
	return NewClient(u, NewClientCred(c.Auth), opts...), nil
}
