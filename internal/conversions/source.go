// Package conversions pulls affiliate conversions from network APIs and
// records them idempotently.
package conversions

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Supported networks.
const (
	NetworkImpact       = "impact"
	NetworkPartnerstack = "partnerstack"
)

// Conversion is one commissionable event reported by a network.
type Conversion struct {
	ID          string    `json:"id"`
	ProgramID   string    `json:"programId"`
	Revenue     float64   `json:"revenue"`
	Commission  float64   `json:"commission"`
	ConvertedAt time.Time `json:"convertedAt"`
}

// Page is one batch of a network feed. An empty NextCursor ends the feed.
type Page struct {
	Conversions []Conversion `json:"conversions"`
	NextCursor  string       `json:"nextCursor"`
}

// Source yields a network's conversions page by page.
type Source interface {
	Network() string
	Fetch(ctx context.Context, cursor string) (Page, error)
}

// HTTPSource reads a bearer-authenticated JSON feed.
type HTTPSource struct {
	network    string
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewHTTPSource constructs a feed client for network.
func NewHTTPSource(network, baseURL, apiKey string) *HTTPSource {
	return &HTTPSource{
		network: network,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Network implements Source.
func (s *HTTPSource) Network() string { return s.network }

// Configured reports whether an API key is set.
func (s *HTTPSource) Configured() bool { return s.apiKey != "" }

// Fetch implements Source.
func (s *HTTPSource) Fetch(ctx context.Context, cursor string) (Page, error) {
	endpoint := s.baseURL + "/conversions"
	if cursor != "" {
		endpoint += "?cursor=" + url.QueryEscape(cursor)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Page{}, err
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return Page{}, fmt.Errorf("conversions: %s feed: %w", s.network, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return Page{}, fmt.Errorf("conversions: %s feed returned status %d", s.network, resp.StatusCode)
	}
	var page Page
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return Page{}, fmt.Errorf("conversions: %s feed decode: %w", s.network, err)
	}
	return page, nil
}
