// Package setlist ingests the tour document the pipeline reconciles.
// It fetches from an HTTP endpoint when one is configured and falls back to
// a local JSON fixture when the endpoint is unreachable, validating the
// document structure either way.
package setlist

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"golang.org/x/oauth2/clientcredentials"

	"github.com/ewilliams-labs/reprise/internal/core/domain"
	"github.com/ewilliams-labs/reprise/internal/core/ports"
)

const defaultTimeout = 10 * time.Second

type Client struct {
	apiURL       string
	fallbackPath string
	httpClient   *http.Client
	log          *slog.Logger
}

var _ ports.SetlistSource = (*Client)(nil)

// Option adjusts optional client settings.
type Option func(*Client)

// WithHTTPClient substitutes the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithClientCredentials authenticates tour fetches with an OAuth2
// client-credentials grant against the given token endpoint.
func WithClientCredentials(tokenURL string, clientID string, clientSecret string) Option {
	return func(c *Client) {
		cfg := clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     tokenURL,
		}
		c.httpClient = cfg.Client(context.Background())
	}
}

// NewClient builds a tour source. Either apiURL or fallbackPath may be
// empty, but not both; FetchTour reports the gap when neither is usable.
func NewClient(apiURL string, fallbackPath string, log *slog.Logger, opts ...Option) *Client {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	c := &Client{
		apiURL:       apiURL,
		fallbackPath: fallbackPath,
		httpClient:   &http.Client{Timeout: defaultTimeout},
		log:          log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type tourDocument struct {
	Status string   `json:"status"`
	Data   tourData `json:"data"`
}

type tourData struct {
	Artist string    `json:"artist"`
	Tour   string    `json:"tour"`
	Shows  []showDoc `json:"shows"`
}

type showDoc struct {
	Date    string   `json:"date"`
	Venue   string   `json:"venue"`
	City    string   `json:"city"`
	Setlist []string `json:"setlist"`
}

// FetchTour retrieves and validates the tour document. A remote failure
// falls back to the local fixture when one is configured; a document that
// fails validation is rejected regardless of where it came from.
func (c *Client) FetchTour(ctx context.Context) (domain.Tour, error) {
	var doc *tourDocument

	if c.apiURL != "" {
		fetched, err := c.fetchRemote(ctx)
		switch {
		case err == nil:
			c.log.Info("fetched tour data", "url", c.apiURL, "status", fetched.Status)
			doc = fetched
		case c.fallbackPath == "":
			return domain.Tour{}, fmt.Errorf("setlist: fetch tour: %w", err)
		default:
			c.log.Warn("tour fetch failed, falling back to local file", "url", c.apiURL, "error", err)
		}
	}

	if doc == nil {
		if c.fallbackPath == "" {
			return domain.Tour{}, fmt.Errorf("setlist: no tour source configured")
		}
		loaded, err := c.loadLocal()
		if err != nil {
			return domain.Tour{}, fmt.Errorf("setlist: load local tour data: %w", err)
		}
		c.log.Info("loaded tour data from local file", "path", c.fallbackPath)
		doc = loaded
	}

	if err := validateDocument(doc); err != nil {
		return domain.Tour{}, fmt.Errorf("setlist: invalid tour document: %w", err)
	}
	return mapToDomain(doc), nil
}

func (c *Client) fetchRemote(ctx context.Context) (*tourDocument, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var doc tourDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &doc, nil
}

func (c *Client) loadLocal() (*tourDocument, error) {
	data, err := os.ReadFile(c.fallbackPath)
	if err != nil {
		return nil, err
	}
	var doc tourDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", c.fallbackPath, err)
	}
	return &doc, nil
}

func validateDocument(doc *tourDocument) error {
	if len(doc.Data.Shows) == 0 {
		return fmt.Errorf("no shows in document")
	}
	for i, show := range doc.Data.Shows {
		if show.Date == "" {
			return fmt.Errorf("show %d missing date", i)
		}
		if show.Venue == "" {
			return fmt.Errorf("show %d missing venue", i)
		}
		if show.Setlist == nil {
			return fmt.Errorf("show %d missing setlist", i)
		}
	}
	return nil
}

func mapToDomain(doc *tourDocument) domain.Tour {
	tour := domain.Tour{
		Artist: doc.Data.Artist,
		Name:   doc.Data.Tour,
		Shows:  make([]domain.Show, 0, len(doc.Data.Shows)),
	}
	for _, show := range doc.Data.Shows {
		tour.Shows = append(tour.Shows, domain.Show{
			Date:    show.Date,
			Venue:   show.Venue,
			City:    show.City,
			Setlist: show.Setlist,
		})
	}
	return tour
}
