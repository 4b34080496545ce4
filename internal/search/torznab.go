package search

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"fetcharr/internal/release"
)

const defaultHTTPTimeout = 30 * time.Second

// Gateway returns raw candidate releases for a free-text search term.
type Gateway interface {
	Search(ctx context.Context, term string) ([]release.RawRelease, error)
}

// TorznabClient queries a Torznab endpoint such as Prowlarr's aggregate
// API.
type TorznabClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

var _ Gateway = (*TorznabClient)(nil)

// Option customizes the client.
type Option func(*TorznabClient)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *TorznabClient) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout overrides the default request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *TorznabClient) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// NewTorznab creates a Torznab gateway client.
func NewTorznab(baseURL, apiKey string, opts ...Option) (*TorznabClient, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("torznab base url required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("parse torznab base url: %w", err)
	}
	client := &TorznabClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     strings.TrimSpace(apiKey),
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

type torznabFeed struct {
	Channel struct {
		Items []torznabItem `xml:"item"`
	} `xml:"channel"`
}

type torznabItem struct {
	Title   string `xml:"title"`
	Link    string `xml:"link"`
	Size    int64  `xml:"size"`
	Seeders int    `xml:"seeders"`
	Indexer struct {
		ID   string `xml:"id,attr"`
		Name string `xml:",chardata"`
	} `xml:"prowlarrindexer"`
	Attrs []torznabAttr `xml:"attr"`
}

type torznabAttr struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

// Search issues one Torznab query and converts the feed into raw
// releases. Quality and source labels are inferred from each title.
func (c *TorznabClient) Search(ctx context.Context, term string) ([]release.RawRelease, error) {
	endpoint, err := url.Parse(c.baseURL + "/api")
	if err != nil {
		return nil, fmt.Errorf("build torznab url: %w", err)
	}
	values := url.Values{}
	values.Set("t", "search")
	values.Set("q", term)
	if c.apiKey != "" {
		values.Set("apikey", c.apiKey)
	}
	endpoint.RawQuery = values.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build torznab request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("torznab request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("torznab request: status %d", resp.StatusCode)
	}

	var feed torznabFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("decode torznab feed: %w", err)
	}

	out := make([]release.RawRelease, 0, len(feed.Channel.Items))
	for _, item := range feed.Channel.Items {
		out = append(out, itemToRelease(item))
	}
	return out, nil
}

// itemToRelease maps one feed item to the engine's release model. Unknown
// feed fields are dropped here; missing numerics stay zero.
func itemToRelease(item torznabItem) release.RawRelease {
	quality, source := release.Infer(item.Title)
	r := release.RawRelease{
		Title:       item.Title,
		SizeBytes:   item.Size,
		Seeders:     item.Seeders,
		Quality:     quality,
		Source:      source,
		IndexerID:   item.Indexer.ID,
		IndexerName: strings.TrimSpace(item.Indexer.Name),
		DownloadURL: item.Link,
		InfoHash:    infoHashFromLink(item.Link),
	}
	for _, attr := range item.Attrs {
		switch attr.Name {
		case "seeders":
			if r.Seeders == 0 {
				if n, err := strconv.Atoi(attr.Value); err == nil {
					r.Seeders = n
				}
			}
		case "size":
			if r.SizeBytes == 0 {
				if n, err := strconv.ParseInt(attr.Value, 10, 64); err == nil {
					r.SizeBytes = n
				}
			}
		case "infohash":
			if r.InfoHash == "" {
				r.InfoHash = strings.ToLower(attr.Value)
			}
		case "magneturl":
			if r.DownloadURL == "" {
				r.DownloadURL = attr.Value
			}
		}
	}
	return r
}

// infoHashFromLink extracts the btih hash from a magnet link, or returns
// empty for plain URLs.
func infoHashFromLink(link string) string {
	lowered := strings.ToLower(link)
	if !strings.HasPrefix(lowered, "magnet:") {
		return ""
	}
	i := strings.Index(lowered, "btih:")
	if i < 0 || len(lowered) < i+45 {
		return ""
	}
	return lowered[i+5 : i+45]
}
