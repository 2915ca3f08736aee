package notionsync

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jomei/notionapi"
)

// NotionClient is the concrete implementation of NotionService using the Notion SDK.
type NotionClient struct {
	client *notionapi.Client
}

type clientConfig struct {
	relayBase string
	timeout   time.Duration
	transport http.RoundTripper
}

// Option configures a NotionClient.
type Option func(*clientConfig)

// WithRelay routes every request through the relay at base, e.g.
// "http://localhost:3001/notion". The SDK's own host and path are appended to it.
func WithRelay(base string) Option {
	return func(c *clientConfig) { c.relayBase = base }
}

// WithTimeout bounds each Notion call.
func WithTimeout(d time.Duration) Option {
	return func(c *clientConfig) { c.timeout = d }
}

// WithTransport sets the underlying round tripper.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *clientConfig) { c.transport = rt }
}

// NewNotionClient creates a new NotionClient with the provided API token.
func NewNotionClient(token string, opts ...Option) (*NotionClient, error) {
	cfg := clientConfig{
		timeout:   30 * time.Second,
		transport: http.DefaultTransport,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	rt := cfg.transport
	if cfg.relayBase != "" {
		base, err := url.Parse(cfg.relayBase)
		if err != nil || base.Scheme == "" || base.Host == "" {
			return nil, fmt.Errorf("NewNotionClient: invalid relay base %q", cfg.relayBase)
		}
		rt = &relayTransport{base: base, next: rt}
	}

	httpClient := &http.Client{Timeout: cfg.timeout, Transport: rt}

	return &NotionClient{
		client: notionapi.NewClient(notionapi.Token(token), notionapi.WithHTTPClient(httpClient)),
	}, nil
}

// CreatePage creates a new page in a Notion database with the given properties.
func (n *NotionClient) CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error) {
	req := &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(databaseID),
		},
		Properties: properties,
	}

	page, err := n.client.Page.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("CreatePage: %w", err)
	}

	return page, nil
}

// UpdatePage updates an existing Notion page with the given properties.
func (n *NotionClient) UpdatePage(ctx context.Context, pageID string, properties notionapi.Properties) (*notionapi.Page, error) {
	req := &notionapi.PageUpdateRequest{
		Properties: properties,
	}

	page, err := n.client.Page.Update(ctx, notionapi.PageID(pageID), req)
	if err != nil {
		return nil, fmt.Errorf("UpdatePage: %w", err)
	}

	return page, nil
}

// QueryDatabase queries a Notion database with the given filter.
func (n *NotionClient) QueryDatabase(ctx context.Context, databaseID string, filter *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	resp, err := n.client.Database.Query(ctx, notionapi.DatabaseID(databaseID), filter)
	if err != nil {
		return nil, fmt.Errorf("QueryDatabase: %w", err)
	}

	return resp, nil
}

// relayTransport rewrites api.notion.com requests onto the relay base URL,
// keeping the API path, so the SDK can be used behind the local proxy.
type relayTransport struct {
	base *url.URL
	next http.RoundTripper
}

func (t *relayTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())
	out.URL.Scheme = t.base.Scheme
	out.URL.Host = t.base.Host
	out.URL.Path = strings.TrimRight(t.base.Path, "/") + req.URL.Path
	out.URL.RawPath = ""
	out.Host = t.base.Host
	return t.next.RoundTrip(out)
}

var _ NotionService = (*NotionClient)(nil)
