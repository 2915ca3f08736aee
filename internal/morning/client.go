package morning

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dvloznov/finance-docs/internal/domain"
	"github.com/dvloznov/finance-docs/internal/logger"
)

// DefaultBaseURL is the Green Invoice API root.
const DefaultBaseURL = "https://api.greeninvoice.co.il/api/v1"

// Email subjects sent with a distributed document.
const (
	invoiceEmailSubject = "היי, מצ״ב דרישת תשלום (:"
	receiptEmailSubject = "היי, מצ״ב קבלה (:"
)

// Document is a billing document created by the provider.
type Document struct {
	ID       string
	Type     int
	ClientID string
	Link     Link
}

// Client talks to the Green Invoice API, directly or through the relay.
type Client struct {
	baseURL     string
	viewBaseURL string
	remark      string
	httpClient  *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithViewBaseURL sets the viewer used for synthesized document links.
func WithViewBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.viewBaseURL = u
		}
	}
}

// WithInvoiceRemark overrides the remittance remark printed on invoices.
func WithInvoiceRemark(r string) Option {
	return func(c *Client) {
		if r != "" {
			c.remark = r
		}
	}
}

// NewClient creates a Client rooted at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		viewBaseURL: DefaultViewBaseURL,
		remark:      DefaultInvoiceRemark,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Authenticate exchanges the API key id and secret for a bearer token.
func (c *Client) Authenticate(ctx context.Context, id, secret string) (string, error) {
	log := logger.FromContext(ctx)
	log.Debug().Str("morning_id", id).Msg("Requesting Morning token")

	body := map[string]string{"id": id, "secret": secret}
	status, raw, err := c.do(ctx, http.MethodPost, "/account/token", "", body)
	if err != nil {
		return "", fmt.Errorf("Authenticate: %w", err)
	}
	if !ok(status) {
		log.Warn().Int("status", status).Str("body", raw).Msg("Morning token request rejected")
		return "", &APIError{Kind: ErrAuth, Status: status, Body: raw}
	}

	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return "", fmt.Errorf("Authenticate: decoding response: %w", err)
	}
	if resp.Token == "" {
		return "", &APIError{Kind: ErrAuth, Status: status, Body: "empty token in response"}
	}

	return resp.Token, nil
}

// CreateDocument issues an invoice or receipt for the transaction. A missing
// link is not an error: the returned Document then has Link.Kind == NoLink.
func (c *Client) CreateDocument(ctx context.Context, in domain.TransactionInput, token string) (*Document, error) {
	log := logger.FromContext(ctx)

	typeCode := TypeCode(in.DocumentType)
	payload := BuildDocumentPayload(in, typeCode, c.remark)

	status, raw, err := c.do(ctx, http.MethodPost, "/documents", token, payload)
	if err != nil {
		return nil, fmt.Errorf("CreateDocument: %w", err)
	}
	if !ok(status) {
		log.Warn().Int("status", status).Str("body", raw).Msg("Morning document creation rejected")
		return nil, &APIError{Kind: ErrDocumentCreation, Status: status, Body: raw}
	}

	var resp struct {
		ID     string `json:"id"`
		Client *struct {
			ID string `json:"id"`
		} `json:"client"`
		URL *URLBundle `json:"url"`
	}
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil, fmt.Errorf("CreateDocument: decoding response: %w", err)
	}

	doc := &Document{
		ID:   resp.ID,
		Type: typeCode,
		Link: ExtractLink(resp.URL, resp.ID, c.viewBaseURL),
	}
	if resp.Client != nil {
		doc.ClientID = resp.Client.ID
	}

	log.Info().
		Str("document_id", doc.ID).
		Int("document_type", doc.Type).
		Str("client_id", doc.ClientID).
		Str("link_kind", doc.Link.Kind.String()).
		Msg("Morning document created")

	return doc, nil
}

// DistributeByEmail sends the document to the first email address stored on
// the client.
func (c *Client) DistributeByEmail(ctx context.Context, documentID, clientID string, kind domain.DocumentType, token string) error {
	log := logger.FromContext(ctx)

	status, raw, err := c.do(ctx, http.MethodGet, "/clients/"+clientID, token, nil)
	if err != nil {
		return fmt.Errorf("DistributeByEmail: fetching client: %w", err)
	}
	if !ok(status) {
		return &APIError{Kind: ErrDistribution, Status: status, Body: raw}
	}

	var client struct {
		Emails []string `json:"emails"`
	}
	if err := json.Unmarshal([]byte(raw), &client); err != nil {
		return fmt.Errorf("DistributeByEmail: decoding client: %w", err)
	}
	if len(client.Emails) == 0 || client.Emails[0] == "" {
		return fmt.Errorf("DistributeByEmail: client %s: %w", clientID, ErrNoRecipient)
	}
	recipient := client.Emails[0]

	subject := receiptEmailSubject
	if kind == domain.DocumentTypeInvoice {
		subject = invoiceEmailSubject
	}

	body := map[string]any{
		"remarks":    subject,
		"recipients": []string{recipient},
	}
	status, raw, err = c.do(ctx, http.MethodPost, "/documents/"+documentID+"/distribute", token, body)
	if err != nil {
		return fmt.Errorf("DistributeByEmail: %w", err)
	}
	if !ok(status) {
		return &APIError{Kind: ErrDistribution, Status: status, Body: raw}
	}

	log.Info().
		Str("document_id", documentID).
		Str("recipient", recipient).
		Msg("Morning document distributed")

	return nil
}

// do sends a JSON request and returns the status and raw response body.
func (c *Client) do(ctx context.Context, method, path, token string, body any) (int, string, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return 0, "", fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, "", fmt.Errorf("building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, "", fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, "", fmt.Errorf("reading response: %w", err)
	}

	return resp.StatusCode, string(raw), nil
}

func ok(status int) bool {
	return status >= 200 && status < 300
}
