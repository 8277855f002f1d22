package zoho

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

	"golang.org/x/oauth2"

	"github.com/sngm3741/survey-forwarder/internal/survey/application"
	"github.com/sngm3741/survey-forwarder/internal/survey/domain"
)

const (
	// TokenType is the Authorization scheme the sheet API expects.
	TokenType = "Zoho-oauthtoken"
	// MethodRecordsAdd is the sheet API method appending rows to a worksheet.
	MethodRecordsAdd = "worksheet.records.add"

	maxResponseBody = 1 << 20
)

// Doer sends HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config configures a Client. Empty base URLs are derived from the
// credentials' data center.
type Config struct {
	HTTPClient      Doer
	AccountsBaseURL string
	SheetBaseURL    string
}

// Client talks to Zoho Accounts and Zoho Sheet.
type Client struct {
	doer        Doer
	accountsURL string
	sheetURL    string
}

var _ application.SheetGateway = (*Client)(nil)

// NewClient builds a Client. A nil HTTPClient falls back to http.DefaultClient.
func NewClient(cfg Config) *Client {
	doer := cfg.HTTPClient
	if doer == nil {
		doer = http.DefaultClient
	}
	return &Client{
		doer:        doer,
		accountsURL: normaliseBaseURL(cfg.AccountsBaseURL),
		sheetURL:    normaliseBaseURL(cfg.SheetBaseURL),
	}
}

// AccountsURL returns the identity provider base for the credentials.
func (c *Client) AccountsURL(creds domain.ProviderCredentials) string {
	if c.accountsURL != "" {
		return c.accountsURL
	}
	return "https://accounts.zoho." + creds.DC()
}

// SheetURL returns the sheet API base for the credentials.
func (c *Client) SheetURL(creds domain.ProviderCredentials) string {
	if c.sheetURL != "" {
		return c.sheetURL
	}
	return "https://sheet.zoho." + creds.DC()
}

// RefreshAccessToken exchanges the long-lived refresh token for an access token.
// A response without access_token is not an error here; the grant simply has
// no Token and the raw body is kept for the caller to report.
func (c *Client) RefreshAccessToken(ctx context.Context, creds domain.ProviderCredentials) (application.TokenGrant, error) {
	query := encodeForm([]formField{
		{Name: "refresh_token", Value: creds.RefreshToken},
		{Name: "client_id", Value: creds.ClientID},
		{Name: "client_secret", Value: creds.ClientSecret},
		{Name: "grant_type", Value: "refresh_token"},
	})
	endpoint := c.AccountsURL(creds) + "/oauth/v2/token"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+"?"+query, nil)
	if err != nil {
		return application.TokenGrant{}, fmt.Errorf("token request build failed: %w", redactURL(err, endpoint))
	}

	body, err := c.do(req)
	if err != nil {
		return application.TokenGrant{}, redactURL(err, endpoint)
	}

	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return application.TokenGrant{Raw: body}, nil
	}

	accessToken, _ := raw["access_token"].(string)
	if accessToken == "" {
		return application.TokenGrant{Raw: body}, nil
	}

	token := &oauth2.Token{
		AccessToken: accessToken,
		TokenType:   TokenType,
	}
	if expiresIn, ok := raw["expires_in"].(float64); ok && expiresIn > 0 {
		token.Expiry = time.Now().Add(time.Duration(expiresIn) * time.Second)
	}

	return application.TokenGrant{Token: token.WithExtra(raw), Raw: body}, nil
}

// AddRecords appends the JSON encoded rows to the configured worksheet.
func (c *Client) AddRecords(ctx context.Context, creds domain.ProviderCredentials, token *oauth2.Token, jsonData string) (application.WriteResult, error) {
	if token == nil {
		return application.WriteResult{}, errors.New("access token is required")
	}

	form := encodeForm([]formField{
		{Name: "method", Value: MethodRecordsAdd},
		{Name: "worksheet_name", Value: creds.Worksheet()},
		{Name: "json_data", Value: jsonData},
	})
	endpoint := c.SheetURL(creds) + "/api/v2/" + url.PathEscape(creds.WorkbookID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form))
	if err != nil {
		return application.WriteResult{}, fmt.Errorf("sheet request build failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	token.SetAuthHeader(req)

	body, err := c.do(req)
	if err != nil {
		return application.WriteResult{}, err
	}

	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return application.WriteResult{Raw: body}, fmt.Errorf("sheet response is not JSON: %w", err)
	}

	status, _ := raw["status"].(string)
	message, _ := raw["message"].(string)
	return application.WriteResult{Status: status, Message: message, Raw: body}, nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	res, err := c.doer.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("reading response from %s failed: %w", req.URL.Host, err)
	}
	return body, nil
}

// redactURL strips the query string, which carries the client secret, from
// errors produced by the HTTP client.
func redactURL(err error, endpoint string) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		urlErr.URL = endpoint
	}
	return err
}

func normaliseBaseURL(input string) string {
	return strings.TrimRight(strings.TrimSpace(input), "/")
}
