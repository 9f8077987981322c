package threecommas

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// DefaultTimeout bounds every platform call. The client never retries;
// retry policy belongs to the caller.
const DefaultTimeout = 15 * time.Second

// Client is a typed client for the 3Commas bot API. Each method issues
// exactly one signed HTTP call.
type Client struct {
	baseURL    string
	apiKey     string
	apiSecret  string
	httpClient *http.Client
}

// NewClient creates a new platform client. Credentials are injected once at
// construction and never read from ambient state.
func NewClient(baseURL, apiKey, apiSecret string) *Client {
	return &Client{
		baseURL:   baseURL,
		apiKey:    apiKey,
		apiSecret: apiSecret,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

// CreateBot creates a bot on the platform and returns its assigned record.
func (c *Client) CreateBot(ctx context.Context, payload *BotPayload) (*Bot, error) {
	var bot Bot
	if err := c.do(ctx, http.MethodPost, "/ver1/bots", "", payload, &bot); err != nil {
		return nil, err
	}
	return &bot, nil
}

// GetBot fetches a bot by its platform id.
func (c *Client) GetBot(ctx context.Context, botID int64) (*Bot, error) {
	var bot Bot
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/ver1/bots/%d", botID), "", nil, &bot); err != nil {
		return nil, err
	}
	return &bot, nil
}

// ListBots lists bots, optionally filtered by exchange account id.
func (c *Client) ListBots(ctx context.Context, accountID int64) ([]Bot, error) {
	query := ""
	if accountID > 0 {
		query = "account_id=" + strconv.FormatInt(accountID, 10)
	}
	var bots []Bot
	if err := c.do(ctx, http.MethodGet, "/ver1/bots", query, nil, &bots); err != nil {
		return nil, err
	}
	return bots, nil
}

// UpdateBot overwrites a bot's configuration on the platform.
func (c *Client) UpdateBot(ctx context.Context, botID int64, payload *BotPayload) (*Bot, error) {
	var bot Bot
	if err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/ver1/bots/%d", botID), "", payload, &bot); err != nil {
		return nil, err
	}
	return &bot, nil
}

// DeleteBot removes a bot from the platform.
func (c *Client) DeleteBot(ctx context.Context, botID int64) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/ver1/bots/%d/delete", botID), "", nil, nil)
}

// PauseBot disables new deals for a bot.
func (c *Client) PauseBot(ctx context.Context, botID int64) (*Bot, error) {
	var bot Bot
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/ver1/bots/%d/pause", botID), "", nil, &bot); err != nil {
		return nil, err
	}
	return &bot, nil
}

// StartNewDeal re-enables a bot and asks the platform to open a deal.
func (c *Client) StartNewDeal(ctx context.Context, botID int64) (*Bot, error) {
	var bot Bot
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/ver1/bots/%d/start_new_deal", botID), "", nil, &bot); err != nil {
		return nil, err
	}
	return &bot, nil
}

// PanicSell liquidates all of a bot's open deals at market.
func (c *Client) PanicSell(ctx context.Context, botID int64) (*Bot, error) {
	var bot Bot
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/ver1/bots/%d/panic_sell", botID), "", nil, &bot); err != nil {
		return nil, err
	}
	return &bot, nil
}

// ListDeals fetches a page of deals for a bot.
func (c *Client) ListDeals(ctx context.Context, botID int64, limit, offset int) ([]Deal, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	var deals []Deal
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/ver1/bots/%d/deals", botID), q.Encode(), nil, &deals); err != nil {
		return nil, err
	}
	return deals, nil
}

// do issues one signed request. The payload is serialized exactly once and
// the resulting bytes are both signed and transmitted; re-serializing after
// signing would invalidate the signature.
func (c *Client) do(ctx context.Context, method, path, query string, payload, out interface{}) error {
	var raw []byte
	if payload != nil {
		var err error
		raw, err = json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	signature := Sign(c.apiSecret, path, query, string(raw))

	reqURL := c.baseURL + APIPrefix + path
	if query != "" {
		reqURL += "?" + query
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("APIKEY", c.apiKey)
	req.Header.Set("Signature", signature)
	if raw != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &RemoteError{Unreachable: true, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &RemoteError{Unreachable: true, Err: err}
	}

	if resp.StatusCode >= 400 {
		return &RemoteError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}

	return nil
}
