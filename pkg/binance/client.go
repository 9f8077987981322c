// Package binance provides a minimal read-only client used to validate
// user-supplied exchange API credentials before anything is provisioned on
// the trading platform.
package binance

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// PermissionTier is the highest read tier a credential pair passed during
// validation. Keys are commonly scoped with restricted permissions, so a
// single account-info probe would reject valid-but-restricted keys.
type PermissionTier string

const (
	TierFull    PermissionTier = "full"
	TierBasic   PermissionTier = "basic"
	TierMinimal PermissionTier = "minimal"
)

// ErrInvalidCredentials is returned when every validation tier fails,
// including the unauthenticated liveness probe.
var ErrInvalidCredentials = errors.New("exchange rejected credentials at every permission tier")

const defaultRecvWindow = 5000

// Client is a read-only Binance API client.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new exchange client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Balance is one asset entry from the account snapshot.
type Balance struct {
	Asset  string `json:"asset"`
	Free   string `json:"free"`
	Locked string `json:"locked"`
}

// AccountInfo is the signed account snapshot.
type AccountInfo struct {
	CanTrade    bool      `json:"canTrade"`
	CanWithdraw bool      `json:"canWithdraw"`
	CanDeposit  bool      `json:"canDeposit"`
	AccountType string    `json:"accountType"`
	Balances    []Balance `json:"balances"`
}

// Validate checks an API key/secret pair against the exchange, walking down
// the permission tiers until one succeeds. Only total failure across all
// tiers invalidates the credentials.
func (c *Client) Validate(ctx context.Context, key, secret string) (PermissionTier, error) {
	if err := c.signedGet(ctx, "/api/v3/account", key, secret, nil); err == nil {
		return TierFull, nil
	}

	if err := c.signedGet(ctx, "/sapi/v1/account/apiRestrictions", key, secret, nil); err == nil {
		return TierBasic, nil
	}

	if err := c.Ping(ctx); err == nil {
		return TierMinimal, nil
	}

	return "", ErrInvalidCredentials
}

// GetAccountInfo fetches the full signed account snapshot.
func (c *Client) GetAccountInfo(ctx context.Context, key, secret string) (*AccountInfo, error) {
	var info AccountInfo
	if err := c.signedGet(ctx, "/api/v3/account", key, secret, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Ping is the unauthenticated liveness probe.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v3/ping", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("exchange ping failed: status=%d", resp.StatusCode)
	}
	return nil
}

// signedGet issues a signed read call. The signature is an HMAC-SHA256
// digest over the query string; the API key travels in a header, not the
// signature.
func (c *Client) signedGet(ctx context.Context, path, key, secret string, out interface{}) error {
	q := url.Values{}
	q.Set("timestamp", strconv.FormatInt(time.Now().UnixMilli(), 10))
	q.Set("recvWindow", strconv.Itoa(defaultRecvWindow))

	query := q.Encode()
	signature := signQuery(secret, query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+path+"?"+query+"&signature="+signature, nil)
	if err != nil {
		return err
	}
	req.Header.Set("X-MBX-APIKEY", key)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("exchange request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("exchange rejected request: status=%d body=%s", resp.StatusCode, body)
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("failed to parse exchange response: %w", err)
		}
	}
	return nil
}

func signQuery(secret, query string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(query))
	return hex.EncodeToString(mac.Sum(nil))
}
