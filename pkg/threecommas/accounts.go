package threecommas

import (
	"context"
	"net/http"
)

// AccountPayload is the request body for linking an exchange account to the
// platform. Key and secret are the user's exchange credentials, not the
// platform credentials.
type AccountPayload struct {
	Type   string `json:"type"`
	Name   string `json:"name"`
	APIKey string `json:"api_key"`
	Secret string `json:"secret"`
}

// CreateAccount links an exchange account on the platform and returns its
// assigned record.
func (c *Client) CreateAccount(ctx context.Context, payload *AccountPayload) (*Account, error) {
	var account Account
	if err := c.do(ctx, http.MethodPost, "/ver1/accounts/new", "", payload, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// ListAccounts lists the exchange accounts linked on the platform.
func (c *Client) ListAccounts(ctx context.Context) ([]Account, error) {
	var accounts []Account
	if err := c.do(ctx, http.MethodGet, "/ver1/accounts", "", nil, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}
