package threecommas

import (
	"fmt"
	"time"
)

// Bot strategy values on the platform side
const (
	StrategyLong  = "long"
	StrategyShort = "short"
)

// Bot type values on the platform side
const (
	BotTypeSimple    = "simple"
	BotTypeComposite = "composite"
)

// Deal status values reported by the platform
const (
	DealStatusActive    = "active"
	DealStatusCompleted = "completed"
	DealStatusCancelled = "cancelled"
	DealStatusFailed    = "failed"
)

// BotPayload is the request body for bot create/update calls. All known
// fields are enumerated explicitly; the platform rejects unknown keys.
type BotPayload struct {
	AccountID                   int64    `json:"account_id"`
	Name                        string   `json:"name"`
	Pairs                       []string `json:"pairs"`
	Strategy                    string   `json:"strategy"`
	Type                        string   `json:"type"`
	ProfitCurrency              string   `json:"profit_currency"`
	BaseOrderVolume             float64  `json:"base_order_volume"`
	BaseOrderVolumeType         string   `json:"base_order_volume_type"`
	StartOrderType              string   `json:"start_order_type"`
	TakeProfit                  float64  `json:"take_profit"`
	TakeProfitType              string   `json:"take_profit_type"`
	SafetyOrderVolume           float64  `json:"safety_order_volume"`
	MaxSafetyOrders             int      `json:"max_safety_orders"`
	SafetyOrderStepPercentage   float64  `json:"safety_order_step_percentage"`
	MartingaleVolumeCoefficient float64  `json:"martingale_volume_coefficient"`
	MartingaleStepCoefficient   float64  `json:"martingale_step_coefficient"`
	StopLossPercentage          float64  `json:"stop_loss_percentage"`
	Cooldown                    int      `json:"cooldown"`
	Active                      bool     `json:"active"`
}

// Bot is the platform's representation of a bot.
type Bot struct {
	ID              int64     `json:"id"`
	AccountID       int64     `json:"account_id"`
	Name            string    `json:"name"`
	Pairs           []string  `json:"pairs"`
	Strategy        string    `json:"strategy"`
	Type            string    `json:"type"`
	IsEnabled       bool      `json:"is_enabled"`
	ActiveDealCount int       `json:"active_deals_count"`
	FinishedDeals   int       `json:"finished_deals_count"`
	TotalProfit     string    `json:"finished_deals_profit_usd"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Deal is one buy/sell cycle reported by the platform. Profit fields come
// back as decimal strings.
type Deal struct {
	ID                    int64      `json:"id"`
	BotID                 int64      `json:"bot_id"`
	Pair                  string     `json:"pair"`
	Status                string     `json:"status"`
	FinalProfit           string     `json:"final_profit"`
	FinalProfitPercentage string     `json:"final_profit_percentage"`
	BoughtVolume          string     `json:"bought_volume"`
	CreatedAt             time.Time  `json:"created_at"`
	ClosedAt              *time.Time `json:"closed_at,omitempty"`
}

// Finished reports whether the deal has reached a terminal status.
func (d *Deal) Finished() bool {
	return d.Status == DealStatusCompleted || d.Status == DealStatusCancelled || d.Status == DealStatusFailed
}

// Account is the platform's exchange-account record, linked to a user's
// validated exchange credentials.
type Account struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	MarketCode string `json:"market_code"`
}

// RemoteError is returned for every failed platform call. Unreachable
// distinguishes transport failures (plausibly transient) from the platform
// rejecting the request with a status code and body.
type RemoteError struct {
	StatusCode  int
	Body        string
	Unreachable bool
	Err         error
}

func (e *RemoteError) Error() string {
	if e.Unreachable {
		return fmt.Sprintf("3commas unreachable: %v", e.Err)
	}
	return fmt.Sprintf("3commas rejected request: status=%d body=%s", e.StatusCode, e.Body)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}
