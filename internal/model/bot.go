package model

import "time"

// Bot status constants
const (
	BotStatusRunning = "running"
	BotStatusPaused  = "paused"
	BotStatusStopped = "stopped"
	BotStatusError   = "error"
)

// Direction constants
const (
	DirectionLong  = "long"
	DirectionShort = "short"
)

// Bot kind constants
const (
	BotKindSingle = "single"
	BotKindMulti  = "multi"
)

// Profit currency constants
const (
	ProfitCurrencyQuote = "quote"
	ProfitCurrencyBase  = "base"
)

// Start order type constants
const (
	StartOrderMarket = "market"
	StartOrderLimit  = "limit"
)

// Take profit type constants
const (
	TakeProfitTotal = "total"
	TakeProfitStep  = "step"
)

// Bot is the local mirror record of a bot provisioned on the trading
// platform. RemoteID stays nil until the platform confirms creation and is
// immutable afterwards.
type Bot struct {
	ID       int64  `json:"id"`
	UserID   string `json:"user_id"`
	RemoteID *int64 `json:"remote_id,omitempty"`

	Name                   string  `json:"name"`
	Pair                   string  `json:"pair"`
	Direction              string  `json:"direction"`
	Kind                   string  `json:"kind"`
	ProfitCurrency         string  `json:"profit_currency"`
	BaseOrderSize          float64 `json:"base_order_size"`
	StartOrderType         string  `json:"start_order_type"`
	TakeProfitType         string  `json:"take_profit_type"`
	TargetProfitPercent    float64 `json:"target_profit_percent"`
	SafetyOrderVolume      float64 `json:"safety_order_volume"`
	MaxSafetyOrders        int     `json:"max_safety_orders"`
	SafetyOrderStepPercent float64 `json:"safety_order_step_percent"`
	StopLossPercent        float64 `json:"stop_loss_percent"`
	CooldownSeconds        int     `json:"cooldown_seconds"`
	Note                   string  `json:"note,omitempty"`
	ConfigVersion          int     `json:"config_version"`

	Status string `json:"status"`

	// Advisory performance cache. Authoritative values always come from
	// the platform on demand.
	TotalDeals  int        `json:"total_deals"`
	TotalProfit float64    `json:"total_profit"`
	LastDealAt  *time.Time `json:"last_deal_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BotRequest represents the request to create or update a bot. The binding
// tags carry the schema validation; requests failing them never reach the
// platform.
type BotRequest struct {
	Name                   string  `json:"name" binding:"required,min=1,max=100"`
	Pair                   string  `json:"pair" binding:"required"`
	Direction              string  `json:"direction" binding:"required,oneof=long short"`
	Kind                   string  `json:"kind" binding:"required,oneof=single multi"`
	ProfitCurrency         string  `json:"profit_currency" binding:"omitempty,oneof=quote base"`
	BaseOrderSize          float64 `json:"base_order_size" binding:"required,gt=0"`
	StartOrderType         string  `json:"start_order_type" binding:"omitempty,oneof=market limit"`
	TakeProfitType         string  `json:"take_profit_type" binding:"omitempty,oneof=total step"`
	TargetProfitPercent    float64 `json:"target_profit_percent" binding:"required,gt=0,lte=100"`
	SafetyOrderVolume      float64 `json:"safety_order_volume" binding:"omitempty,gt=0"`
	MaxSafetyOrders        int     `json:"max_safety_orders" binding:"required,min=1,max=25"`
	SafetyOrderStepPercent float64 `json:"safety_order_step_percent" binding:"required,gte=0.1,lte=50"`
	StopLossPercent        float64 `json:"stop_loss_percent" binding:"gte=0,lte=100"`
	CooldownSeconds        int     `json:"cooldown_seconds" binding:"gte=0"`
	Note                   string  `json:"note" binding:"omitempty,max=500"`
}

// Normalize fills the defaulted fields.
func (r *BotRequest) Normalize() {
	if r.ProfitCurrency == "" {
		r.ProfitCurrency = ProfitCurrencyQuote
	}
	if r.StartOrderType == "" {
		r.StartOrderType = StartOrderMarket
	}
	if r.TakeProfitType == "" {
		r.TakeProfitType = TakeProfitTotal
	}
	if r.SafetyOrderVolume == 0 {
		r.SafetyOrderVolume = r.BaseOrderSize
	}
}

// ApplyTo overwrites the configuration snapshot on a bot record. Identity,
// status, version and the advisory cache are untouched.
func (r *BotRequest) ApplyTo(bot *Bot) {
	bot.Name = r.Name
	bot.Pair = r.Pair
	bot.Direction = r.Direction
	bot.Kind = r.Kind
	bot.ProfitCurrency = r.ProfitCurrency
	bot.BaseOrderSize = r.BaseOrderSize
	bot.StartOrderType = r.StartOrderType
	bot.TakeProfitType = r.TakeProfitType
	bot.TargetProfitPercent = r.TargetProfitPercent
	bot.SafetyOrderVolume = r.SafetyOrderVolume
	bot.MaxSafetyOrders = r.MaxSafetyOrders
	bot.SafetyOrderStepPercent = r.SafetyOrderStepPercent
	bot.StopLossPercent = r.StopLossPercent
	bot.CooldownSeconds = r.CooldownSeconds
	bot.Note = r.Note
}

// CanPause reports whether the pause transition is allowed.
func (b *Bot) CanPause() bool {
	return b.Status == BotStatusRunning
}

// CanStart reports whether the start/resume transition is allowed.
func (b *Bot) CanStart() bool {
	return b.Status == BotStatusPaused || b.Status == BotStatusStopped
}

// BotSummary is the local advisory snapshot returned without touching the
// platform.
type BotSummary struct {
	BotID         int64      `json:"bot_id"`
	RemoteID      *int64     `json:"remote_id,omitempty"`
	Name          string     `json:"name"`
	Pair          string     `json:"pair"`
	Status        string     `json:"status"`
	ConfigVersion int        `json:"config_version"`
	TotalDeals    int        `json:"total_deals"`
	TotalProfit   float64    `json:"total_profit"`
	LastDealAt    *time.Time `json:"last_deal_at,omitempty"`
	Uptime        string     `json:"uptime,omitempty"`
}
