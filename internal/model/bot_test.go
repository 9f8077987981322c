package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBotRequestNormalize(t *testing.T) {
	req := &BotRequest{
		Name:                "dca-btc",
		Pair:                "USDT_BTC",
		Direction:           DirectionLong,
		Kind:                BotKindSingle,
		BaseOrderSize:       25,
		TargetProfitPercent: 1.5,
	}
	req.Normalize()

	assert.Equal(t, ProfitCurrencyQuote, req.ProfitCurrency)
	assert.Equal(t, StartOrderMarket, req.StartOrderType)
	assert.Equal(t, TakeProfitTotal, req.TakeProfitType)
	assert.Equal(t, 25.0, req.SafetyOrderVolume)

	// Explicit values survive normalization.
	req2 := &BotRequest{
		BaseOrderSize:     25,
		SafetyOrderVolume: 10,
		ProfitCurrency:    ProfitCurrencyBase,
	}
	req2.Normalize()
	assert.Equal(t, 10.0, req2.SafetyOrderVolume)
	assert.Equal(t, ProfitCurrencyBase, req2.ProfitCurrency)
}

func TestBotTransitionGuards(t *testing.T) {
	cases := []struct {
		status   string
		canPause bool
		canStart bool
	}{
		{BotStatusRunning, true, false},
		{BotStatusPaused, false, true},
		{BotStatusStopped, false, true},
		{BotStatusError, false, false},
	}

	for _, tc := range cases {
		bot := &Bot{Status: tc.status}
		assert.Equal(t, tc.canPause, bot.CanPause(), "CanPause from %s", tc.status)
		assert.Equal(t, tc.canStart, bot.CanStart(), "CanStart from %s", tc.status)
	}
}

func TestApplyToPreservesIdentity(t *testing.T) {
	remoteID := int64(42)
	bot := &Bot{
		ID:            7,
		UserID:        "alice",
		RemoteID:      &remoteID,
		ConfigVersion: 3,
		Status:        BotStatusPaused,
		TotalDeals:    9,
	}

	req := &BotRequest{
		Name:                "renamed",
		Pair:                "USDT_ETH",
		Direction:           DirectionShort,
		Kind:                BotKindSingle,
		BaseOrderSize:       100,
		TargetProfitPercent: 2,
	}
	req.Normalize()
	req.ApplyTo(bot)

	assert.Equal(t, int64(7), bot.ID)
	assert.Equal(t, "alice", bot.UserID)
	assert.Equal(t, &remoteID, bot.RemoteID)
	assert.Equal(t, 3, bot.ConfigVersion)
	assert.Equal(t, BotStatusPaused, bot.Status)
	assert.Equal(t, 9, bot.TotalDeals)
	assert.Equal(t, "renamed", bot.Name)
	assert.Equal(t, "USDT_ETH", bot.Pair)
}
