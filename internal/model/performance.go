package model

// DealHighlight is the best/worst deal slot in a performance report.
type DealHighlight struct {
	DealID        int64   `json:"deal_id"`
	Pair          string  `json:"pair"`
	Profit        float64 `json:"profit"`
	ProfitPercent float64 `json:"profit_percent"`
	Status        string  `json:"status"`
}

// PerformanceReport is computed from the platform's deal history. Open
// deals contribute their in-flight duration at evaluation time, so the
// duration average changes between calls by design.
type PerformanceReport struct {
	TotalDeals            int            `json:"total_deals"`
	CompletedDeals        int            `json:"completed_deals"`
	ActiveDeals           int            `json:"active_deals"`
	TotalProfit           float64        `json:"total_profit"`
	TotalProfitPercent    float64        `json:"total_profit_percent"`
	AverageProfit         float64        `json:"average_profit"`
	WinRate               float64        `json:"win_rate"`
	BestDeal              *DealHighlight `json:"best_deal,omitempty"`
	WorstDeal             *DealHighlight `json:"worst_deal,omitempty"`
	AverageDealDurationMs int64          `json:"average_deal_duration_ms"`
}
