package dto

import "github.com/shopspring/decimal"

// AnalyticsFilter scopes every analytics query: admins see everything, other
// users only their own exchanges; the date window is inclusive.
type AnalyticsFilter struct {
	From string `form:"from"`
	To   string `form:"to"`
}

type FinancialSummaryResponse struct {
	TotalExchanges int64 `json:"total_exchanges"`
	Pending        int64 `json:"pending"`
	Approved       int64 `json:"approved"`
	Rejected       int64 `json:"rejected"`
	// ProductValueLoss = Σ quantity × unit_price over in-scope line items.
	ProductValueLoss decimal.Decimal `json:"product_value_loss"`
	ShippingCost     decimal.Decimal `json:"shipping_cost"`
	ProcessingFee    decimal.Decimal `json:"processing_fee"`
	// StoredTotalLoss = Σ exchanges.total_loss (cost components only).
	StoredTotalLoss decimal.Decimal `json:"stored_total_loss"`
	// GrandTotalLoss = StoredTotalLoss + ProductValueLoss — two distinct
	// additive components, not overlapping.
	GrandTotalLoss decimal.Decimal `json:"grand_total_loss"`
}

type CategoryLossEntry struct {
	Category string          `json:"category"`
	Loss     decimal.Decimal `json:"loss"`
}

type ReasonBucketEntry struct {
	Bucket string `json:"bucket"`
	Count  int    `json:"count"`
}

type TimelinePoint struct {
	Date  string          `json:"date"`
	Count int64           `json:"count"`
	Loss  decimal.Decimal `json:"loss"`
}

type InventoryStatsResponse struct {
	ReturnedToStock int64 `json:"returned_to_stock"`
	Discarded       int64 `json:"discarded"`
	Analyzing       int64 `json:"analyzing"`
	// RecoveredValue sums line values returned to stock; LostValue sums the
	// discarded ones.
	RecoveredValue decimal.Decimal `json:"recovered_value"`
	LostValue      decimal.Decimal `json:"lost_value"`
}
