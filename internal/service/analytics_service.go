package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pedrosazl/trust-reclaim-aid/internal/dto"
	"github.com/pedrosazl/trust-reclaim-aid/internal/model"
	"github.com/pedrosazl/trust-reclaim-aid/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// uncategorizedLabel groups line items whose product carries no category.
const uncategorizedLabel = "Sem Categoria"

type AnalyticsService interface {
	FinancialSummary(ctx context.Context, actor Actor, filter dto.AnalyticsFilter) (*dto.FinancialSummaryResponse, error)
	LossByCategory(ctx context.Context, actor Actor, filter dto.AnalyticsFilter) ([]dto.CategoryLossEntry, error)
	ReasonBuckets(ctx context.Context, actor Actor, filter dto.AnalyticsFilter) ([]dto.ReasonBucketEntry, error)
	Timeline(ctx context.Context, actor Actor, filter dto.AnalyticsFilter) ([]dto.TimelinePoint, error)
	InventoryStats(ctx context.Context, actor Actor, filter dto.AnalyticsFilter) (*dto.InventoryStatsResponse, error)
}

// summaryCacheTTL keeps the dashboard summary hot without letting a fresh
// decision stay invisible for long.
const summaryCacheTTL = 30 * time.Second

type analyticsService struct {
	repo repository.ExchangeRepository
	rdb  *redis.Client
}

func NewAnalyticsService(repo repository.ExchangeRepository, rdb *redis.Client) AnalyticsService {
	return &analyticsService{repo: repo, rdb: rdb}
}

// buildScope translates the filter into a repository query scope. Admins see
// all rows; everyone else only their own. The window defaults to the last 90
// days.
func buildScope(actor Actor, filter dto.AnalyticsFilter) (repository.AnalyticsScope, error) {
	scope := repository.AnalyticsScope{}

	if actor.Role != model.RoleAdmin {
		uid, err := uuid.Parse(actor.UserID)
		if err != nil {
			return scope, fmt.Errorf("usuário inválido: %w", err)
		}
		scope.UserID = &uid
	}

	now := time.Now()
	scope.From = now.AddDate(0, 0, -90)
	scope.To = now
	if filter.From != "" {
		if t, err := time.Parse("2006-01-02", filter.From); err == nil {
			scope.From = t
		}
	}
	if filter.To != "" {
		if t, err := time.Parse("2006-01-02", filter.To); err == nil {
			// Inclusive end of day.
			scope.To = t.Add(24*time.Hour - time.Nanosecond)
		}
	}
	return scope, nil
}

// ── Financial summary ─────────────────────────────────────────────────────────
// Total loss is the sum of two additive components that never overlap:
//   - stored total loss:  Σ exchanges.total_loss (cost components)
//   - product value loss: Σ quantity × unit_price over line items
// Line items without a unit price snapshot contribute zero.

func (s *analyticsService) FinancialSummary(ctx context.Context, actor Actor, filter dto.AnalyticsFilter) (*dto.FinancialSummaryResponse, error) {
	scope, err := buildScope(actor, filter)
	if err != nil {
		return nil, err
	}

	cacheKey := summaryCacheKey(scope)
	if s.rdb != nil {
		if raw, err := s.rdb.Get(ctx, cacheKey).Bytes(); err == nil {
			var cached dto.FinancialSummaryResponse
			if json.Unmarshal(raw, &cached) == nil {
				return &cached, nil
			}
		}
	}

	exchanges, err := s.repo.ListForAnalytics(ctx, scope)
	if err != nil {
		return nil, err
	}

	resp := &dto.FinancialSummaryResponse{
		ProductValueLoss: decimal.Zero,
		ShippingCost:     decimal.Zero,
		ProcessingFee:    decimal.Zero,
		StoredTotalLoss:  decimal.Zero,
	}
	for i := range exchanges {
		e := &exchanges[i]
		resp.TotalExchanges++
		switch e.Status {
		case model.StatusPending:
			resp.Pending++
		case model.StatusApproved:
			resp.Approved++
		case model.StatusRejected:
			resp.Rejected++
		}
		if e.ShippingCost != nil {
			resp.ShippingCost = resp.ShippingCost.Add(*e.ShippingCost)
		}
		if e.ProcessingFee != nil {
			resp.ProcessingFee = resp.ProcessingFee.Add(*e.ProcessingFee)
		}
		if e.TotalLoss != nil {
			resp.StoredTotalLoss = resp.StoredTotalLoss.Add(*e.TotalLoss)
		}
		resp.ProductValueLoss = resp.ProductValueLoss.Add(productValueLoss(e))
	}
	resp.GrandTotalLoss = resp.StoredTotalLoss.Add(resp.ProductValueLoss)

	if s.rdb != nil {
		if raw, err := json.Marshal(resp); err == nil {
			s.rdb.Set(ctx, cacheKey, raw, summaryCacheTTL)
		}
	}
	return resp, nil
}

// summaryCacheKey derives a cache key from the effective query scope, so an
// admin's unscoped view and a user's own view never share an entry.
func summaryCacheKey(scope repository.AnalyticsScope) string {
	who := "all"
	if scope.UserID != nil {
		who = scope.UserID.String()
	}
	return fmt.Sprintf("analytics:summary:%s:%s:%s",
		who, scope.From.Format("2006-01-02"), scope.To.Format("2006-01-02"))
}

func productValueLoss(e *model.Exchange) decimal.Decimal {
	total := decimal.Zero
	for i := range e.Items {
		item := &e.Items[i]
		if item.UnitPrice == nil {
			continue
		}
		total = total.Add(item.Quantity.Mul(*item.UnitPrice))
	}
	return total
}

// ── Loss by category ──────────────────────────────────────────────────────────

func (s *analyticsService) LossByCategory(ctx context.Context, actor Actor, filter dto.AnalyticsFilter) ([]dto.CategoryLossEntry, error) {
	scope, err := buildScope(actor, filter)
	if err != nil {
		return nil, err
	}
	exchanges, err := s.repo.ListForAnalytics(ctx, scope)
	if err != nil {
		return nil, err
	}

	byCategory := make(map[string]decimal.Decimal)
	for i := range exchanges {
		for j := range exchanges[i].Items {
			item := &exchanges[i].Items[j]
			if item.UnitPrice == nil {
				continue
			}
			category := uncategorizedLabel
			if item.Product != nil && item.Product.Category != nil && *item.Product.Category != "" {
				category = *item.Product.Category
			}
			byCategory[category] = byCategory[category].Add(item.Quantity.Mul(*item.UnitPrice))
		}
	}

	entries := make([]dto.CategoryLossEntry, 0, len(byCategory))
	for category, loss := range byCategory {
		entries = append(entries, dto.CategoryLossEntry{Category: category, Loss: loss})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Loss.Equal(entries[j].Loss) {
			return entries[i].Category < entries[j].Category
		}
		return entries[i].Loss.GreaterThan(entries[j].Loss)
	})
	return entries, nil
}

// ── Reason buckets ────────────────────────────────────────────────────────────
// Free-text reasons collapse into fixed buckets by keyword, checked in
// priority order. The first matching bucket wins, so a reason mentioning both
// an expired product and an exchange counts as "Produto vencido".

var reasonBuckets = []struct {
	label    string
	keywords []string
}{
	{"Produto vencido", []string{"vencido", "validade"}},
	{"Produto danificado", []string{"danificado", "avaria", "quebrado"}},
	{"Troca", []string{"troca"}},
	{"Devolução", []string{"devolução", "devolver"}},
	{"Defeito", []string{"defeito", "com problema"}},
	{"Erro no pedido", []string{"erro", "errado"}},
	{"Não solicitado", []string{"não solicitado", "não pedi"}},
}

const reasonBucketOther = "Outros"

// classifyReason maps a free-text reason to its bucket label.
func classifyReason(reason string) string {
	lower := strings.ToLower(reason)
	for _, bucket := range reasonBuckets {
		for _, kw := range bucket.keywords {
			if strings.Contains(lower, kw) {
				return bucket.label
			}
		}
	}
	return reasonBucketOther
}

func (s *analyticsService) ReasonBuckets(ctx context.Context, actor Actor, filter dto.AnalyticsFilter) ([]dto.ReasonBucketEntry, error) {
	scope, err := buildScope(actor, filter)
	if err != nil {
		return nil, err
	}
	exchanges, err := s.repo.ListForAnalytics(ctx, scope)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for i := range exchanges {
		counts[classifyReason(exchanges[i].Reason)]++
	}

	// Stable output order: bucket priority, then "Outros" last.
	entries := make([]dto.ReasonBucketEntry, 0, len(counts))
	for _, bucket := range reasonBuckets {
		if n, ok := counts[bucket.label]; ok {
			entries = append(entries, dto.ReasonBucketEntry{Bucket: bucket.label, Count: n})
		}
	}
	if n, ok := counts[reasonBucketOther]; ok {
		entries = append(entries, dto.ReasonBucketEntry{Bucket: reasonBucketOther, Count: n})
	}
	return entries, nil
}

// ── Timeline ──────────────────────────────────────────────────────────────────

func (s *analyticsService) Timeline(ctx context.Context, actor Actor, filter dto.AnalyticsFilter) ([]dto.TimelinePoint, error) {
	scope, err := buildScope(actor, filter)
	if err != nil {
		return nil, err
	}
	exchanges, err := s.repo.ListForAnalytics(ctx, scope)
	if err != nil {
		return nil, err
	}

	type bucket struct {
		count int64
		loss  decimal.Decimal
	}
	byDay := make(map[string]*bucket)
	for i := range exchanges {
		e := &exchanges[i]
		day := e.CreatedAt.Format("2006-01-02")
		b, ok := byDay[day]
		if !ok {
			b = &bucket{loss: decimal.Zero}
			byDay[day] = b
		}
		b.count++
		if e.TotalLoss != nil {
			b.loss = b.loss.Add(*e.TotalLoss)
		}
		b.loss = b.loss.Add(productValueLoss(e))
	}

	days := make([]string, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Strings(days)

	points := make([]dto.TimelinePoint, 0, len(days))
	for _, day := range days {
		points = append(points, dto.TimelinePoint{
			Date:  day,
			Count: byDay[day].count,
			Loss:  byDay[day].loss,
		})
	}
	return points, nil
}

// ── Inventory stats ───────────────────────────────────────────────────────────

func (s *analyticsService) InventoryStats(ctx context.Context, actor Actor, filter dto.AnalyticsFilter) (*dto.InventoryStatsResponse, error) {
	scope, err := buildScope(actor, filter)
	if err != nil {
		return nil, err
	}
	exchanges, err := s.repo.ListForAnalytics(ctx, scope)
	if err != nil {
		return nil, err
	}

	resp := &dto.InventoryStatsResponse{
		RecoveredValue: decimal.Zero,
		LostValue:      decimal.Zero,
	}
	for i := range exchanges {
		for j := range exchanges[i].Items {
			item := &exchanges[i].Items[j]
			if item.ProductStatus == nil {
				continue
			}
			value := decimal.Zero
			if item.UnitPrice != nil {
				value = item.Quantity.Mul(*item.UnitPrice)
			}
			switch *item.ProductStatus {
			case model.ProductStatusReturnedToStock:
				resp.ReturnedToStock++
				resp.RecoveredValue = resp.RecoveredValue.Add(value)
			case model.ProductStatusDiscarded:
				resp.Discarded++
				resp.LostValue = resp.LostValue.Add(value)
			case model.ProductStatusAnalyzing:
				resp.Analyzing++
			}
		}
	}
	return resp, nil
}
