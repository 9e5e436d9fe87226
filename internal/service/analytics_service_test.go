package service

import (
	"context"
	"testing"
	"time"

	"github.com/pedrosazl/trust-reclaim-aid/internal/dto"
	"github.com/pedrosazl/trust-reclaim-aid/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func seedAnalyticsRepo(t *testing.T) (*stubExchangeRepo, uuid.UUID) {
	t.Helper()
	repo := newStubExchangeRepo()
	userID := uuid.New()

	laticinios := "Laticínios"
	bebidas := "Bebidas"
	toStock := model.ProductStatusReturnedToStock
	discarded := model.ProductStatusDiscarded

	// 10.00 stored loss + 2×5.00 + 1×7.50 product value = 27.50 grand total.
	require.NoError(t, repo.Create(context.Background(), nil, &model.Exchange{
		UserID:    userID,
		CNPJ:      "12.345.678/0001-95",
		Reason:    "produto vencido na entrega",
		Status:    model.StatusApproved,
		TotalLoss: decPtr("10.00"),
		Items: []model.ExchangeProduct{
			{
				ProductID:     uuid.New(),
				Quantity:      dec("2"),
				UnitPrice:     decPtr("5.00"),
				ProductStatus: &discarded,
				Product:       &model.Product{Name: "Queijo", Category: &laticinios},
			},
			{
				ProductID:     uuid.New(),
				Quantity:      dec("1"),
				UnitPrice:     decPtr("7.50"),
				ProductStatus: &toStock,
				Product:       &model.Product{Name: "Suco", Category: &bebidas},
			},
		},
	}))

	// No unit price snapshot: contributes nothing to product value loss.
	require.NoError(t, repo.Create(context.Background(), nil, &model.Exchange{
		UserID:       userID,
		CNPJ:         "98.765.432/0001-10",
		Reason:       "cliente quer devolver o pedido",
		Status:       model.StatusPending,
		ShippingCost: decPtr("3.00"),
		Items: []model.ExchangeProduct{
			{ProductID: uuid.New(), Quantity: dec("4"), Product: &model.Product{Name: "Iogurte"}},
		},
	}))

	return repo, userID
}

func analyticsActor(userID uuid.UUID, role string) Actor {
	return Actor{UserID: userID.String(), Role: role}
}

func TestFinancialSummaryAddsBothLossComponents(t *testing.T) {
	repo, userID := seedAnalyticsRepo(t)
	svc := NewAnalyticsService(repo, nil)

	resp, err := svc.FinancialSummary(context.Background(), analyticsActor(userID, model.RoleAdmin), dto.AnalyticsFilter{})
	require.NoError(t, err)

	assert.EqualValues(t, 2, resp.TotalExchanges)
	assert.EqualValues(t, 1, resp.Approved)
	assert.EqualValues(t, 1, resp.Pending)

	assert.True(t, resp.StoredTotalLoss.Equal(dec("10.00")), "stored: %s", resp.StoredTotalLoss)
	assert.True(t, resp.ProductValueLoss.Equal(dec("17.50")), "product value: %s", resp.ProductValueLoss)
	assert.True(t, resp.GrandTotalLoss.Equal(dec("27.50")), "grand total: %s", resp.GrandTotalLoss)
	assert.True(t, resp.ShippingCost.Equal(dec("3.00")))
}

func TestFinancialSummaryScopesNonAdmins(t *testing.T) {
	repo, userID := seedAnalyticsRepo(t)
	require.NoError(t, repo.Create(context.Background(), nil, &model.Exchange{
		UserID: uuid.New(),
		Reason: "troca de sabor",
		Status: model.StatusPending,
	}))
	svc := NewAnalyticsService(repo, nil)

	mine, err := svc.FinancialSummary(context.Background(), analyticsActor(userID, model.RoleUser), dto.AnalyticsFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, mine.TotalExchanges)

	all, err := svc.FinancialSummary(context.Background(), analyticsActor(userID, model.RoleAdmin), dto.AnalyticsFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, all.TotalExchanges)
}

func TestLossByCategorySortsByLossDescending(t *testing.T) {
	repo, userID := seedAnalyticsRepo(t)
	svc := NewAnalyticsService(repo, nil)

	entries, err := svc.LossByCategory(context.Background(), analyticsActor(userID, model.RoleAdmin), dto.AnalyticsFilter{})
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "Laticínios", entries[0].Category)
	assert.True(t, entries[0].Loss.Equal(dec("10.00")))
	assert.Equal(t, "Bebidas", entries[1].Category)
	assert.True(t, entries[1].Loss.Equal(dec("7.50")))
}

func TestClassifyReasonFirstMatchWins(t *testing.T) {
	cases := map[string]string{
		"Produto vencido, fora da validade": "Produto vencido",
		"chegou vencido mas aceito troca":   "Produto vencido", // priority beats "troca"
		"caixa com avaria no transporte":    "Produto danificado",
		"quero fazer uma TROCA":             "Troca",
		"cliente pediu devolução":           "Devolução",
		"item com problema na tampa":        "Defeito",
		"pedido veio errado":                "Erro no pedido",
		"não pedi este produto":             "Não solicitado",
		"mudou de ideia":                    "Outros",
		"":                                  "Outros",
	}
	for reason, want := range cases {
		assert.Equal(t, want, classifyReason(reason), "reason: %q", reason)
	}
}

func TestReasonBucketsKeepPriorityOrder(t *testing.T) {
	repo := newStubExchangeRepo()
	userID := uuid.New()
	for _, reason := range []string{
		"sem motivo claro",
		"devolver tudo",
		"veio vencido",
		"quero devolver",
	} {
		require.NoError(t, repo.Create(context.Background(), nil, &model.Exchange{
			UserID: userID, Reason: reason, Status: model.StatusPending,
		}))
	}
	svc := NewAnalyticsService(repo, nil)

	entries, err := svc.ReasonBuckets(context.Background(), analyticsActor(userID, model.RoleAdmin), dto.AnalyticsFilter{})
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, "Produto vencido", entries[0].Bucket)
	assert.Equal(t, 1, entries[0].Count)
	assert.Equal(t, "Devolução", entries[1].Bucket)
	assert.Equal(t, 2, entries[1].Count)
	assert.Equal(t, "Outros", entries[2].Bucket, "the catch-all bucket comes last")
	assert.Equal(t, 1, entries[2].Count)
}

func TestTimelineGroupsByDay(t *testing.T) {
	repo, userID := seedAnalyticsRepo(t)
	svc := NewAnalyticsService(repo, nil)

	points, err := svc.Timeline(context.Background(), analyticsActor(userID, model.RoleAdmin), dto.AnalyticsFilter{})
	require.NoError(t, err)
	require.Len(t, points, 1, "both fixtures were created today")

	assert.Equal(t, time.Now().Format("2006-01-02"), points[0].Date)
	assert.EqualValues(t, 2, points[0].Count)
	assert.True(t, points[0].Loss.Equal(dec("27.50")), "daily loss: %s", points[0].Loss)
}

func TestInventoryStatsSplitRecoveredAndLost(t *testing.T) {
	repo, userID := seedAnalyticsRepo(t)
	svc := NewAnalyticsService(repo, nil)

	resp, err := svc.InventoryStats(context.Background(), analyticsActor(userID, model.RoleAdmin), dto.AnalyticsFilter{})
	require.NoError(t, err)

	assert.EqualValues(t, 1, resp.ReturnedToStock)
	assert.EqualValues(t, 1, resp.Discarded)
	assert.EqualValues(t, 0, resp.Analyzing)
	assert.True(t, resp.RecoveredValue.Equal(dec("7.50")))
	assert.True(t, resp.LostValue.Equal(dec("10.00")))
}
