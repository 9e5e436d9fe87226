package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/pedrosazl/trust-reclaim-aid/internal/config"
	"github.com/pedrosazl/trust-reclaim-aid/internal/dto"
	"github.com/pedrosazl/trust-reclaim-aid/internal/model"
	"github.com/pedrosazl/trust-reclaim-aid/internal/repository"
	"github.com/pedrosazl/trust-reclaim-aid/internal/worker"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ── Stubs ─────────────────────────────────────────────────────────────────────

// stubExchangeRepo is an in-memory ExchangeRepository for testing.
type stubExchangeRepo struct {
	exchanges  map[uuid.UUID]*model.Exchange
	offlineIdx map[string]*model.Exchange
	items      map[uuid.UUID]*model.ExchangeProduct
}

func newStubExchangeRepo() *stubExchangeRepo {
	return &stubExchangeRepo{
		exchanges:  make(map[uuid.UUID]*model.Exchange),
		offlineIdx: make(map[string]*model.Exchange),
		items:      make(map[uuid.UUID]*model.ExchangeProduct),
	}
}

func (r *stubExchangeRepo) Create(_ context.Context, _ *gorm.DB, e *model.Exchange) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	e.CreatedAt = time.Now()
	for i := range e.Items {
		if e.Items[i].ID == uuid.Nil {
			e.Items[i].ID = uuid.New()
		}
		e.Items[i].ExchangeID = e.ID
		r.items[e.Items[i].ID] = &e.Items[i]
	}
	r.exchanges[e.ID] = e
	if e.OfflineID != nil && *e.OfflineID != "" {
		r.offlineIdx[*e.OfflineID] = e
	}
	return nil
}

func (r *stubExchangeRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Exchange, error) {
	e, ok := r.exchanges[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return e, nil
}

func (r *stubExchangeRepo) FindByOfflineID(_ context.Context, offlineID string) (*model.Exchange, error) {
	e, ok := r.offlineIdx[offlineID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return e, nil
}

func (r *stubExchangeRepo) List(_ context.Context, _ dto.ExchangeFilter, userID *uuid.UUID) ([]model.Exchange, int64, error) {
	var out []model.Exchange
	for _, e := range r.exchanges {
		if userID != nil && e.UserID != *userID {
			continue
		}
		out = append(out, *e)
	}
	return out, int64(len(out)), nil
}

func (r *stubExchangeRepo) ListAll(_ context.Context) ([]model.Exchange, error) {
	var out []model.Exchange
	for _, e := range r.exchanges {
		out = append(out, *e)
	}
	return out, nil
}

func (r *stubExchangeRepo) TransitionStatus(_ context.Context, id uuid.UUID, status string, adminID uuid.UUID, at time.Time) (int64, error) {
	e, ok := r.exchanges[id]
	if !ok || e.Status != model.StatusPending {
		return 0, nil
	}
	e.Status = status
	e.ApprovedBy = &adminID
	e.ApprovedAt = &at
	return 1, nil
}

func (r *stubExchangeRepo) FindItem(_ context.Context, exchangeID, itemID uuid.UUID) (*model.ExchangeProduct, error) {
	item, ok := r.items[itemID]
	if !ok || item.ExchangeID != exchangeID {
		return nil, gorm.ErrRecordNotFound
	}
	return item, nil
}

func (r *stubExchangeRepo) UpdateItemTx(_ *gorm.DB, item *model.ExchangeProduct) error {
	r.items[item.ID] = item
	return nil
}

func (r *stubExchangeRepo) ListForAnalytics(_ context.Context, scope repository.AnalyticsScope) ([]model.Exchange, error) {
	var out []model.Exchange
	for _, e := range r.exchanges {
		if scope.UserID != nil && e.UserID != *scope.UserID {
			continue
		}
		out = append(out, *e)
	}
	return out, nil
}

func (r *stubExchangeRepo) DB() *gorm.DB { return nil }

var _ repository.ExchangeRepository = (*stubExchangeRepo)(nil)

type stockAdjustment struct {
	productID uuid.UUID
	delta     decimal.Decimal
}

// stubProductRepo records stock adjustments for assertion.
type stubProductRepo struct {
	products    map[uuid.UUID]*model.Product
	adjustments []stockAdjustment
}

func newStubProductRepo() *stubProductRepo {
	return &stubProductRepo{products: make(map[uuid.UUID]*model.Product)}
}

func (r *stubProductRepo) Create(_ context.Context, p *model.Product) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.products[p.ID] = p
	return nil
}

func (r *stubProductRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (r *stubProductRepo) List(_ context.Context, _ dto.ProductFilter) ([]model.Product, int64, error) {
	var out []model.Product
	for _, p := range r.products {
		out = append(out, *p)
	}
	return out, int64(len(out)), nil
}

func (r *stubProductRepo) Update(_ context.Context, p *model.Product) error {
	r.products[p.ID] = p
	return nil
}

func (r *stubProductRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.products, id)
	return nil
}

func (r *stubProductRepo) ListLowStock(_ context.Context, threshold decimal.Decimal) ([]model.Product, error) {
	var out []model.Product
	for _, p := range r.products {
		if p.Quantity.LessThan(threshold) {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *stubProductRepo) AdjustQuantityTx(_ *gorm.DB, id uuid.UUID, delta decimal.Decimal) error {
	p, ok := r.products[id]
	if !ok {
		return errors.New("not found")
	}
	p.Quantity = p.Quantity.Add(delta)
	r.adjustments = append(r.adjustments, stockAdjustment{productID: id, delta: delta})
	return nil
}

func (r *stubProductRepo) DB() *gorm.DB { return nil }

var _ repository.ProductRepository = (*stubProductRepo)(nil)

type stubUserRepo struct {
	users map[uuid.UUID]*model.User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[uuid.UUID]*model.User)}
}

func (r *stubUserRepo) Create(_ context.Context, u *model.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	r.users[u.ID] = u
	return nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range r.users {
		if u.Email == email && u.Active {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUserRepo) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (r *stubUserRepo) ListAdmins(_ context.Context) ([]model.User, error) {
	var out []model.User
	for _, u := range r.users {
		if u.Role == model.RoleAdmin && u.Active {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *stubUserRepo) ListByIDs(_ context.Context, ids []uuid.UUID) ([]model.User, error) {
	var out []model.User
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

var _ repository.UserRepository = (*stubUserRepo)(nil)

// stubOutboxRepo captures created entries for assertion.
type stubOutboxRepo struct {
	entries []*model.SideEffectOutbox
}

func (r *stubOutboxRepo) CreateTx(_ *gorm.DB, entry *model.SideEffectOutbox) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	r.entries = append(r.entries, entry)
	return nil
}

func (r *stubOutboxRepo) Create(_ context.Context, entry *model.SideEffectOutbox) error {
	return r.CreateTx(nil, entry)
}

func (r *stubOutboxRepo) FindByID(_ context.Context, id uuid.UUID) (*model.SideEffectOutbox, error) {
	for _, e := range r.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubOutboxRepo) Update(_ context.Context, entry *model.SideEffectOutbox) error {
	for i, e := range r.entries {
		if e.ID == entry.ID {
			r.entries[i] = entry
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *stubOutboxRepo) ListPendingRetries(_ context.Context, now time.Time, limit int) ([]model.SideEffectOutbox, error) {
	var out []model.SideEffectOutbox
	for _, e := range r.entries {
		if e.Status == model.OutboxPending && e.NextRetryAt != nil && !e.NextRetryAt.After(now) {
			out = append(out, *e)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *stubOutboxRepo) countByKind(kind string) int {
	n := 0
	for _, e := range r.entries {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

var _ repository.OutboxRepository = (*stubOutboxRepo)(nil)

// ── Fixture ───────────────────────────────────────────────────────────────────

type exchangeFixture struct {
	svc         ExchangeService
	repo        *stubExchangeRepo
	productRepo *stubProductRepo
	userRepo    *stubUserRepo
	outbox      *stubOutboxRepo
	user        *model.User
	admin       *model.User
	product     *model.Product
}

func newExchangeFixture(t *testing.T) *exchangeFixture {
	t.Helper()

	repo := newStubExchangeRepo()
	productRepo := newStubProductRepo()
	userRepo := newStubUserRepo()
	outbox := &stubOutboxRepo{}

	user := &model.User{Email: "vendedor@trocas.com.br", FullName: "Vendedor", Role: model.RoleUser, Active: true}
	admin := &model.User{Email: "gerente@trocas.com.br", FullName: "Gerente", Role: model.RoleAdmin, Active: true}
	require.NoError(t, userRepo.Create(context.Background(), user))
	require.NoError(t, userRepo.Create(context.Background(), admin))

	price := decimal.NewFromFloat(5.00)
	product := &model.Product{Name: "Queijo Minas 500g", Unit: "un", Quantity: decimal.NewFromInt(10), SellingPrice: &price}
	require.NoError(t, productRepo.Create(context.Background(), product))

	svc := NewExchangeService(repo, productRepo, userRepo, outbox, nil, nil, &config.Config{})
	return &exchangeFixture{
		svc:         svc,
		repo:        repo,
		productRepo: productRepo,
		userRepo:    userRepo,
		outbox:      outbox,
		user:        user,
		admin:       admin,
		product:     product,
	}
}

func (f *exchangeFixture) actor(u *model.User) Actor {
	return Actor{UserID: u.ID.String(), Email: u.Email, FullName: u.FullName, Role: u.Role}
}

func (f *exchangeFixture) validRequest() dto.CreateExchangeRequest {
	return dto.CreateExchangeRequest{
		CNPJ:   "12345678000195",
		Reason: "produto chegou vencido",
		Items: []dto.ExchangeItemInput{
			{ProductID: f.product.ID.String(), Quantity: decimal.NewFromInt(2)},
		},
	}
}

// ── Create ────────────────────────────────────────────────────────────────────

func TestCreateExchangeStoresCanonicalCNPJ(t *testing.T) {
	f := newExchangeFixture(t)

	resp, err := f.svc.Create(context.Background(), f.actor(f.user), f.validRequest(), nil, nil)
	require.NoError(t, err)

	assert.Equal(t, "12.345.678/0001-95", resp.CNPJ)
	assert.Equal(t, model.StatusPending, resp.Status)
	assert.True(t, resp.Synced)
	require.Len(t, resp.Items, 1)
	require.NotNil(t, resp.Items[0].UnitPrice)
	assert.True(t, resp.Items[0].UnitPrice.Equal(decimal.NewFromFloat(5.00)),
		"unit price must be snapshotted from the product")
	assert.Equal(t, "Queijo Minas 500g", resp.Items[0].ProductName)
}

func TestCreateExchangeWritesOutboxRows(t *testing.T) {
	f := newExchangeFixture(t)

	_, err := f.svc.Create(context.Background(), f.actor(f.user), f.validRequest(), nil, nil)
	require.NoError(t, err)

	// One audit row plus, per admin, a notification and an email.
	assert.Equal(t, 1, f.outbox.countByKind(model.OutboxAudit))
	assert.Equal(t, 1, f.outbox.countByKind(model.OutboxNotification))
	assert.Equal(t, 1, f.outbox.countByKind(model.OutboxEmail))

	// Every row is left pending with a retry timestamp for the cron safety net.
	for _, e := range f.outbox.entries {
		assert.Equal(t, model.OutboxPending, e.Status)
		assert.NotNil(t, e.NextRetryAt)
	}
}

func TestCreateExchangeAuditSnapshotsActor(t *testing.T) {
	f := newExchangeFixture(t)

	_, err := f.svc.Create(context.Background(), f.actor(f.user), f.validRequest(), nil, nil)
	require.NoError(t, err)

	var audit *model.SideEffectOutbox
	for _, e := range f.outbox.entries {
		if e.Kind == model.OutboxAudit {
			audit = e
		}
	}
	require.NotNil(t, audit)

	var payload worker.AuditPayload
	require.NoError(t, json.Unmarshal(audit.Payload, &payload))
	require.NotNil(t, payload.UserName, "audit entries snapshot the actor's name, not just the e-mail")
	assert.Equal(t, f.user.FullName, *payload.UserName)
	require.NotNil(t, payload.UserEmail)
	assert.Equal(t, f.user.Email, *payload.UserEmail)
}

func TestCreateExchangeDoesNotNotifyActingAdmin(t *testing.T) {
	f := newExchangeFixture(t)

	_, err := f.svc.Create(context.Background(), f.actor(f.admin), f.validRequest(), nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 0, f.outbox.countByKind(model.OutboxNotification))
	assert.Equal(t, 0, f.outbox.countByKind(model.OutboxEmail))
}

func TestCreateExchangeRejectsInvalidCNPJ(t *testing.T) {
	f := newExchangeFixture(t)

	req := f.validRequest()
	req.CNPJ = "123"
	_, err := f.svc.Create(context.Background(), f.actor(f.user), req, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidCNPJ)

	req.CNPJ = "00000000000000"
	_, err = f.svc.Create(context.Background(), f.actor(f.user), req, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidCNPJ)
}

func TestCreateExchangeStrictChecksum(t *testing.T) {
	f := newExchangeFixture(t)
	strict := NewExchangeService(f.repo, f.productRepo, f.userRepo, f.outbox, nil, nil,
		&config.Config{CNPJStrictValidation: true})

	req := f.validRequest()
	req.CNPJ = "12345678000190" // plausible shape, wrong verifier digits
	_, err := strict.Create(context.Background(), f.actor(f.user), req, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidCNPJ)

	req.CNPJ = "12345678000195"
	_, err = strict.Create(context.Background(), f.actor(f.user), req, nil, nil)
	assert.NoError(t, err)
}

func TestCreateExchangeDropsInvalidItems(t *testing.T) {
	f := newExchangeFixture(t)

	req := f.validRequest()
	req.Items = []dto.ExchangeItemInput{
		{ProductID: uuid.NewString(), Quantity: decimal.NewFromInt(1)},            // unknown product
		{ProductID: f.product.ID.String(), Quantity: decimal.Zero},                // non-positive quantity
		{ProductID: "not-a-uuid", Quantity: decimal.NewFromInt(1)},                // malformed id
		{ProductID: f.product.ID.String(), Quantity: decimal.NewFromFloat(1.250)}, // survives
	}

	resp, err := f.svc.Create(context.Background(), f.actor(f.user), req, nil, nil)
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.True(t, resp.Items[0].Quantity.Equal(decimal.NewFromFloat(1.250)))
}

func TestCreateExchangeRejectsWhenNoItemSurvives(t *testing.T) {
	f := newExchangeFixture(t)

	req := f.validRequest()
	req.Items = []dto.ExchangeItemInput{
		{ProductID: uuid.NewString(), Quantity: decimal.NewFromInt(1)},
		{ProductID: f.product.ID.String(), Quantity: decimal.NewFromInt(-3)},
	}

	_, err := f.svc.Create(context.Background(), f.actor(f.user), req, nil, nil)
	assert.ErrorIs(t, err, ErrNoValidItems)
	assert.Empty(t, f.repo.exchanges, "nothing may be persisted")
}

func TestCreateExchangeCapsReason(t *testing.T) {
	f := newExchangeFixture(t)

	req := f.validRequest()
	req.Reason = "  " + strings.Repeat("x", 1500) + "  "
	resp, err := f.svc.Create(context.Background(), f.actor(f.user), req, nil, nil)
	require.NoError(t, err)
	assert.Len(t, resp.Reason, maxReasonLength)
}

func TestCreateExchangeCapsReasonByRunes(t *testing.T) {
	f := newExchangeFixture(t)

	// 1000 characters but 1001 bytes: a byte cap would split the final rune.
	req := f.validRequest()
	req.Reason = strings.Repeat("a", maxReasonLength-1) + "é"
	resp, err := f.svc.Create(context.Background(), f.actor(f.user), req, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, req.Reason, resp.Reason, "a reason at the character cap passes through untouched")

	req = f.validRequest()
	req.Reason = strings.Repeat("çã", maxReasonLength)
	resp, err = f.svc.Create(context.Background(), f.actor(f.user), req, nil, nil)
	require.NoError(t, err)
	assert.Len(t, []rune(resp.Reason), maxReasonLength)
	assert.True(t, utf8.ValidString(resp.Reason), "truncation must never leave invalid UTF-8")
}

func TestCreateExchangeOfflineIDIsIdempotent(t *testing.T) {
	f := newExchangeFixture(t)

	offlineID := "device-42-0001"
	req := f.validRequest()
	req.OfflineID = &offlineID

	first, err := f.svc.Create(context.Background(), f.actor(f.user), req, nil, nil)
	require.NoError(t, err)

	second, err := f.svc.Create(context.Background(), f.actor(f.user), req, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID, "resubmission must return the original row")
	assert.Len(t, f.repo.exchanges, 1)
}

// ── SyncBatch ─────────────────────────────────────────────────────────────────

func TestSyncBatchMixedEntries(t *testing.T) {
	f := newExchangeFixture(t)

	dupID := "device-7-0003"
	dupReq := f.validRequest()
	dupReq.OfflineID = &dupID
	_, err := f.svc.Create(context.Background(), f.actor(f.user), dupReq, nil, nil)
	require.NoError(t, err)

	newID := "device-7-0004"
	newReq := f.validRequest()
	newReq.OfflineID = &newID

	badReq := f.validRequest() // no offline_id

	results, err := f.svc.SyncBatch(context.Background(), f.actor(f.user), dto.SyncBatchRequest{
		Exchanges: []dto.CreateExchangeRequest{dupReq, newReq, badReq},
	})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "duplicate", results[0].Status)
	require.NotNil(t, results[0].Exchange)

	assert.Equal(t, "created", results[1].Status)
	require.NotNil(t, results[1].Exchange)

	assert.Equal(t, "error", results[2].Status)
	assert.NotEmpty(t, results[2].Error)

	assert.Len(t, f.repo.exchanges, 2, "a bad entry never aborts the batch")
}

// ── Approve / Reject ──────────────────────────────────────────────────────────

func TestApproveStampsDecision(t *testing.T) {
	f := newExchangeFixture(t)

	created, err := f.svc.Create(context.Background(), f.actor(f.user), f.validRequest(), nil, nil)
	require.NoError(t, err)
	id := uuid.MustParse(created.ID)

	resp, err := f.svc.Approve(context.Background(), f.actor(f.admin), id)
	require.NoError(t, err)

	assert.Equal(t, model.StatusApproved, resp.Status)
	require.NotNil(t, resp.ApprovedBy)
	assert.Equal(t, f.admin.ID.String(), *resp.ApprovedBy)
	assert.NotNil(t, resp.ApprovedAt)
}

func TestRejectNotifiesOwner(t *testing.T) {
	f := newExchangeFixture(t)

	created, err := f.svc.Create(context.Background(), f.actor(f.user), f.validRequest(), nil, nil)
	require.NoError(t, err)
	before := f.outbox.countByKind(model.OutboxNotification)

	_, err = f.svc.Reject(context.Background(), f.actor(f.admin), uuid.MustParse(created.ID))
	require.NoError(t, err)

	assert.Equal(t, before+1, f.outbox.countByKind(model.OutboxNotification))
}

func TestDecideLoserGetsConflict(t *testing.T) {
	f := newExchangeFixture(t)

	created, err := f.svc.Create(context.Background(), f.actor(f.user), f.validRequest(), nil, nil)
	require.NoError(t, err)
	id := uuid.MustParse(created.ID)

	_, err = f.svc.Approve(context.Background(), f.actor(f.admin), id)
	require.NoError(t, err)

	// Second decision loses the compare-and-swap.
	_, err = f.svc.Reject(context.Background(), f.actor(f.admin), id)
	assert.ErrorIs(t, err, ErrAlreadyDecided)

	got, err := f.repo.FindByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, got.Status, "the winner's decision must stand")
}

func TestDecideUnknownExchange(t *testing.T) {
	f := newExchangeFixture(t)

	_, err := f.svc.Approve(context.Background(), f.actor(f.admin), uuid.New())
	assert.ErrorIs(t, err, ErrExchangeNotFound)
}

// ── Get ───────────────────────────────────────────────────────────────────────

func TestGetMasksForeignExchange(t *testing.T) {
	f := newExchangeFixture(t)

	created, err := f.svc.Create(context.Background(), f.actor(f.user), f.validRequest(), nil, nil)
	require.NoError(t, err)
	id := uuid.MustParse(created.ID)

	other := &model.User{Email: "outro@trocas.com.br", Role: model.RoleUser, Active: true}
	require.NoError(t, f.userRepo.Create(context.Background(), other))

	_, err = f.svc.Get(context.Background(), f.actor(other), id)
	assert.ErrorIs(t, err, ErrExchangeNotFound, "non-owners must not learn the row exists")

	_, err = f.svc.Get(context.Background(), f.actor(f.admin), id)
	assert.NoError(t, err)
}

// ── SetDisposition ────────────────────────────────────────────────────────────

func TestSetDispositionReturnedToStockAdjustsInventory(t *testing.T) {
	f := newExchangeFixture(t)

	created, err := f.svc.Create(context.Background(), f.actor(f.user), f.validRequest(), nil, nil)
	require.NoError(t, err)
	exchangeID := uuid.MustParse(created.ID)
	itemID := uuid.MustParse(created.Items[0].ID)

	reusable := model.ConditionReusable
	toStock := model.ProductStatusReturnedToStock
	resp, err := f.svc.SetDisposition(context.Background(), f.actor(f.admin), exchangeID, itemID,
		dto.SetDispositionRequest{ProductCondition: &reusable, ProductStatus: &toStock})
	require.NoError(t, err)

	require.NotNil(t, resp.AnalyzedBy)
	assert.Equal(t, f.admin.ID.String(), *resp.AnalyzedBy)
	assert.NotNil(t, resp.AnalyzedAt)

	require.Len(t, f.productRepo.adjustments, 1)
	assert.True(t, f.productRepo.adjustments[0].delta.Equal(decimal.NewFromInt(2)),
		"entering returned_to_stock must add the item quantity back")

	// Leaving returned_to_stock reverses the adjustment.
	discarded := model.ProductStatusDiscarded
	_, err = f.svc.SetDisposition(context.Background(), f.actor(f.admin), exchangeID, itemID,
		dto.SetDispositionRequest{ProductStatus: &discarded})
	require.NoError(t, err)

	require.Len(t, f.productRepo.adjustments, 2)
	assert.True(t, f.productRepo.adjustments[1].delta.Equal(decimal.NewFromInt(-2)))
	assert.True(t, f.product.Quantity.Equal(decimal.NewFromInt(10)), "net stock change must be zero")
}

func TestSetDispositionIsIdempotentOnStock(t *testing.T) {
	f := newExchangeFixture(t)

	created, err := f.svc.Create(context.Background(), f.actor(f.user), f.validRequest(), nil, nil)
	require.NoError(t, err)
	exchangeID := uuid.MustParse(created.ID)
	itemID := uuid.MustParse(created.Items[0].ID)

	toStock := model.ProductStatusReturnedToStock
	req := dto.SetDispositionRequest{ProductStatus: &toStock}

	_, err = f.svc.SetDisposition(context.Background(), f.actor(f.admin), exchangeID, itemID, req)
	require.NoError(t, err)
	_, err = f.svc.SetDisposition(context.Background(), f.actor(f.admin), exchangeID, itemID, req)
	require.NoError(t, err)

	assert.Len(t, f.productRepo.adjustments, 1, "re-applying the same status must not double-count stock")
}

func TestSetDispositionRequiresAField(t *testing.T) {
	f := newExchangeFixture(t)

	created, err := f.svc.Create(context.Background(), f.actor(f.user), f.validRequest(), nil, nil)
	require.NoError(t, err)

	_, err = f.svc.SetDisposition(context.Background(), f.actor(f.admin),
		uuid.MustParse(created.ID), uuid.MustParse(created.Items[0].ID), dto.SetDispositionRequest{})
	assert.Error(t, err)
}

func TestSetDispositionUnknownItem(t *testing.T) {
	f := newExchangeFixture(t)

	created, err := f.svc.Create(context.Background(), f.actor(f.user), f.validRequest(), nil, nil)
	require.NoError(t, err)

	discarded := model.ProductStatusDiscarded
	_, err = f.svc.SetDisposition(context.Background(), f.actor(f.admin),
		uuid.MustParse(created.ID), uuid.New(), dto.SetDispositionRequest{ProductStatus: &discarded})
	assert.ErrorIs(t, err, ErrItemNotFound)
}
