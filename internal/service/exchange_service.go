package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pedrosazl/trust-reclaim-aid/internal/cnpj"
	"github.com/pedrosazl/trust-reclaim-aid/internal/config"
	"github.com/pedrosazl/trust-reclaim-aid/internal/dto"
	"github.com/pedrosazl/trust-reclaim-aid/internal/infra"
	"github.com/pedrosazl/trust-reclaim-aid/internal/model"
	"github.com/pedrosazl/trust-reclaim-aid/internal/repository"
	"github.com/pedrosazl/trust-reclaim-aid/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const maxReasonLength = 1000

type ExchangeService interface {
	Create(ctx context.Context, actor Actor, req dto.CreateExchangeRequest, signatureURL, imageURL *string) (*dto.ExchangeResponse, error)
	SyncBatch(ctx context.Context, actor Actor, req dto.SyncBatchRequest) ([]dto.SyncBatchResult, error)
	List(ctx context.Context, actor Actor, filter dto.ExchangeFilter) (*dto.ExchangeListResponse, error)
	Get(ctx context.Context, actor Actor, id uuid.UUID) (*dto.ExchangeResponse, error)
	Approve(ctx context.Context, actor Actor, id uuid.UUID) (*dto.ExchangeResponse, error)
	Reject(ctx context.Context, actor Actor, id uuid.UUID) (*dto.ExchangeResponse, error)
	SetDisposition(ctx context.Context, actor Actor, exchangeID, itemID uuid.UUID, req dto.SetDispositionRequest) (*dto.ExchangeItemResponse, error)
}

type exchangeService struct {
	repo        repository.ExchangeRepository
	productRepo repository.ProductRepository
	userRepo    repository.UserRepository
	outboxRepo  repository.OutboxRepository
	dispatcher  *worker.Dispatcher
	events      *infra.EventPublisher
	cfg         *config.Config
}

func NewExchangeService(
	repo repository.ExchangeRepository,
	productRepo repository.ProductRepository,
	userRepo repository.UserRepository,
	outboxRepo repository.OutboxRepository,
	dispatcher *worker.Dispatcher,
	events *infra.EventPublisher,
	cfg *config.Config,
) ExchangeService {
	return &exchangeService{
		repo:        repo,
		productRepo: productRepo,
		userRepo:    userRepo,
		outboxRepo:  outboxRepo,
		dispatcher:  dispatcher,
		events:      events,
		cfg:         cfg,
	}
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// ── Create ────────────────────────────────────────────────────────────────────
// Intake of a single exchange request:
//  1. Normalize and validate the CNPJ; store the canonical display form
//  2. Trim the reason and cap it at 1000 characters
//  3. Deduplicate by offline_id (idempotent resubmission)
//  4. Drop line items with an unknown product or non-positive quantity;
//     reject only when zero items survive
//  5. BEGIN TX: create exchange + items with unit price snapshots, write
//     outbox rows (audit + admin notifications)
//  6. COMMIT, then enqueue the outbox drain jobs and publish a change event
//
// Evidence files are saved by the handler BEFORE this is called: a storage
// failure must abort intake without touching the database.

func (s *exchangeService) Create(ctx context.Context, actor Actor, req dto.CreateExchangeRequest, signatureURL, imageURL *string) (*dto.ExchangeResponse, error) {
	if !cnpj.Validate(req.CNPJ) {
		return nil, ErrInvalidCNPJ
	}
	if s.cfg != nil && s.cfg.CNPJStrictValidation && !cnpj.ValidateChecksum(req.CNPJ) {
		return nil, ErrInvalidCNPJ
	}
	canonical := cnpj.Format(req.CNPJ)

	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, fmt.Errorf("motivo é obrigatório")
	}
	// Cap by characters, not bytes: accented reasons must never be cut
	// mid-rune.
	if runes := []rune(reason); len(runes) > maxReasonLength {
		reason = string(runes[:maxReasonLength])
	}

	// Idempotent resubmission from the offline queue.
	if req.OfflineID != nil && *req.OfflineID != "" {
		if existing, err := s.repo.FindByOfflineID(ctx, *req.OfflineID); err == nil {
			return exchangeToResponse(existing), nil
		}
	}

	// Resolve products, silently dropping rows that cannot be persisted.
	type resolvedItem struct {
		product *model.Product
		input   dto.ExchangeItemInput
	}
	var resolved []resolvedItem
	for _, item := range req.Items {
		if !item.Quantity.IsPositive() {
			log.Debug().Str("product_id", item.ProductID).Msg("intake: dropping item with non-positive quantity")
			continue
		}
		pid, err := uuid.Parse(item.ProductID)
		if err != nil {
			log.Debug().Str("product_id", item.ProductID).Msg("intake: dropping item with invalid product id")
			continue
		}
		p, err := s.productRepo.FindByID(ctx, pid)
		if err != nil {
			log.Debug().Str("product_id", item.ProductID).Msg("intake: dropping item with unknown product")
			continue
		}
		resolved = append(resolved, resolvedItem{product: p, input: item})
	}
	if len(resolved) == 0 {
		return nil, ErrNoValidItems
	}

	userID, err := uuid.Parse(actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("usuário inválido: %w", err)
	}

	exchange := model.Exchange{
		UserID:        userID,
		CNPJ:          canonical,
		Reason:        reason,
		Status:        model.StatusPending,
		SignatureURL:  signatureURL,
		ImageURL:      imageURL,
		ShippingCost:  req.ShippingCost,
		ProcessingFee: req.ProcessingFee,
		TotalLoss:     req.TotalLoss,
		Synced:        true,
		OfflineID:     req.OfflineID,
	}
	for _, r := range resolved {
		exchange.Items = append(exchange.Items, model.ExchangeProduct{
			ProductID: r.product.ID,
			Quantity:  r.input.Quantity,
			UnitPrice: r.product.SellingPrice,
		})
	}

	admins, err := s.userRepo.ListAdmins(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("intake: could not list admins for notification")
	}

	var outboxEntries []*model.SideEffectOutbox
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.Create(ctx, tx, &exchange); err != nil {
			return err
		}

		entityID := exchange.ID.String()
		uid, email, name, ip, agent := actor.auditFields()
		newValues, _ := json.Marshal(map[string]interface{}{
			"cnpj": canonical, "reason": reason, "status": model.StatusPending, "items": len(exchange.Items),
		})
		outboxEntries = append(outboxEntries, newAuditOutbox(worker.AuditPayload{
			Action:     model.ActionCreate,
			EntityType: "exchanges",
			EntityID:   &entityID,
			UserID:     uid,
			UserEmail:  email,
			UserName:   name,
			NewValues:  newValues,
			IPAddress:  ip,
			UserAgent:  agent,
		}))

		title := "Nova solicitação de troca"
		message := fmt.Sprintf("%s registrou uma solicitação para o CNPJ %s", actor.DisplayName(), canonical)
		entityType := "exchanges"
		for _, admin := range admins {
			if admin.ID == userID {
				continue
			}
			outboxEntries = append(outboxEntries, newNotificationOutbox(worker.NotificationPayload{
				UserID:     admin.ID.String(),
				Type:       model.NotifAlert,
				Title:      title,
				Message:    message,
				EntityType: &entityType,
				EntityID:   &entityID,
			}))
			outboxEntries = append(outboxEntries, newEmailOutbox(worker.EmailJobPayload{
				ToEmail: admin.Email,
				Subject: title,
				Body:    message + "\nMotivo: " + reason,
			}))
		}

		scheduleForCron(outboxEntries)
		for _, e := range outboxEntries {
			if err := s.outboxRepo.CreateTx(tx, e); err != nil {
				return err
			}
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	enqueueOutbox(ctx, s.dispatcher, outboxEntries)
	s.events.Publish(ctx, "exchanges", exchange.ID.String(), "created")

	resp := exchangeToResponse(&exchange)
	for i, r := range resolved {
		resp.Items[i].ProductName = r.product.Name
	}
	return resp, nil
}

// ── SyncBatch ─────────────────────────────────────────────────────────────────
// Drains a client's offline queue. Idempotent per entry via offline_id: a
// replayed entry reports "duplicate" and returns the original row. One bad
// entry never aborts the batch.

func (s *exchangeService) SyncBatch(ctx context.Context, actor Actor, req dto.SyncBatchRequest) ([]dto.SyncBatchResult, error) {
	results := make([]dto.SyncBatchResult, 0, len(req.Exchanges))

	for _, entry := range req.Exchanges {
		offlineID := ""
		if entry.OfflineID != nil {
			offlineID = *entry.OfflineID
		}
		if offlineID == "" {
			results = append(results, dto.SyncBatchResult{
				Status: "error",
				Error:  "offline_id é obrigatório na sincronização",
			})
			continue
		}

		if existing, err := s.repo.FindByOfflineID(ctx, offlineID); err == nil {
			results = append(results, dto.SyncBatchResult{
				OfflineID: offlineID,
				Status:    "duplicate",
				Exchange:  exchangeToResponse(existing),
			})
			continue
		}

		resp, err := s.Create(ctx, actor, entry, nil, nil)
		if err != nil {
			results = append(results, dto.SyncBatchResult{
				OfflineID: offlineID,
				Status:    "error",
				Error:     err.Error(),
			})
			continue
		}
		results = append(results, dto.SyncBatchResult{
			OfflineID: offlineID,
			Status:    "created",
			Exchange:  resp,
		})
	}
	return results, nil
}

// ── List / Get ────────────────────────────────────────────────────────────────
// Non-admin callers only ever see their own exchanges.

func (s *exchangeService) List(ctx context.Context, actor Actor, filter dto.ExchangeFilter) (*dto.ExchangeListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}

	scope, err := s.scopeUserID(actor)
	if err != nil {
		return nil, err
	}
	exchanges, total, err := s.repo.List(ctx, filter, scope)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ExchangeResponse, 0, len(exchanges))
	for i := range exchanges {
		items = append(items, *exchangeToResponse(&exchanges[i]))
	}
	return &dto.ExchangeListResponse{
		Items: items,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

func (s *exchangeService) Get(ctx context.Context, actor Actor, id uuid.UUID) (*dto.ExchangeResponse, error) {
	exchange, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrExchangeNotFound
	}
	if actor.Role != model.RoleAdmin && exchange.UserID.String() != actor.UserID {
		return nil, ErrExchangeNotFound
	}
	return exchangeToResponse(exchange), nil
}

func (s *exchangeService) scopeUserID(actor Actor) (*uuid.UUID, error) {
	if actor.Role == model.RoleAdmin {
		return nil, nil
	}
	uid, err := uuid.Parse(actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("usuário inválido: %w", err)
	}
	return &uid, nil
}

// ── Approve / Reject ──────────────────────────────────────────────────────────
// Status is decided by a conditional UPDATE matching only while the row is
// still pending, so exactly one of two concurrent decisions wins. The loser
// gets ErrAlreadyDecided, never a silent overwrite.

func (s *exchangeService) Approve(ctx context.Context, actor Actor, id uuid.UUID) (*dto.ExchangeResponse, error) {
	return s.decide(ctx, actor, id, model.StatusApproved, model.ActionApprove)
}

func (s *exchangeService) Reject(ctx context.Context, actor Actor, id uuid.UUID) (*dto.ExchangeResponse, error) {
	return s.decide(ctx, actor, id, model.StatusRejected, model.ActionReject)
}

func (s *exchangeService) decide(ctx context.Context, actor Actor, id uuid.UUID, status, action string) (*dto.ExchangeResponse, error) {
	adminID, err := uuid.Parse(actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("usuário inválido: %w", err)
	}

	now := time.Now()
	affected, err := s.repo.TransitionStatus(ctx, id, status, adminID, now)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		// Either the row does not exist or it already left pending.
		if _, findErr := s.repo.FindByID(ctx, id); findErr != nil {
			return nil, ErrExchangeNotFound
		}
		return nil, ErrAlreadyDecided
	}

	exchange, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	entityID := id.String()
	entityType := "exchanges"
	uid, email, name, ip, agent := actor.auditFields()
	oldValues, _ := json.Marshal(map[string]string{"status": model.StatusPending})
	newValues, _ := json.Marshal(map[string]string{"status": status})

	statusLabel := "aprovada"
	if status == model.StatusRejected {
		statusLabel = "rejeitada"
	}

	outboxEntries := []*model.SideEffectOutbox{
		newAuditOutbox(worker.AuditPayload{
			Action:     action,
			EntityType: entityType,
			EntityID:   &entityID,
			UserID:     uid,
			UserEmail:  email,
			UserName:   name,
			OldValues:  oldValues,
			NewValues:  newValues,
			IPAddress:  ip,
			UserAgent:  agent,
		}),
		newNotificationOutbox(worker.NotificationPayload{
			UserID:     exchange.UserID.String(),
			Type:       model.NotifStatusChange,
			Title:      "Solicitação " + statusLabel,
			Message:    fmt.Sprintf("Sua solicitação para o CNPJ %s foi %s", exchange.CNPJ, statusLabel),
			EntityType: &entityType,
			EntityID:   &entityID,
		}),
	}
	scheduleForCron(outboxEntries)
	for _, e := range outboxEntries {
		if err := s.outboxRepo.Create(ctx, e); err != nil {
			log.Error().Err(err).Str("exchange_id", entityID).Msg("decide: failed to persist outbox entry")
		}
	}
	enqueueOutbox(ctx, s.dispatcher, outboxEntries)
	s.events.Publish(ctx, "exchanges", entityID, "status_changed")

	return exchangeToResponse(exchange), nil
}

// ── SetDisposition ────────────────────────────────────────────────────────────
// Records the post-review fate of a returned line item. A transition into
// returned_to_stock increments the product's quantity-on-hand in the same
// transaction; leaving returned_to_stock reverses it. Contradictory pairs
// (damaged or expired goods going back to stock) are allowed but logged.

func (s *exchangeService) SetDisposition(ctx context.Context, actor Actor, exchangeID, itemID uuid.UUID, req dto.SetDispositionRequest) (*dto.ExchangeItemResponse, error) {
	if req.ProductCondition == nil && req.ProductStatus == nil {
		return nil, fmt.Errorf("nenhum campo para atualizar")
	}

	if _, err := s.repo.FindByID(ctx, exchangeID); err != nil {
		return nil, ErrExchangeNotFound
	}
	item, err := s.repo.FindItem(ctx, exchangeID, itemID)
	if err != nil {
		return nil, ErrItemNotFound
	}

	adminID, err := uuid.Parse(actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("usuário inválido: %w", err)
	}

	wasInStock := item.ProductStatus != nil && *item.ProductStatus == model.ProductStatusReturnedToStock

	oldValues, _ := json.Marshal(map[string]interface{}{
		"product_condition": item.ProductCondition,
		"product_status":    item.ProductStatus,
	})

	if req.ProductCondition != nil {
		item.ProductCondition = req.ProductCondition
	}
	if req.ProductStatus != nil {
		item.ProductStatus = req.ProductStatus
	}
	now := time.Now()
	item.AnalyzedBy = &adminID
	item.AnalyzedAt = &now

	nowInStock := item.ProductStatus != nil && *item.ProductStatus == model.ProductStatusReturnedToStock
	if nowInStock && item.ProductCondition != nil &&
		(*item.ProductCondition == model.ConditionDamaged || *item.ProductCondition == model.ConditionExpired) {
		log.Warn().
			Str("item_id", itemID.String()).
			Str("condition", *item.ProductCondition).
			Msg("disposition: item marked returned_to_stock with a non-reusable condition")
	}

	newValues, _ := json.Marshal(map[string]interface{}{
		"product_condition": item.ProductCondition,
		"product_status":    item.ProductStatus,
	})

	entityID := itemID.String()
	entityType := "exchange_products"
	uid, email, name, ip, agent := actor.auditFields()
	auditEntry := newAuditOutbox(worker.AuditPayload{
		Action:     model.ActionAnalyze,
		EntityType: entityType,
		EntityID:   &entityID,
		UserID:     uid,
		UserEmail:  email,
		UserName:   name,
		OldValues:  oldValues,
		NewValues:  newValues,
		IPAddress:  ip,
		UserAgent:  agent,
	})
	outboxEntries := []*model.SideEffectOutbox{auditEntry}
	scheduleForCron(outboxEntries)

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.UpdateItemTx(tx, item); err != nil {
			return err
		}
		switch {
		case nowInStock && !wasInStock:
			if err := s.productRepo.AdjustQuantityTx(tx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		case wasInStock && !nowInStock:
			if err := s.productRepo.AdjustQuantityTx(tx, item.ProductID, item.Quantity.Neg()); err != nil {
				return err
			}
		}
		return s.outboxRepo.CreateTx(tx, auditEntry)
	})
	if txErr != nil {
		return nil, txErr
	}

	enqueueOutbox(ctx, s.dispatcher, outboxEntries)
	s.events.Publish(ctx, "exchange_products", entityID, "analyzed")

	resp := itemToResponse(item)
	return &resp, nil
}

// ── Response mapping ──────────────────────────────────────────────────────────

func itemToResponse(item *model.ExchangeProduct) dto.ExchangeItemResponse {
	resp := dto.ExchangeItemResponse{
		ID:               item.ID.String(),
		ProductID:        item.ProductID.String(),
		Quantity:         item.Quantity,
		UnitPrice:        item.UnitPrice,
		ProductCondition: item.ProductCondition,
		ProductStatus:    item.ProductStatus,
	}
	if item.Product != nil {
		resp.ProductName = item.Product.Name
	}
	if item.AnalyzedBy != nil {
		by := item.AnalyzedBy.String()
		resp.AnalyzedBy = &by
	}
	if item.AnalyzedAt != nil {
		at := item.AnalyzedAt.Format(time.RFC3339)
		resp.AnalyzedAt = &at
	}
	return resp
}

func exchangeToResponse(e *model.Exchange) *dto.ExchangeResponse {
	items := make([]dto.ExchangeItemResponse, 0, len(e.Items))
	for i := range e.Items {
		items = append(items, itemToResponse(&e.Items[i]))
	}
	resp := &dto.ExchangeResponse{
		ID:            e.ID.String(),
		UserID:        e.UserID.String(),
		CNPJ:          e.CNPJ,
		Reason:        e.Reason,
		Status:        e.Status,
		SignatureURL:  e.SignatureURL,
		ImageURL:      e.ImageURL,
		ShippingCost:  e.ShippingCost,
		ProcessingFee: e.ProcessingFee,
		TotalLoss:     e.TotalLoss,
		Synced:        e.Synced,
		CreatedAt:     e.CreatedAt.Format(time.RFC3339),
		Items:         items,
	}
	if e.ApprovedBy != nil {
		by := e.ApprovedBy.String()
		resp.ApprovedBy = &by
	}
	if e.ApprovedAt != nil {
		at := e.ApprovedAt.Format(time.RFC3339)
		resp.ApprovedAt = &at
	}
	return resp
}
