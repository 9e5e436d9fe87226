package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pedrosazl/trust-reclaim-aid/internal/config"
	"github.com/pedrosazl/trust-reclaim-aid/internal/dto"
	"github.com/pedrosazl/trust-reclaim-aid/internal/infra"
	"github.com/pedrosazl/trust-reclaim-aid/internal/model"
	"github.com/pedrosazl/trust-reclaim-aid/internal/repository"
	"github.com/pedrosazl/trust-reclaim-aid/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

type ProductService interface {
	Create(ctx context.Context, actor Actor, req dto.CreateProductRequest) (*dto.ProductResponse, error)
	Update(ctx context.Context, actor Actor, id uuid.UUID, req dto.UpdateProductRequest) (*dto.ProductResponse, error)
	Delete(ctx context.Context, actor Actor, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*dto.ProductResponse, error)
	List(ctx context.Context, filter dto.ProductFilter) (*dto.ProductListResponse, error)
	// CheckLowStock notifies admins about products under the configured
	// threshold. Invoked after mutations that can lower quantity-on-hand.
	CheckLowStock(ctx context.Context)
}

type productService struct {
	repo       repository.ProductRepository
	userRepo   repository.UserRepository
	outboxRepo repository.OutboxRepository
	dispatcher *worker.Dispatcher
	events     *infra.EventPublisher
	cfg        *config.Config
}

func NewProductService(
	repo repository.ProductRepository,
	userRepo repository.UserRepository,
	outboxRepo repository.OutboxRepository,
	dispatcher *worker.Dispatcher,
	events *infra.EventPublisher,
	cfg *config.Config,
) ProductService {
	return &productService{
		repo:       repo,
		userRepo:   userRepo,
		outboxRepo: outboxRepo,
		dispatcher: dispatcher,
		events:     events,
		cfg:        cfg,
	}
}

func (s *productService) Create(ctx context.Context, actor Actor, req dto.CreateProductRequest) (*dto.ProductResponse, error) {
	creatorID, err := uuid.Parse(actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("usuário inválido: %w", err)
	}

	p := &model.Product{
		Name:         req.Name,
		SKU:          req.SKU,
		Category:     req.Category,
		Description:  req.Description,
		Quantity:     req.Quantity,
		Unit:         req.Unit,
		CostPrice:    req.CostPrice,
		SellingPrice: req.SellingPrice,
		CreatedBy:    &creatorID,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	s.recordAudit(ctx, actor, model.ActionCreate, p.ID.String(), nil, p)
	s.events.Publish(ctx, "products", p.ID.String(), "created")

	resp := productToResponse(p)
	return &resp, nil
}

func (s *productService) Update(ctx context.Context, actor Actor, id uuid.UUID, req dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrProductNotFound
	}
	editorID, err := uuid.Parse(actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("usuário inválido: %w", err)
	}

	old := *p
	p.Name = req.Name
	p.SKU = req.SKU
	p.Category = req.Category
	p.Description = req.Description
	p.Quantity = req.Quantity
	p.Unit = req.Unit
	p.CostPrice = req.CostPrice
	p.SellingPrice = req.SellingPrice
	p.UpdatedBy = &editorID

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}

	s.recordAudit(ctx, actor, model.ActionUpdate, id.String(), &old, p)
	s.events.Publish(ctx, "products", id.String(), "updated")
	s.CheckLowStock(ctx)

	resp := productToResponse(p)
	return &resp, nil
}

func (s *productService) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return ErrProductNotFound
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.recordAudit(ctx, actor, model.ActionDelete, id.String(), p, nil)
	s.events.Publish(ctx, "products", id.String(), "deleted")
	return nil
}

func (s *productService) Get(ctx context.Context, id uuid.UUID) (*dto.ProductResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrProductNotFound
	}
	resp := productToResponse(p)
	return &resp, nil
}

func (s *productService) List(ctx context.Context, filter dto.ProductFilter) (*dto.ProductListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	products, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ProductResponse, 0, len(products))
	for i := range products {
		items = append(items, productToResponse(&products[i]))
	}
	return &dto.ProductListResponse{
		Items: items,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

func (s *productService) CheckLowStock(ctx context.Context) {
	threshold := decimal.NewFromFloat(s.cfg.LowStockThreshold)
	products, err := s.repo.ListLowStock(ctx, threshold)
	if err != nil {
		log.Warn().Err(err).Msg("low stock check failed")
		return
	}
	if len(products) == 0 {
		return
	}

	admins, err := s.userRepo.ListAdmins(ctx)
	if err != nil || len(admins) == 0 {
		return
	}

	entityType := "products"
	// Notifications expire after a day so repeated checks do not pile up
	// stale alerts.
	expires := time.Now().Add(24 * time.Hour)

	var entries []*model.SideEffectOutbox
	for i := range products {
		p := &products[i]
		entityID := p.ID.String()
		for _, admin := range admins {
			entries = append(entries, newNotificationOutbox(worker.NotificationPayload{
				UserID:     admin.ID.String(),
				Type:       model.NotifWarning,
				Title:      "Estoque baixo",
				Message:    fmt.Sprintf("%s: %s %s em estoque", p.Name, p.Quantity.String(), p.Unit),
				EntityType: &entityType,
				EntityID:   &entityID,
				ExpiresAt:  &expires,
			}))
		}
	}
	scheduleForCron(entries)
	for _, e := range entries {
		if err := s.outboxRepo.Create(ctx, e); err != nil {
			log.Warn().Err(err).Msg("low stock check: failed to persist outbox entry")
		}
	}
	enqueueOutbox(ctx, s.dispatcher, entries)
}

func (s *productService) recordAudit(ctx context.Context, actor Actor, action, entityID string, old, current *model.Product) {
	uid, email, name, ip, agent := actor.auditFields()
	var oldValues, newValues json.RawMessage
	if old != nil {
		oldValues, _ = json.Marshal(productAuditSnapshot(old))
	}
	if current != nil {
		newValues, _ = json.Marshal(productAuditSnapshot(current))
	}
	entityType := "products"
	entry := newAuditOutbox(worker.AuditPayload{
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
	})
	entries := []*model.SideEffectOutbox{entry}
	scheduleForCron(entries)
	if err := s.outboxRepo.Create(ctx, entry); err != nil {
		log.Warn().Err(err).Str("entity_id", entityID).Msg("failed to persist audit outbox entry")
		return
	}
	enqueueOutbox(ctx, s.dispatcher, entries)
}

func productAuditSnapshot(p *model.Product) map[string]interface{} {
	return map[string]interface{}{
		"name":          p.Name,
		"sku":           p.SKU,
		"category":      p.Category,
		"quantity":      p.Quantity,
		"unit":          p.Unit,
		"cost_price":    p.CostPrice,
		"selling_price": p.SellingPrice,
	}
}

func productToResponse(p *model.Product) dto.ProductResponse {
	return dto.ProductResponse{
		ID:           p.ID.String(),
		Name:         p.Name,
		SKU:          p.SKU,
		Category:     p.Category,
		Description:  p.Description,
		Quantity:     p.Quantity,
		Unit:         p.Unit,
		CostPrice:    p.CostPrice,
		SellingPrice: p.SellingPrice,
		CreatedAt:    p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    p.UpdatedAt.Format(time.RFC3339),
	}
}
