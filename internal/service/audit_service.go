package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pedrosazl/trust-reclaim-aid/internal/dto"
	"github.com/pedrosazl/trust-reclaim-aid/internal/model"
	"github.com/pedrosazl/trust-reclaim-aid/internal/repository"
)

const (
	defaultAuditLimit = 100
	maxAuditLimit     = 500
)

type AuditService interface {
	List(ctx context.Context, filter dto.AuditFilter) (*dto.AuditListResponse, error)
}

type auditService struct {
	repo repository.AuditRepository
}

func NewAuditService(repo repository.AuditRepository) AuditService {
	return &auditService{repo: repo}
}

// List returns the most recent audit entries, newest first, optionally
// filtered by entity type.
func (s *auditService) List(ctx context.Context, filter dto.AuditFilter) (*dto.AuditListResponse, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultAuditLimit
	}
	if limit > maxAuditLimit {
		limit = maxAuditLimit
	}

	entries, err := s.repo.List(ctx, filter.EntityType, limit)
	if err != nil {
		return nil, err
	}

	resp := &dto.AuditListResponse{
		Items: make([]dto.AuditLogResponse, 0, len(entries)),
		Total: len(entries),
	}
	for i := range entries {
		resp.Items = append(resp.Items, auditToResponse(&entries[i]))
	}
	return resp, nil
}

func auditToResponse(e *model.AuditLog) dto.AuditLogResponse {
	resp := dto.AuditLogResponse{
		ID:         e.ID.String(),
		Action:     e.Action,
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		UserEmail:  e.UserEmail,
		UserName:   e.UserName,
		IPAddress:  e.IPAddress,
		UserAgent:  e.UserAgent,
		CreatedAt:  e.CreatedAt.Format(time.RFC3339),
	}
	if e.UserID != nil {
		id := e.UserID.String()
		resp.UserID = &id
	}
	if len(e.OldValues) > 0 {
		resp.OldValues = json.RawMessage(e.OldValues)
	}
	if len(e.NewValues) > 0 {
		resp.NewValues = json.RawMessage(e.NewValues)
	}
	return resp
}
