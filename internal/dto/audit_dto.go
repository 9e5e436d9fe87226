package dto

import "encoding/json"

type AuditFilter struct {
	EntityType string `form:"entity_type"`
	Limit      int    `form:"limit"`
}

type AuditLogResponse struct {
	ID         string          `json:"id"`
	Action     string          `json:"action"`
	EntityType string          `json:"entity_type"`
	EntityID   *string         `json:"entity_id,omitempty"`
	UserID     *string         `json:"user_id,omitempty"`
	UserEmail  *string         `json:"user_email,omitempty"`
	UserName   *string         `json:"user_name,omitempty"`
	OldValues  json.RawMessage `json:"old_values,omitempty"`
	NewValues  json.RawMessage `json:"new_values,omitempty"`
	IPAddress  *string         `json:"ip_address,omitempty"`
	UserAgent  *string         `json:"user_agent,omitempty"`
	CreatedAt  string          `json:"created_at"`
}

type AuditListResponse struct {
	Items []AuditLogResponse `json:"items"`
	Total int                `json:"total"`
}
