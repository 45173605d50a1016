package dto

import (
	"curaconnect_backend/internal/models"
)

// ---------------- Requests ----------------

type CreateConnectionRequest struct {
	TargetUserID string `json:"targetUserId" validate:"required"`
}

type RespondConnectionRequest struct {
	Action string `json:"action" validate:"required,is-connection-action"`
}

type ListConnectionsQuery struct {
	Status string `form:"status" json:"status" validate:"omitempty,oneof=pending accepted"`
}

// ---------------- Responses ----------------

type ConnectionResponse struct {
	Success    bool               `json:"success"`
	Connection *models.Connection `json:"connection"`
}

type ConnectionListResponse struct {
	Success     bool                `json:"success"`
	Connections []models.Connection `json:"connections"`
}

// ConnectionStatusResponse - состояние связи между вызывающим и другим пользователем.
// Direction: "outgoing" - запрос отправил вызывающий, "incoming" - ему.
type ConnectionStatusResponse struct {
	Success      bool   `json:"success"`
	Status       string `json:"status"`
	Direction    string `json:"direction,omitempty"`
	ConnectionID string `json:"connectionId,omitempty"`
}

const (
	ConnectionStateNone = "none"

	ConnectionDirectionOutgoing = "outgoing"
	ConnectionDirectionIncoming = "incoming"
)
