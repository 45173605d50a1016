package handlers

import (
	"net/http"

	"curaconnect_backend/internal/auth"
	"curaconnect_backend/internal/middleware"
	"curaconnect_backend/internal/models"
	"curaconnect_backend/internal/services"
	"curaconnect_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type ConnectionHandler struct {
	*BaseHandler
	connectionService services.ConnectionService
}

func NewConnectionHandler(base *BaseHandler, connectionService services.ConnectionService) *ConnectionHandler {
	return &ConnectionHandler{
		BaseHandler:       base,
		connectionService: connectionService,
	}
}

// RegisterRoutes - связи доступны только исследователям
func (h *ConnectionHandler) RegisterRoutes(r *gin.RouterGroup, authMW gin.HandlerFunc) {
	connections := r.Group("/connections")
	connections.Use(authMW, middleware.RequirePermission(auth.PermConnectionsManage))
	{
		connections.POST("", h.RequestConnection)
		connections.GET("", h.ListConnections)
		connections.GET("/status/:userId", h.GetConnectionStatus)
		connections.PUT("/:connectionId", h.RespondToConnection)
	}
}

func (h *ConnectionHandler) RequestConnection(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.CreateConnectionRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	connection, err := h.connectionService.RequestConnection(h.GetDB(c), userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ConnectionResponse{Success: true, Connection: connection})
}

func (h *ConnectionHandler) RespondToConnection(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.RespondConnectionRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	connection, err := h.connectionService.RespondToConnection(h.GetDB(c), c.Param("connectionId"), userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ConnectionResponse{Success: true, Connection: connection})
}

func (h *ConnectionHandler) ListConnections(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var query dto.ListConnectionsQuery
	if !h.BindAndValidate_Query(c, &query) {
		return
	}

	connections, err := h.connectionService.ListConnections(h.GetDB(c), userID, models.ConnectionStatus(query.Status))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ConnectionListResponse{Success: true, Connections: connections})
}

func (h *ConnectionHandler) GetConnectionStatus(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	status, err := h.connectionService.GetConnectionStatus(h.GetDB(c), userID, c.Param("userId"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, status)
}
