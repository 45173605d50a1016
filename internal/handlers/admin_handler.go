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

// AdminHandler - только чтение: разбор заявок живет во внешнем инструменте
type AdminHandler struct {
	*BaseHandler
	followService services.FollowService
}

func NewAdminHandler(base *BaseHandler, followService services.FollowService) *AdminHandler {
	return &AdminHandler{
		BaseHandler:   base,
		followService: followService,
	}
}

func (h *AdminHandler) RegisterRoutes(r *gin.RouterGroup, authMW gin.HandlerFunc) {
	admin := r.Group("/admin")
	admin.Use(authMW, middleware.RoleMiddleware(models.UserRoleAdmin))
	{
		admin.GET("/follow-requests", middleware.RequirePermission(auth.PermFollowRequestsReview), h.ListFollowRequests)
	}
}

func (h *AdminHandler) ListFollowRequests(c *gin.Context) {
	var query dto.FollowRequestsQuery
	if !h.BindAndValidate_Query(c, &query) {
		return
	}
	page, pageSize := ParsePagination(c)

	resp, err := h.followService.ListFollowRequests(h.GetDB(c), models.FollowRequestStatus(query.Status), page, pageSize)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
