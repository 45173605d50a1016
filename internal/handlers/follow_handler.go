package handlers

import (
	"net/http"

	"curaconnect_backend/internal/auth"
	"curaconnect_backend/internal/middleware"
	"curaconnect_backend/internal/services"
	"curaconnect_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type FollowHandler struct {
	*BaseHandler
	followService services.FollowService
}

func NewFollowHandler(base *BaseHandler, followService services.FollowService) *FollowHandler {
	return &FollowHandler{
		BaseHandler:   base,
		followService: followService,
	}
}

func (h *FollowHandler) RegisterRoutes(r *gin.RouterGroup, authMW gin.HandlerFunc) {
	follows := r.Group("/follows")
	follows.Use(authMW, middleware.RequirePermission(auth.PermFollowsManage))
	{
		follows.POST("", h.Follow)
		follows.GET("/following", h.ListFollowing)
		follows.GET("/followers", h.ListFollowers)
		follows.GET("/:targetId", h.IsFollowing)
		follows.DELETE("/:targetId", h.Unfollow)
	}
}

// Follow: 201 для зарегистрированной цели, 202 если заявка ушла администраторам
func (h *FollowHandler) Follow(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.FollowRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	result, err := h.followService.Follow(h.GetDB(c), userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	if result.PendingReview {
		c.JSON(http.StatusAccepted, dto.PendingFollowResponse{
			Success:       true,
			PendingReview: true,
			FollowRequest: result.FollowRequest,
		})
		return
	}
	c.JSON(http.StatusCreated, dto.FollowResponse{Success: true, Follow: result.Follow})
}

func (h *FollowHandler) Unfollow(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	removed, err := h.followService.Unfollow(h.GetDB(c), userID, c.Param("targetId"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.UnfollowResponse{Success: true, Removed: removed})
}

func (h *FollowHandler) ListFollowing(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	follows, err := h.followService.ListFollowing(h.GetDB(c), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FollowListResponse{Success: true, Follows: follows, Total: len(follows)})
}

func (h *FollowHandler) ListFollowers(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	follows, err := h.followService.ListFollowers(h.GetDB(c), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FollowListResponse{Success: true, Follows: follows, Total: len(follows)})
}

func (h *FollowHandler) IsFollowing(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	following, err := h.followService.IsFollowing(h.GetDB(c), userID, c.Param("targetId"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FollowStatusResponse{Success: true, IsFollowing: following})
}
