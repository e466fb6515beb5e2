package handlers

import (
	"net/http"

	"social-service/internal/api/middleware"
	"social-service/internal/models"
	"social-service/internal/services"
	"social-service/pkg/response"

	"github.com/gin-gonic/gin"
)

type FriendHandler struct {
	friendService *services.FriendService
}

func NewFriendHandler(friendService *services.FriendService) *FriendHandler {
	return &FriendHandler{friendService: friendService}
}

// SendRequest godoc
// @Summary Send a friend request
// @Tags friends
// @Accept json
// @Produce json
// @Security CookieAuth
// @Param request body models.SendFriendRequestInput true "Target user"
// @Success 200 {object} models.FriendRequestEnvelope
// @Failure 400 {object} models.ErrorResponse "Missing/self target, already friends or already requested"
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse "Target user not found"
// @Router /request [post]
func (h *FriendHandler) SendRequest(c *gin.Context) {
	var input models.SendFriendRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Fail(c, http.StatusBadRequest, "Friend ID is required")
		return
	}

	req, err := h.friendService.SendFriendRequest(c.Request.Context(), middleware.CurrentUserID(c), input.FriendID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, models.FriendRequestEnvelope{
		Success: true,
		Message: "Friend request sent",
		Request: *req,
	})
}

// AcceptRequest godoc
// @Summary Accept a friend request
// @Tags friends
// @Accept json
// @Produce json
// @Security CookieAuth
// @Param request body models.AcceptFriendRequestInput true "Request to accept"
// @Success 200 {object} models.MessageResponse
// @Failure 400 {object} models.ErrorResponse "Missing id or request already processed"
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse "Request not found"
// @Router /accept [post]
func (h *FriendHandler) AcceptRequest(c *gin.Context) {
	var input models.AcceptFriendRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Fail(c, http.StatusBadRequest, "Request ID is required")
		return
	}

	if err := h.friendService.AcceptFriendRequest(c.Request.Context(), middleware.CurrentUserID(c), input.RequestID); err != nil {
		response.Error(c, err)
		return
	}

	response.Message(c, http.StatusOK, "Friend request accepted")
}

// Recommendations godoc
// @Summary Friend recommendations
// @Description Up to five users ranked by number of mutual friends
// @Tags friends
// @Produce json
// @Security CookieAuth
// @Success 200 {object} models.RecommendationsEnvelope
// @Failure 401 {object} models.ErrorResponse
// @Router /recommendations [get]
func (h *FriendHandler) Recommendations(c *gin.Context) {
	recs, err := h.friendService.GetFriendRecommendations(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, models.RecommendationsEnvelope{Success: true, Recommendations: recs})
}

// ListFriends godoc
// @Summary List friends
// @Tags friends
// @Produce json
// @Security CookieAuth
// @Success 200 {object} models.FriendsEnvelope
// @Failure 401 {object} models.ErrorResponse
// @Router /friends [get]
func (h *FriendHandler) ListFriends(c *gin.Context) {
	friends, err := h.friendService.ListFriends(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, models.FriendsEnvelope{Success: true, Friends: friends})
}

// ListRequests godoc
// @Summary List pending incoming friend requests
// @Tags friends
// @Produce json
// @Security CookieAuth
// @Success 200 {object} models.RequestsEnvelope
// @Failure 401 {object} models.ErrorResponse
// @Router /requests [get]
func (h *FriendHandler) ListRequests(c *gin.Context) {
	requests, err := h.friendService.ListPendingRequests(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, models.RequestsEnvelope{Success: true, Requests: requests})
}
