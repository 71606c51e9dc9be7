package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fleet/internal/domain"
	"fleet/internal/service"
)

// UserHandler handles HTTP requests for the user registry.
type UserHandler struct {
	userService *service.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// RegisterUserRequest is the HTTP request for registering a user.
type RegisterUserRequest struct {
	Name           string `json:"name" binding:"required"`
	Role           string `json:"role"`
	ChannelAddress string `json:"channel_address"`
}

// UserResponse is the HTTP response for user operations.
type UserResponse struct {
	UserID         string `json:"user_id"`
	Name           string `json:"name"`
	Role           string `json:"role"`
	ChannelAddress string `json:"channel_address,omitempty"`
}

// Register handles POST /v1/users
func (h *UserHandler) Register(c *gin.Context) {
	var req RegisterUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	user, err := h.userService.RegisterUser(c.Request.Context(), service.RegisterUserRequest{
		Name:           req.Name,
		Role:           domain.Role(req.Role),
		ChannelAddress: req.ChannelAddress,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toUserResponse(user))
}

// Get handles GET /v1/users/:id
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.userService.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toUserResponse(user))
}

// GetAll handles GET /v1/users
func (h *UserHandler) GetAll(c *gin.Context) {
	users, err := h.userService.GetAllUsers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]UserResponse, 0, len(users))
	for _, user := range users {
		response = append(response, toUserResponse(user))
	}

	respondJSON(c, http.StatusOK, response)
}

func toUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		UserID:         user.ID,
		Name:           user.Name,
		Role:           string(user.Role),
		ChannelAddress: user.ChannelAddress,
	}
}
