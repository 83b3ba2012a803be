package handler

import (
	"net/http"

	"ppda-backend/internal/middleware"
	"ppda-backend/internal/service"
	"ppda-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService service.UserService
}

// NewUserHandler sets up the routing dependencies for user endpoints
func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	// Public routes
	router.POST("/api/register", h.Register)
	router.POST("/api/login", h.Login)
	router.POST("/api/refresh", h.RefreshToken)
	router.POST("/api/logout", h.Logout)

	// Temp route for admin creation
	router.POST("/temp-admin", h.CreateTempAdmin)

	router.GET("/api/me", middleware.RequireAuthenticated(), h.GetMe)

	// Admin account management
	users := router.Group("/api/users")
	{
		users.GET("", middleware.RequireAdmin(), h.ListUsers)
		users.PUT("/:id/approve", middleware.RequireAdmin(), h.ApproveUser)
		users.PUT("/:id/deactivate", middleware.RequireAdmin(), h.DeactivateUser)
	}
}

// Register handles POST /api/register
// @Summary      Register a new account
// @Description  Creates an unapproved account. An administrator must approve it before the user can log in.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.RegisterRequest  true  "Registration payload"
// @Success      201      {object}  response.Response{data=service.UserResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/register [post]
func (h *UserHandler) Register(c *gin.Context) {
	var req service.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error("Invalid request payload"))
		return
	}

	user, err := h.userService.Register(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(user))
}

// Login handles POST /api/login
// @Summary      Login
// @Description  Authenticates by email and password. Tokens are returned in the body and set as HttpOnly cookies.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.LoginRequest  true  "Login credentials"
// @Success      200      {object}  response.Response{data=service.LoginResult}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /api/login [post]
func (h *UserHandler) Login(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error("Invalid request payload"))
		return
	}

	result, err := h.userService.Login(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, err)
		return
	}

	middleware.SetTokenCookies(c, result.AccessToken, result.RefreshToken)
	c.JSON(http.StatusOK, response.Success(result))
}

// RefreshToken handles POST /api/refresh
// @Summary      Refresh token
// @Description  Rotates the refresh token and issues a new access token
// @Tags         auth
// @Produce      json
// @Success      200  {object}  response.Response{data=service.LoginResult}
// @Failure      403  {object}  response.Response
// @Router       /api/refresh [post]
func (h *UserHandler) RefreshToken(c *gin.Context) {
	refreshToken := h.refreshTokenFrom(c)
	result, err := h.userService.Refresh(c.Request.Context(), refreshToken)
	if err != nil {
		middleware.ClearTokenCookies(c)
		abortWithError(c, err)
		return
	}

	middleware.SetTokenCookies(c, result.AccessToken, result.RefreshToken)
	c.JSON(http.StatusOK, response.Success(result))
}

// Logout handles POST /api/logout
// @Summary      Logout
// @Description  Revokes the refresh token and clears auth cookies
// @Tags         auth
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /api/logout [post]
func (h *UserHandler) Logout(c *gin.Context) {
	refreshToken := h.refreshTokenFrom(c)
	if err := h.userService.Logout(c.Request.Context(), refreshToken); err != nil {
		abortWithError(c, err)
		return
	}

	middleware.ClearTokenCookies(c)
	c.JSON(http.StatusOK, response.Message("Logged out"))
}

// GetMe handles GET /api/me
// @Summary      Get current user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.UserResponse}
// @Failure      401  {object}  response.Response
// @Router       /api/me [get]
func (h *UserHandler) GetMe(c *gin.Context) {
	user, err := h.userService.Me(c.Request.Context(), callerID(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(user))
}

// CreateTempAdmin handles POST /temp-admin
// @Summary      Create temporary admin
// @Description  Creates an administrator account without authentication. FOR DEVELOPMENT ONLY.
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        payload  body      service.RegisterRequest  true  "Admin payload"
// @Success      201      {object}  response.Response{data=service.UserResponse}
// @Failure      400      {object}  response.Response
// @Router       /temp-admin [post]
func (h *UserHandler) CreateTempAdmin(c *gin.Context) {
	var req service.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error("Invalid request payload"))
		return
	}

	user, err := h.userService.CreateAdmin(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(user))
}

// ListUsers handles GET /api/users
// @Summary      List users
// @Description  Returns regular accounts grouped into approved and pending
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.UserListResponse}
// @Router       /api/users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.userService.ListUsers(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(users))
}

// ApproveUser handles PUT /api/users/:id/approve
// @Summary      Approve user account
// @Description  Marks the account approved so it can log in. The response carries a warning when the notification could not be delivered.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/users/{id}/approve [put]
func (h *UserHandler) ApproveUser(c *gin.Context) {
	warning, err := h.userService.ApproveUser(c.Request.Context(), callerID(c), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	if warning != "" {
		c.JSON(http.StatusOK, response.MessageWithWarning("User approved", warning))
		return
	}
	c.JSON(http.StatusOK, response.Message("User approved"))
}

// DeactivateUser handles PUT /api/users/:id/deactivate
// @Summary      Deactivate user account
// @Description  Revokes approval and active sessions for the account
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/users/{id}/deactivate [put]
func (h *UserHandler) DeactivateUser(c *gin.Context) {
	if err := h.userService.DeactivateUser(c.Request.Context(), callerID(c), c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Message("User deactivated"))
}

// refreshTokenFrom reads the refresh token from the cookie, falling back to a
// JSON body for clients that do not use cookies.
func (h *UserHandler) refreshTokenFrom(c *gin.Context) string {
	if token, err := c.Cookie("refresh_token"); err == nil && token != "" {
		return token
	}
	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		return ""
	}
	return body.RefreshToken
}
