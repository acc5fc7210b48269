package handler

import (
	"net/http"

	"dealership/internal/middleware"
	"dealership/internal/service"
	"dealership/pkg/apperror"

	"github.com/gin-gonic/gin"
)

// SessionCookies writes and clears the session cookie.
type SessionCookies interface {
	SetTokenCookie(c *gin.Context, token string)
	ClearTokenCookie(c *gin.Context)
}

type UserHandler struct {
	userService service.UserService
	cookies     SessionCookies
	guard       gin.HandlerFunc
}

// NewUserHandler sets up the routing dependencies for session endpoints
func NewUserHandler(userService service.UserService, cookies SessionCookies, guard gin.HandlerFunc) *UserHandler {
	return &UserHandler{userService: userService, cookies: cookies, guard: guard}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/login", h.Login)
	router.POST("/logout", h.Logout)
	router.GET("/me", h.guard, h.GetMe)
}

// Login authenticates a back-office user
// @Summary      Log in
// @Description  Sets an HttpOnly access_token cookie and returns the same token for Bearer use
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.LoginUserRequest  true  "Credentials"
// @Success      200      {object}  response.Response{data=service.TokenResponse}
// @Failure      401      {object}  response.Response
// @Router       /login [post]
func (h *UserHandler) Login(c *gin.Context) {
	var req service.LoginUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, err)
		return
	}

	res, err := h.userService.Login(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	h.cookies.SetTokenCookie(c, res.Token)
	ok(c, http.StatusOK, res)
}

// Logout clears the session cookie
// @Summary      Log out
// @Tags         auth
// @Success      200  {object}  response.Response
// @Router       /logout [post]
func (h *UserHandler) Logout(c *gin.Context) {
	h.cookies.ClearTokenCookie(c)
	ok(c, http.StatusOK, gin.H{"message": "Logged out"})
}

// GetMe returns the signed-in user
// @Summary      Current user
// @Tags         auth
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=service.UserResponse}
// @Router       /me [get]
func (h *UserHandler) GetMe(c *gin.Context) {
	session, found := middleware.SessionFrom(c.Request.Context())
	if !found {
		fail(c, apperror.New(apperror.CodeUnauthorized, "not signed in"))
		return
	}

	user, err := h.userService.GetByID(c.Request.Context(), session.UserID.String())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, user)
}
