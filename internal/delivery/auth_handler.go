package delivery

import (
	"net/http"

	"storefront/internal/domain"
	"storefront/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type AuthHandler struct {
	auth    usecase.AuthUseCase
	session usecase.SessionUseCase
	log     *logrus.Logger
}

func NewAuthHandler(auth usecase.AuthUseCase, session usecase.SessionUseCase, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{
		auth:    auth,
		session: session,
		log:     logger,
	}
}

func (h *AuthHandler) RegisterRoutes(router gin.IRouter) {
	auth := router.Group("/auth")
	{
		auth.POST("/login", h.Login)
		auth.POST("/register", h.Register)
		auth.POST("/logout", h.Logout)
		auth.GET("/session", h.Session)
	}
}

func (h *AuthHandler) Login(c *gin.Context) {
	handlerLogger := h.log.WithField("handler", "Login")
	var req domain.Credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		handlerLogger.Warnf("Failed to bind login request: %v", err)
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if err := h.auth.Login(c.Request.Context(), req); err != nil {
		respondError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Logged in successfully", h.session.Info())
}

func (h *AuthHandler) Register(c *gin.Context) {
	handlerLogger := h.log.WithField("handler", "Register")
	var req domain.RegistrationForm
	if err := c.ShouldBindJSON(&req); err != nil {
		handlerLogger.Warnf("Failed to bind register request: %v", err)
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if err := h.auth.Register(c.Request.Context(), req); err != nil {
		respondError(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "Account created successfully", h.session.Info())
}

func (h *AuthHandler) Logout(c *gin.Context) {
	h.auth.Logout(c.Request.Context())
	SuccessResponse(c, http.StatusOK, "Logged out successfully", h.session.Info())
}

func (h *AuthHandler) Session(c *gin.Context) {
	SuccessResponse(c, http.StatusOK, "Session state", h.session.Info())
}
