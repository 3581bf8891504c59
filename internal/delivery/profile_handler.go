package delivery

import (
	"net/http"

	"storefront/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type ProfileHandler struct {
	session usecase.SessionUseCase
	orders  usecase.OrderUseCase
	log     *logrus.Logger
}

func NewProfileHandler(session usecase.SessionUseCase, orders usecase.OrderUseCase, logger *logrus.Logger) *ProfileHandler {
	return &ProfileHandler{
		session: session,
		orders:  orders,
		log:     logger,
	}
}

func (h *ProfileHandler) RegisterRoutes(router gin.IRouter) {
	router.GET("/profile", h.GetProfile)
	router.GET("/orders", h.ListOrders)
}

// GetProfile refreshes the cached profile from the store API on every call.
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	profile, err := h.session.FetchCurrentProfile(c.Request.Context())
	if err != nil {
		h.log.WithField("handler", "GetProfile").Warnf("Failed to fetch profile: %v", err)
		respondError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Profile retrieved successfully", profile)
}

func (h *ProfileHandler) ListOrders(c *gin.Context) {
	orders, err := h.orders.ListOrders(c.Request.Context())
	if err != nil {
		h.log.WithField("handler", "ListOrders").Warnf("Failed to list orders: %v", err)
		respondError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Orders retrieved successfully", orders)
}
