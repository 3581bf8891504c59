package delivery

import (
	"net/http"
	"strconv"

	"storefront/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type CartHandler struct {
	useCase usecase.CartUseCase
	log     *logrus.Logger
}

func NewCartHandler(uc usecase.CartUseCase, logger *logrus.Logger) *CartHandler {
	return &CartHandler{
		useCase: uc,
		log:     logger,
	}
}

// RegisterRoutes expects router to already require an authenticated session.
func (h *CartHandler) RegisterRoutes(router gin.IRouter) {
	cart := router.Group("/cart")
	{
		cart.GET("", h.GetCart)
		cart.DELETE("", h.ClearCart)
		cart.POST("/items", h.AddItem)
		cart.PATCH("/items/:id", h.UpdateItem)
		cart.DELETE("/items/:id", h.RemoveItem)
	}
}

type AddItemRequest struct {
	ProductID int `json:"product_id" binding:"required,gt=0"`
}

type UpdateItemRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

func (h *CartHandler) GetCart(c *gin.Context) {
	SuccessResponse(c, http.StatusOK, "Cart retrieved successfully", h.useCase.Summary())
}

func (h *CartHandler) AddItem(c *gin.Context) {
	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.WithField("handler", "AddItem").Warnf("Failed to bind add item request: %v", err)
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if err := h.useCase.AddOrIncrement(c.Request.Context(), req.ProductID); err != nil {
		respondError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Product added to cart", h.useCase.Summary())
}

func (h *CartHandler) UpdateItem(c *gin.Context) {
	id, ok := productIDParam(c)
	if !ok {
		return
	}
	var req UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.WithField("handler", "UpdateItem").Warnf("Failed to bind update item request: %v", err)
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if err := h.useCase.SetQuantity(c.Request.Context(), id, *req.Quantity); err != nil {
		respondError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Cart updated", h.useCase.Summary())
}

func (h *CartHandler) RemoveItem(c *gin.Context) {
	id, ok := productIDParam(c)
	if !ok {
		return
	}
	h.useCase.Remove(c.Request.Context(), id)
	SuccessResponse(c, http.StatusOK, "Product removed from cart", h.useCase.Summary())
}

func (h *CartHandler) ClearCart(c *gin.Context) {
	h.useCase.Clear(c.Request.Context())
	SuccessResponse(c, http.StatusOK, "Cart cleared", h.useCase.Summary())
}

func productIDParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		ErrorResponse(c, http.StatusBadRequest, "Invalid product ID")
		return 0, false
	}
	return id, true
}
