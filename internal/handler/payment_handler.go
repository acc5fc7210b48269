package handler

import (
	"net/http"

	"dealership/internal/service"
	"dealership/pkg/pagination"

	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	paymentService service.PaymentService
	guard          gin.HandlerFunc
}

func NewPaymentHandler(paymentService service.PaymentService, guard gin.HandlerFunc) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService, guard: guard}
}

func (h *PaymentHandler) RegisterRoutes(router *gin.RouterGroup) {
	payments := router.Group("/payments")
	{
		payments.POST("", h.Submit)
		payments.POST("/verify", h.Submit)

		payments.GET("", h.guard, h.List)
		payments.GET("/application/:id", h.guard, h.ListByApplication)
		payments.GET("/:id", h.guard, h.Get)
		payments.PATCH("/:id", h.guard, h.Review)
	}
}

// Submit records UPI transaction details for an application in PAYMENT_PENDING
// @Summary      Submit payment details
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        request  body  service.SubmitPaymentRequest  true  "Payment details"
// @Success      201  {object}  response.Response{data=model.Payment}
// @Failure      400  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /payments [post]
func (h *PaymentHandler) Submit(c *gin.Context) {
	var req service.SubmitPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, err)
		return
	}

	payment, err := h.paymentService.Submit(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusCreated, payment)
}

// @Summary      List payments
// @Tags         payments
// @Security     BearerAuth
// @Produce      json
// @Param        status  query  string  false  "pending, completed or failed"
// @Success      200  {object}  response.Response{data=pagination.Page}
// @Router       /payments [get]
func (h *PaymentHandler) List(c *gin.Context) {
	params := pagination.Parse(c)
	payments, total, err := h.paymentService.List(c.Request.Context(), service.PaymentFilter{Status: c.Query("status"), Params: params})
	if err != nil {
		fail(c, err)
		return
	}
	page(c, http.StatusOK, params, payments, total)
}

func (h *PaymentHandler) ListByApplication(c *gin.Context) {
	payments, err := h.paymentService.ListByApplication(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, payments)
}

func (h *PaymentHandler) Get(c *gin.Context) {
	payment, err := h.paymentService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, payment)
}

// Review marks a pending payment completed or failed
// @Summary      Review a payment
// @Tags         payments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                        true  "Payment ID"
// @Param        request  body  service.ReviewPaymentRequest  true  "Decision"
// @Success      200  {object}  response.Response{data=model.Payment}
// @Router       /payments/{id} [patch]
func (h *PaymentHandler) Review(c *gin.Context) {
	var req service.ReviewPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, err)
		return
	}

	payment, err := h.paymentService.Review(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, payment)
}
