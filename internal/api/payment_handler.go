package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"resumeStudio/internal/api/middleware"
	"resumeStudio/internal/database"
	"resumeStudio/internal/payment"
)

// PaymentHandler 创建订单并校验支付回调签名，校验通过后解锁导出。
type PaymentHandler struct {
	store       paymentStore
	verifier    *payment.Verifier
	amountMinor int64
	currency    string
	now         func() time.Time
}

func NewPaymentHandler(store paymentStore, verifier *payment.Verifier, amountMinor int64, currency string) *PaymentHandler {
	return &PaymentHandler{
		store:       store,
		verifier:    verifier,
		amountMinor: amountMinor,
		currency:    currency,
		now:         time.Now,
	}
}

type orderResponse struct {
	OrderID     string `json:"orderId"`
	AmountMinor int64  `json:"amount"`
	Currency    string `json:"currency"`
}

// CreateOrder POST /v1/payments/order
func (h *PaymentHandler) CreateOrder(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	order := &database.PaymentOrder{
		OrderID:     payment.NewOrderID(),
		UserID:      userID,
		AmountMinor: h.amountMinor,
		Currency:    h.currency,
		Status:      database.OrderCreated,
	}
	if err := h.store.CreateOrder(c.Request.Context(), order); err != nil {
		middleware.LoggerFromContext(c).Error("create order failed", slog.Any("error", err))
		Internal(c, "failed to create order")
		return
	}

	c.JSON(http.StatusCreated, orderResponse{
		OrderID:     order.OrderID,
		AmountMinor: order.AmountMinor,
		Currency:    order.Currency,
	})
}

type verifyRequest struct {
	OrderID   string `json:"orderId" binding:"required"`
	PaymentID string `json:"paymentId" binding:"required"`
	Signature string `json:"signature" binding:"required"`
}

// VerifyPayment POST /v1/payments/verify
func (h *PaymentHandler) VerifyPayment(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	log := middleware.LoggerFromContext(c).With(
		slog.Uint64("user_id", uint64(userID)),
		slog.String("order_id", req.OrderID),
	)

	if err := h.verifier.Verify(req.OrderID, req.PaymentID, req.Signature); err != nil {
		if errors.Is(err, payment.ErrNotConfigured) {
			log.Error("payment verification not configured")
			Internal(c, "payments are not configured")
			return
		}
		log.Info("payment signature rejected")
		BadRequest(c, "invalid payment signature")
		return
	}

	if err := h.store.MarkPaid(c.Request.Context(), userID, req.OrderID, req.PaymentID, h.now()); err != nil {
		if errors.Is(err, database.ErrOrderNotFound) {
			NotFound(c, "order not found")
			return
		}
		log.Error("mark order paid failed", slog.Any("error", err))
		Internal(c, "failed to record payment")
		return
	}

	log.Info("payment verified")
	c.JSON(http.StatusOK, gin.H{"paid": true})
}
