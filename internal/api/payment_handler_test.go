package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resumeStudio/internal/auth"
	"resumeStudio/internal/database"
	"resumeStudio/internal/errcode"
	"resumeStudio/internal/payment"
)

func newPaymentRouter(session *auth.Session, store *fakePaymentStore, secret string) *gin.Engine {
	h := NewPaymentHandler(store, payment.NewVerifier(secret), 9900, "INR")
	r := gin.New()
	g := r.Group("/v1/payments", withSession(session))
	g.POST("/order", h.CreateOrder)
	g.POST("/verify", h.VerifyPayment)
	return r
}

func TestCreateOrder(t *testing.T) {
	store := &fakePaymentStore{}
	r := newPaymentRouter(ada, store, "key")

	w := doJSON(t, r, http.MethodPost, "/v1/payments/order", nil)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp orderResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, strings.HasPrefix(resp.OrderID, "order_"))
	assert.Equal(t, int64(9900), resp.AmountMinor)
	assert.Equal(t, "INR", resp.Currency)

	require.Len(t, store.orders, 1)
	assert.Equal(t, uint(1), store.orders[0].UserID)
	assert.Equal(t, database.OrderCreated, store.orders[0].Status)
}

func TestVerifyPayment(t *testing.T) {
	verifier := payment.NewVerifier("key")

	t.Run("valid signature unlocks", func(t *testing.T) {
		store := &fakePaymentStore{}
		r := newPaymentRouter(ada, store, "key")

		w := doJSON(t, r, http.MethodPost, "/v1/payments/verify", gin.H{
			"orderId":   "order_1",
			"paymentId": "pay_1",
			"signature": verifier.Sign("order_1", "pay_1"),
		})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, []string{"order_1"}, store.marked)
		assert.True(t, store.paid)
	})

	t.Run("tampered signature rejected", func(t *testing.T) {
		store := &fakePaymentStore{}
		r := newPaymentRouter(ada, store, "key")

		w := doJSON(t, r, http.MethodPost, "/v1/payments/verify", gin.H{
			"orderId":   "order_1",
			"paymentId": "pay_2",
			"signature": verifier.Sign("order_1", "pay_1"),
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, errcode.InvalidRequest, decodeError(t, w).Error)
		assert.Empty(t, store.marked)
	})

	t.Run("unknown order", func(t *testing.T) {
		store := &fakePaymentStore{markErr: database.ErrOrderNotFound}
		r := newPaymentRouter(ada, store, "key")

		w := doJSON(t, r, http.MethodPost, "/v1/payments/verify", gin.H{
			"orderId":   "order_9",
			"paymentId": "pay_9",
			"signature": verifier.Sign("order_9", "pay_9"),
		})

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("missing fields", func(t *testing.T) {
		r := newPaymentRouter(ada, &fakePaymentStore{}, "key")
		w := doJSON(t, r, http.MethodPost, "/v1/payments/verify", gin.H{"orderId": "order_1"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("not configured", func(t *testing.T) {
		r := newPaymentRouter(ada, &fakePaymentStore{}, "")
		w := doJSON(t, r, http.MethodPost, "/v1/payments/verify", gin.H{
			"orderId":   "order_1",
			"paymentId": "pay_1",
			"signature": "00",
		})
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
