package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifier_Verify(t *testing.T) {
	v := NewVerifier("key_secret")

	mac := hmac.New(sha256.New, []byte("key_secret"))
	mac.Write([]byte("order_1|pay_1"))
	signature := hex.EncodeToString(mac.Sum(nil))

	assert.Equal(t, signature, v.Sign("order_1", "pay_1"))
	require.NoError(t, v.Verify("order_1", "pay_1", signature))
	require.NoError(t, v.Verify("order_1", "pay_1", strings.ToUpper(signature)))

	tests := []struct {
		name      string
		orderID   string
		paymentID string
		signature string
	}{
		{name: "swapped ids", orderID: "pay_1", paymentID: "order_1", signature: signature},
		{name: "other payment", orderID: "order_1", paymentID: "pay_2", signature: signature},
		{name: "not hex", orderID: "order_1", paymentID: "pay_1", signature: "zz"},
		{name: "empty", orderID: "order_1", paymentID: "pay_1", signature: ""},
		{name: "missing payment id", orderID: "order_1", paymentID: "", signature: signature},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, v.Verify(tt.orderID, tt.paymentID, tt.signature), ErrInvalidSignature)
		})
	}
}

func TestVerifier_NotConfigured(t *testing.T) {
	v := NewVerifier("  ")
	assert.ErrorIs(t, v.Verify("order_1", "pay_1", "00"), ErrNotConfigured)
}

func TestNewOrderID(t *testing.T) {
	a, b := NewOrderID(), NewOrderID()
	assert.True(t, strings.HasPrefix(a, "order_"))
	assert.Len(t, a, len("order_")+32)
	assert.NotEqual(t, a, b)
}
