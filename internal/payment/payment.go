// Package payment 负责支付订单号生成与网关回调签名校验。
package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrInvalidSignature 回调签名与本地计算结果不一致。
	ErrInvalidSignature = errors.New("payment: invalid signature")
	// ErrNotConfigured means no key secret is set, so nothing can be verified.
	ErrNotConfigured = errors.New("payment: key secret not configured")
)

// Verifier checks gateway signatures of the form hex(HMAC-SHA256(orderId|paymentId)).
type Verifier struct {
	secret []byte
}

func NewVerifier(keySecret string) *Verifier {
	return &Verifier{secret: []byte(strings.TrimSpace(keySecret))}
}

// Sign computes the expected signature.
func (v *Verifier) Sign(orderID, paymentID string) string {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify 以常量时间比较签名。
func (v *Verifier) Verify(orderID, paymentID, signature string) error {
	if len(v.secret) == 0 {
		return ErrNotConfigured
	}
	if orderID == "" || paymentID == "" {
		return ErrInvalidSignature
	}
	got, err := hex.DecodeString(strings.ToLower(strings.TrimSpace(signature)))
	if err != nil {
		return ErrInvalidSignature
	}
	want, _ := hex.DecodeString(v.Sign(orderID, paymentID))
	if !hmac.Equal(got, want) {
		return ErrInvalidSignature
	}
	return nil
}

// NewOrderID returns a gateway-style order id.
func NewOrderID() string {
	return "order_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}
