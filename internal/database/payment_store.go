package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// ErrOrderNotFound 订单不存在或不属于该用户。
var ErrOrderNotFound = errors.New("order not found")

// PaymentStore persists payment orders.
type PaymentStore struct {
	db *gorm.DB
}

func NewPaymentStore(db *gorm.DB) *PaymentStore {
	return &PaymentStore{db: db}
}

// CreateOrder inserts a new order in the created state.
func (s *PaymentStore) CreateOrder(ctx context.Context, order *PaymentOrder) error {
	if order.Status == "" {
		order.Status = OrderCreated
	}
	if err := s.db.WithContext(ctx).Create(order).Error; err != nil {
		return fmt.Errorf("create order: %w", err)
	}
	return nil
}

// MarkPaid 将订单标记为已支付；重复确认同一笔支付是幂等的。
func (s *PaymentStore) MarkPaid(ctx context.Context, userID uint, orderID, paymentID string, paidAt time.Time) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order PaymentOrder
		err := tx.Where("order_id = ? AND user_id = ?", orderID, userID).First(&order).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOrderNotFound
		}
		if err != nil {
			return fmt.Errorf("query order: %w", err)
		}
		if order.Status == OrderPaid {
			return nil
		}

		return tx.Model(&order).Updates(map[string]any{
			"status":     OrderPaid,
			"payment_id": paymentID,
			"paid_at":    paidAt,
		}).Error
	})
}

// HasPaid reports whether the user has at least one paid order.
func (s *PaymentStore) HasPaid(ctx context.Context, userID uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&PaymentOrder{}).
		Where("user_id = ? AND status = ?", userID, OrderPaid).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("count paid orders: %w", err)
	}
	return count > 0, nil
}
