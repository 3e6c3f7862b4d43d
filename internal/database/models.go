package database

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// User 表示系统中的账号信息。
type User struct {
	gorm.Model
	Username     string   `gorm:"uniqueIndex;size:64"`
	PasswordHash string   `gorm:"size:255"`
	Resumes      []Resume `gorm:"constraint:OnDelete:CASCADE"`
}

// Resume 保存向导填写的简历数据与样式配置。
type Resume struct {
	gorm.Model
	UserID           uint           `gorm:"index"`
	User             User           `gorm:"constraint:OnDelete:CASCADE"`
	TemplateID       string         `gorm:"size:64"`
	Content          datatypes.JSON `gorm:"type:jsonb"`
	Style            datatypes.JSON `gorm:"type:jsonb"`
	PreviewObjectKey string         `gorm:"size:512"`
}

// Order statuses.
const (
	OrderCreated = "created"
	OrderPaid    = "paid"
)

// PaymentOrder 记录一次解锁导出的支付订单。
type PaymentOrder struct {
	gorm.Model
	OrderID     string `gorm:"uniqueIndex;size:64"`
	UserID      uint   `gorm:"index"`
	User        User   `gorm:"constraint:OnDelete:CASCADE"`
	AmountMinor int64
	Currency    string `gorm:"size:8"`
	Status      string `gorm:"size:32;index"`
	PaymentID   string `gorm:"size:128"`
	PaidAt      *time.Time
}

// AutoMigrate creates or updates the tables used by the service.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&User{}, &Resume{}, &PaymentOrder{})
}
