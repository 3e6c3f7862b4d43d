package database

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"resumeStudio/internal/resume"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, name string) User {
	t.Helper()
	user := User{Username: name, PasswordHash: "x"}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func sampleRecord(name string) ResumeRecord {
	return ResumeRecord{
		TemplateID: resume.TemplateExecutivePro,
		Document: resume.Document{
			Personal: resume.Personal{FirstName: name},
			Skills:   []string{"Math"},
		},
		Style: resume.StyleConfig{ShowPhoto: true},
	}
}

func TestResumeStore_GetLatestNotFound(t *testing.T) {
	store := NewResumeStore(newTestDB(t))

	_, err := store.GetLatest(context.Background(), 1)
	assert.ErrorIs(t, err, ErrResumeNotFound)
}

func TestResumeStore_UpsertInsertsThenUpdates(t *testing.T) {
	db := newTestDB(t)
	store := NewResumeStore(db)
	ctx := context.Background()
	user := seedUser(t, db, "ada")

	first, err := store.Upsert(ctx, user.ID, sampleRecord("Ada"))
	require.NoError(t, err)
	assert.NotZero(t, first.ID)

	second, err := store.Upsert(ctx, user.ID, sampleRecord("Augusta"))
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, db.Model(&Resume{}).Where("user_id = ?", user.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	latest, err := store.GetLatest(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Augusta", latest.Document.Personal.FirstName)
	assert.Equal(t, resume.TemplateExecutivePro, latest.TemplateID)
	assert.True(t, latest.Style.ShowPhoto)
	assert.Equal(t, resume.DefaultStyle().Colors.Primary, latest.Style.Colors.Primary)
}

func TestResumeStore_UpsertTargetsMostRecentlyUpdated(t *testing.T) {
	db := newTestDB(t)
	store := NewResumeStore(db)
	ctx := context.Background()
	user := seedUser(t, db, "ada")

	older := Resume{UserID: user.ID, TemplateID: "modern-minimal", Content: []byte(`{"personal":{"firstName":"Old"}}`)}
	newer := Resume{UserID: user.ID, TemplateID: "modern-minimal", Content: []byte(`{"personal":{"firstName":"New"}}`)}
	require.NoError(t, db.Create(&older).Error)
	require.NoError(t, db.Create(&newer).Error)
	require.NoError(t, db.Model(&older).UpdateColumn("updated_at", time.Now().Add(time.Hour)).Error)

	latest, err := store.GetLatest(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, older.ID, latest.ID)

	saved, err := store.Upsert(ctx, user.ID, sampleRecord("Updated"))
	require.NoError(t, err)
	assert.Equal(t, older.ID, saved.ID)

	var untouched Resume
	require.NoError(t, db.First(&untouched, newer.ID).Error)
	assert.JSONEq(t, `{"personal":{"firstName":"New"}}`, string(untouched.Content))
}

func TestResumeStore_IsolatesUsers(t *testing.T) {
	db := newTestDB(t)
	store := NewResumeStore(db)
	ctx := context.Background()
	ada := seedUser(t, db, "ada")
	bob := seedUser(t, db, "bob")

	_, err := store.Upsert(ctx, ada.ID, sampleRecord("Ada"))
	require.NoError(t, err)

	_, err = store.GetLatest(ctx, bob.ID)
	assert.ErrorIs(t, err, ErrResumeNotFound)
}

func TestResumeStore_DecodeDefaults(t *testing.T) {
	db := newTestDB(t)
	store := NewResumeStore(db)
	user := seedUser(t, db, "ada")

	row := Resume{UserID: user.ID}
	require.NoError(t, db.Create(&row).Error)

	rec, err := store.GetByID(context.Background(), row.ID)
	require.NoError(t, err)
	assert.Equal(t, resume.DefaultTemplate, rec.TemplateID)
	assert.Equal(t, resume.DefaultStyle(), rec.Style)

	_, err = store.GetByID(context.Background(), row.ID+100)
	assert.ErrorIs(t, err, ErrResumeNotFound)
}

func TestResumeStore_SetPreviewKey(t *testing.T) {
	db := newTestDB(t)
	store := NewResumeStore(db)
	ctx := context.Background()
	user := seedUser(t, db, "ada")

	saved, err := store.Upsert(ctx, user.ID, sampleRecord("Ada"))
	require.NoError(t, err)

	require.NoError(t, store.SetPreviewKey(ctx, saved.ID, "thumbnails/resume/1/preview.png"))
	rec, err := store.GetByID(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "thumbnails/resume/1/preview.png", rec.PreviewObjectKey)
	assert.True(t, rec.UpdatedAt.Equal(saved.UpdatedAt))

	assert.ErrorIs(t, store.SetPreviewKey(ctx, saved.ID+100, "x"), ErrResumeNotFound)
}

func TestPaymentStore(t *testing.T) {
	db := newTestDB(t)
	store := NewPaymentStore(db)
	ctx := context.Background()
	user := seedUser(t, db, "ada")

	paid, err := store.HasPaid(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, paid)

	order := &PaymentOrder{OrderID: "order_1", UserID: user.ID, AmountMinor: 9900, Currency: "INR"}
	require.NoError(t, store.CreateOrder(ctx, order))
	assert.Equal(t, OrderCreated, order.Status)

	assert.ErrorIs(t, store.MarkPaid(ctx, user.ID+1, "order_1", "pay_1", time.Now()), ErrOrderNotFound)
	require.NoError(t, store.MarkPaid(ctx, user.ID, "order_1", "pay_1", time.Now()))
	require.NoError(t, store.MarkPaid(ctx, user.ID, "order_1", "pay_other", time.Now()))

	var saved PaymentOrder
	require.NoError(t, db.Where("order_id = ?", "order_1").First(&saved).Error)
	assert.Equal(t, OrderPaid, saved.Status)
	assert.Equal(t, "pay_1", saved.PaymentID)
	require.NotNil(t, saved.PaidAt)

	paid, err = store.HasPaid(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, paid)
}

func TestPing(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, Ping(context.Background(), db))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())
	assert.Error(t, Ping(context.Background(), db))
}

func TestUserStore(t *testing.T) {
	store := NewUserStore(newTestDB(t))
	ctx := context.Background()

	user, err := store.Create(ctx, "ada", "hash-1")
	require.NoError(t, err)
	assert.NotZero(t, user.ID)

	_, err = store.Create(ctx, "ada", "hash-2")
	assert.ErrorIs(t, err, ErrUsernameTaken)

	found, err := store.FindByUsername(ctx, "ada")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	require.NoError(t, store.SetPassword(ctx, user.ID, "hash-3"))
	found, err = store.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "hash-3", found.PasswordHash)

	_, err = store.FindByUsername(ctx, "grace")
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.ErrorIs(t, store.SetPassword(ctx, 999, "x"), ErrUserNotFound)
}
