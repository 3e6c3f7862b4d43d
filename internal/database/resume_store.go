package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"resumeStudio/internal/resume"
)

// ErrResumeNotFound 表示用户尚未保存任何简历。
var ErrResumeNotFound = errors.New("resume not found")

// ResumeRecord is the decoded form of a Resume row.
type ResumeRecord struct {
	ID               uint               `json:"id"`
	UserID           uint               `json:"-"`
	TemplateID       resume.TemplateID  `json:"templateId"`
	Document         resume.Document    `json:"resumeData"`
	Style            resume.StyleConfig `json:"styleConfig"`
	PreviewObjectKey string             `json:"-"`
	UpdatedAt        time.Time          `json:"updatedAt"`
}

// ResumeStore 是简历的持久化网关。
type ResumeStore struct {
	db *gorm.DB
}

// NewResumeStore wraps a gorm handle.
func NewResumeStore(db *gorm.DB) *ResumeStore {
	return &ResumeStore{db: db}
}

// GetLatest 返回用户最近更新的一份简历。
func (s *ResumeStore) GetLatest(ctx context.Context, userID uint) (*ResumeRecord, error) {
	var row Resume
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at desc").
		Order("id desc").
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrResumeNotFound
		}
		return nil, fmt.Errorf("query latest resume: %w", err)
	}
	return decodeResume(row)
}

// GetByID loads one resume regardless of owner; used by the preview worker.
func (s *ResumeStore) GetByID(ctx context.Context, id uint) (*ResumeRecord, error) {
	var row Resume
	if err := s.db.WithContext(ctx).First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrResumeNotFound
		}
		return nil, fmt.Errorf("query resume %d: %w", id, err)
	}
	return decodeResume(row)
}

// Upsert 更新用户最近更新的那份简历；若不存在则新建。
func (s *ResumeStore) Upsert(ctx context.Context, userID uint, rec ResumeRecord) (*ResumeRecord, error) {
	content, err := json.Marshal(rec.Document)
	if err != nil {
		return nil, fmt.Errorf("encode resume content: %w", err)
	}
	style, err := json.Marshal(rec.Style)
	if err != nil {
		return nil, fmt.Errorf("encode style config: %w", err)
	}

	var saved Resume
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row Resume
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", userID).
			Order("updated_at desc").
			Order("id desc").
			First(&row).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			row = Resume{
				UserID:     userID,
				TemplateID: string(rec.TemplateID),
				Content:    datatypes.JSON(content),
				Style:      datatypes.JSON(style),
			}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("insert resume: %w", err)
			}
		case err != nil:
			return fmt.Errorf("lock latest resume: %w", err)
		default:
			row.TemplateID = string(rec.TemplateID)
			row.Content = datatypes.JSON(content)
			row.Style = datatypes.JSON(style)
			if err := tx.Save(&row).Error; err != nil {
				return fmt.Errorf("update resume %d: %w", row.ID, err)
			}
		}
		saved = row
		return nil
	})
	if err != nil {
		return nil, err
	}
	return decodeResume(saved)
}

// SetPreviewKey records where the rendered thumbnail lives without touching updated_at.
func (s *ResumeStore) SetPreviewKey(ctx context.Context, resumeID uint, key string) error {
	res := s.db.WithContext(ctx).Model(&Resume{}).
		Where("id = ?", resumeID).
		UpdateColumn("preview_object_key", key)
	if res.Error != nil {
		return fmt.Errorf("update preview key: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrResumeNotFound
	}
	return nil
}

func decodeResume(row Resume) (*ResumeRecord, error) {
	rec := &ResumeRecord{
		ID:               row.ID,
		UserID:           row.UserID,
		TemplateID:       resume.TemplateID(row.TemplateID),
		PreviewObjectKey: row.PreviewObjectKey,
		UpdatedAt:        row.UpdatedAt,
	}
	if rec.TemplateID == "" {
		rec.TemplateID = resume.DefaultTemplate
	}
	if len(row.Content) > 0 {
		if err := json.Unmarshal(row.Content, &rec.Document); err != nil {
			return nil, fmt.Errorf("decode resume %d content: %w", row.ID, err)
		}
	}
	rec.Style = resume.DefaultStyle()
	if len(row.Style) > 0 {
		var style resume.StyleConfig
		if err := json.Unmarshal(row.Style, &style); err != nil {
			return nil, fmt.Errorf("decode resume %d style: %w", row.ID, err)
		}
		rec.Style = style.WithDefaults()
	}
	return rec, nil
}
