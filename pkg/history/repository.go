// Package history persists processed coding requests for audit and review.
package history

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("coding record not found")

// Record is one processed coding request with its full request and response
// payloads.
type Record struct {
	ID          string            `json:"id" gorm:"primaryKey;column:id"`
	Mode        string            `json:"mode" gorm:"column:mode"`
	Payer       string            `json:"payer" gorm:"column:payer"`
	POSCode     string            `json:"pos_code" gorm:"column:pos_code"`
	Score       float64           `json:"score" gorm:"column:score"`
	SubmitReady bool              `json:"submit_ready" gorm:"column:submit_ready"`
	Degraded    bool              `json:"degraded" gorm:"column:degraded"`
	Request     datatypes.JSONMap `json:"request" gorm:"column:request"`
	Response    datatypes.JSONMap `json:"response" gorm:"column:response"`
	CreatedAt   time.Time         `json:"created_at" gorm:"column:created_at"`
}

func (Record) TableName() string {
	return "coding_requests"
}

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(&Record{})
}

func (r *Repository) Create(ctx context.Context, rec *Record) error {
	rec.CreatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *Repository) Get(ctx context.Context, id string) (*Record, error) {
	var rec Record
	result := r.db.WithContext(ctx).First(&rec, "id = ?", id)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return &rec, result.Error
}

// Recent returns the latest records, newest first.
func (r *Repository) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	var recs []Record
	err := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&recs).Error
	return recs, err
}

func (r *Repository) CleanupExpired(ctx context.Context, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	cutoff := time.Now().UTC().Add(-ttl)
	return r.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&Record{}).Error
}
