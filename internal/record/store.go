package record

import (
	"context"
	"errors"

	"github.com/eleven-am/emotion-monitor/internal/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const defaultListLimit = 50

type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Migrate() error {
	return s.db.AutoMigrate(&Detection{})
}

func (s *Store) CreateBatch(ctx context.Context, records []*Detection) error {
	if len(records) == 0 {
		return nil
	}
	for _, r := range records {
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
	}
	return s.db.WithContext(ctx).Create(records).Error
}

func (s *Store) GetByID(ctx context.Context, id string) (*Detection, error) {
	var d Detection
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&d).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.ErrNotFound
	}
	return &d, err
}

// ListRecent returns the newest records first. An empty sessionID lists all sessions.
func (s *Store) ListRecent(ctx context.Context, sessionID string, limit int) ([]*Detection, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	var out []*Detection
	q := s.db.WithContext(ctx)
	if sessionID != "" {
		q = q.Where("session_id = ?", sessionID)
	}
	err := q.Order("created_at DESC").Order("face_index ASC").Limit(limit).Find(&out).Error
	return out, err
}

func (s *Store) Summary(ctx context.Context, sessionID string) ([]EmotionSummary, error) {
	var out []EmotionSummary
	q := s.db.WithContext(ctx).Model(&Detection{}).
		Select("emotion, COUNT(*) as count, AVG(confidence) as avg_confidence")
	if sessionID != "" {
		q = q.Where("session_id = ?", sessionID)
	}
	err := q.Group("emotion").Order("count DESC").Scan(&out).Error
	return out, err
}

