package record

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/eleven-am/emotion-monitor/internal/shared"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	return db
}

func setupTestStore(t *testing.T) *Store {
	store := NewStore(setupTestDB(t))
	if err := store.Migrate(); err != nil {
		t.Fatalf("migration failed: %v", err)
	}
	return store
}

func TestStore_CreateBatch(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	records := []*Detection{
		{SessionID: "ses_1", FaceIndex: 0, Emotion: "happy", Confidence: 0.9, Scores: shared.Scores{"happy": 0.9, "sad": 0.05, "neutral": 0.05}},
		{SessionID: "ses_1", FaceIndex: 1, Emotion: "sad", Confidence: 0.7},
	}
	if err := store.CreateBatch(ctx, records); err != nil {
		t.Fatalf("create batch failed: %v", err)
	}

	for _, r := range records {
		if r.ID == "" {
			t.Fatal("expected generated id")
		}
	}

	got, err := store.GetByID(ctx, records[0].ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Emotion != "happy" {
		t.Errorf("expected happy, got %s", got.Emotion)
	}
	if got.Scores["sad"] != 0.05 {
		t.Errorf("expected sad score 0.05, got %v", got.Scores["sad"])
	}
}

func TestStore_CreateBatchEmpty(t *testing.T) {
	store := setupTestStore(t)
	if err := store.CreateBatch(context.Background(), nil); err != nil {
		t.Errorf("expected nil error, got %v", err)
	}
}

func TestStore_GetByIDNotFound(t *testing.T) {
	store := setupTestStore(t)
	_, err := store.GetByID(context.Background(), "missing")
	if !errors.Is(err, shared.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_ListRecent(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	records := []*Detection{
		{SessionID: "ses_a", Emotion: "happy", Confidence: 0.8, CreatedAt: base},
		{SessionID: "ses_a", Emotion: "sad", Confidence: 0.6, CreatedAt: base.Add(time.Second)},
		{SessionID: "ses_b", Emotion: "neutral", Confidence: 0.5, CreatedAt: base.Add(2 * time.Second)},
	}
	if err := store.CreateBatch(ctx, records); err != nil {
		t.Fatalf("create batch failed: %v", err)
	}

	tests := []struct {
		name      string
		sessionID string
		limit     int
		want      []string
	}{
		{name: "all sessions", sessionID: "", limit: 10, want: []string{"neutral", "sad", "happy"}},
		{name: "single session", sessionID: "ses_a", limit: 10, want: []string{"sad", "happy"}},
		{name: "limited", sessionID: "", limit: 1, want: []string{"neutral"}},
		{name: "unknown session", sessionID: "ses_x", limit: 10, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.ListRecent(ctx, tt.sessionID, tt.limit)
			if err != nil {
				t.Fatalf("list failed: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d records, got %d", len(tt.want), len(got))
			}
			for i, d := range got {
				if d.Emotion != tt.want[i] {
					t.Errorf("record %d: expected %s, got %s", i, tt.want[i], d.Emotion)
				}
			}
		})
	}
}

func TestStore_Summary(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	records := []*Detection{
		{SessionID: "ses_a", Emotion: "happy", Confidence: 0.8},
		{SessionID: "ses_a", Emotion: "happy", Confidence: 0.6},
		{SessionID: "ses_a", Emotion: "sad", Confidence: 0.5},
		{SessionID: "ses_b", Emotion: "neutral", Confidence: 0.9},
	}
	if err := store.CreateBatch(ctx, records); err != nil {
		t.Fatalf("create batch failed: %v", err)
	}

	summary, err := store.Summary(ctx, "ses_a")
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}
	if len(summary) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(summary))
	}
	if summary[0].Emotion != "happy" || summary[0].Count != 2 {
		t.Errorf("expected happy x2 first, got %s x%d", summary[0].Emotion, summary[0].Count)
	}
	if diff := summary[0].AvgConfidence - 0.7; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("expected avg 0.7, got %v", summary[0].AvgConfidence)
	}

	all, err := store.Summary(ctx, "")
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 rows, got %d", len(all))
	}
}
