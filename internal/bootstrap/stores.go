package bootstrap

import (
	"context"
	"log/slog"
	"time"

	"github.com/eleven-am/emotion-monitor/internal/record"
	"github.com/qdrant/go-client/qdrant"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func ProvideRecordStore(db *gorm.DB) *record.Store {
	return record.NewStore(db)
}

func ProvideHistoryStore(redisClient *redis.Client) *record.HistoryStore {
	return record.NewHistoryStore(redisClient)
}

func ProvideMoments(qdrantClient *qdrant.Client, store *record.Store) *record.Moments {
	if qdrantClient == nil {
		return nil
	}
	return record.NewMoments(qdrantClient, store)
}

func ProvideRecorder(store *record.Store, moments *record.Moments, history *record.HistoryStore, logger *slog.Logger) *record.Recorder {
	return record.NewRecorder(store, moments, history, logger, 0)
}

func RunMigrations(store *record.Store, moments *record.Moments, logger *slog.Logger) error {
	if err := store.Migrate(); err != nil {
		return err
	}
	if moments == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := moments.EnsureCollection(ctx); err != nil {
		logger.Warn("failed to ensure qdrant collection", "error", err)
	}
	return nil
}

func StartRecorder(lc fx.Lifecycle, recorder *record.Recorder) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go recorder.Run(context.Background())
			return nil
		},
		OnStop: func(ctx context.Context) error {
			recorder.Close()
			return nil
		},
	})
}

var StoresModule = fx.Options(
	fx.Provide(
		ProvideRecordStore,
		ProvideHistoryStore,
		ProvideMoments,
		ProvideRecorder,
	),
	fx.Invoke(RunMigrations),
	fx.Invoke(StartRecorder),
)
