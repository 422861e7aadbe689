package record

import (
	"context"
	"errors"

	"github.com/eleven-am/emotion-monitor/internal/inference"
	"github.com/qdrant/go-client/qdrant"
)

const momentsCollection = "emotion_moments"

var ErrVectorsDisabled = errors.New("qdrant client not configured")

// Moments indexes each detection's emotion mix so similar moments can be
// found later. The vector is the per-emotion probability in model order.
type Moments struct {
	qdrant *qdrant.Client
	store  *Store
}

func NewMoments(qdrantClient *qdrant.Client, store *Store) *Moments {
	return &Moments{qdrant: qdrantClient, store: store}
}

func (m *Moments) EnsureCollection(ctx context.Context) error {
	if m.qdrant == nil {
		return ErrVectorsDisabled
	}

	exists, err := m.qdrant.CollectionExists(ctx, momentsCollection)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	return m.qdrant.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: momentsCollection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(len(inference.SupportedEmotions)),
			Distance: qdrant.Distance_Cosine,
		}),
	})
}

func (m *Moments) Upsert(ctx context.Context, records ...*Detection) error {
	if m.qdrant == nil {
		return ErrVectorsDisabled
	}
	if len(records) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, 0, len(records))
	for _, r := range records {
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewID(r.ID),
			Vectors: qdrant.NewVectors(Vector(r)...),
			Payload: qdrant.NewValueMap(map[string]any{
				"session_id": r.SessionID,
				"emotion":    r.Emotion,
			}),
		})
	}

	_, err := m.qdrant.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: momentsCollection,
		Points:         points,
	})
	return err
}

// Similar returns up to limit detections whose emotion mix is closest to
// the given detection, best match first. The detection itself is excluded.
func (m *Moments) Similar(ctx context.Context, id string, limit int) ([]*Detection, error) {
	if m.qdrant == nil {
		return nil, ErrVectorsDisabled
	}
	if limit <= 0 {
		limit = 10
	}

	src, err := m.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	results, err := m.qdrant.Query(ctx, &qdrant.QueryPoints{
		CollectionName: momentsCollection,
		Query:          qdrant.NewQuery(Vector(src)...),
		Limit:          qdrant.PtrOf(uint64(limit + 1)),
		WithPayload:    qdrant.NewWithPayload(false),
	})
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(results))
	for _, r := range results {
		if r.Id == nil {
			continue
		}
		if uuid := r.Id.GetUuid(); uuid != "" && uuid != id {
			ids = append(ids, uuid)
		}
	}
	if len(ids) > limit {
		ids = ids[:limit]
	}
	if len(ids) == 0 {
		return []*Detection{}, nil
	}

	var found []*Detection
	if err := m.store.db.WithContext(ctx).Where("id IN ?", ids).Find(&found).Error; err != nil {
		return nil, err
	}

	byID := make(map[string]*Detection, len(found))
	for _, d := range found {
		byID[d.ID] = d
	}
	out := make([]*Detection, 0, len(ids))
	for _, id := range ids {
		if d, ok := byID[id]; ok {
			out = append(out, d)
		}
	}
	return out, nil
}

// Vector returns the detection's probabilities in model label order.
func Vector(d *Detection) []float32 {
	face := inference.FaceResult{
		Emotion:    inference.Emotion(d.Emotion),
		Confidence: d.Confidence,
	}
	if len(d.Scores) > 0 {
		face.AllPredictions = make(map[inference.Emotion]float64, len(d.Scores))
		for e, p := range d.Scores {
			face.AllPredictions[inference.Emotion(e)] = p
		}
	}
	return face.Scores()
}
