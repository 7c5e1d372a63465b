package transcript

import (
	"context"
	"errors"

	"github.com/eleven-am/live-gateway/internal/shared"
	"github.com/qdrant/go-client/qdrant"
	"gorm.io/gorm"
)

const collectionName = "transcript_turns"

type Store struct {
	db     *gorm.DB
	qdrant *qdrant.Client
}

func NewStore(db *gorm.DB, qdrantClient *qdrant.Client) *Store {
	return &Store{
		db:     db,
		qdrant: qdrantClient,
	}
}

func (s *Store) Migrate() error {
	return s.db.AutoMigrate(&Turn{})
}

func (s *Store) Create(ctx context.Context, turn *Turn) error {
	if turn.ID == "" {
		turn.ID = shared.NewID("turn_")
	}
	return s.db.WithContext(ctx).Create(turn).Error
}

// ListBySession returns the caller's turns for one session in turn order.
func (s *Store) ListBySession(ctx context.Context, sessionID, userID string) ([]*Turn, error) {
	var turns []*Turn
	err := s.db.WithContext(ctx).
		Where("session_id = ? AND user_id = ?", sessionID, userID).
		Order("created_at ASC").
		Find(&turns).Error
	return turns, err
}

// DeleteBySession removes the caller's turns for one session, including
// their search index points. ErrNotFound when the session has no turns
// owned by the caller.
func (s *Store) DeleteBySession(ctx context.Context, sessionID, userID string) error {
	var ids []string
	err := s.db.WithContext(ctx).Model(&Turn{}).
		Where("session_id = ? AND user_id = ?", sessionID, userID).
		Pluck("id", &ids).Error
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return shared.ErrNotFound
	}

	result := s.db.WithContext(ctx).Delete(&Turn{}, "session_id = ? AND user_id = ?", sessionID, userID)
	if result.Error != nil {
		return result.Error
	}

	if s.qdrant == nil {
		return nil
	}

	points := make([]*qdrant.PointId, 0, len(ids))
	for _, id := range ids {
		points = append(points, qdrant.NewID(id))
	}
	_, err = s.qdrant.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: collectionName,
		Points:         qdrant.NewPointsSelector(points...),
	})
	return err
}

// SearchHit pairs a stored turn with its similarity score.
type SearchHit struct {
	Turn  *Turn
	Score float32
}

// SearchByEmbedding runs a vector query against the turn index and loads
// the matching rows. Hits come back in the index's ranking order.
func (s *Store) SearchByEmbedding(ctx context.Context, embedding []float32, limit int) ([]SearchHit, error) {
	if s.qdrant == nil {
		return nil, errors.New("qdrant client not configured")
	}

	results, err := s.qdrant.Query(ctx, &qdrant.QueryPoints{
		CollectionName: collectionName,
		Query:          qdrant.NewQuery(embedding...),
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(results))
	scores := make(map[string]float32, len(results))
	for _, r := range results {
		if r.Id != nil {
			if uuid := r.Id.GetUuid(); uuid != "" {
				ids = append(ids, uuid)
				scores[uuid] = r.Score
			}
		}
	}

	if len(ids) == 0 {
		return []SearchHit{}, nil
	}

	var turns []*Turn
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&turns).Error; err != nil {
		return nil, err
	}

	byID := make(map[string]*Turn, len(turns))
	for _, t := range turns {
		byID[t.ID] = t
	}

	hits := make([]SearchHit, 0, len(ids))
	for _, id := range ids {
		if t, ok := byID[id]; ok {
			hits = append(hits, SearchHit{Turn: t, Score: scores[id]})
		}
	}
	return hits, nil
}

func (s *Store) UpsertEmbedding(ctx context.Context, turnID string, embedding []float32) error {
	if s.qdrant == nil {
		return errors.New("qdrant client not configured")
	}

	_, err := s.qdrant.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collectionName,
		Points: []*qdrant.PointStruct{
			{
				Id:      qdrant.NewID(turnID),
				Vectors: qdrant.NewVectors(embedding...),
			},
		},
	})
	return err
}
