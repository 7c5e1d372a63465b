package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/eleven-am/live-gateway/internal/shared"
	"github.com/redis/go-redis/v9"
)

const (
	sessionTTL = 24 * time.Hour
	metricsTTL = 7 * 24 * time.Hour
)

type Store struct {
	redis *redis.Client
}

func NewStore(redisClient *redis.Client) *Store {
	return &Store{redis: redisClient}
}

func (s *Store) CreateSession(ctx context.Context, sess *Session) error {
	if sess.ID == "" {
		sess.ID = shared.NewID("sess_")
	}
	sess.Status = StatusActive
	sess.StartedAt = time.Now()
	sess.LastActiveAt = time.Now()

	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}

	return s.redis.Set(ctx, sess.RedisKey(), data, sessionTTL).Err()
}

func (s *Store) GetSession(ctx context.Context, id string) (*Session, error) {
	data, err := s.redis.Get(ctx, "session:"+id).Bytes()
	if err == redis.Nil {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *Store) UpdateSession(ctx context.Context, sess *Session) error {
	sess.LastActiveAt = time.Now()
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, sess.RedisKey(), data, sessionTTL).Err()
}

func (s *Store) EndSession(ctx context.Context, id string, status Status) error {
	sess, err := s.GetSession(ctx, id)
	if err != nil {
		return err
	}
	sess.Status = status
	return s.UpdateSession(ctx, sess)
}

func (s *Store) DeleteSession(ctx context.Context, id string) error {
	return s.redis.Del(ctx, "session:"+id).Err()
}

func (s *Store) scanSessions(ctx context.Context, keep func(*Session) bool) ([]*Session, error) {
	keys, err := s.redis.Keys(ctx, "session:sess_*").Result()
	if err != nil {
		return nil, err
	}

	var sessions []*Session
	for _, key := range keys {
		data, err := s.redis.Get(ctx, key).Bytes()
		if err != nil {
			continue
		}
		var sess Session
		if err := json.Unmarshal(data, &sess); err != nil {
			continue
		}
		if keep(&sess) {
			sessions = append(sessions, &sess)
		}
	}
	return sessions, nil
}

func (s *Store) GetActiveSessions(ctx context.Context, userID string) ([]*Session, error) {
	return s.scanSessions(ctx, func(sess *Session) bool {
		return sess.UserID == userID && sess.Status == StatusActive
	})
}

// GetSessionsByUser returns every record still within the store TTL,
// ended ones included, newest first.
func (s *Store) GetSessionsByUser(ctx context.Context, userID string) ([]*Session, error) {
	sessions, err := s.scanSessions(ctx, func(sess *Session) bool {
		return sess.UserID == userID
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].StartedAt.After(sessions[j].StartedAt)
	})
	return sessions, nil
}

func (s *Store) IncrementMetric(ctx context.Context, model string, field string, value int64) error {
	now := time.Now().UTC()
	key := MetricsRedisKey(model, now.Format("2006-01-02"), now.Hour())

	pipe := s.redis.Pipeline()
	pipe.HIncrBy(ctx, key, field, value)
	pipe.Expire(ctx, key, metricsTTL)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *Store) IncrementSessions(ctx context.Context, model string) error {
	return s.IncrementMetric(ctx, model, "sessions", 1)
}

func (s *Store) IncrementClientTurns(ctx context.Context, model string) error {
	return s.IncrementMetric(ctx, model, "client_turns", 1)
}

func (s *Store) IncrementModelTurns(ctx context.Context, model string) error {
	return s.IncrementMetric(ctx, model, "model_turns", 1)
}

func (s *Store) IncrementToolCalls(ctx context.Context, model string, count int64) error {
	return s.IncrementMetric(ctx, model, "tool_calls", count)
}

func (s *Store) IncrementInterruptions(ctx context.Context, model string) error {
	return s.IncrementMetric(ctx, model, "interruptions", 1)
}

func (s *Store) IncrementErrors(ctx context.Context, model string) error {
	return s.IncrementMetric(ctx, model, "error_count", 1)
}

// AddTokens records the usage counts the upstream reports per turn.
func (s *Store) AddTokens(ctx context.Context, model string, prompt, response int64) error {
	now := time.Now().UTC()
	key := MetricsRedisKey(model, now.Format("2006-01-02"), now.Hour())

	pipe := s.redis.Pipeline()
	if prompt > 0 {
		pipe.HIncrBy(ctx, key, "prompt_tokens", prompt)
	}
	if response > 0 {
		pipe.HIncrBy(ctx, key, "response_tokens", response)
	}
	pipe.Expire(ctx, key, metricsTTL)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *Store) TrackUniqueUser(ctx context.Context, model, userID string) error {
	now := time.Now().UTC()
	key := fmt.Sprintf("model:%s:users:%s:%d", model, now.Format("2006-01-02"), now.Hour())

	added, err := s.redis.SAdd(ctx, key, userID).Result()
	if err != nil {
		return err
	}
	s.redis.Expire(ctx, key, metricsTTL)

	if added > 0 {
		return s.IncrementMetric(ctx, model, "unique_users", 1)
	}
	return nil
}

func (s *Store) RecordLatency(ctx context.Context, model string, latencyMs int64) error {
	now := time.Now().UTC()
	key := MetricsRedisKey(model, now.Format("2006-01-02"), now.Hour())

	pipe := s.redis.Pipeline()
	pipe.HIncrBy(ctx, key, "total_latency_ms", latencyMs)
	pipe.HIncrBy(ctx, key, "latency_count", 1)
	pipe.Expire(ctx, key, metricsTTL)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *Store) GetMetrics(ctx context.Context, model string, hours int) ([]*Metrics, error) {
	now := time.Now().UTC()
	var metrics []*Metrics

	for i := 0; i < hours; i++ {
		t := now.Add(-time.Duration(i) * time.Hour)
		key := MetricsRedisKey(model, t.Format("2006-01-02"), t.Hour())

		data, err := s.redis.HGetAll(ctx, key).Result()
		if err != nil || len(data) == 0 {
			continue
		}

		m := &Metrics{
			Model: model,
			Date:  t.Format("2006-01-02"),
			Hour:  t.Hour(),
		}

		if v, ok := data["sessions"]; ok {
			m.Sessions, _ = strconv.ParseInt(v, 10, 64)
		}
		if v, ok := data["client_turns"]; ok {
			m.ClientTurns, _ = strconv.ParseInt(v, 10, 64)
		}
		if v, ok := data["model_turns"]; ok {
			m.ModelTurns, _ = strconv.ParseInt(v, 10, 64)
		}
		if v, ok := data["tool_calls"]; ok {
			m.ToolCalls, _ = strconv.ParseInt(v, 10, 64)
		}
		if v, ok := data["interruptions"]; ok {
			m.Interruptions, _ = strconv.ParseInt(v, 10, 64)
		}
		if v, ok := data["prompt_tokens"]; ok {
			m.PromptTokens, _ = strconv.ParseInt(v, 10, 64)
		}
		if v, ok := data["response_tokens"]; ok {
			m.ResponseTokens, _ = strconv.ParseInt(v, 10, 64)
		}
		if v, ok := data["unique_users"]; ok {
			m.UniqueUsers, _ = strconv.ParseInt(v, 10, 64)
		}
		if v, ok := data["error_count"]; ok {
			m.ErrorCount, _ = strconv.ParseInt(v, 10, 64)
		}

		totalLatency, _ := strconv.ParseInt(data["total_latency_ms"], 10, 64)
		latencyCount, _ := strconv.ParseInt(data["latency_count"], 10, 64)
		if latencyCount > 0 {
			m.AvgLatencyMs = totalLatency / latencyCount
		}

		metrics = append(metrics, m)
	}

	return metrics, nil
}

func (s *Store) GetMetricsForLast7Days(ctx context.Context, model string) ([]*Metrics, error) {
	return s.GetMetrics(ctx, model, 7*24)
}
