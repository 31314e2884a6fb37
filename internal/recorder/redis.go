package recorder

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/connorhough/timestable/internal/quiz"
)

const (
	redisResultsPrefix  = "timestable:results:"
	redisLeaderboardKey = "timestable:leaderboard"
	redisHistoryLimit   = 500
)

// LeaderboardEntry is one player's best score.
type LeaderboardEntry struct {
	Player string
	Score  int
}

// RedisRecorder keeps a capped per-player list of results and a best-score
// leaderboard.
type RedisRecorder struct {
	client *redis.Client
}

// NewRedisRecorder connects to address and pings it.
func NewRedisRecorder(ctx context.Context, address, password string, db int) (*RedisRecorder, error) {
	if address == "" {
		return nil, ErrMisconfigured(KindRedis, "recorder.redis.addr")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, ErrUnavailable(KindRedis, fmt.Errorf("failed to connect to redis: %w", err))
	}
	return &RedisRecorder{client: client}, nil
}

// Record pushes rec onto the player's list and raises their leaderboard
// score if rec beats it.
func (r *RedisRecorder) Record(ctx context.Context, rec quiz.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return ErrWriteFailed(KindRedis, err)
	}
	player := PlayerName(rec)
	key := redisResultsPrefix + player

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, key, data)
		pipe.LTrim(ctx, key, 0, redisHistoryLimit-1)
		pipe.ZAddArgs(ctx, redisLeaderboardKey, redis.ZAddArgs{
			GT:      true,
			Members: []redis.Z{{Score: float64(rec.Score), Member: player}},
		})
		return nil
	})
	if err != nil {
		return ErrWriteFailed(KindRedis, err)
	}
	return nil
}

// Top returns the n best players, highest score first.
func (r *RedisRecorder) Top(ctx context.Context, n int) ([]LeaderboardEntry, error) {
	zs, err := r.client.ZRevRangeWithScores(ctx, redisLeaderboardKey, 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("read leaderboard: %w", err)
	}
	out := make([]LeaderboardEntry, 0, len(zs))
	for _, z := range zs {
		name, _ := z.Member.(string)
		out = append(out, LeaderboardEntry{Player: name, Score: int(z.Score)})
	}
	return out, nil
}

// Close closes the client.
func (r *RedisRecorder) Close() error {
	return r.client.Close()
}
