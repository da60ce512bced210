package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rsilvagit/go-empleo/internal/model"
)

// ErrNoToken is returned by TokenStore.Load when nothing is stored.
var ErrNoToken = errors.New("session: no stored token")

// TokenStore persists the bearer token between runs, together with the
// profile fields of each account that the token does not carry.
type TokenStore interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string, ttl time.Duration) error
	Delete(ctx context.Context) error

	// LoadProfile returns nil when nothing is stored for account.
	LoadProfile(ctx context.Context, account string) (*model.User, error)
	SaveProfile(ctx context.Context, account string, u model.User) error
}

// RedisStore keeps the token of one profile in Redis. Account data
// (profile, applied jobs) is keyed by account and outlives the token.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore connects to Redis at the given URL and returns a store
// for profile. URL format: redis://localhost:6379/0
func NewRedisStore(redisURL, profile string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("session: invalid redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("session: redis ping failed: %w", err)
	}

	return &RedisStore{client: client, key: buildKey(profile)}, nil
}

func (s *RedisStore) Load(ctx context.Context) (string, error) {
	token, err := s.client.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNoToken
	}
	if err != nil {
		return "", fmt.Errorf("session: load token: %w", err)
	}
	return token, nil
}

func (s *RedisStore) Save(ctx context.Context, token string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.key, token, ttl).Err(); err != nil {
		return fmt.Errorf("session: save token: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("session: delete token: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) LoadProfile(ctx context.Context, account string) (*model.User, error) {
	raw, err := s.client.Get(ctx, profileKey(account)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session: load profile: %w", err)
	}
	var u model.User
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil, fmt.Errorf("session: decode profile: %w", err)
	}
	return &u, nil
}

func (s *RedisStore) SaveProfile(ctx context.Context, account string, u model.User) error {
	raw, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("session: encode profile: %w", err)
	}
	if err := s.client.Set(ctx, profileKey(account), raw, 0).Err(); err != nil {
		return fmt.Errorf("session: save profile: %w", err)
	}
	return nil
}

// AppliedJobs returns the jobs account has applied to.
func (s *RedisStore) AppliedJobs(ctx context.Context, account string) ([]model.JobID, error) {
	members, err := s.client.SMembers(ctx, appliedKey(account)).Result()
	if err != nil {
		return nil, fmt.Errorf("session: load applied jobs: %w", err)
	}
	ids := make([]model.JobID, len(members))
	for i, m := range members {
		ids[i] = model.JobID(m)
	}
	return ids, nil
}

func (s *RedisStore) RecordApplied(ctx context.Context, account string, id model.JobID) error {
	if err := s.client.SAdd(ctx, appliedKey(account), id.String()).Err(); err != nil {
		return fmt.Errorf("session: record applied job: %w", err)
	}
	return nil
}

func buildKey(profile string) string {
	if profile == "" {
		profile = "default"
	}
	return "goempleo:session:" + profile
}

func profileKey(account string) string { return "goempleo:profile:" + account }
func appliedKey(account string) string { return "goempleo:applied:" + account }

// MemoryStore is a process-local TokenStore used when Redis is unavailable.
type MemoryStore struct {
	mu       sync.Mutex
	token    string
	expires  time.Time
	now      func() time.Time
	profiles map[string]model.User
	applied  map[string][]model.JobID
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		now:      time.Now,
		profiles: make(map[string]model.User),
		applied:  make(map[string][]model.JobID),
	}
}

func (m *MemoryStore) Load(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token == "" || (!m.expires.IsZero() && !m.now().Before(m.expires)) {
		m.token = ""
		return "", ErrNoToken
	}
	return m.token, nil
}

func (m *MemoryStore) Save(_ context.Context, token string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	m.expires = time.Time{}
	if ttl > 0 {
		m.expires = m.now().Add(ttl)
	}
	return nil
}

func (m *MemoryStore) Delete(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	m.expires = time.Time{}
	return nil
}

func (m *MemoryStore) LoadProfile(_ context.Context, account string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.profiles[account]
	if !ok {
		return nil, nil
	}
	return cloneUser(&u), nil
}

func (m *MemoryStore) SaveProfile(_ context.Context, account string, u model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[account] = *cloneUser(&u)
	return nil
}

func (m *MemoryStore) AppliedJobs(_ context.Context, account string) ([]model.JobID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.applied[account]), nil
}

func (m *MemoryStore) RecordApplied(_ context.Context, account string, id model.JobID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !slices.Contains(m.applied[account], id) {
		m.applied[account] = append(m.applied[account], id)
	}
	return nil
}
