package relay

import (
	"context"
	"fmt"
	"github.com/redis/go-redis/v9"
	"sort"
	"strconv"
	"sync"
	"time"
)

// Presence tracks which users hold at least one live connection to a room.
// Like the hub it is advisory only.
type Presence interface {
	Join(ctx context.Context, roomID, userID int) error
	Leave(ctx context.Context, roomID, userID int) error
	Online(ctx context.Context, roomID int) ([]int, error)
}

type MemoryPresence struct {
	mu    sync.Mutex
	rooms map[int]map[int]int
}

func NewMemoryPresence() *MemoryPresence {
	return &MemoryPresence{rooms: make(map[int]map[int]int)}
}

func (m *MemoryPresence) Join(_ context.Context, roomID, userID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	users, ok := m.rooms[roomID]
	if !ok {
		users = make(map[int]int)
		m.rooms[roomID] = users
	}
	users[userID]++
	return nil
}

func (m *MemoryPresence) Leave(_ context.Context, roomID, userID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	users, ok := m.rooms[roomID]
	if !ok {
		return nil
	}

	users[userID]--
	if users[userID] <= 0 {
		delete(users, userID)
	}
	if len(users) == 0 {
		delete(m.rooms, roomID)
	}
	return nil
}

func (m *MemoryPresence) Online(_ context.Context, roomID int) ([]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	online := make([]int, 0, len(m.rooms[roomID]))
	for userID := range m.rooms[roomID] {
		online = append(online, userID)
	}
	sort.Ints(online)
	return online, nil
}

// RedisPresence keeps a per-room hash of user id to connection count, so
// presence is shared by every instance behind the same redis.
type RedisPresence struct {
	client *redis.Client
}

// NewRedisClient connects to redis and pings it once.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", addr, err)
	}
	return client, nil
}

func NewRedisPresence(client *redis.Client) *RedisPresence {
	return &RedisPresence{client: client}
}

func (r *RedisPresence) Join(ctx context.Context, roomID, userID int) error {
	return r.client.HIncrBy(ctx, onlineKey(roomID), strconv.Itoa(userID), 1).Err()
}

func (r *RedisPresence) Leave(ctx context.Context, roomID, userID int) error {
	key := onlineKey(roomID)
	field := strconv.Itoa(userID)

	left, err := r.client.HIncrBy(ctx, key, field, -1).Result()
	if err != nil {
		return err
	}
	if left <= 0 {
		return r.client.HDel(ctx, key, field).Err()
	}
	return nil
}

func (r *RedisPresence) Online(ctx context.Context, roomID int) ([]int, error) {
	entries, err := r.client.HGetAll(ctx, onlineKey(roomID)).Result()
	if err != nil {
		return nil, err
	}

	online := make([]int, 0, len(entries))
	for field, count := range entries {
		n, err := strconv.Atoi(count)
		if err != nil || n <= 0 {
			continue
		}
		userID, err := strconv.Atoi(field)
		if err != nil {
			continue
		}
		online = append(online, userID)
	}
	sort.Ints(online)
	return online, nil
}

func onlineKey(roomID int) string {
	return fmt.Sprintf("nutricare:room:%d:online", roomID)
}
