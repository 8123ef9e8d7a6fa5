// Package redislock exclusión mutua de jobs entre instancias (Redis) o dentro del proceso (memoria).
package redislock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/jhoicas/fluxo-estoque/internal/domain/repository"
	"github.com/jhoicas/fluxo-estoque/pkg/logger"
)

var (
	_ repository.JobLocker = (*Locker)(nil)
	_ repository.JobLocker = (*MemoryLocker)(nil)
)

const keyPrefix = "fluxo-estoque:lock:"

// releaseScript borra la clave solo si sigue siendo nuestra.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// Locker lock SET NX PX sobre Redis.
type Locker struct {
	rdb *goredis.Client
	log *logger.Logger
}

// New conecta a Redis y verifica con PING.
func New(ctx context.Context, addr, password string, db int, log *logger.Logger) (*Locker, error) {
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	if log == nil {
		log = logger.Nop()
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    password,
		DB:          db,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Locker{rdb: rdb, log: log.Worker("redislock")}, nil
}

// Acquire toma la clave por ttl. ok=false si ya está tomada.
func (l *Locker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	token := uuid.New().String()
	full := keyPrefix + key
	ok, err := l.rdb.SetNX(ctx, full, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("redis lock %s: %w", key, err)
	}
	if !ok {
		return nil, false, nil
	}
	release := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, l.rdb, []string{full}, token).Err(); err != nil {
			l.log.Warn().Err(err).Str("key", key).Msg("no se pudo liberar el lock")
		}
	}
	return release, true, nil
}

// Close cierra la conexión.
func (l *Locker) Close() error {
	return l.rdb.Close()
}

// MemoryLocker lock por clave dentro del proceso; fallback cuando no hay REDIS_ADDR.
type MemoryLocker struct {
	mu    sync.Mutex
	held  map[string]memoryLease
	clock func() time.Time
}

type memoryLease struct {
	token   string
	expires time.Time
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{held: make(map[string]memoryLease), clock: time.Now}
}

func (m *MemoryLocker) Acquire(_ context.Context, key string, ttl time.Duration) (func(), bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock()
	if lease, ok := m.held[key]; ok && now.Before(lease.expires) {
		return nil, false, nil
	}
	token := uuid.New().String()
	m.held[key] = memoryLease{token: token, expires: now.Add(ttl)}

	release := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if lease, ok := m.held[key]; ok && lease.token == token {
			delete(m.held, key)
		}
	}
	return release, true, nil
}
