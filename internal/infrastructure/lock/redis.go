package lock

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/seedor-api/internal/application/ports"
	"github.com/jhoicas/seedor-api/internal/domain"
	"github.com/jhoicas/seedor-api/pkg/logger"
)

var _ ports.KeyLocker = (*RedisLocker)(nil)

const (
	keyPrefix     = "seedor:lock:"
	retryInterval = 50 * time.Millisecond
	// maxWait tope de espera si el ctx del llamador no trae deadline.
	maxWait = 5 * time.Second
)

// releaseScript borra la clave solo si sigue siendo nuestra (evita liberar el lock de otro
// proceso cuando el nuestro ya expiró por ttl).
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// RedisLocker locks distribuidos con SET NX PX + liberación compare-and-delete.
type RedisLocker struct {
	client *redis.Client
	log    *logger.Logger
}

// NewRedisLocker construye el locker sobre un cliente ya configurado.
func NewRedisLocker(client *redis.Client, log *logger.Logger) *RedisLocker {
	return &RedisLocker{client: client, log: log}
}

// Acquire intenta SET NX hasta obtener la clave, vencer ctx o agotar maxWait.
func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	token, err := randomToken()
	if err != nil {
		return nil, fmt.Errorf("lock token: %w", err)
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, maxWait)
		defer cancel()
	}

	fullKey := keyPrefix + key
	ticker := time.NewTicker(retryInterval)
	defer ticker.Stop()
	for {
		ok, err := l.client.SetNX(ctx, fullKey, token, ttl).Result()
		if err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
			return nil, domain.Upstream("LOCK_UNAVAILABLE", "No se pudo coordinar la operación, intente de nuevo", err)
		}
		if ok {
			return l.releaser(fullKey, token), nil
		}
		select {
		case <-ctx.Done():
			return nil, domain.Wrap(domain.ErrBusy, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (l *RedisLocker) releaser(key, token string) func() {
	released := false
	return func() {
		if released {
			return
		}
		released = true
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
			// El ttl acaba liberando la clave igualmente.
			l.log.Warn().Err(err).Str("key", key).Msg("no se pudo liberar lock")
		}
	}
}

func randomToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// NewRedisClient abre el cliente y verifica la conexión.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}
