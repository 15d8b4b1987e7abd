package cache

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

var ErrLockBusy = errors.New("lock is held by another owner")

var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type Locker struct {
	Client     *redis.Client
	TTL        time.Duration
	Retries    int
	RetryDelay time.Duration
}

func NewLocker(client *redis.Client) *Locker {
	return &Locker{
		Client:     client,
		TTL:        5 * time.Second,
		Retries:    20,
		RetryDelay: 50 * time.Millisecond,
	}
}

func (l *Locker) Lock(ctx context.Context, key, owner string, ttl time.Duration) (bool, error) {
	return l.Client.SetNX(ctx, key, owner, ttl).Result()
}

// Unlock deletes key only when owner still holds it.
func (l *Locker) Unlock(ctx context.Context, key, owner string) error {
	return unlockScript.Run(ctx, l.Client, []string{key}, owner).Err()
}

// WithLock runs fn while holding key. A nil Locker or client runs fn unlocked.
func (l *Locker) WithLock(ctx context.Context, key, owner string, fn func() error) error {
	if l == nil || l.Client == nil {
		return fn()
	}

	for attempt := 0; ; attempt++ {
		ok, err := l.Lock(ctx, key, owner, l.TTL)
		if err != nil {
			return err
		}
		if ok {
			break
		}
		if attempt >= l.Retries {
			return ErrLockBusy
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(l.RetryDelay):
		}
	}
	defer l.Unlock(context.Background(), key, owner)

	return fn()
}
