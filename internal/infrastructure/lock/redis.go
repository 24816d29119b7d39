package lock

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/bibbank/mfi-repayment/internal/domain/port"
)

var _ port.LoanLocker = (*RedisLocker)(nil)

// releaseScript deletes the key only if it still holds our token.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// extendScript pushes the expiry out only while the key still holds our token.
var extendScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// ConnectionInfo holds Redis connection parameters.
type ConnectionInfo struct {
	Addr     string
	Password string
	DB       int
	Timeout  time.Duration
}

// NewRedisClient connects and pings.
func NewRedisClient(ctx context.Context, info ConnectionInfo) (*goredis.Client, error) {
	if info.Timeout <= 0 {
		info.Timeout = 5 * time.Second
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:         info.Addr,
		Password:     info.Password,
		DB:           info.DB,
		DialTimeout:  info.Timeout,
		ReadTimeout:  info.Timeout,
		WriteTimeout: info.Timeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, info.Timeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", info.Addr, err)
	}
	return rdb, nil
}

// RedisLocker serialises per loan across service instances with a
// SET NX PX lease that is renewed while the holder runs.
type RedisLocker struct {
	client goredis.UniversalClient
	prefix string
	ttl    time.Duration
	retry  time.Duration
	logger *slog.Logger
}

// NewRedisLocker creates a locker. ttl bounds how long a crashed holder can
// block a loan.
func NewRedisLocker(client goredis.UniversalClient, ttl time.Duration, logger *slog.Logger) *RedisLocker {
	if ttl <= 0 {
		ttl = 15 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisLocker{
		client: client,
		prefix: "repayment:loan-lock:",
		ttl:    ttl,
		retry:  25 * time.Millisecond,
		logger: logger,
	}
}

// WithLoanLock polls for the lease until ctx ends, runs fn while renewing the
// lease, then releases it if it is still ours. fn's result is returned as is:
// a lease lost mid-run is logged, since installment writes are version checked.
func (r *RedisLocker) WithLoanLock(ctx context.Context, loanID string, fn func(ctx context.Context) error) error {
	key := r.prefix + loanID
	token := uuid.NewString()

	if err := r.acquire(ctx, key, token); err != nil {
		return err
	}

	var lost atomic.Bool
	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.renew(ctx, key, token, stop, &lost)
	}()

	fnErr := fn(ctx)
	close(stop)
	<-done

	// Release even if ctx was canceled while fn ran.
	relCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	released, err := releaseScript.Run(relCtx, r.client, []string{key}, token).Int()
	switch {
	case err != nil:
		r.logger.Warn("failed to release loan lock", "loan_id", loanID, "error", err)
	case released == 0 || lost.Load():
		r.logger.Warn("loan lock lease lost before release", "loan_id", loanID, "fn_failed", fnErr != nil)
	}
	return fnErr
}

// renew extends the lease every third of the ttl until stop closes or the
// lease turns out to belong to someone else.
func (r *RedisLocker) renew(ctx context.Context, key, token string, stop <-chan struct{}, lost *atomic.Bool) {
	ticker := time.NewTicker(r.ttl / 3)
	defer ticker.Stop()
	ctx = context.WithoutCancel(ctx)
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}
		extCtx, cancel := context.WithTimeout(ctx, r.ttl/3)
		ok, err := extendScript.Run(extCtx, r.client, []string{key}, token, r.ttl.Milliseconds()).Int()
		cancel()
		if err != nil {
			r.logger.Warn("failed to renew loan lock", "key", key, "error", err)
			continue
		}
		if ok == 0 {
			lost.Store(true)
			return
		}
	}
}

func (r *RedisLocker) acquire(ctx context.Context, key, token string) error {
	ticker := time.NewTicker(r.retry)
	defer ticker.Stop()
	for {
		ok, err := r.client.SetNX(ctx, key, token, r.ttl).Result()
		if err != nil {
			return fmt.Errorf("acquire lock %s: %w", key, err)
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("acquire lock %s: %w", key, ctx.Err())
		case <-ticker.C:
		}
	}
}
