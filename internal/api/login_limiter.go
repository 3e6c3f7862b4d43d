package api

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// loginLimiter 以 redis 计数实现登录限流与连续失败锁定。nil 客户端时全部放行。
type loginLimiter struct {
	redis         redis.UniversalClient
	perHour       int
	lockThreshold int
	lockTTL       time.Duration
	now           func() time.Time
}

func newLoginLimiter(client redis.UniversalClient, opts AuthOptions) *loginLimiter {
	return &loginLimiter{
		redis:         client,
		perHour:       opts.LoginRateLimitPerHour,
		lockThreshold: opts.LoginLockThreshold,
		lockTTL:       opts.LoginLockTTL,
		now:           time.Now,
	}
}

type limitDecision int

const (
	limitAllow limitDecision = iota
	limitRate
	limitLocked
)

// Check 计入一次尝试，并判断 ip+用户名 是否超出每小时上限或账号处于锁定期。
// redis 故障时放行，登录不因限流组件不可用而中断。
func (l *loginLimiter) Check(ctx context.Context, ip, username string) limitDecision {
	if l.redis == nil {
		return limitAllow
	}
	username = strings.ToLower(username)

	if l.perHour > 0 {
		key := "rate:login:" + ip + ":" + username + ":" + l.now().UTC().Format("2006010215")
		if count, err := incrWithTTL(ctx, l.redis, key, time.Hour); err == nil && count > int64(l.perHour) {
			return limitRate
		}
	}

	if ttl, _ := l.redis.TTL(ctx, lockKey(username)).Result(); ttl > 0 {
		return limitLocked
	}
	return limitAllow
}

// Fail 记录一次失败；达到阈值后锁定账号 lockTTL。
func (l *loginLimiter) Fail(ctx context.Context, username string) {
	if l.redis == nil || l.lockThreshold <= 0 {
		return
	}
	username = strings.ToLower(username)

	count, err := incrWithTTL(ctx, l.redis, failKey(username), l.lockTTL)
	if err != nil {
		return
	}
	if count >= int64(l.lockThreshold) {
		_ = l.redis.Set(ctx, lockKey(username), "1", l.lockTTL).Err()
	}
}

// Succeed 清理失败计数。
func (l *loginLimiter) Succeed(ctx context.Context, username string) {
	if l.redis == nil {
		return
	}
	_ = l.redis.Del(ctx, failKey(strings.ToLower(username))).Err()
}

func lockKey(username string) string { return "lock:login:" + username }
func failKey(username string) string { return "lock:login:fail:" + username }

type redisCounter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

func incrWithTTL(ctx context.Context, client redisCounter, key string, ttl time.Duration) (int64, error) {
	count, err := client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 && ttl > 0 {
		_ = client.Expire(ctx, key, ttl).Err()
	}
	return count, nil
}
