package cache

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"
)

const escalationPrefix = "escalation:period"

// PeriodKey 一个错过的打卡周期的去重键，以最后一次打卡记录区分周期
func PeriodKey(lastCheckInID int64) string {
	if lastCheckInID <= 0 {
		return escalationPrefix + ":never"
	}
	return escalationPrefix + ":" + strconv.FormatInt(lastCheckInID, 10)
}

// EscalationTTL 去重键有效期：比重复间隔少一小时，保证下个周期能再次告警
func EscalationTTL(interval time.Duration) time.Duration {
	ttl := interval - time.Hour
	if ttl < time.Hour {
		ttl = time.Hour
	}
	return ttl
}

// TryMarkEscalation 抢占某周期的告警权。返回 false 表示该周期已告警过。
// Redis 出错时放行并返回 true
func (c *Cache) TryMarkEscalation(ctx context.Context, periodKey string, ttl time.Duration) bool {
	if !c.available() {
		return true
	}
	ok, err := c.setNX(ctx, c.key(periodKey), time.Now().UTC().Format(time.RFC3339), ttl)
	if err != nil {
		c.log.Warn("Escalation dedupe unavailable, proceeding without it",
			zap.String("period_key", periodKey),
			zap.Error(err),
		)
		return true
	}
	return ok
}

// ReleaseEscalation 告警未能启动时释放去重键，允许后续重试
func (c *Cache) ReleaseEscalation(ctx context.Context, periodKey string) {
	if !c.available() {
		return
	}
	if err := c.del(ctx, c.key(periodKey)); err != nil {
		c.log.Warn("Failed to release escalation dedupe key",
			zap.String("period_key", periodKey),
			zap.Error(err),
		)
	}
}
