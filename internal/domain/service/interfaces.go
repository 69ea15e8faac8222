package service

import (
	"context"
	"time"

	"github.com/turtacn/dataguard/internal/domain/models"
)

// Clock abstracts the wall clock so time-dependent rules can be tested.
// Clock 抽象系统时钟，便于测试时间相关的规则。
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real clock in UTC.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

//go:generate mockery --name AlertPublisher --output mocks --outpkg mocks
// AlertPublisher fans created and resolved alerts out to downstream consumers.
// AlertPublisher 将新建和已处理的告警分发给下游消费者。
type AlertPublisher interface {
	// PublishAlert sends the current state of an alert. Failures never roll back the ledger.
	// PublishAlert 发送告警的当前状态，失败不会回滚告警账本。
	PublishAlert(ctx context.Context, alert *models.Alert) error
}

// NoopAlertPublisher discards every alert.
type NoopAlertPublisher struct{}

func (NoopAlertPublisher) PublishAlert(context.Context, *models.Alert) error { return nil }

//go:generate mockery --name Deduplicator --output mocks --outpkg mocks
// Deduplicator holds the alert dedup window.
// Deduplicator 维护告警去重窗口。
type Deduplicator interface {
	// Claim reserves key for ttl. It returns false when the key is still held by an earlier claim.
	// Claim 在 ttl 时间内占用 key；key 已被占用时返回 false。
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Release frees key before its ttl expires.
	// Release 在 ttl 到期前释放 key。
	Release(ctx context.Context, key string) error
}

//Personal.AI order the ending
