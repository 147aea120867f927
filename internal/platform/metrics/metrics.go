package metrics

import (
	"sync/atomic"
	"time"
)

type Collector struct {
	totalRequests    uint64
	errorRequests    uint64
	rateLimited      uint64
	totalDurationMs  uint64
	loginsSucceeded  uint64
	loginsFailed     uint64
	upstreamFailures uint64
}

func New() *Collector {
	return &Collector{}
}

func (c *Collector) Record(status int, duration time.Duration) {
	if c == nil {
		return
	}
	atomic.AddUint64(&c.totalRequests, 1)
	if status >= 500 {
		atomic.AddUint64(&c.errorRequests, 1)
	}
	if status == 429 {
		atomic.AddUint64(&c.rateLimited, 1)
	}
	atomic.AddUint64(&c.totalDurationMs, uint64(duration.Milliseconds()))
}

func (c *Collector) LoginSucceeded() {
	if c != nil {
		atomic.AddUint64(&c.loginsSucceeded, 1)
	}
}

func (c *Collector) LoginFailed() {
	if c != nil {
		atomic.AddUint64(&c.loginsFailed, 1)
	}
}

func (c *Collector) UpstreamFailed() {
	if c != nil {
		atomic.AddUint64(&c.upstreamFailures, 1)
	}
}

func (c *Collector) Snapshot() map[string]any {
	total := atomic.LoadUint64(&c.totalRequests)
	totalMs := atomic.LoadUint64(&c.totalDurationMs)
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}
	return map[string]any{
		"requestsTotal":         total,
		"errorsTotal":           atomic.LoadUint64(&c.errorRequests),
		"rateLimitedTotal":      atomic.LoadUint64(&c.rateLimited),
		"avgDurationMs":         avg,
		"totalDurationMs":       totalMs,
		"loginsSucceededTotal":  atomic.LoadUint64(&c.loginsSucceeded),
		"loginsFailedTotal":     atomic.LoadUint64(&c.loginsFailed),
		"upstreamFailuresTotal": atomic.LoadUint64(&c.upstreamFailures),
	}
}
