package metrics

import (
	"testing"
	"time"
)

func TestCollectorSnapshot(t *testing.T) {
	c := New()
	c.Record(200, 10*time.Millisecond)
	c.Record(502, 30*time.Millisecond)
	c.Record(429, 0)
	c.LoginSucceeded()
	c.LoginFailed()
	c.LoginFailed()
	c.UpstreamFailed()

	snap := c.Snapshot()
	if snap["requestsTotal"].(uint64) != 3 {
		t.Fatalf("unexpected requests total: %v", snap["requestsTotal"])
	}
	if snap["errorsTotal"].(uint64) != 1 {
		t.Fatalf("unexpected errors total: %v", snap["errorsTotal"])
	}
	if snap["rateLimitedTotal"].(uint64) != 1 {
		t.Fatalf("unexpected rate limited total: %v", snap["rateLimitedTotal"])
	}
	if snap["avgDurationMs"].(float64) != 40.0/3.0 {
		t.Fatalf("unexpected avg: %v", snap["avgDurationMs"])
	}
	if snap["loginsFailedTotal"].(uint64) != 2 || snap["loginsSucceededTotal"].(uint64) != 1 {
		t.Fatalf("unexpected login counters: %+v", snap)
	}
	if snap["upstreamFailuresTotal"].(uint64) != 1 {
		t.Fatalf("unexpected upstream failures: %v", snap["upstreamFailuresTotal"])
	}
}

func TestNilCollectorIsSafe(t *testing.T) {
	var c *Collector
	c.Record(200, time.Millisecond)
	c.LoginFailed()
	c.UpstreamFailed()
}
