package platforms

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"
)

const (
	requestTimeout = 30 * time.Second
	usageThreshold = 60.0
	cooldownPeriod = 30 * time.Second
)

// ErrTimeout marks a provider call that exceeded the hard request timeout.
var ErrTimeout = errors.New("provider request timed out")

// RateLimitError is returned on HTTP 429; the cooldown has already been
// armed by the time the caller sees it.
type RateLimitError struct {
	Platform   string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s rate limit reached, retry after %s", e.Platform, e.RetryAfter)
}

// usageTelemetry is the provider-reported utilization header payload. Values
// are percentages of the allowed budget.
type usageTelemetry struct {
	CallCount int `json:"call_count"`
	TotalCPU  int `json:"total_cputime"`
	TotalTime int `json:"total_time"`
}

func (u usageTelemetry) exceeded() bool {
	return float64(u.CallCount) > usageThreshold ||
		float64(u.TotalCPU) > usageThreshold ||
		float64(u.TotalTime) > usageThreshold
}

// ThrottledClient wraps an HTTP client with provider backoff. After each
// response it inspects the usage telemetry header; past the threshold it arms
// a cooldown that delays the next call on the same client, not the current
// one. A 429 arms the cooldown immediately.
type ThrottledClient struct {
	platform string
	inner    *http.Client

	mu         sync.Mutex
	pauseUntil time.Time

	now   func() time.Time
	sleep func(time.Duration)
}

func NewThrottledClient(platform string) *ThrottledClient {
	return &ThrottledClient{
		platform: platform,
		inner:    &http.Client{Timeout: requestTimeout},
		now:      time.Now,
		sleep:    time.Sleep,
	}
}

func (c *ThrottledClient) Do(req *http.Request) (*http.Response, error) {
	c.mu.Lock()
	wait := c.pauseUntil.Sub(c.now())
	c.mu.Unlock()
	if wait > 0 {
		c.sleep(wait)
	}

	resp, err := c.inner.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return nil, err
	}

	if header := resp.Header.Get("X-App-Usage"); header != "" {
		var usage usageTelemetry
		if jsonErr := json.Unmarshal([]byte(header), &usage); jsonErr == nil && usage.exceeded() {
			c.cooldown()
		}
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		c.cooldown()
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return nil, &RateLimitError{Platform: c.platform, RetryAfter: cooldownPeriod}
	}

	return resp, nil
}

func (c *ThrottledClient) cooldown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	until := c.now().Add(cooldownPeriod)
	if until.After(c.pauseUntil) {
		c.pauseUntil = until
	}
}

// clientCache is the process-wide lazy-init-once handle for an adapter's
// HTTP client. Reset forces a fresh client after an auth failure.
type clientCache struct {
	platform string

	mu     sync.Mutex
	client *ThrottledClient
}

func (c *clientCache) get() *ThrottledClient {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client == nil {
		c.client = NewThrottledClient(c.platform)
	}
	return c.client
}

func (c *clientCache) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.client = nil
}
