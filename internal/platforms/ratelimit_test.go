package platforms

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(t *testing.T) (*ThrottledClient, *[]time.Duration) {
	t.Helper()

	var slept []time.Duration
	base := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

	c := NewThrottledClient(PlatformInstagram)
	c.now = func() time.Time { return base }
	c.sleep = func(d time.Duration) { slept = append(slept, d) }
	return c, &slept
}

func get(t *testing.T, c *ThrottledClient, url string) (*http.Response, error) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	return c.Do(req)
}

func TestThrottledClientPassesThroughUnderThreshold(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-App-Usage", `{"call_count":20,"total_cputime":10,"total_time":15}`)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c, slept := newTestClient(t)

	for i := 0; i < 2; i++ {
		resp, err := get(t, c, srv.URL)
		if err != nil {
			t.Fatalf("Do: %v", err)
		}
		resp.Body.Close()
	}

	if len(*slept) != 0 {
		t.Errorf("expected no delay under the threshold, slept %v", *slept)
	}
}

func TestThrottledClientDelaysNextCallAboveThreshold(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-App-Usage", `{"call_count":75,"total_cputime":10,"total_time":15}`)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c, slept := newTestClient(t)

	resp, err := get(t, c, srv.URL)
	if err != nil {
		t.Fatalf("first Do: %v", err)
	}
	resp.Body.Close()

	// The call that saw the telemetry is never delayed itself.
	if len(*slept) != 0 {
		t.Fatalf("first call was delayed: %v", *slept)
	}

	resp, err = get(t, c, srv.URL)
	if err != nil {
		t.Fatalf("second Do: %v", err)
	}
	resp.Body.Close()

	if len(*slept) != 1 {
		t.Fatalf("expected exactly one delay, got %v", *slept)
	}
	if (*slept)[0] != cooldownPeriod {
		t.Errorf("delay = %v, want %v", (*slept)[0], cooldownPeriod)
	}
}

func TestThrottledClientTooManyRequests(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c, slept := newTestClient(t)

	_, err := get(t, c, srv.URL)
	var rateErr *RateLimitError
	if !errors.As(err, &rateErr) {
		t.Fatalf("expected a RateLimitError, got %v", err)
	}
	if rateErr.Platform != PlatformInstagram {
		t.Errorf("platform = %q", rateErr.Platform)
	}
	if rateErr.RetryAfter != cooldownPeriod {
		t.Errorf("retry after = %v, want %v", rateErr.RetryAfter, cooldownPeriod)
	}

	// The cooldown is armed immediately, so the next call waits.
	srvOK := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srvOK.Close()

	resp, err := get(t, c, srvOK.URL)
	if err != nil {
		t.Fatalf("Do after 429: %v", err)
	}
	resp.Body.Close()

	if len(*slept) != 1 || (*slept)[0] != cooldownPeriod {
		t.Errorf("expected one cooldown delay, got %v", *slept)
	}
}

func TestThrottledClientTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c, _ := newTestClient(t)
	c.inner = &http.Client{Timeout: 20 * time.Millisecond}

	_, err := get(t, c, srv.URL)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestUsageTelemetryExceeded(t *testing.T) {
	cases := []struct {
		name  string
		usage usageTelemetry
		want  bool
	}{
		{"all low", usageTelemetry{CallCount: 10, TotalCPU: 10, TotalTime: 10}, false},
		{"at threshold", usageTelemetry{CallCount: 60, TotalCPU: 60, TotalTime: 60}, false},
		{"call count high", usageTelemetry{CallCount: 61}, true},
		{"cpu high", usageTelemetry{TotalCPU: 90}, true},
		{"total time high", usageTelemetry{TotalTime: 75}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.usage.exceeded(); got != tc.want {
				t.Errorf("exceeded() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestClientCacheReuseAndReset(t *testing.T) {
	cache := &clientCache{platform: PlatformThreads}

	first := cache.get()
	if first != cache.get() {
		t.Fatal("expected the cached client to be reused")
	}

	cache.reset()
	if first == cache.get() {
		t.Fatal("expected reset to produce a fresh client")
	}
}
