package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastPolicy() Policy {
	return Policy{Attempts: 3, Base: time.Millisecond, Cap: 5 * time.Millisecond, Factor: 2, Jitter: 0}
}

func TestRetrySucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	val, err := Retry(context.Background(), fastPolicy(), "test", func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", MarkTransient(errors.New("503"), 503)
		}
		return "ok", nil
	})
	if err != nil || val != "ok" {
		t.Fatalf("got (%q, %v)", val, err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetryStopsOnPermanentError(t *testing.T) {
	calls := 0
	permanent := errors.New("bad request")
	_, err := Retry(context.Background(), fastPolicy(), "test", func(context.Context) (int, error) {
		calls++
		return 0, permanent
	})
	if !errors.Is(err, permanent) {
		t.Fatalf("err = %v", err)
	}
	if calls != 1 {
		t.Errorf("permanent error retried: %d calls", calls)
	}
}

func TestRetryExhaustsAttempts(t *testing.T) {
	calls := 0
	_, err := Retry(context.Background(), fastPolicy(), "test", func(context.Context) (int, error) {
		calls++
		return 0, MarkTransient(errors.New("flaky"), 0)
	})
	if err == nil {
		t.Fatal("want error after exhausting attempts")
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetryHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := Retry(ctx, Policy{Attempts: 5, Base: time.Minute}, "test", func(context.Context) (int, error) {
		calls++
		cancel()
		return 0, MarkTransient(errors.New("flaky"), 0)
	})
	if err == nil {
		t.Fatal("want error")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (no retry after cancel)", calls)
	}
}

func TestTransient(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"marked", MarkTransient(errors.New("x"), 429), true},
		{"wrapped fragment", errors.New("read tcp: connection reset by peer"), true},
		{"dns", errors.New("dial tcp: lookup x: no such host"), true},
		{"plain", errors.New("invalid argument"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Transient(tc.err); got != tc.want {
				t.Errorf("Transient(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestRetryableStatus(t *testing.T) {
	for _, code := range []int{408, 429, 500, 502, 503, 504} {
		if !RetryableStatus(code) {
			t.Errorf("status %d should be retryable", code)
		}
	}
	for _, code := range []int{200, 301, 400, 401, 404} {
		if RetryableStatus(code) {
			t.Errorf("status %d should not be retryable", code)
		}
	}
}

func TestPolicyDelayCapped(t *testing.T) {
	p := Policy{Attempts: 10, Base: time.Second, Cap: 2 * time.Second, Factor: 10, Jitter: 0}.normalized()
	if d := p.delay(5); d != 2*time.Second {
		t.Errorf("delay = %v, want capped at 2s", d)
	}
}
