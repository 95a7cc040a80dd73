package ratelimit

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestLimiter_AllowAndExpire(t *testing.T) {
	l := New(2, time.Minute)
	defer l.Close()

	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return clock }

	if !l.Allow("k") || !l.Allow("k") {
		t.Fatal("first two requests should be allowed")
	}
	if l.Allow("k") {
		t.Error("third request should be rejected")
	}
	if got := l.Remaining("k"); got != 0 {
		t.Errorf("Remaining = %d, want 0", got)
	}

	clock = clock.Add(time.Minute + time.Second)
	if !l.Allow("k") {
		t.Error("request after window should be allowed")
	}
}

func TestLimiter_Reset(t *testing.T) {
	l := New(1, time.Hour)
	defer l.Close()

	l.Allow("k")
	if l.Allow("k") {
		t.Fatal("second request should be rejected")
	}
	l.Reset("k")
	if !l.Allow("k") {
		t.Error("request after Reset should be allowed")
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name   string
		xff    string
		xri    string
		remote string
		want   string
	}{
		{"forwarded chain", "203.0.113.7, 10.0.0.1", "", "10.0.0.2:5000", "203.0.113.7"},
		{"real ip", "", " 198.51.100.4 ", "10.0.0.2:5000", "198.51.100.4"},
		{"remote with port", "", "", "192.0.2.1:4444", "192.0.2.1"},
		{"remote without port", "", "", "192.0.2.1", "192.0.2.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/api/login", nil)
			r.RemoteAddr = tt.remote
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				r.Header.Set("X-Real-IP", tt.xri)
			}
			if got := ClientIP(r); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoginLimiter_PerEmail(t *testing.T) {
	ll := NewLoginLimiter(4, time.Minute)
	defer ll.Close()

	r := httptest.NewRequest("POST", "/api/login", nil)

	for i := 0; i < 2; i++ {
		if ok, _ := ll.Check(r, "Alice@Example.com"); !ok {
			t.Fatalf("attempt %d should be allowed", i+1)
		}
	}
	if ok, limit := ll.Check(r, "alice@example.com"); ok || limit != LimitEmail {
		t.Errorf("third attempt for the same email should trip the email limit, got (%v, %q)", ok, limit)
	}

	ll.ResetEmail("ALICE@example.com")
	if ok, _ := ll.Check(r, "alice@example.com"); !ok {
		t.Error("attempt after ResetEmail should be allowed")
	}
}

func TestLoginLimiter_PerIP(t *testing.T) {
	ll := NewLoginLimiter(2, time.Minute)
	defer ll.Close()

	r := httptest.NewRequest("POST", "/api/login", nil)
	r.RemoteAddr = "198.51.100.7:5555"

	ll.Check(r, "a@example.com")
	ll.Check(r, "b@example.com")
	if ok, limit := ll.Check(r, "c@example.com"); ok || limit != LimitIP {
		t.Errorf("third attempt from one IP = (%v, %q), want (false, %q)", ok, limit, LimitIP)
	}
	if ll.Window() != time.Minute {
		t.Errorf("Window() = %v", ll.Window())
	}
}
