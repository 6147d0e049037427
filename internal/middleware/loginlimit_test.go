package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestLoginProtection_AccountLockout(t *testing.T) {
	lp := NewLoginProtection(LoginProtectionConfig{
		MaxFailedAttempts: 3,
		LockoutDuration:   time.Minute,
		AttemptWindow:     time.Minute,
	})

	email := "ana@example.com"
	for i := 0; i < 2; i++ {
		if locked, _ := lp.RecordFailedAttempt(email); locked {
			t.Fatalf("locked after %d attempts", i+1)
		}
	}
	locked, dur := lp.RecordFailedAttempt(email)
	if !locked {
		t.Fatal("third failure should lock the account")
	}
	if dur != time.Minute {
		t.Errorf("lock duration = %v, want 1m", dur)
	}

	if locked, _ := lp.IsAccountLocked(email); !locked {
		t.Error("account should report locked")
	}
	if locked, _ := lp.IsAccountLocked("other@example.com"); locked {
		t.Error("other accounts unaffected")
	}
}

func TestLoginProtection_SuccessClearsFailures(t *testing.T) {
	lp := NewLoginProtection(LoginProtectionConfig{MaxFailedAttempts: 2})

	lp.RecordFailedAttempt("ana@example.com")
	lp.RecordSuccessfulLogin("ana@example.com")
	if locked, _ := lp.RecordFailedAttempt("ana@example.com"); locked {
		t.Fatal("counter should have been reset by the successful login")
	}
}

func TestLoginProtection_Middleware(t *testing.T) {
	lp := NewLoginProtection(LoginProtectionConfig{IPRateLimit: 100, IPBurst: 2})
	h := lp.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	post := func(ip string) int {
		r := httptest.NewRequest(http.MethodPost, "/auth/signin", nil)
		r.Header.Set("X-Real-IP", ip)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		return w.Code
	}

	if code := post("10.0.0.1"); code != http.StatusOK {
		t.Fatalf("first request status = %d", code)
	}
	if code := post("10.0.0.1"); code != http.StatusOK {
		t.Fatalf("second request status = %d", code)
	}
	if code := post("10.0.0.1"); code != http.StatusTooManyRequests {
		t.Fatalf("burst exceeded, status = %d, want 429", code)
	}
	if code := post("10.0.0.2"); code != http.StatusOK {
		t.Fatalf("other IP status = %d", code)
	}

	t.Run("GET is never limited", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/auth/signin", nil)
		r.Header.Set("X-Real-IP", "10.0.0.1")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
	})
}
