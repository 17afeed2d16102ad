package middleware

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vet-clinic-api/internal/platform/logger"
	"vet-clinic-api/internal/ports/auth"
)

type stubVerifier struct {
	claims auth.Claims
	err    error
}

func (s stubVerifier) Verify(_ context.Context, token string) (auth.Claims, error) {
	if token != "good" {
		return auth.Claims{}, errors.New("bad token")
	}
	return s.claims, s.err
}

func claimsEcho(t *testing.T, want string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, want, ActorID(r))
	})
}

func TestAuthContext_DevHeader(t *testing.T) {
	h := AuthContext(nil)(claimsEcho(t, "u-dev"))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(DebugUserHeader, "u-dev")
	h.ServeHTTP(httptest.NewRecorder(), req)
}

func TestAuthContext_Bearer(t *testing.T) {
	v := stubVerifier{claims: auth.Claims{UserID: "u-jwt"}}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer good")
	AuthContext(v)(claimsEcho(t, "u-jwt")).ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer nope")
	AuthContext(v)(claimsEcho(t, "")).ServeHTTP(httptest.NewRecorder(), req)
}

func TestActorID_Precedence(t *testing.T) {
	req := httptest.NewRequest(http.MethodPatch, "/medical-records/1?adminId=adm", nil)
	req.Header.Set("veterinarianId", "vet")
	req = req.WithContext(WithClaims(req.Context(), auth.Claims{UserID: "tok"}))
	assert.Equal(t, "adm", ActorID(req, "veterinarianId"))

	req = httptest.NewRequest(http.MethodPatch, "/medical-records/1", nil)
	req.Header.Set("veterinarianId", "vet")
	req = req.WithContext(WithClaims(req.Context(), auth.Claims{UserID: "tok"}))
	assert.Equal(t, "vet", ActorID(req, "veterinarianId"))
	assert.Equal(t, "tok", ActorID(req))
}

func TestRecover(t *testing.T) {
	var buf bytes.Buffer
	l := logger.New(logger.Options{Output: &buf})

	h := RequestLog(l)(Recover(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, buf.String(), `msg="panic recovered"`)
	assert.Contains(t, buf.String(), "status=500")
}

func TestRequestLog_CarriesRequestID(t *testing.T) {
	var buf bytes.Buffer
	l := logger.New(logger.Options{Output: &buf})

	h := chimw.RequestID(RequestLog(l)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.FromContext(r.Context()).Info("inside", nil)
		w.WriteHeader(http.StatusCreated)
	})))

	req := httptest.NewRequest(http.MethodPost, "/users", nil)
	req.Header.Set("X-Request-Id", "req-42")
	h.ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	assert.Contains(t, out, "msg=inside")
	assert.Contains(t, out, "request_id=req-42")
	assert.Contains(t, out, "status=201")
}

func TestIPRateLimiter(t *testing.T) {
	l := NewIPRateLimiter(1, 2)
	defer l.Stop()

	h := l.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{200, 200, http.StatusTooManyRequests}, codes)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.2:5555"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, "other IPs keep their own bucket")
}

func TestIPRateLimiter_EvictsIdle(t *testing.T) {
	l := NewIPRateLimiter(1, 1)
	defer l.Stop()

	base := time.Now()
	l.now = func() time.Time { return base }
	require.True(t, l.Allow("10.0.0.1"))

	l.now = func() time.Time { return base.Add(visitorTTL + time.Second) }
	l.evictIdle()

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.Empty(t, l.visitors)
}
