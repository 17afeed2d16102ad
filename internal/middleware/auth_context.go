package middleware

import (
	"context"
	"net/http"
	"strings"

	"vet-clinic-api/internal/platform/logger"
	"vet-clinic-api/internal/ports/auth"
)

type ctxKey string

const claimsKey ctxKey = "claims"

// DebugUserHeader identifica al actor en modo dev (sin verifier).
const DebugUserHeader = "X-Debug-User-ID"

// AuthContext:
// - Si verifier != nil y viene Bearer token => intenta Verify() y setea claims.
// - Si verifier == nil => modo dev: si viene header X-Debug-User-ID => setea claims.
// - Sin claims el request sigue igual. La API no exige auth; los claims sólo alimentan lastModifiedBy.
func AuthContext(verifier auth.AuthVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if verifier == nil {
				if uid := strings.TrimSpace(r.Header.Get(DebugUserHeader)); uid != "" {
					next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), auth.Claims{UserID: uid})))
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			token := bearerToken(r.Header.Get("Authorization"))
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := verifier.Verify(r.Context(), token)
			if err != nil {
				logger.FromContext(r.Context()).Debug("bearer token rejected", logger.Fields{"err": err})
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

func WithClaims(ctx context.Context, c auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, c)
}

func GetClaims(ctx context.Context) (auth.Claims, bool) {
	c, ok := ctx.Value(claimsKey).(auth.Claims)
	return c, ok
}

// ActorID resuelve quién hace el cambio para lastModifiedBy:
// query ?adminId=, después los headers indicados (p.ej. veterinarianId), después el token.
func ActorID(r *http.Request, headers ...string) string {
	if id := strings.TrimSpace(r.URL.Query().Get("adminId")); id != "" {
		return id
	}
	for _, h := range headers {
		if id := strings.TrimSpace(r.Header.Get(h)); id != "" {
			return id
		}
	}
	if c, ok := GetClaims(r.Context()); ok {
		return strings.TrimSpace(c.UserID)
	}
	return ""
}

func bearerToken(authHeader string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(authHeader), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
