package auth

import (
	"context"
	"net/http"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const contextKeyAudience contextKey = "audience"

// Audience distinguishes the management surface from the evaluation
// surface (spec §6: "Two token audiences distinguish the management
// surface from the evaluation surface").
type Audience string

const (
	AudienceManagement Audience = "management"
	AudienceEvaluation Audience = "evaluation"
)

// Authenticator verifies bearer tokens against the two configured
// audience key hashes. Unlike the teacher's per-key database-backed
// authenticator, there is no per-key store here — spec §6 only asks for
// two static audiences, so the bcrypt hash of each lives in config.
type Authenticator struct {
	managementHash string
	evaluationHash string
}

func NewAuthenticator(managementKeyHash, evaluationKeyHash string) *Authenticator {
	return &Authenticator{managementHash: managementKeyHash, evaluationHash: evaluationKeyHash}
}

// Authenticate reports which audience, if any, authHeader's bearer token
// is valid for.
func (a *Authenticator) Authenticate(authHeader string) (Audience, bool) {
	token := ExtractBearerToken(authHeader)
	if token == "" {
		return "", false
	}
	if a.managementHash != "" && VerifyAPIKey(token, a.managementHash) {
		return AudienceManagement, true
	}
	if a.evaluationHash != "" && VerifyAPIKey(token, a.evaluationHash) {
		return AudienceEvaluation, true
	}
	return "", false
}

// RequireAudience is a middleware requiring a bearer token valid for aud.
// The management audience is always accepted where the evaluation
// audience is required (management can do everything the narrower
// evaluation surface can).
func (a *Authenticator) RequireAudience(aud Audience) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, ok := a.Authenticate(r.Header.Get("Authorization"))
			if !ok {
				http.Error(w, "missing or invalid bearer token", http.StatusUnauthorized)
				return
			}
			if got != aud && got != AudienceManagement {
				http.Error(w, "insufficient permissions", http.StatusForbidden)
				return
			}
			ctx := context.WithValue(r.Context(), contextKeyAudience, got)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AudienceFromContext extracts the authenticated audience from the
// request context, set by RequireAudience.
func AudienceFromContext(ctx context.Context) (Audience, bool) {
	aud, ok := ctx.Value(contextKeyAudience).(Audience)
	return aud, ok
}
