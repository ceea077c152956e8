package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

type authCtxKey int

const authKey authCtxKey = 7

const (
	audienceResearcher = "researcher"
	audienceReceipt    = "receipt"
)

var ErrInvalidToken = errors.New("invalid token")

var (
	secretMu  sync.RWMutex
	secretKey = []byte("coffee-dev-secret")
)

// SetSecret replaces the HMAC key used for tokens and receipts. Empty values
// are ignored.
func SetSecret(s string) {
	if s == "" {
		return
	}
	secretMu.Lock()
	secretKey = []byte(s)
	secretMu.Unlock()
}

func secret() []byte {
	secretMu.RLock()
	defer secretMu.RUnlock()
	return secretKey
}

// Claims identify an authenticated researcher.
type Claims struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// ReceiptClaims prove that a submission was recorded.
type ReceiptClaims struct {
	SurveyID string `json:"sid"`
	jwt.RegisteredClaims
}

func registered(audience, subject string, ttl time.Duration) jwt.RegisteredClaims {
	now := time.Now()
	return jwt.RegisteredClaims{
		Subject:   subject,
		Audience:  jwt.ClaimStrings{audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

func SignToken(uid, email string, ttl time.Duration) (string, error) {
	claims := Claims{UID: uid, Email: email, RegisteredClaims: registered(audienceResearcher, uid, ttl)}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret())
}

// SignReceipt issues a token a respondent can keep as proof of submission.
func SignReceipt(submissionID, surveyID string, ttl time.Duration) (string, error) {
	claims := ReceiptClaims{SurveyID: surveyID, RegisteredClaims: registered(audienceReceipt, submissionID, ttl)}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret())
}

func parse(tok, audience string, claims jwt.Claims) error {
	t, err := jwt.ParseWithClaims(tok, claims, func(*jwt.Token) (interface{}, error) { return secret(), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(audience),
	)
	if err != nil {
		return err
	}
	if !t.Valid {
		return ErrInvalidToken
	}
	return nil
}

func parseToken(tok string) (*Claims, error) {
	c := &Claims{}
	if err := parse(tok, audienceResearcher, c); err != nil {
		return nil, err
	}
	return c, nil
}

// ParseReceipt returns the submission and survey ids a receipt was issued for.
func ParseReceipt(tok string) (submissionID, surveyID string, err error) {
	c := &ReceiptClaims{}
	if err := parse(tok, audienceReceipt, c); err != nil {
		return "", "", err
	}
	return c.Subject, c.SurveyID, nil
}

// WithAuth attaches researcher claims to the context if a valid bearer token
// is present. Requests without one pass through unchanged.
func WithAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := r.Header.Get("Authorization")
		if tok, ok := strings.CutPrefix(h, "Bearer "); ok {
			if c, err := parseToken(strings.TrimSpace(tok)); err == nil {
				next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), authKey, c)))
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := r.Context().Value(authKey).(*Claims); !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func UserIDFromContext(ctx context.Context) (string, bool) {
	if c, ok := ctx.Value(authKey).(*Claims); ok && c.UID != "" {
		return c.UID, true
	}
	return "", false
}
