package token

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/99minutos/auth-service/internal/core/domain"
)

var testSecret = []byte("K-test-secret-for-hs256-signing")

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newTestCodec(t *testing.T, now time.Time) *Codec {
	t.Helper()
	c, err := NewCodec(Config{Secret: testSecret, TTL: time.Hour}, WithClock(fixedClock(now)))
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	return c
}

func replaceAt(s string, i int) string {
	r := byte('A')
	if s[i] == 'A' {
		r = 'B'
	}
	return s[:i] + string(r) + s[i+1:]
}

func signRaw(t *testing.T, header, payload string) string {
	t.Helper()
	enc := base64.RawURLEncoding
	signing := enc.EncodeToString([]byte(header)) + "." + enc.EncodeToString([]byte(payload))
	sig, err := jwt.SigningMethodHS256.Sign(signing, testSecret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return signing + "." + enc.EncodeToString(sig)
}

func TestNewCodec_Validation(t *testing.T) {
	if _, err := NewCodec(Config{TTL: time.Hour}); err == nil {
		t.Fatalf("expected error for empty secret")
	}
	if _, err := NewCodec(Config{Secret: testSecret}); err == nil {
		t.Fatalf("expected error for zero ttl")
	}
}

func TestCodec_RoundTrip(t *testing.T) {
	t0 := time.Unix(1_700_000_000, 0)
	c := newTestCodec(t, t0)

	tok, err := c.Issue("alice", map[string]any{"tenant": "north", "sub": "mallory"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if n := strings.Count(tok, "."); n != 2 {
		t.Fatalf("expected 3 segments, got %d dots", n)
	}

	claims, err := c.Decode(tok)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if claims.Subject != "alice" {
		t.Fatalf("extra claims must not override sub, got %q", claims.Subject)
	}
	if claims.Extra["tenant"] != "north" {
		t.Fatalf("extra claim lost: %+v", claims.Extra)
	}
	if _, ok := claims.Extra["sub"]; ok {
		t.Fatalf("registered claim leaked into extra: %+v", claims.Extra)
	}
	if !claims.IssuedAt.Equal(t0) {
		t.Fatalf("iat = %v, want %v", claims.IssuedAt, t0)
	}
	if !claims.ExpiresAt.Equal(t0.Add(time.Hour)) {
		t.Fatalf("exp = %v, want %v", claims.ExpiresAt, t0.Add(time.Hour))
	}
	if claims.ID == "" {
		t.Fatalf("expected jti to be set")
	}
}

func TestCodec_EmptySubject(t *testing.T) {
	c := newTestCodec(t, time.Now())
	if _, err := c.Issue("", nil); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestCodec_ExpiryScenario(t *testing.T) {
	t0 := time.Unix(1_700_000_000, 0)
	c := newTestCodec(t, t0)

	tok, err := c.Issue("alice", map[string]any{})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	claims, err := c.Decode(tok)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if claims.Subject != "alice" {
		t.Fatalf("unexpected subject %q", claims.Subject)
	}
	if c.IsExpired(claims, t0) {
		t.Fatalf("token must not be expired at issuance")
	}
	if c.IsExpired(claims, t0.Add(10*time.Second)) {
		t.Fatalf("token must not be expired at t0+10s")
	}
	if !c.IsExpired(claims, t0.Add(3601*time.Second)) {
		t.Fatalf("token must be expired at t0+3601s")
	}

	// Decode itself never rejects a stale token.
	late := newTestCodec(t, t0.Add(48*time.Hour))
	if _, err := late.Decode(tok); err != nil {
		t.Fatalf("Decode of expired token should succeed, got %v", err)
	}

	exp, err := c.ExtractExpiry(tok)
	if err != nil || !exp.Equal(t0.Add(time.Hour)) {
		t.Fatalf("ExtractExpiry = %v, %v", exp, err)
	}
	sub, err := c.ExtractSubject(tok)
	if err != nil || sub != "alice" {
		t.Fatalf("ExtractSubject = %q, %v", sub, err)
	}
}

func TestCodec_IsExpiredNilClaims(t *testing.T) {
	c := newTestCodec(t, time.Now())
	if !c.IsExpired(nil, time.Now()) {
		t.Fatalf("nil claims must count as expired")
	}
}

func TestCodec_SignatureByteFlip(t *testing.T) {
	c := newTestCodec(t, time.Now())
	tok, err := c.Issue("alice", nil)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	sigStart := strings.LastIndex(tok, ".") + 1

	for i := sigStart; i < len(tok); i++ {
		tampered := replaceAt(tok, i)
		if _, err := c.Decode(tampered); !errors.Is(err, domain.ErrTokenBadSignature) {
			t.Fatalf("flip at %d: expected ErrTokenBadSignature, got %v", i, err)
		}
	}

	if _, err := c.Decode(tok[:sigStart] + "!!!"); !errors.Is(err, domain.ErrTokenBadSignature) {
		t.Fatalf("non-base64 signature: expected ErrTokenBadSignature, got %v", err)
	}
}

func TestCodec_PayloadTamper(t *testing.T) {
	c := newTestCodec(t, time.Now())
	tok, err := c.Issue("alice", nil)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	first := strings.Index(tok, ".") + 1
	second := strings.LastIndex(tok, ".")

	for i := first; i < second; i++ {
		if _, err := c.Decode(replaceAt(tok, i)); !errors.Is(err, domain.ErrTokenBadSignature) {
			t.Fatalf("payload flip at %d: expected ErrTokenBadSignature, got %v", i, err)
		}
	}
}

func TestCodec_Rejects(t *testing.T) {
	c := newTestCodec(t, time.Now())

	other, err := NewCodec(Config{Secret: []byte("another-secret"), TTL: time.Hour})
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	foreign, _ := other.Issue("alice", nil)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "alice",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"empty", "", domain.ErrTokenMalformed},
		{"garbage", "not-a-jwt-token", domain.ErrTokenMalformed},
		{"four segments", "a.b.c.d", domain.ErrTokenMalformed},
		{"foreign key", foreign, domain.ErrTokenBadSignature},
		{"alg none", none, domain.ErrTokenBadSignature},
		{"payload not json", signRaw(t, `{"alg":"HS256","typ":"JWT"}`, `not-json`), domain.ErrTokenMalformed},
		{"missing exp", signRaw(t, `{"alg":"HS256","typ":"JWT"}`, `{"sub":"alice"}`), domain.ErrTokenMalformed},
		{"missing sub", signRaw(t, `{"alg":"HS256","typ":"JWT"}`, `{"exp":4102444800}`), domain.ErrTokenMalformed},
		{"header lies about alg", signRaw(t, `{"alg":"HS512","typ":"JWT"}`, `{"sub":"alice","exp":4102444800}`), domain.ErrTokenBadSignature},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Decode(tt.token)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if n := strings.Count(err.Error(), tt.want.Error()); n != 1 {
				t.Fatalf("expected %q exactly once in %q, got %d", tt.want, err, n)
			}
			if _, err := c.ExtractSubject(tt.token); !errors.Is(err, tt.want) {
				t.Fatalf("ExtractSubject: expected %v, got %v", tt.want, err)
			}
		})
	}
}
