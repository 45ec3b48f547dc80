// Package token implements the bearer token codec: compact JWS tokens signed
// with HMAC-SHA256 under a single process-wide secret.
package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/99minutos/auth-service/internal/core/domain"
	"github.com/99minutos/auth-service/internal/core/ports"
)

// registered lists the payload keys the codec owns. Caller-supplied claims
// never override them.
var registered = map[string]struct{}{
	"sub": {},
	"iat": {},
	"exp": {},
	"jti": {},
}

// Config is the immutable signing configuration, built once at startup.
type Config struct {
	Secret []byte
	TTL    time.Duration
}

// Codec issues and verifies HS256 tokens. It holds no mutable state and is
// safe for concurrent use.
type Codec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	parser *jwt.Parser
}

var _ ports.TokenCodec = (*Codec)(nil)

// Option customises a Codec.
type Option func(*Codec)

// WithClock overrides the time source used for iat/exp.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) { c.now = now }
}

// NewCodec validates cfg and returns a Codec. The secret is copied so later
// mutation of cfg.Secret cannot affect signing.
func NewCodec(cfg Config, opts ...Option) (*Codec, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("token: secret must not be empty")
	}
	if cfg.TTL <= 0 {
		return nil, fmt.Errorf("token: ttl must be positive, got %s", cfg.TTL)
	}

	secret := make([]byte, len(cfg.Secret))
	copy(secret, cfg.Secret)

	c := &Codec{
		secret: secret,
		ttl:    cfg.TTL,
		now:    time.Now,
		// Expiry is deliberately not validated here; see IsExpired.
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithoutClaimsValidation(),
			jwt.WithStrictDecoding(),
		),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// TTL returns the configured token lifetime.
func (c *Codec) TTL() time.Duration {
	return c.ttl
}

// Issue signs a token for subject. Extra claims are copied into the payload
// first and then overwritten by sub, iat, exp and jti. An empty subject is a
// caller bug and is rejected with domain.ErrInvalidInput.
func (c *Codec) Issue(subject string, claims map[string]any) (string, error) {
	if subject == "" {
		return "", fmt.Errorf("issue token: %w: empty subject", domain.ErrInvalidInput)
	}

	now := c.now()
	payload := make(jwt.MapClaims, len(claims)+len(registered))
	for k, v := range claims {
		payload[k] = v
	}
	payload["sub"] = subject
	payload["iat"] = now.Unix()
	payload["exp"] = now.Add(c.ttl).Unix()
	payload["jti"] = uuid.NewString()

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, payload).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return signed, nil
}

// Decode verifies the signature of raw and returns its claims. It fails with
// domain.ErrTokenBadSignature when the signature does not match the
// header+payload and with domain.ErrTokenMalformed for anything structurally
// wrong. Expiry is not checked.
func (c *Codec) Decode(raw string) (*ports.TokenClaims, error) {
	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: expected 3 segments, got %d", domain.ErrTokenMalformed, len(parts))
	}

	// The MAC is checked before the payload is looked at, so a tampered
	// payload is reported as a signature failure even if it no longer parses.
	sig, err := c.parser.DecodeSegment(parts[2])
	if err != nil {
		return nil, fmt.Errorf("%w: signature segment is not base64url", domain.ErrTokenBadSignature)
	}
	if err := jwt.SigningMethodHS256.Verify(parts[0]+"."+parts[1], sig, c.secret); err != nil {
		return nil, domain.ErrTokenBadSignature
	}

	mc := jwt.MapClaims{}
	if _, err := c.parser.ParseWithClaims(raw, mc, c.keyFunc); err != nil {
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return nil, fmt.Errorf("%w: unsupported signing method", domain.ErrTokenBadSignature)
		}
		return nil, fmt.Errorf("%w: undecodable header or claims", domain.ErrTokenMalformed)
	}

	return toClaims(mc)
}

// ExtractSubject returns the sub claim of a verified token.
func (c *Codec) ExtractSubject(raw string) (string, error) {
	claims, err := c.Decode(raw)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// ExtractExpiry returns the exp claim of a verified token.
func (c *Codec) ExtractExpiry(raw string) (time.Time, error) {
	claims, err := c.Decode(raw)
	if err != nil {
		return time.Time{}, err
	}
	return claims.ExpiresAt, nil
}

// IsExpired reports whether now is past the token's expiry.
func (c *Codec) IsExpired(claims *ports.TokenClaims, now time.Time) bool {
	if claims == nil || claims.ExpiresAt.IsZero() {
		return true
	}
	return now.After(claims.ExpiresAt)
}

func (c *Codec) keyFunc(t *jwt.Token) (any, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
	}
	return c.secret, nil
}

func toClaims(mc jwt.MapClaims) (*ports.TokenClaims, error) {
	sub, err := mc.GetSubject()
	if err != nil || sub == "" {
		return nil, fmt.Errorf("%w: missing sub", domain.ErrTokenMalformed)
	}
	exp, err := mc.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, fmt.Errorf("%w: missing exp", domain.ErrTokenMalformed)
	}
	iat, err := mc.GetIssuedAt()
	if err != nil {
		return nil, fmt.Errorf("%w: bad iat", domain.ErrTokenMalformed)
	}

	out := &ports.TokenClaims{
		Subject:   sub,
		ExpiresAt: exp.Time,
	}
	if iat != nil {
		out.IssuedAt = iat.Time
	}
	if jti, ok := mc["jti"].(string); ok {
		out.ID = jti
	}
	for k, v := range mc {
		if _, ok := registered[k]; ok {
			continue
		}
		if out.Extra == nil {
			out.Extra = make(map[string]any)
		}
		out.Extra[k] = v
	}
	return out, nil
}
