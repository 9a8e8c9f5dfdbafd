package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Kind selects the signing secret and the purpose of a token.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
	KindReset   Kind = "reset"
)

// Verification failures reported by Codec.Verify.
var (
	ErrTokenExpired     = errors.New("token expired")
	ErrTokenMalformed   = errors.New("token malformed")
	ErrSignatureInvalid = errors.New("token signature invalid")
)

// Identity is the subject a token is issued for. Either field may be
// empty, not both.
type Identity struct {
	UserID string
	Email  string
}

// Claims is the token payload.
type Claims struct {
	UserID string `json:"user_id,omitempty"`
	Email  string `json:"email,omitempty"`
	Kind   Kind   `json:"typ"`
	jwt.RegisteredClaims
}

// CodecConfig binds each kind to its secret and default lifetime.
type CodecConfig struct {
	Algorithm     string
	AccessSecret  string
	RefreshSecret string
	ResetSecret   string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	ResetTTL      time.Duration
}

// Codec signs and verifies HMAC JWTs. It never consults the revocation
// registry.
type Codec struct {
	method  jwt.SigningMethod
	secrets map[Kind][]byte
	ttls    map[Kind]time.Duration
	now     func() time.Time
}

// NewCodec validates cfg and builds a Codec. Only HMAC algorithms are
// accepted.
func NewCodec(cfg CodecConfig) (*Codec, error) {
	alg := cfg.Algorithm
	if alg == "" {
		alg = jwt.SigningMethodHS256.Alg()
	}
	method, ok := jwt.GetSigningMethod(alg).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q", alg)
	}
	c := &Codec{
		method: method,
		secrets: map[Kind][]byte{
			KindAccess:  []byte(cfg.AccessSecret),
			KindRefresh: []byte(cfg.RefreshSecret),
			KindReset:   []byte(cfg.ResetSecret),
		},
		ttls: map[Kind]time.Duration{
			KindAccess:  cfg.AccessTTL,
			KindRefresh: cfg.RefreshTTL,
			KindReset:   cfg.ResetTTL,
		},
		now: time.Now,
	}
	for kind, secret := range c.secrets {
		if len(secret) == 0 {
			return nil, fmt.Errorf("%s token secret is required", kind)
		}
		if c.ttls[kind] <= 0 {
			return nil, fmt.Errorf("%s token ttl must be positive", kind)
		}
	}
	return c, nil
}

// SetClock replaces the time source used for issuing and verifying.
func (c *Codec) SetClock(now func() time.Time) { c.now = now }

// TTL returns the configured lifetime of kind.
func (c *Codec) TTL(kind Kind) time.Duration { return c.ttls[kind] }

// Issue signs a token of kind for id that expires ttl from now. A
// non-positive ttl selects the configured lifetime.
func (c *Codec) Issue(kind Kind, id Identity, ttl time.Duration) (string, time.Time, error) {
	secret, ok := c.secrets[kind]
	if !ok {
		return "", time.Time{}, fmt.Errorf("unknown token kind %q", kind)
	}
	if id.UserID == "" && id.Email == "" {
		return "", time.Time{}, errors.New("token subject is required")
	}
	if ttl <= 0 {
		ttl = c.ttls[kind]
	}
	now := c.now().UTC()
	exp := now.Add(ttl)
	claims := Claims{
		UserID: id.UserID,
		Email:  id.Email,
		Kind:   kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(c.method, claims).SignedString(secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// TokenPair is an access token and a refresh token minted together.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// IssuePair mints an access and a refresh token carrying the same identity.
func (c *Codec) IssuePair(id Identity) (TokenPair, error) {
	access, accessExp, err := c.Issue(KindAccess, id, 0)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, refreshExp, err := c.Issue(KindRefresh, id, 0)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// Verify checks the signature of raw against kind's secret and its expiry,
// and returns the claims. Failures are ErrTokenExpired, ErrTokenMalformed
// or ErrSignatureInvalid.
func (c *Codec) Verify(kind Kind, raw string) (*Claims, error) {
	secret, ok := c.secrets[kind]
	if !ok {
		return nil, fmt.Errorf("unknown token kind %q", kind)
	}
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (any, error) { return secret, nil },
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithTimeFunc(c.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
			return nil, ErrSignatureInvalid
		default:
			return nil, ErrTokenMalformed
		}
	}
	if claims.Kind != kind {
		return nil, ErrTokenMalformed
	}
	return claims, nil
}
