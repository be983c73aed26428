package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/vinald/bookapi/internal/apperr"
)

// Token purposes. A token issued for one purpose never validates for
// another: Decode checks the typ claim against what the caller expects.
const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
	TypeVerify  = "verify"
	TypeReset   = "reset"
)

type Claims struct {
	Type string `json:"typ"`
	jwt.RegisteredClaims
}

// Codec signs and verifies the compact claim-bearing tokens used for
// sessions, email verification and password resets. HS256 only.
type Codec struct {
	secret []byte
}

func NewCodec(secret []byte, algorithm string) (*Codec, error) {
	if len(secret) == 0 {
		return nil, errors.New("tokens: empty signing secret")
	}
	if algorithm != jwt.SigningMethodHS256.Alg() {
		return nil, fmt.Errorf("tokens: unsupported signing algorithm %q", algorithm)
	}
	return &Codec{secret: secret}, nil
}

// Issue signs a token of the given type for subject, expiring after ttl.
// Returns the compact token and its unique jti.
func (c *Codec) Issue(subject, typ string, ttl time.Duration) (string, string, error) {
	now := time.Now()
	jti := uuid.NewString()
	claims := Claims{
		Type: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(c.secret)
	if err != nil {
		return "", "", err
	}
	return signed, jti, nil
}

// Decode verifies signature, expiry and type. Every failure other than
// expiry reports the same apperr.ErrInvalidToken so callers can't probe
// which check rejected the token.
func (c *Codec) Decode(raw, wantTyp string) (*Claims, error) {
	var claims Claims
	tkn, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected sign method")
		}
		return c.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperr.ErrTokenExpired
		}
		return nil, apperr.ErrInvalidToken
	}
	if !tkn.Valid {
		return nil, apperr.ErrInvalidToken
	}
	if claims.Type != wantTyp || claims.Subject == "" || claims.ID == "" {
		return nil, apperr.ErrInvalidToken
	}
	return &claims, nil
}
