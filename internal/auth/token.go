package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
	ErrWeakPassword = errors.New("password too weak")
)

// Claims is the signed payload of an access token.
type Claims struct {
	UserID string `json:"sub"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Plan   string `json:"plan"`
	Iat    int64  `json:"iat"`
	Exp    int64  `json:"exp"`
}

// Issuer builds and validates bearer tokens. Tokens are stateless: validity is
// determined purely by signature and expiry.
type Issuer struct {
	secret string
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer constructs an Issuer with the shared signing secret and access
// token lifetime.
func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{secret: secret, ttl: ttl, now: time.Now}
}

// WithClock overrides the issuer's clock, for tests.
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	i.now = now
	return i
}

// TTL returns the configured access token lifetime.
func (i *Issuer) TTL() time.Duration { return i.ttl }

// Issue serializes the claims with issued-at and expiry stamped from the
// issuer's clock and signs the result.
func (i *Issuer) Issue(claims Claims) (string, error) {
	now := i.now()
	claims.Iat = now.Unix()
	claims.Exp = now.Add(i.ttl).Unix()

	header := map[string]string{"alg": "HS256", "typ": "JWT"}
	headerJSON, _ := json.Marshal(header)
	payloadJSON, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}
	headerEnc := base64.RawURLEncoding.EncodeToString(headerJSON)
	payloadEnc := base64.RawURLEncoding.EncodeToString(payloadJSON)
	data := headerEnc + "." + payloadEnc
	return data + "." + Sign(data, i.secret), nil
}

// Verify checks structure, signature and expiry, in that order. Malformed
// input is reported as ErrInvalidToken, never a panic.
func (i *Issuer) Verify(token string) (*Claims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, ErrInvalidToken
	}
	expected := Sign(parts[0]+"."+parts[1], i.secret)
	if !hmac.Equal([]byte(expected), []byte(parts[2])) {
		return nil, ErrInvalidToken
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, ErrInvalidToken
	}
	var claims Claims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, ErrInvalidToken
	}
	if claims.Exp != 0 && i.now().Unix() >= claims.Exp {
		return nil, ErrTokenExpired
	}
	return &claims, nil
}

// Sign computes the HMAC-SHA256 signature of data under secret, encoded as
// unpadded URL-safe base64.
func Sign(data, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(data))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
