package utils // package utils provides helper functions for token creation and hashing

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5" // JWT library for creating and parsing signed tokens
)

var (
	// ErrTokenInvalid covers every verification failure other than expiry:
	// bad signature, wrong algorithm, malformed token, missing claims.
	ErrTokenInvalid = errors.New("invalid session token")
	// ErrTokenExpired is returned for a correctly signed token past its exp.
	ErrTokenExpired = errors.New("session token expired")
)

// SessionToken represents a signed JWT session token along with its
// issued-at and expiry timestamps.
type SessionToken struct {
	Token    string    // the serialized JWT string
	IssuedAt time.Time // iat, whole seconds, UTC
	Exp      time.Time // exp, whole seconds, UTC
}

// SessionClaims is what Verify hands back once a token checks out.
type SessionClaims struct {
	UserID   uint64
	IssuedAt time.Time
}

// SessionTokens issues and verifies HS256 session tokens bound to a user id.
type SessionTokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSessionTokens returns a token service signing with secret; tokens stay
// valid for ttl.
func NewSessionTokens(secret string, ttl time.Duration) *SessionTokens {
	return &SessionTokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// WithClock swaps the time source; used by tests to move past expiry.
func (s *SessionTokens) WithClock(now func() time.Time) *SessionTokens {
	s.now = now
	return s
}

// TTL reports the configured lifetime of issued tokens.
func (s *SessionTokens) TTL() time.Duration { return s.ttl }

// Issue builds and signs a token for userID. The issued-at claim is never
// earlier than notBefore (compared in whole seconds), so a token minted right
// after a password change is never considered stale by the change it follows.
// Pass the zero time when there is no such lower bound.
func (s *SessionTokens) Issue(userID uint64, notBefore time.Time) (SessionToken, error) {
	iat := s.now().UTC().Truncate(time.Second)
	if !notBefore.IsZero() && notBefore.Unix() > iat.Unix() {
		iat = time.Unix(notBefore.Unix(), 0).UTC()
	}
	exp := iat.Add(s.ttl)
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(userID, 10),
		IssuedAt:  jwt.NewNumericDate(iat),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(s.secret)
	if err != nil {
		return SessionToken{}, err
	}
	return SessionToken{Token: signed, IssuedAt: iat, Exp: exp}, nil
}

// Verify parses raw and fails closed: any signature, algorithm or claim
// problem yields ErrTokenInvalid, an elapsed exp yields ErrTokenExpired.
func (s *SessionTokens) Verify(raw string) (SessionClaims, error) {
	var claims jwt.RegisteredClaims
	tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return SessionClaims{}, ErrTokenExpired
		}
		return SessionClaims{}, ErrTokenInvalid
	}
	if !tok.Valid || claims.IssuedAt == nil {
		return SessionClaims{}, ErrTokenInvalid
	}
	uid, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || uid == 0 {
		return SessionClaims{}, ErrTokenInvalid
	}
	return SessionClaims{UserID: uid, IssuedAt: claims.IssuedAt.Time.UTC()}, nil
}
