package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type bearerClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

type jwtManager struct {
	issuer    string
	clockSkew time.Duration
	secret    []byte
}

// NewJWTManager builds a TokenManager producing HS256 JWTs.
// The subject carries the user id and the "sid" claim the session id.
func NewJWTManager(cfg Config) (TokenManager, error) {
	if cfg.TokenSecret == "" {
		return nil, ErrSigningKeyMissing
	}
	if len(cfg.TokenSecret) < MinTokenSecretBytes {
		return nil, ErrConfig
	}
	return &jwtManager{
		issuer:    cfg.Issuer,
		clockSkew: cfg.ClockSkew,
		secret:    []byte(cfg.TokenSecret),
	}, nil
}

func (m *jwtManager) Issue(userID, sessionID string, now, exp time.Time) (string, error) {
	claims := bearerClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			// Distinguishes tokens minted within the same second for one session.
			ID: uuid.NewString(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

func (m *jwtManager) Verify(token string, now time.Time) (Claims, error) {
	if token == "" || len(token) > maxTokenLen {
		return Claims{}, ErrTokenInvalid
	}

	var claims bearerClaims
	parsed, err := jwt.ParseWithClaims(token, &claims,
		func(*jwt.Token) (any, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(m.clockSkew),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil || !parsed.Valid {
		return Claims{}, ErrTokenInvalid
	}
	if claims.Subject == "" || claims.SessionID == "" {
		return Claims{}, ErrTokenInvalid
	}

	out := Claims{
		UserID:    claims.Subject,
		SessionID: claims.SessionID,
		Issuer:    claims.Issuer,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}
