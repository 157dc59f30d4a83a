package session

import (
	"time"

	paseto "aidanwoods.dev/go-paseto"
)

type pasetoV4PublicManager struct {
	issuer    string
	clockSkew time.Duration

	secret paseto.V4AsymmetricSecretKey
	public paseto.V4AsymmetricPublicKey
}

// NewPasetoV4PublicManager builds a TokenManager based on PASETO v4.public.
//
// It uses an Ed25519 asymmetric keypair and enforces issuer and time rules
// against the caller's clock rather than the wall clock.
func NewPasetoV4PublicManager(cfg Config) (TokenManager, error) {
	if cfg.PasetoV4SecretKeyHex == "" {
		return nil, ErrSigningKeyMissing
	}
	secret, err := paseto.NewV4AsymmetricSecretKeyFromHex(cfg.PasetoV4SecretKeyHex)
	if err != nil {
		return nil, ErrConfig
	}

	return &pasetoV4PublicManager{
		issuer:    cfg.Issuer,
		clockSkew: cfg.ClockSkew,
		secret:    secret,
		public:    secret.Public(),
	}, nil
}

func (m *pasetoV4PublicManager) Issue(userID, sessionID string, now, exp time.Time) (string, error) {
	tok := paseto.NewToken()
	tok.SetIssuer(m.issuer)
	tok.SetIssuedAt(now)
	tok.SetNotBefore(now)
	tok.SetExpiration(exp)

	if err := tok.Set("uid", userID); err != nil {
		return "", err
	}
	if err := tok.Set("sid", sessionID); err != nil {
		return "", err
	}

	return tok.V4Sign(m.secret, nil), nil
}

func (m *pasetoV4PublicManager) Verify(token string, now time.Time) (Claims, error) {
	if token == "" || len(token) > maxTokenLen {
		return Claims{}, ErrTokenInvalid
	}

	// Fresh parser per call so rules never accumulate across verifies.
	p := paseto.NewParserWithoutExpiryCheck()
	p.AddRule(paseto.IssuedBy(m.issuer))
	p.AddRule(validAtWithSkew(now, m.clockSkew))

	parsed, err := p.ParseV4Public(m.public, token, nil)
	if err != nil {
		return Claims{}, ErrTokenInvalid
	}

	uid, err := parsed.GetString("uid")
	if err != nil || uid == "" {
		return Claims{}, ErrTokenInvalid
	}
	sid, err := parsed.GetString("sid")
	if err != nil || sid == "" {
		return Claims{}, ErrTokenInvalid
	}

	iss, _ := parsed.GetIssuer()
	exp, _ := parsed.GetExpiration()
	iat, _ := parsed.GetIssuedAt()

	return Claims{
		UserID:    uid,
		SessionID: sid,
		IssuedAt:  iat,
		ExpiresAt: exp,
		Issuer:    iss,
	}, nil
}

// validAtWithSkew requires exp to be present and checks exp, iat and nbf
// against now, widened by skew.
func validAtWithSkew(now time.Time, skew time.Duration) paseto.Rule {
	return func(tok paseto.Token) error {
		exp, err := tok.GetExpiration()
		if err != nil {
			return err
		}
		if !now.Before(exp.Add(skew)) {
			return ErrTokenInvalid
		}
		if iat, err := tok.GetIssuedAt(); err == nil && iat.After(now.Add(skew)) {
			return ErrTokenInvalid
		}
		if nbf, err := tok.GetNotBefore(); err == nil && nbf.After(now.Add(skew)) {
			return ErrTokenInvalid
		}
		return nil
	}
}
