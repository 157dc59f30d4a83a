package api

import (
	"net"
	"net/http"
	"strings"
	"time"
)

// setSessionCookies writes both credential carriers with the same lifetime.
func (c Config) setSessionCookies(w http.ResponseWriter, sessionID, token string, ttl time.Duration) {
	maxAge := int(ttl / time.Second)
	c.setCookie(w, c.SessionCookieName, sessionID, maxAge)
	c.setCookie(w, c.TokenCookieName, token, maxAge)
}

func (c Config) clearSessionCookies(w http.ResponseWriter) {
	c.setCookie(w, c.SessionCookieName, "", -1)
	c.setCookie(w, c.TokenCookieName, "", -1)
}

func (c Config) setCookie(w http.ResponseWriter, name, value string, maxAge int) {
	ck := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     c.CookiePath,
		Domain:   c.CookieDomain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   c.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	}
	if maxAge < 0 {
		ck.Expires = time.Unix(0, 0).UTC()
	}
	http.SetCookie(w, ck)
}

// credentials extracts the session id and bearer token. Cookies win;
// X-Session-Id and Authorization: Bearer serve non-browser clients.
func (c Config) credentials(r *http.Request) (sessionID, token string) {
	if ck, err := r.Cookie(c.SessionCookieName); err == nil {
		sessionID = strings.TrimSpace(ck.Value)
	}
	if ck, err := r.Cookie(c.TokenCookieName); err == nil {
		token = strings.TrimSpace(ck.Value)
	}
	if sessionID == "" {
		sessionID = strings.TrimSpace(r.Header.Get("X-Session-Id"))
	}
	if token == "" {
		token = bearerToken(r)
	}
	return sessionID, token
}

func bearerToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if h == "" {
		return ""
	}
	const prefix = "bearer "
	if len(h) < len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(h[len(prefix):])
}

func clientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if ip := parseForwardedIP(r.Header.Get("X-Forwarded-For")); ip != nil {
			return ip.String()
		}
		if ip := net.ParseIP(strings.TrimSpace(r.Header.Get("X-Real-IP"))); ip != nil {
			return ip.String()
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil {
		if ip := net.ParseIP(host); ip != nil {
			return ip.String()
		}
	}
	if ip := net.ParseIP(strings.TrimSpace(r.RemoteAddr)); ip != nil {
		return ip.String()
	}
	return ""
}

func parseForwardedIP(raw string) net.IP {
	if raw == "" {
		return nil
	}
	for _, p := range strings.Split(raw, ",") {
		if ip := net.ParseIP(strings.TrimSpace(p)); ip != nil {
			return ip
		}
	}
	return nil
}
