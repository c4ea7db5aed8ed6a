package middleware

import (
	"net/http"
	"time"

	"github.com/shwemart/shwemart/internal/config"
	"github.com/shwemart/shwemart/internal/models"
)

const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
)

// CookieWriter issues and clears the session cookies. Both cookies are
// HTTP-only and SameSite strict; Secure is on in production.
type CookieWriter struct {
	cookieCfg *config.CookieConfig
	jwtCfg    *config.JWTConfig
	secure    bool
}

func NewCookieWriter(cookieCfg *config.CookieConfig, jwtCfg *config.JWTConfig, secure bool) *CookieWriter {
	return &CookieWriter{
		cookieCfg: cookieCfg,
		jwtCfg:    jwtCfg,
		secure:    secure,
	}
}

func (c *CookieWriter) SetAuthCookies(w http.ResponseWriter, pair *models.TokenPair) {
	http.SetCookie(w, c.cookie(AccessTokenCookie, pair.AccessToken, c.jwtCfg.AccessExpiry))
	http.SetCookie(w, c.cookie(RefreshTokenCookie, pair.RefreshToken, c.jwtCfg.RefreshExpiry))
}

func (c *CookieWriter) ClearAuthCookies(w http.ResponseWriter) {
	http.SetCookie(w, c.cookie(AccessTokenCookie, "", -time.Second))
	http.SetCookie(w, c.cookie(RefreshTokenCookie, "", -time.Second))
}

func (c *CookieWriter) cookie(name, value string, maxAge time.Duration) *http.Cookie {
	cookie := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     c.cookieCfg.Path,
		Domain:   c.cookieCfg.Domain,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteStrictMode,
	}
	if maxAge < 0 {
		cookie.MaxAge = -1
	} else {
		cookie.MaxAge = int(maxAge.Seconds())
	}
	return cookie
}
