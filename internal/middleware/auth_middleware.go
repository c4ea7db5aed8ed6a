package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/shwemart/shwemart/internal/errs"
	"github.com/shwemart/shwemart/internal/service"
	"github.com/sirupsen/logrus"
)

// AuthMiddleware is the per-request session gate. Each request lands in
// exactly one of five states:
//
//	no refresh cookie                  -> 401 Error_Unauthenticated
//	refresh present, access absent     -> rotate; failure is terminal 401
//	both present, access valid         -> pass through, no cookie writes
//	access expired (signature valid)   -> rotate silently, set new cookies
//	access structurally invalid        -> 400 Error_Attack, no rotation
type AuthMiddleware struct {
	tokens  *service.TokenService
	cookies *CookieWriter
	logger  *logrus.Logger
}

func NewAuthMiddleware(tokens *service.TokenService, cookies *CookieWriter, logger *logrus.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		tokens:  tokens,
		cookies: cookies,
		logger:  logger,
	}
}

func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		refreshToken := cookieValue(r, RefreshTokenCookie)
		if refreshToken == "" {
			m.respondError(w, errs.Unauthenticated("You are not an authenticated user."))
			return
		}

		accessToken := cookieValue(r, AccessTokenCookie)
		if accessToken == "" {
			m.rotateAndContinue(w, r, next, refreshToken)
			return
		}

		userID, err := m.tokens.ValidateAccess(accessToken)
		switch {
		case err == nil:
			// The common case: nothing is written back to the client.
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		case errs.Is(err, errs.CodeAccessTokenExpired):
			m.rotateAndContinue(w, r, next, refreshToken)
		default:
			// Tampered or malformed, regardless of refresh token state.
			m.logger.WithError(err).Warn("Rejected forged access token")
			m.respondError(w, errs.From(err))
		}
	})
}

// rotateAndContinue is the silent refresh path: a successful rotation
// attaches the identity and emits the new cookie pair before the request
// proceeds.
func (m *AuthMiddleware) rotateAndContinue(w http.ResponseWriter, r *http.Request, next http.Handler, refreshToken string) {
	pair, user, err := m.tokens.Rotate(r.Context(), refreshToken)
	if err != nil {
		m.respondError(w, errs.Unauthenticated("You are not an authenticated user."))
		return
	}

	m.cookies.SetAuthCookies(w, pair)
	next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), user.ID)))
}

func (m *AuthMiddleware) respondError(w http.ResponseWriter, e *errs.Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.Status)
	json.NewEncoder(w).Encode(map[string]string{
		"message": e.Message,
		"error":   e.Code,
	})
}

func cookieValue(r *http.Request, name string) string {
	cookie, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}
