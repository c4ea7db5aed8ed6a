package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/shwemart/shwemart/internal/errs"
	"github.com/shwemart/shwemart/internal/models"
	"github.com/shwemart/shwemart/internal/service"
	"github.com/sirupsen/logrus"
)

// AuthorizeMiddleware loads the authenticated user and checks its role.
//
//	Authorize(true, "ADMIN", "AUTHOR")  only these roles pass
//	Authorize(false, "USER")            every role except these passes
type AuthorizeMiddleware struct {
	users  service.UserStore
	logger *logrus.Logger
}

func NewAuthorizeMiddleware(users service.UserStore, logger *logrus.Logger) *AuthorizeMiddleware {
	return &AuthorizeMiddleware{
		users:  users,
		logger: logger,
	}
}

func (m *AuthorizeMiddleware) Authorize(allow bool, roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := UserIDFromContext(r.Context())
			if !ok {
				m.respondError(w, errs.Unauthenticated("You are not an authenticated user."))
				return
			}

			user, err := m.users.GetByID(r.Context(), userID)
			if err != nil {
				m.logger.WithError(err).Error("Failed to load user for authorization")
				m.respondError(w, errs.From(err))
				return
			}
			if user == nil {
				m.respondError(w, errs.Unauthenticated("This account has not registered."))
				return
			}

			matched := false
			for _, role := range roles {
				if user.Role == role {
					matched = true
					break
				}
			}

			if allow != matched {
				m.respondError(w, errs.Unauthorized("This action is not allowed."))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

func (m *AuthorizeMiddleware) respondError(w http.ResponseWriter, e *errs.Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.Status)
	json.NewEncoder(w).Encode(map[string]string{
		"message": e.Message,
		"error":   e.Code,
	})
}
