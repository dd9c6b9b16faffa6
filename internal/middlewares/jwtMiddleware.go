package middlewares

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"konnectia/internal/utils"
)

// TokenParser resolves an access token to the user it was issued for.
type TokenParser interface {
	ParseAccess(token string) (uuid.UUID, error)
}

// AuthMiddleware rejects requests without a valid bearer access token and
// stores the user ID in the request context.
func AuthMiddleware(tokens TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := r.Header.Get("Authorization")
			if tokenString == "" {
				utils.RespondWithError(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
				return
			}

			if !strings.HasPrefix(tokenString, "Bearer ") {
				utils.RespondWithError(w, http.StatusUnauthorized, "Invalid token format")
				return
			}
			tokenString = strings.TrimSpace(tokenString[len("Bearer "):])

			userID, err := tokens.ParseAccess(tokenString)
			if err != nil {
				log.Debug().Err(err).Str("path", r.URL.Path).Msg("Rejected access token")
				utils.RespondWithError(w, http.StatusUnauthorized, "Given token not valid for any token type")
				return
			}

			next.ServeHTTP(w, r.WithContext(utils.ContextWithUserID(r.Context(), userID)))
		})
	}
}
