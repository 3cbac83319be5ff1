package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/melodia/melodia-api/internal/api/shared"
)

// UserIDHeader names the header the edge proxy sets after
// authenticating the caller. The service itself performs no credential
// checks; it trusts the identity the gateway injects.
const UserIDHeader = "X-User-ID"

// Identity extracts the caller's user ID from the gateway header and
// adds it to the request context. Requests without a valid user ID are
// rejected.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get(UserIDHeader)
		if raw == "" {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "User identity required")
			return
		}

		userID, err := uuid.Parse(raw)
		if err != nil || userID == uuid.Nil {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid user identity")
			return
		}

		ctx := context.WithValue(r.Context(), shared.UserIDContextKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserIDFromContext retrieves the authenticated user ID placed in the
// context by Identity. The boolean reports whether one was present.
func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(shared.UserIDContextKey).(uuid.UUID)
	return userID, ok
}
