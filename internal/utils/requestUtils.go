package utils

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type contextKey string

const userIDKey contextKey = "userID"

func ContextWithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(userIDKey).(uuid.UUID)
	return userID, ok
}

// GetUserIDFromContext returns the authenticated user or writes a 401.
func GetUserIDFromContext(w http.ResponseWriter, r *http.Request) (uuid.UUID, error) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		RespondWithError(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
		return uuid.Nil, errors.New("user ID not found in context")
	}
	return userID, nil
}

// GetObjectIDFromVars extracts and parses an ObjectID from mux.Vars.
func GetObjectIDFromVars(w http.ResponseWriter, r *http.Request, paramName string) (primitive.ObjectID, error) {
	idStr := mux.Vars(r)[paramName]
	if idStr == "" {
		RespondWithError(w, http.StatusBadRequest, "Missing ID parameter")
		return primitive.NilObjectID, errors.New("missing ID parameter")
	}

	objID, err := primitive.ObjectIDFromHex(idStr)
	if err != nil {
		RespondWithError(w, http.StatusNotFound, "Not found.")
		return primitive.NilObjectID, errors.New("invalid ID format")
	}
	return objID, nil
}

// GetUUIDFromVars extracts and parses a UUID from mux.Vars. A malformed id
// is answered as not found.
func GetUUIDFromVars(w http.ResponseWriter, r *http.Request, paramName string) (uuid.UUID, error) {
	id, err := uuid.Parse(mux.Vars(r)[paramName])
	if err != nil {
		RespondWithError(w, http.StatusNotFound, "Not found.")
		return uuid.Nil, errors.New("invalid ID format")
	}
	return id, nil
}
