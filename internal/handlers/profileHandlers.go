package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"konnectia/internal/models"
	"konnectia/internal/services"
	"konnectia/internal/utils"
)

type ProfileHandler struct {
	profiles services.ProfileService
	posts    services.PostService
}

func NewProfileHandler(profiles services.ProfileService, posts services.PostService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, posts: posts}
}

func (h *ProfileHandler) ListProfiles(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(w, r)
	if err != nil {
		return
	}

	page, limit := pagination(r)
	profiles, err := h.profiles.ListProfiles(r.Context(), userID, page, limit)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, profiles)
}

func (h *ProfileHandler) MyProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(w, r)
	if err != nil {
		return
	}

	profile, err := h.profiles.GetOwnProfile(r.Context(), userID)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, profile)
}

func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(w, r)
	if err != nil {
		return
	}
	profileID, err := utils.GetUUIDFromVars(w, r, "id")
	if err != nil {
		return
	}

	profile, err := h.profiles.GetProfile(r.Context(), userID, profileID)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, profile)
}

// ProfilePosts lists the posts written by the profile's owner.
func (h *ProfileHandler) ProfilePosts(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(w, r)
	if err != nil {
		return
	}
	profileID, err := utils.GetUUIDFromVars(w, r, "id")
	if err != nil {
		return
	}

	profile, err := h.profiles.GetProfile(r.Context(), userID, profileID)
	if err != nil {
		respondError(w, err)
		return
	}
	page, limit := pagination(r)
	posts, err := h.posts.ListUserPosts(r.Context(), userID, profile.User.ID, page, limit)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, posts)
}

func (h *ProfileHandler) Follow(w http.ResponseWriter, r *http.Request) {
	h.setFollow(w, r, h.profiles.Follow, "Followed successfully")
}

func (h *ProfileHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	h.setFollow(w, r, h.profiles.Unfollow, "Unfollowed successfully")
}

type followFunc = func(ctx context.Context, userID, profileID uuid.UUID) error

func (h *ProfileHandler) setFollow(w http.ResponseWriter, r *http.Request, fn followFunc, message string) {
	userID, err := utils.GetUserIDFromContext(w, r)
	if err != nil {
		return
	}
	profileID, err := utils.GetUUIDFromVars(w, r, "id")
	if err != nil {
		return
	}

	if err := fn(r.Context(), userID, profileID); err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, models.StatusResponse{Status: "success", Message: message})
}
