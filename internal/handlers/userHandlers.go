package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"konnectia/internal/models"
	"konnectia/internal/services"
	"konnectia/internal/utils"
)

const maxUploadSize = 10 << 20

type UserHandler struct {
	userService services.UserService
}

func NewUserHandler(userService services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (u *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(w, r)
	if err != nil {
		return
	}

	account, err := u.userService.GetAccount(r.Context(), userID)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, account)
}

func (u *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(w, r)
	if err != nil {
		return
	}

	var upd models.AccountUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		log.Error().Err(err).Msg("Invalid request body for UpdateMe")
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	account, err := u.userService.UpdateAccount(r.Context(), userID, upd)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, account)
}

func (u *UserHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(w, r)
	if err != nil {
		return
	}

	if err := u.userService.DeleteAccount(r.Context(), userID); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (u *UserHandler) UploadProfilePicture(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(w, r)
	if err != nil {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "No image provided")
		return
	}
	file, _, err := r.FormFile("profile_picture")
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "No image provided")
		return
	}
	defer file.Close()

	url, err := u.userService.UploadProfilePicture(r.Context(), userID, file)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"profile_picture": url})
}

func (u *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	page, limit := pagination(r)
	users, err := u.userService.ListUsers(r.Context(), page, limit)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, users)
}

func (u *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := utils.GetUUIDFromVars(w, r, "id")
	if err != nil {
		return
	}

	user, err := u.userService.GetUser(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, user)
}
