package handlers

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"konnectia/internal/common"
	"konnectia/internal/utils"
)

// respondAuthError answers failures on the sign-in paths, where a missing
// profile or passcode is reported vaguely as a bad request.
func respondAuthError(w http.ResponseWriter, err error) {
	if errors.Is(err, common.ErrNotFound) {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request")
		return
	}
	respondError(w, err)
}

func respondError(w http.ResponseWriter, err error) {
	var (
		validation *common.ValidationError
		conflict   *common.ConflictError
		invalidOTP *common.InvalidOTPError
	)

	switch {
	case errors.As(err, &validation):
		utils.RespondWithError(w, http.StatusBadRequest, validation.Message)
	case errors.As(err, &conflict):
		utils.RespondWithError(w, http.StatusConflict, conflict.Message)
	case errors.As(err, &invalidOTP):
		utils.RespondWithError(w, http.StatusBadRequest, invalidOTP.Error())
	case errors.Is(err, common.ErrOTPAttemptsExceeded):
		utils.RespondWithError(w, http.StatusBadRequest, common.ErrOTPAttemptsExceeded.Error())
	case errors.Is(err, common.ErrOTPExpired):
		utils.RespondWithError(w, http.StatusBadRequest, common.ErrOTPExpired.Error())
	case errors.Is(err, common.ErrNotFound):
		utils.RespondWithError(w, http.StatusNotFound, "Not found.")
	case errors.Is(err, common.ErrInvalidCredentials):
		utils.RespondWithError(w, http.StatusUnauthorized, "Invalid username or password")
	case errors.Is(err, common.ErrInvalidToken):
		utils.RespondWithError(w, http.StatusUnauthorized, "Token is invalid or expired")
	case errors.Is(err, common.ErrAccountInactive):
		utils.RespondWithError(w, http.StatusForbidden, "Account is not active. Please confirm your email address.")
	case errors.Is(err, common.ErrForbidden):
		utils.RespondWithError(w, http.StatusForbidden, "You do not have permission to perform this action.")
	case errors.Is(err, common.ErrTooManyRequests):
		utils.RespondWithError(w, http.StatusTooManyRequests, "Too many OTP requests. Please try again later.")
	case errors.Is(err, common.ErrDeliveryFailure):
		utils.RespondWithError(w, http.StatusInternalServerError, "Could not send OTP")
	default:
		log.Error().Err(err).Msg("Unhandled service error")
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}
