package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"konnectia/internal/models"
	"konnectia/internal/services"
	"konnectia/internal/utils"
)

type AuthHandler struct {
	authService    services.AuthService
	otpService     services.OTPService
	sessionService services.SessionService
}

func NewAuthHandler(authService services.AuthService, otpService services.OTPService, sessionService services.SessionService) *AuthHandler {
	return &AuthHandler{authService: authService, otpService: otpService, sessionService: sessionService}
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req models.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error().Err(err).Msg("Invalid request body for Signup")
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if _, err := h.authService.Signup(r.Context(), req); err != nil {
		respondError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, models.StatusResponse{
		Status:  "success",
		Message: "Your account has been created! Please check your email to confirm your email address and activate your account.",
	})
}

func (h *AuthHandler) Activate(w http.ResponseWriter, r *http.Request) {
	if _, err := h.authService.Activate(r.Context(), mux.Vars(r)["token"]); err != nil {
		respondError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, models.StatusResponse{
		Status:  "success",
		Message: "Thank you for your email confirmation. Now you can login your account.",
	})
}

// Signin dispatches on auth_type: password credentials or a mobile number
// for an OTP.
func (h *AuthHandler) Signin(w http.ResponseWriter, r *http.Request) {
	var req models.SigninRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error().Err(err).Msg("Invalid request body for Signin")
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	switch strings.ToLower(strings.TrimSpace(req.AuthType)) {
	case "", "email", "password":
		session, err := h.authService.PasswordLogin(r.Context(), req.Username, req.Password)
		if err != nil {
			respondError(w, err)
			return
		}
		utils.RespondWithJSON(w, http.StatusOK, models.SessionResponse{
			Status:  "success",
			Message: fmt.Sprintf("Welcome back, %s!", displayName(session.User)),
			Tokens:  &session.Tokens,
		})
	case "otp":
		dispatch, err := h.otpService.RequestOTP(r.Context(), req.Mobile)
		if err != nil {
			respondAuthError(w, err)
			return
		}
		utils.RespondWithJSON(w, http.StatusOK, models.OTPResponse{
			Status:   "success",
			Message:  "OTP sent successfully",
			Mobile:   dispatch.Mobile,
			Username: dispatch.Username,
		})
	default:
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid auth_type")
	}
}

func (h *AuthHandler) ResendOTP(w http.ResponseWriter, r *http.Request) {
	var req models.OTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	dispatch, err := h.otpService.ResendOTP(r.Context(), req.Mobile)
	if err != nil {
		respondAuthError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, models.OTPResponse{
		Status:   "success",
		Message:  "OTP resent successfully",
		Mobile:   dispatch.Mobile,
		Username: dispatch.Username,
	})
}

func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req models.OTPVerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	session, err := h.otpService.VerifyOTP(r.Context(), req)
	if err != nil {
		respondAuthError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, models.SessionResponse{
		Status:  "success",
		Message: fmt.Sprintf("Welcome, %s!", displayName(session.User)),
		Tokens:  &session.Tokens,
	})
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req models.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Refresh == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Refresh token is required")
		return
	}

	tokens, err := h.sessionService.Refresh(r.Context(), req.Refresh)
	if err != nil {
		respondError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, models.SessionResponse{
		Status:  "success",
		Message: "Token refreshed",
		Tokens:  &tokens,
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(w, r)
	if err != nil {
		return
	}

	if err := h.sessionService.Logout(r.Context(), userID); err != nil {
		respondError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, models.StatusResponse{Status: "success", Message: "Logged out successfully"})
}

func displayName(u *models.User) string {
	if u.FirstName != "" {
		return u.FirstName
	}
	return u.Username
}
