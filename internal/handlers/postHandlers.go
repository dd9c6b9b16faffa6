package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"konnectia/internal/models"
	"konnectia/internal/services"
	"konnectia/internal/utils"
)

type PostHandler struct {
	service services.PostService
}

func NewPostHandler(service services.PostService) *PostHandler {
	return &PostHandler{service: service}
}

// CreatePost accepts JSON, or a multipart form with "content" and an
// optional "image" file.
func (h *PostHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(w, r)
	if err != nil {
		return
	}

	var (
		content string
		image   io.Reader
	)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, "Invalid form data")
			return
		}
		content = r.FormValue("content")
		if file, _, err := r.FormFile("image"); err == nil {
			defer file.Close()
			image = file
		}
	} else {
		var in models.PostInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			log.Error().Err(err).Msg("Error decoding request body for CreatePost")
			utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		content = in.Content
	}

	post, err := h.service.CreatePost(r.Context(), userID, content, image)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, post)
}

func (h *PostHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(w, r)
	if err != nil {
		return
	}

	page, limit := pagination(r)
	posts, err := h.service.ListPosts(r.Context(), userID, page, limit)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, posts)
}

func (h *PostHandler) MyPosts(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(w, r)
	if err != nil {
		return
	}

	page, limit := pagination(r)
	posts, err := h.service.ListUserPosts(r.Context(), userID, userID, page, limit)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, posts)
}

func (h *PostHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(w, r)
	if err != nil {
		return
	}
	postID, err := utils.GetObjectIDFromVars(w, r, "id")
	if err != nil {
		return
	}

	post, err := h.service.GetPost(r.Context(), userID, postID)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, post)
}

func (h *PostHandler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(w, r)
	if err != nil {
		return
	}
	postID, err := utils.GetObjectIDFromVars(w, r, "id")
	if err != nil {
		return
	}

	var in models.PostInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	post, err := h.service.UpdatePost(r.Context(), userID, postID, in.Content)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, post)
}

func (h *PostHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(w, r)
	if err != nil {
		return
	}
	postID, err := utils.GetObjectIDFromVars(w, r, "id")
	if err != nil {
		return
	}

	if err := h.service.DeletePost(r.Context(), userID, postID); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PostHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.service.ToggleLike)
}

func (h *PostHandler) Like(w http.ResponseWriter, r *http.Request) {
	h.set(w, r, h.service.SetLike, true, "Post liked")
}

func (h *PostHandler) Unlike(w http.ResponseWriter, r *http.Request) {
	h.set(w, r, h.service.SetLike, false, "Post unliked")
}

func (h *PostHandler) ToggleSave(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.service.ToggleSave)
}

func (h *PostHandler) Save(w http.ResponseWriter, r *http.Request) {
	h.set(w, r, h.service.SetSave, true, "Post saved")
}

func (h *PostHandler) Unsave(w http.ResponseWriter, r *http.Request) {
	h.set(w, r, h.service.SetSave, false, "Post unsaved")
}

type toggleFunc = func(ctx context.Context, userID uuid.UUID, postID primitive.ObjectID) (bool, error)

type setFunc = func(ctx context.Context, userID uuid.UUID, postID primitive.ObjectID, on bool) error

// toggle answers 201 when the like or save was added and 204 when removed.
func (h *PostHandler) toggle(w http.ResponseWriter, r *http.Request, fn toggleFunc) {
	userID, err := utils.GetUserIDFromContext(w, r)
	if err != nil {
		return
	}
	postID, err := utils.GetObjectIDFromVars(w, r, "id")
	if err != nil {
		return
	}

	added, err := fn(r.Context(), userID, postID)
	if err != nil {
		respondError(w, err)
		return
	}
	if !added {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, models.StatusResponse{Status: "success", Message: "Added"})
}

func (h *PostHandler) set(w http.ResponseWriter, r *http.Request, fn setFunc, on bool, message string) {
	userID, err := utils.GetUserIDFromContext(w, r)
	if err != nil {
		return
	}
	postID, err := utils.GetObjectIDFromVars(w, r, "id")
	if err != nil {
		return
	}

	if err := fn(r.Context(), userID, postID, on); err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, models.StatusResponse{Status: "success", Message: message})
}

func (h *PostHandler) SavedPosts(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(w, r)
	if err != nil {
		return
	}

	saved, err := h.service.ListSaved(r.Context(), userID)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, saved)
}

func (h *PostHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	postID, err := utils.GetObjectIDFromVars(w, r, "id")
	if err != nil {
		return
	}

	comments, err := h.service.ListComments(r.Context(), postID)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, comments)
}

func (h *PostHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(w, r)
	if err != nil {
		return
	}
	postID, err := utils.GetObjectIDFromVars(w, r, "id")
	if err != nil {
		return
	}

	var in models.CommentInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	comment, err := h.service.AddComment(r.Context(), userID, postID, in.Content)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, comment)
}

func (h *PostHandler) GetComment(w http.ResponseWriter, r *http.Request) {
	commentID, err := utils.GetObjectIDFromVars(w, r, "id")
	if err != nil {
		return
	}

	comment, err := h.service.GetComment(r.Context(), commentID)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, comment)
}

func (h *PostHandler) UpdateComment(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(w, r)
	if err != nil {
		return
	}
	commentID, err := utils.GetObjectIDFromVars(w, r, "id")
	if err != nil {
		return
	}

	var in models.CommentInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	comment, err := h.service.UpdateComment(r.Context(), userID, commentID, in.Content)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, comment)
}

func (h *PostHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(w, r)
	if err != nil {
		return
	}
	commentID, err := utils.GetObjectIDFromVars(w, r, "id")
	if err != nil {
		return
	}

	if err := h.service.DeleteComment(r.Context(), userID, commentID); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func pagination(r *http.Request) (page, limit int64) {
	q := r.URL.Query()
	page, _ = strconv.ParseInt(q.Get("page"), 10, 64)
	limit, _ = strconv.ParseInt(q.Get("limit"), 10, 64)
	return page, limit
}
