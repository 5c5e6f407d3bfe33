package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/DeepakDums1998/blog-app-skilldzire/internal/post/model"
	"github.com/DeepakDums1998/blog-app-skilldzire/internal/post/service"
	"github.com/DeepakDums1998/blog-app-skilldzire/middleware"
	"github.com/DeepakDums1998/blog-app-skilldzire/pkg/logger"
)

// Client-facing messages. Internal failures never carry more detail than these.
const (
	msgMissingID     = "Missing ?id=POST_ID"
	msgNotFound      = "Post not found."
	msgMissingFields = "Missing fields. Required: title, content, author"
	msgInvalidText   = "Invalid text. title, content and author must be UTF-8 without NUL characters."
	msgInvalidJSON   = "Invalid JSON body."
	msgTooLarge      = "Request body too large."
	msgNotAllowed    = "Method not allowed."
)

const defaultMaxBodyBytes = 1 << 20

type PostHandler struct {
	Service      *service.PostService
	MaxBodyBytes int64
}

func NewPostHandler(service *service.PostService, maxBodyBytes int64) *PostHandler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = defaultMaxBodyBytes
	}
	return &PostHandler{Service: service, MaxBodyBytes: maxBodyBytes}
}

func (h *PostHandler) GetPosts(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	posts, err := h.Service.ListPosts(r.Context())
	if err != nil {
		logger.Sugar.Errorw("GET /getPosts failed", "request_id", middleware.RequestID(r.Context()), "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch posts.")
		return
	}

	writeJSON(w, http.StatusOK, model.PostsResponse{Posts: posts})
}

func (h *PostHandler) GetPostByID(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	postID := r.URL.Query().Get("id")
	if postID == "" {
		writeError(w, http.StatusBadRequest, msgMissingID)
		return
	}

	post, err := h.Service.GetPost(r.Context(), postID)
	if errors.Is(err, service.ErrNotFound) {
		writeError(w, http.StatusNotFound, msgNotFound)
		return
	}
	if err != nil {
		logger.Sugar.Errorw("GET /getPostById failed", "request_id", middleware.RequestID(r.Context()), "post_id", postID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch post.")
		return
	}

	writeJSON(w, http.StatusOK, model.PostResponse{Post: post})
}

func (h *PostHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	body, ok := h.decodeBody(w, r)
	if !ok {
		return
	}

	postID, err := h.Service.CreatePost(r.Context(), body)
	if err != nil {
		h.writeWriteError(w, r, "POST /createPost", "create", err)
		return
	}

	writeJSON(w, http.StatusCreated, model.CreatePostResponse{ID: postID})
}

func (h *PostHandler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPut) {
		return
	}

	postID := r.URL.Query().Get("id")
	if postID == "" {
		writeError(w, http.StatusBadRequest, msgMissingID)
		return
	}

	body, ok := h.decodeBody(w, r)
	if !ok {
		return
	}

	if err := h.Service.UpdatePost(r.Context(), postID, body); err != nil {
		h.writeWriteError(w, r, "PUT /updatePost", "update", err)
		return
	}

	writeJSON(w, http.StatusOK, model.OKResponse{OK: true})
}

func (h *PostHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodDelete) {
		return
	}

	postID := r.URL.Query().Get("id")
	if postID == "" {
		writeError(w, http.StatusBadRequest, msgMissingID)
		return
	}

	if err := h.Service.DeletePost(r.Context(), postID); err != nil {
		h.writeWriteError(w, r, "DELETE /deletePost", "delete", err)
		return
	}

	writeJSON(w, http.StatusOK, model.OKResponse{OK: true})
}

// Health reports whether the post store answers.
func (h *PostHandler) Health(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	if _, err := h.Service.ListPosts(r.Context()); err != nil {
		logger.Sugar.Warnw("Health check failed", "request_id", middleware.RequestID(r.Context()), "error", err)
		writeError(w, http.StatusServiceUnavailable, "Post store unavailable.")
		return
	}
	writeJSON(w, http.StatusOK, model.OKResponse{OK: true})
}

// writeWriteError maps a service error from a write to its response.
func (h *PostHandler) writeWriteError(w http.ResponseWriter, r *http.Request, route, verb string, err error) {
	var missing *service.MissingFieldsError
	var invalid *service.InvalidTextError
	switch {
	case errors.As(err, &missing):
		writeError(w, http.StatusBadRequest, msgMissingFields)
	case errors.As(err, &invalid):
		writeError(w, http.StatusBadRequest, msgInvalidText)
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, msgNotFound)
	default:
		logger.Sugar.Errorw(route+" failed", "request_id", middleware.RequestID(r.Context()), "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to "+verb+" post.")
	}
}

// decodeBody reads a JSON object. An empty body or any non-object JSON
// value yields an empty map, which validation then rejects field by field.
func (h *PostHandler) decodeBody(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxBodyBytes)
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, msgTooLarge)
			return nil, false
		}
		writeError(w, http.StatusBadRequest, msgInvalidJSON)
		return nil, false
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return map[string]any{}, true
	}

	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidJSON)
		return nil, false
	}
	body, ok := value.(map[string]any)
	if !ok {
		body = map[string]any{}
	}
	return body, true
}

func allowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method || (method == http.MethodGet && r.Method == http.MethodHead) {
		return true
	}
	w.Header().Set("Allow", method)
	writeError(w, http.StatusMethodNotAllowed, msgNotAllowed)
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Sugar.Errorf("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}
