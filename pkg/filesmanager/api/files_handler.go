package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/Moseh-25-sudo/alx-files-manager/pkg/filesmanager"
)

// TokenHeader is the fallback header for callers that do not send a bearer token
const TokenHeader = "X-Token"

// FilesHandler serves the files API on top of a filesmanager.Service
type FilesHandler struct {
	service filesmanager.Service
	logger  *slog.Logger
}

func NewFilesHandler(service filesmanager.Service, logger *slog.Logger) *FilesHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &FilesHandler{
		service: service,
		logger:  logger,
	}
}

// Routes returns the router for files endpoints
func (h *FilesHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.CreateFile)
	r.Get("/", h.ListFiles)
	r.Get("/{id}", h.GetFile)
	r.Put("/{id}/publish", h.PublishFile)
	r.Put("/{id}/unpublish", h.UnpublishFile)
	r.Get("/{id}/data", h.GetFileData)
	return r
}

// CreateFileRequest is the POST body. ParentID is kept raw so a malformed
// value is reported as a missing parent rather than a decode failure.
type CreateFileRequest struct {
	Name     string            `json:"name"`
	Type     filesmanager.Kind `json:"type"`
	ParentID json.RawMessage   `json:"parentId,omitempty"`
	IsPublic bool              `json:"isPublic"`
	Data     string            `json:"data,omitempty"`
}

// RequestToken returns the bearer token, falling back to X-Token
func RequestToken(r *http.Request) string {
	if token := jwtauth.TokenFromHeader(r); token != "" {
		return token
	}
	return strings.TrimSpace(r.Header.Get(TokenHeader))
}

// pathID parses the {id} parameter. Ids that do not parse become uuid.Nil,
// which no object carries, so they fall through to the service's not-found
// path after authentication.
func pathID(r *http.Request) uuid.UUID {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil
	}
	return id
}

func (h *FilesHandler) CreateFile(w http.ResponseWriter, r *http.Request) {
	var body CreateFileRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		// An empty request fails validation only after the token is checked
		_, err = h.service.CreateObject(r.Context(), RequestToken(r), filesmanager.CreateObjectRequest{})
		var verr *filesmanager.ValidationError
		if err == nil || errors.As(err, &verr) {
			writeMessage(w, r, http.StatusBadRequest, msgInvalidRequest)
			return
		}
		writeError(w, r, h.logger, err)
		return
	}

	req := filesmanager.CreateObjectRequest{
		Name:     body.Name,
		Type:     body.Type,
		IsPublic: body.IsPublic,
		Data:     body.Data,
	}

	if len(body.ParentID) > 0 {
		if err := json.Unmarshal(body.ParentID, &req.ParentID); err != nil {
			// A fresh id never names a stored object, so the service reports
			// the missing parent after authenticating and validating.
			req.ParentID = filesmanager.ParentRef(uuid.New())
		}
	}

	object, err := h.service.CreateObject(r.Context(), RequestToken(r), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, object)
}

func (h *FilesHandler) ListFiles(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("page")
	page, err := strconv.Atoi(raw)
	switch {
	case errors.Is(err, strconv.ErrRange) && !strings.HasPrefix(raw, "-"):
		page = math.MaxInt
	case err != nil || page < 0:
		page = 0
	}

	objects, err := h.service.ListObjects(r.Context(), RequestToken(r), filesmanager.ListObjectsRequest{
		ParentID: r.URL.Query().Get("parentId"),
		Page:     page,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if objects == nil {
		objects = []*filesmanager.Object{}
	}

	render.JSON(w, r, objects)
}

func (h *FilesHandler) GetFile(w http.ResponseWriter, r *http.Request) {
	object, err := h.service.GetObject(r.Context(), pathID(r), RequestToken(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	render.JSON(w, r, object)
}

func (h *FilesHandler) PublishFile(w http.ResponseWriter, r *http.Request) {
	object, err := h.service.Publish(r.Context(), pathID(r), RequestToken(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	render.JSON(w, r, object)
}

func (h *FilesHandler) UnpublishFile(w http.ResponseWriter, r *http.Request) {
	object, err := h.service.Unpublish(r.Context(), pathID(r), RequestToken(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	render.JSON(w, r, object)
}

// GetFileData streams the original bytes, or a thumbnail when size is set.
// A size that is not a number is passed on as -1 so the service reports it
// after its visibility checks.
func (h *FilesHandler) GetFileData(w http.ResponseWriter, r *http.Request) {
	size := 0
	if raw := r.URL.Query().Get("size"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			parsed = -1
		}
		size = parsed
	}

	content, err := h.service.ReadContent(r.Context(), pathID(r), RequestToken(r), size)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", content.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(content.Data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(content.Data); err != nil {
		h.logger.Error("Failed to write file data", "id", chi.URLParam(r, "id"), "err", err)
	}
}
