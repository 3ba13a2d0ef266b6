package handlers

import (
	"net/http"
	"strings"

	"github.com/diewo77/ca-practice/httpx"
	"github.com/diewo77/ca-practice/internal/models"
	"github.com/diewo77/ca-practice/internal/services"
	"github.com/diewo77/ca-practice/internal/store"
	"github.com/diewo77/ca-practice/validation"
	"go.uber.org/zap"
)

type DocumentHandler struct {
	store *store.Store
	files *services.FileStore
	log   *zap.Logger
}

func NewDocumentHandler(s *store.Store, files *services.FileStore, log *zap.Logger) *DocumentHandler {
	return &DocumentHandler{store: s, files: files, log: log}
}

// List: GET /api/documents[?client_id=&category=]
func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	docs, err := h.store.Documents.List(r.Context(), filterFrom(r, "client_id", "category"))
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, docs)
}

func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	d, err := h.store.Documents.Get(r.Context(), pathID(r))
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, d)
}

// Create registers a document. An empty category is derived from the
// filename.
func (h *DocumentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var d models.Document
	if err := httpx.DecodeJSON(r, &d); err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	d.ID = ""
	d.ClientName = ""
	v := validation.Violations{}
	validation.Required("client_id", d.ClientID, v)
	validation.Required("filename", d.Filename, v)
	validation.Required("file_url", d.FileURL, v)
	if err := v.Err(); err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	analysis := services.AnalyzeFilename(d.Filename, d.Category)
	d.Category = analysis.Category
	if len(d.Tags) == 0 {
		d.Tags = analysis.Tags
	}
	if len(d.Metadata) == 0 {
		d.Metadata = analysis.Metadata
	}
	created, err := h.create(r, &d)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *DocumentHandler) create(r *http.Request, d *models.Document) (*models.Document, error) {
	if _, err := h.store.Clients.Get(r.Context(), d.ClientID); err != nil {
		return nil, err
	}
	if err := h.store.Documents.Create(r.Context(), d); err != nil {
		return nil, err
	}
	return h.store.Documents.Get(r.Context(), d.ID)
}

// Update: PUT /api/documents/{id}. The upload time and, when the body
// omits them, the tags and metadata are kept.
func (h *DocumentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	existing, err := h.store.Documents.Get(r.Context(), id)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	var d models.Document
	if err := httpx.DecodeJSON(r, &d); err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	v := validation.Violations{}
	validation.Required("client_id", d.ClientID, v)
	validation.Required("filename", d.Filename, v)
	validation.Required("file_url", d.FileURL, v)
	validation.Required("category", d.Category, v)
	if err := v.Err(); err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	if _, err := h.store.Clients.Get(r.Context(), d.ClientID); err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	d.ID = id
	d.ClientName = ""
	d.UploadedAt = existing.UploadedAt
	if d.Tags == nil {
		d.Tags = existing.Tags
	}
	if d.Metadata == nil {
		d.Metadata = existing.Metadata
	}
	if _, err := h.store.Documents.Update(r.Context(), id, &d); err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	updated, err := h.store.Documents.Get(r.Context(), id)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

// Delete removes the record and, when it points into local storage, the file.
func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	d, err := h.store.Documents.Get(r.Context(), id)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	if err := h.store.Documents.Delete(r.Context(), id); err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	if err := h.files.Remove(d.FileURL); err != nil {
		h.log.Warn("remove stored file", zap.String("file_url", d.FileURL), zap.Error(err))
	}
	httpx.Message(w, "Document deleted successfully")
}

// Upload: POST /api/upload (multipart, field "file"). The optional form
// values category and client_id pick the storage folder and register a
// Document in one step.
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	file, header, err := formFile(w, r)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	defer cleanupForm(r)
	defer file.Close()

	suggested := services.CategorizeDocument(header.Filename)
	analysis := services.AnalyzeFilename(header.Filename, r.FormValue("category"))
	stored, err := h.files.Save(file, header.Filename, analysis.Category)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	h.log.Info("file uploaded", zap.String("file_url", stored.FileURL), zap.Int64("size", stored.Size))

	clientID := strings.TrimSpace(r.FormValue("client_id"))
	if clientID == "" {
		httpx.JSON(w, http.StatusOK, map[string]any{
			"success":            true,
			"file_url":           stored.FileURL,
			"filename":           stored.Filename,
			"size":               stored.Size,
			"suggested_category": suggested,
			"tags":               analysis.Tags,
			"metadata":           analysis.Metadata,
		})
		return
	}
	created, err := h.create(r, &models.Document{
		ClientID: clientID,
		Filename: stored.Filename,
		FileURL:  stored.FileURL,
		Category: analysis.Category,
		Tags:     analysis.Tags,
		Metadata: analysis.Metadata,
	})
	if err != nil {
		if rerr := h.files.Remove(stored.FileURL); rerr != nil {
			h.log.Warn("remove orphaned upload", zap.String("file_url", stored.FileURL), zap.Error(rerr))
		}
		httpx.Error(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}
