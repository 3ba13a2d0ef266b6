package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/diewo77/ca-practice/httpx"
	"github.com/diewo77/ca-practice/internal/services"
	"go.uber.org/zap"
)

type ImportHandler struct {
	imports *services.ImportService
	log     *zap.Logger
}

func NewImportHandler(imports *services.ImportService, log *zap.Logger) *ImportHandler {
	return &ImportHandler{imports: imports, log: log}
}

// Clients: POST /api/import/clients (multipart, field "file")
func (h *ImportHandler) Clients(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, h.imports.ImportClients)
}

// Tasks: POST /api/import/tasks (multipart, field "file")
func (h *ImportHandler) Tasks(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, h.imports.ImportTasks)
}

func (h *ImportHandler) run(w http.ResponseWriter, r *http.Request, load func(context.Context, io.Reader) (*services.ImportResult, error)) {
	file, _, err := formFile(w, r)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	defer cleanupForm(r)
	defer file.Close()

	res, err := load(r.Context(), file)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}

// ClientTemplate: GET /api/import/templates/clients
func (h *ImportHandler) ClientTemplate(w http.ResponseWriter, r *http.Request) {
	h.template(w, "client_import_template.csv", services.WriteClientImportTemplate)
}

// TaskTemplate: GET /api/import/templates/tasks
func (h *ImportHandler) TaskTemplate(w http.ResponseWriter, r *http.Request) {
	h.template(w, "task_import_template.csv", services.WriteTaskImportTemplate)
}

func (h *ImportHandler) template(w http.ResponseWriter, filename string, write func(io.Writer) error) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	if err := write(w); err != nil {
		h.log.Error("write import template", zap.String("file", filename), zap.Error(err))
	}
}
