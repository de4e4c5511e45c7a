// Package api exposes the HTTP trigger surface: uploading feed files to
// create a pending reconciliation, and reading results back.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/labstack/gommon/log"

	"github.com/tally-dev/tally/internal/id"
	"github.com/tally-dev/tally/internal/model"
	"github.com/tally-dev/tally/internal/store"
)

const maxUploadBytes = 32 << 20

// Store is the subset of the entity store the API needs.
type Store interface {
	Create(ctx context.Context, rec *model.Reconciliation) error
	Get(ctx context.Context, id uint) (*model.Reconciliation, error)
	List(ctx context.Context) ([]model.Reconciliation, error)
}

// Files stores uploaded feed files.
type Files interface {
	Save(name string, data []byte) (string, error)
}

// Response is the JSON envelope for every endpoint.
type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// Handler serves the reconciliation endpoints.
type Handler struct {
	store Store
	files Files
}

// NewHandler creates a Handler.
func NewHandler(store Store, files Files) *Handler {
	return &Handler{store: store, files: files}
}

// Register mounts the routes on a router.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/reconciliations", h.Create).Methods(http.MethodPost)
	r.HandleFunc("/reconciliations", h.List).Methods(http.MethodGet)
	r.HandleFunc("/reconciliations/{id}", h.Get).Methods(http.MethodGet)
}

// Create accepts a multipart upload with bank_file and processor_file parts
// and creates a pending reconciliation. The worker picks it up from there.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "expected multipart form upload")
		return
	}

	bankKey, err := h.saveUpload(r, "bank_file", bankExtensions)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	processorKey, err := h.saveUpload(r, "processor_file", processorExtensions)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	rec := &model.Reconciliation{
		Reference:        id.NewReference(time.Now()),
		Status:           model.StatusPending,
		BankFileKey:      bankKey,
		ProcessorFileKey: processorKey,
	}
	if err := h.store.Create(r.Context(), rec); err != nil {
		log.Errorf("creating reconciliation: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create reconciliation")
		return
	}

	writeJSON(w, http.StatusCreated, Response{Status: "success", Data: rec})
}

// Get returns one reconciliation by numeric id.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	raw := mux.Vars(r)["id"]
	recID, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "id must be a valid integer")
		return
	}

	rec, err := h.store.Get(r.Context(), uint(recID))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "reconciliation not found")
			return
		}
		log.Errorf("loading reconciliation %d: %v", recID, err)
		writeError(w, http.StatusInternalServerError, "failed to load reconciliation")
		return
	}

	writeJSON(w, http.StatusOK, Response{Status: "success", Data: rec})
}

// List returns all reconciliations, most recent first.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	recs, err := h.store.List(r.Context())
	if err != nil {
		log.Errorf("listing reconciliations: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list reconciliations")
		return
	}

	writeJSON(w, http.StatusOK, Response{Status: "success", Data: recs})
}

var (
	bankExtensions      = []string{".csv", ".txt"}
	processorExtensions = []string{".json", ".txt"}
)

func (h *Handler) saveUpload(r *http.Request, field string, allowed []string) (string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return "", fmt.Errorf("%s is required", field)
	}
	defer file.Close()

	if !extensionAllowed(header, allowed) {
		return "", fmt.Errorf("%s must be one of %s", field, strings.Join(allowed, ", "))
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", field, err)
	}

	key, err := h.files.Save(header.Filename, data)
	if err != nil {
		return "", fmt.Errorf("storing %s: %w", field, err)
	}
	return key, nil
}

func extensionAllowed(header *multipart.FileHeader, allowed []string) bool {
	ext := strings.ToLower(filepath.Ext(header.Filename))
	for _, a := range allowed {
		if ext == a {
			return true
		}
	}
	return false
}

func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, Response{Status: "error", Message: message})
}

func writeJSON(w http.ResponseWriter, code int, body Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Errorf("encoding response: %v", err)
	}
}
