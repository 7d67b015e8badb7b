package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/oselle/lookbook-api/internal/api/shared"
	"github.com/oselle/lookbook-api/internal/domain"
	"github.com/oselle/lookbook-api/internal/task"
	"github.com/oselle/lookbook-api/internal/workflow"
)

// maxUploadBytes bounds the whole multipart request body.
const maxUploadBytes = 64 << 20

// GenerationService is the capability the handlers need from the service
// layer.
type GenerationService interface {
	Submit(req *domain.Request, priority int) error
	Status(ctx context.Context, id uuid.UUID) (task.Result, error)
	Stats() task.Stats
}

// GenerateHandler accepts multipart generation requests into the queue.
type GenerateHandler struct {
	svc      GenerationService
	validate *validator.Validate
	logger   *slog.Logger
}

// NewGenerateHandler creates the handler.
func NewGenerateHandler(svc GenerationService, logger *slog.Logger) *GenerateHandler {
	return &GenerateHandler{
		svc:      svc,
		validate: validator.New(),
		logger:   logger,
	}
}

// generateForm carries the validated text fields of the multipart request.
type generateForm struct {
	Text            string `validate:"required,min=3"`
	Username        string `validate:"required,min=2"`
	Product         string `validate:"required,min=2"`
	NumberOfOutputs int    `validate:"min=1,max=4"`
	AspectRatio     string `validate:"oneof=9:16 16:9 1:1 3:4 4:3"`
	Gender          string `validate:"omitempty,oneof=male female"`
}

// Generate handles POST /api/v1/generate. On success the request is queued
// and 202 is returned with the URL to poll.
func (h *GenerateHandler) Generate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid multipart form", err)
		return
	}

	form := generateForm{
		Text:            strings.TrimSpace(r.FormValue("text")),
		Username:        strings.TrimSpace(r.FormValue("username")),
		Product:         strings.TrimSpace(r.FormValue("product")),
		NumberOfOutputs: 1,
		AspectRatio:     "9:16",
		Gender:          strings.ToLower(strings.TrimSpace(r.FormValue("gender"))),
	}

	if v := r.FormValue("numberOfOutputs"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "numberOfOutputs must be an integer")
			return
		}
		form.NumberOfOutputs = n
	}
	if v := r.FormValue("aspectRatio"); v != "" {
		form.AspectRatio = v
	}

	if err := h.validate.Struct(form); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, validationMessage(err), err)
		return
	}

	req := domain.NewRequest()
	req.Text = form.Text
	req.Username = form.Username
	req.Product = form.Product
	req.NumberOfOutputs = form.NumberOfOutputs
	req.AspectRatio = form.AspectRatio
	req.Gender = form.Gender
	req.WantVideo = parseBool(r.FormValue("generate_video"))
	if v := r.FormValue("upscale"); v != "" {
		req.Upscale = parseBool(v)
	}

	if err := parseBackgrounds(r.FormValue("backgrounds"), req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid backgrounds config", err)
		return
	}

	for _, view := range []domain.View{
		domain.ViewFrontside,
		domain.ViewBackside,
		domain.ViewSideview,
		domain.ViewDetailview,
	} {
		data, ok, err := readUpload(r, string(view))
		if err != nil {
			shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest,
				fmt.Sprintf("Failed to read %s image", view), err)
			return
		}
		if ok {
			req.ReferenceImages[view] = data
		}
	}

	if _, ok := req.ReferenceImages[domain.ViewFrontside]; !ok {
		shared.RespondWithError(w, r, http.StatusBadRequest, "frontside reference image is required")
		return
	}

	if err := h.svc.Submit(req, workflow.PriorityNormal); err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusAccepted, GenerateAcceptedResponse{
		RequestID: req.ID,
		Status:    string(task.StatusQueued),
		StatusURL: "/api/v1/generate/" + req.ID.String(),
	})
}

// readUpload returns the named file's bytes, reporting absence separately
// from read failures.
func readUpload(r *http.Request, name string) ([]byte, bool, error) {
	f, _, err := r.FormFile(name)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, false, err
	}
	if len(data) == 0 {
		return nil, false, fmt.Errorf("uploaded file %q is empty", name)
	}
	return data, true, nil
}

// parseBackgrounds decodes the optional per-view background counts, e.g.
// {"frontside": [1, 0, 2]} for one white, zero plain, two random scenes.
func parseBackgrounds(raw string, req *domain.Request) error {
	if raw == "" {
		return nil
	}

	var counts map[string][3]int
	if err := json.Unmarshal([]byte(raw), &counts); err != nil {
		return fmt.Errorf("backgrounds must be a JSON object of view to counts: %w", err)
	}

	cfg := make(map[domain.View]domain.BackgroundCounts, len(counts))
	for name, c := range counts {
		view := domain.View(name)
		switch view {
		case domain.ViewFrontside, domain.ViewBackside, domain.ViewSideview:
		default:
			return fmt.Errorf("unknown view %q in backgrounds config", name)
		}
		if c[0] < 0 || c[1] < 0 || c[2] < 0 {
			return fmt.Errorf("background counts for %q cannot be negative", name)
		}
		cfg[view] = domain.BackgroundCounts(c)
	}
	req.BackgroundConfig = cfg
	return nil
}

func parseBool(v string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	return err == nil && b
}

// validationMessage extracts a client-safe summary from a validator error.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return fmt.Sprintf("Invalid %s", strings.ToLower(verrs[0].Field()))
	}
	return "Validation error"
}
