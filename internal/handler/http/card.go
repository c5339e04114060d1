package http

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/CardShopGo/internal/service"
	"github.com/utafrali/CardShopGo/pkg/httputil"
	"github.com/utafrali/CardShopGo/pkg/validator"
)

// maxIntakeBody bounds the admin card intake multipart form, images included.
const maxIntakeBody = 20 << 20

// CardHandler handles HTTP requests for the card catalog and admin intake.
type CardHandler struct {
	service      *service.CardService
	availability *service.AvailabilityService
	logger       *slog.Logger
}

// NewCardHandler creates a new card HTTP handler.
func NewCardHandler(svc *service.CardService, availability *service.AvailabilityService, logger *slog.Logger) *CardHandler {
	return &CardHandler{
		service:      svc,
		availability: availability,
		logger:       logger,
	}
}

// ListAvailable handles GET /api/v1/cards
func (h *CardHandler) ListAvailable(w http.ResponseWriter, r *http.Request) {
	cards, err := h.service.ListAvailable(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: cards})
}

// GetCard handles GET /api/v1/cards/{id}
func (h *CardHandler) GetCard(w http.ResponseWriter, r *http.Request) {
	card, err := h.service.GetCard(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: card})
}

// CheckAvailabilityRequest is the JSON request body for a bulk availability
// check.
type CheckAvailabilityRequest struct {
	CardIDs []string `json:"card_ids" validate:"required,min=1,dive,required"`
}

// CheckAvailability handles POST /api/v1/cards/availability
func (h *CardHandler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	var req CheckAvailabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	availability, err := h.availability.Check(r.Context(), req.CardIDs)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: availability})
}

// UploadImage handles POST /api/v1/admin/cards/images as a multipart form
// with a single "image" file part. Returns the hosted asset so the admin UI
// can preview images before submitting the card itself.
func (h *CardHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxIntakeBody)

	if err := r.ParseMultipartForm(maxIntakeBody); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid multipart form: " + err.Error()},
		})
		return
	}

	file, fh, err := r.FormFile("image")
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "image file part is required"},
		})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "unable to read image part"},
		})
		return
	}

	asset, err := h.service.UploadImage(r.Context(), &service.ImagePayload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: asset})
}

// CreateCard handles POST /api/v1/admin/cards as a multipart form with
// "name" and "price" fields plus zero or more "images" file parts.
func (h *CardHandler) CreateCard(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxIntakeBody)

	if err := r.ParseMultipartForm(maxIntakeBody); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid multipart form: " + err.Error()},
		})
		return
	}

	price, err := strconv.ParseInt(r.FormValue("price"), 10, 64)
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "price must be an integer in minor units"},
		})
		return
	}

	input := &service.CreateCardInput{
		Name:  r.FormValue("name"),
		Price: price,
	}

	if r.MultipartForm != nil {
		for _, fh := range r.MultipartForm.File["images"] {
			file, err := fh.Open()
			if err != nil {
				httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
					Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "unable to read image part"},
				})
				return
			}
			data, err := io.ReadAll(file)
			file.Close()
			if err != nil {
				httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
					Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "unable to read image part"},
				})
				return
			}
			input.Images = append(input.Images, service.ImagePayload{
				Filename:    fh.Filename,
				ContentType: fh.Header.Get("Content-Type"),
				Data:        data,
			})
		}
	}

	card, err := h.service.CreateCard(r.Context(), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: card})
}
