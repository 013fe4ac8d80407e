package handler

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"storefront/internal/checkout"
	"storefront/internal/model"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

const (
	maxReturnUpload = 25 << 20
	maxReturnImages = 5
)

// OrderHandler handles order history HTTP requests.
type OrderHandler struct {
	service service.OrderService
	logger  zerolog.Logger
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(service service.OrderService, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		logger:  logger.With().Str("handler", "order").Logger(),
	}
}

type orderListResponse struct {
	Orders     []service.OrderView `json:"orders"`
	JustPlaced bool                `json:"justPlaced"`
}

// List handles GET /api/orders. The just-placed flag is consumed here.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	s, err := current(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	token, err := bearer(s)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	orders, err := h.service.List(r.Context(), token, s.Locale())
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, orderListResponse{
		Orders:     orders,
		JustPlaced: s.TakeFlag(checkout.JustPlacedOrderFlag),
	})
}

// Cancel handles POST /api/orders/{id}/cancel.
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	s, err := current(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	token, err := bearer(s)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	orderID := chi.URLParam(r, "id")
	if err := h.service.Cancel(r.Context(), token, orderID); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"orderId": orderID, "status": "cancelled"})
}

// RequestReturn handles POST /api/orders/{id}/return as multipart form data
// with reason, reasonCategory and one or more images.
func (h *OrderHandler) RequestReturn(w http.ResponseWriter, r *http.Request) {
	s, err := current(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	token, err := bearer(s)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxReturnUpload)
	if err := r.ParseMultipartForm(maxReturnUpload); err != nil {
		writeError(w, r, model.NewDomainError(model.ErrCodeInvalidJSON, "invalid return request form"), h.logger)
		return
	}
	defer r.MultipartForm.RemoveAll()

	images, err := readImages(r.MultipartForm)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	orderID := chi.URLParam(r, "id")
	req := model.ReturnRequest{
		Reason:         r.FormValue("reason"),
		ReasonCategory: r.FormValue("reasonCategory"),
		Images:         images,
	}
	if err := h.service.RequestReturn(r.Context(), token, orderID, req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"orderId": orderID, "status": "return_requested"})
}

func readImages(form *multipart.Form) ([]model.ReturnImage, error) {
	var headers []*multipart.FileHeader
	for _, field := range []string{"images", "images[]"} {
		headers = append(headers, form.File[field]...)
	}
	if len(headers) > maxReturnImages {
		return nil, model.NewDomainError(model.ErrCodeReturnImagesRequired, fmt.Sprintf("Upload at most %d images", maxReturnImages))
	}

	images := make([]model.ReturnImage, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open upload %s: %w", fh.Filename, err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read upload %s: %w", fh.Filename, err)
		}
		images = append(images, model.ReturnImage{
			FileName:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return images, nil
}

// Invoice handles GET /api/orders/{id}/invoice and streams the PDF.
func (h *OrderHandler) Invoice(w http.ResponseWriter, r *http.Request) {
	s, err := current(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	token, err := bearer(s)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	user, _ := s.Auth.User()
	file, err := h.service.Invoice(r.Context(), token, user.ID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Name))
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(file.Data); err != nil {
		h.logger.Warn().Err(err).Str("file", file.Name).Msg("failed to stream invoice")
	}
}

type trackingResponse struct {
	OrderID string                `json:"orderId"`
	Events  []model.ShipmentEvent `json:"events"`
}

// Tracking handles GET /api/orders/{id}/tracking.
func (h *OrderHandler) Tracking(w http.ResponseWriter, r *http.Request) {
	s, err := current(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	token, err := bearer(s)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	orderID := chi.URLParam(r, "id")
	events, err := h.service.Tracking(r.Context(), token, orderID)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, trackingResponse{OrderID: orderID, Events: events})
}
