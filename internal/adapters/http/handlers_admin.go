package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/viralforge/mesh/services/monetization/M60-stream-access-service/internal/application"
	"github.com/viralforge/mesh/services/monetization/M60-stream-access-service/internal/domain"
	"github.com/viralforge/mesh/services/monetization/M60-stream-access-service/internal/ports"
)

const maxUploadBytes = 8 << 20

type adminLoginRequest struct {
	Passphrase string `json:"passphrase"`
}

func (h *Handler) adminLogin(w http.ResponseWriter, r *http.Request) {
	var req adminLoginRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(w, r, "admin_login", err)
		return
	}
	res, err := h.service.AdminLogin(r.Context(), authContextFromRequest(r), req.Passphrase)
	if err != nil {
		writeMappedError(w, r, "admin_login", err)
		return
	}
	writeSuccess(w, http.StatusOK, res)
}

func (h *Handler) adminLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.service.AdminLogout(r.Context(), authContextFromRequest(r)); err != nil {
		writeMappedError(w, r, "admin_logout", err)
		return
	}
	writeMessage(w, http.StatusOK, "logged out")
}

func (h *Handler) adminListOfferings(w http.ResponseWriter, r *http.Request) {
	sort := ports.ListSort(strings.TrimSpace(r.URL.Query().Get("sort")))
	offerings, err := h.service.ListAdmin(r.Context(), authContextFromRequest(r), sort)
	if err != nil {
		writeMappedError(w, r, "admin_list_offerings", err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"offerings": offerings})
}

type createOfferingRequest struct {
	Title         string    `json:"title"`
	Price         float64   `json:"price"`
	PaymentKey    string    `json:"payment_key"`
	StreamLocator string    `json:"stream_locator"`
	ThumbnailURL  string    `json:"thumbnail_url"`
	StartAt       time.Time `json:"start_at"`
	ExpiresAt     time.Time `json:"expires_at"`
	Active        *bool     `json:"active"`
}

func (h *Handler) adminCreateOffering(w http.ResponseWriter, r *http.Request) {
	var req createOfferingRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(w, r, "admin_create_offering", err)
		return
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	view, err := h.service.CreateOffering(r.Context(), authContextFromRequest(r), application.CreateOfferingInput{
		Title:         req.Title,
		Price:         req.Price,
		PaymentKey:    req.PaymentKey,
		StreamLocator: req.StreamLocator,
		ThumbnailURL:  req.ThumbnailURL,
		StartAt:       req.StartAt,
		ExpiresAt:     req.ExpiresAt,
		Active:        active,
	})
	if err != nil {
		writeMappedError(w, r, "admin_create_offering", err)
		return
	}
	writeSuccess(w, http.StatusCreated, view)
}

type updateOfferingRequest struct {
	Title         *string    `json:"title"`
	Price         *float64   `json:"price"`
	PaymentKey    *string    `json:"payment_key"`
	StreamLocator *string    `json:"stream_locator"`
	ThumbnailURL  *string    `json:"thumbnail_url"`
	StartAt       *time.Time `json:"start_at"`
	ExpiresAt     *time.Time `json:"expires_at"`
	Active        *bool      `json:"active"`
}

func (h *Handler) adminUpdateOffering(w http.ResponseWriter, r *http.Request) {
	var req updateOfferingRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(w, r, "admin_update_offering", err)
		return
	}
	view, err := h.service.UpdateOffering(r.Context(), authContextFromRequest(r), chi.URLParam(r, "offering_id"), domain.OfferingPatch{
		Title:         req.Title,
		Price:         req.Price,
		PaymentKey:    req.PaymentKey,
		StreamLocator: req.StreamLocator,
		ThumbnailURL:  req.ThumbnailURL,
		StartAt:       req.StartAt,
		ExpiresAt:     req.ExpiresAt,
		Active:        req.Active,
	})
	if err != nil {
		writeMappedError(w, r, "admin_update_offering", err)
		return
	}
	writeSuccess(w, http.StatusOK, view)
}

func (h *Handler) adminDeleteOffering(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteOffering(r.Context(), authContextFromRequest(r), chi.URLParam(r, "offering_id")); err != nil {
		writeMappedError(w, r, "admin_delete_offering", err)
		return
	}
	writeMessage(w, http.StatusOK, "deleted")
}

// adminUpload accepts a multipart form with a single "file" part.
func (h *Handler) adminUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeValidationError(w, r, "admin_upload", errors.New("multipart field \"file\" is required"))
		return
	}
	defer file.Close()

	url, err := h.service.UploadThumbnail(r.Context(), authContextFromRequest(r), ports.UploadFile{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        file,
	})
	if err != nil {
		writeMappedError(w, r, "admin_upload", err)
		return
	}
	writeSuccess(w, http.StatusCreated, map[string]any{"file_url": url})
}

func (h *Handler) adminMarkSettled(w http.ResponseWriter, r *http.Request) {
	id, err := attemptIDParam(r)
	if err != nil {
		writeValidationError(w, r, "admin_mark_settled", err)
		return
	}
	if err := h.service.MarkSettled(r.Context(), authContextFromRequest(r), id); err != nil {
		writeMappedError(w, r, "admin_mark_settled", err)
		return
	}
	writeMessage(w, http.StatusOK, "settled")
}
