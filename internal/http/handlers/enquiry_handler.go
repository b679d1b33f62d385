// Enquiry HTTP handlers.
//
// This file exposes REST endpoints for enquiry resources:
//   - POST /enquiries       (submit the contact form)
//   - GET  /enquiries       (admin: list, paginated, ETag support)
//   - GET  /enquiries/{id}  (admin: fetch one)
//
// Handlers are transport-thin: they decode input, call the enquiry service,
// and translate results into HTTP responses (including conditional responses).
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tbourn/go-enquiry-backend/internal/domain"
	"github.com/tbourn/go-enquiry-backend/internal/services"
	"github.com/tbourn/go-enquiry-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// EnquiryService defines the enquiry operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type EnquiryService interface {
	// Create validates payload and persists a new enquiry.
	Create(ctx context.Context, payload map[string]any) (*domain.Enquiry, error)
	// Get returns one enquiry or services.ErrEnquiryNotFound.
	Get(ctx context.Context, id string) (*domain.Enquiry, error)
	// List returns a page of enquiries, newest first, and the total count.
	List(ctx context.Context, page, pageSize int) ([]domain.Enquiry, int64, error)
	// Stats returns the count and newest creation time, for ETags.
	Stats(ctx context.Context) (int64, *time.Time, error)
	// Ping reports whether the record store is reachable.
	Ping(ctx context.Context) error
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints. It depends on an abstract service
// interface to keep transport concerns separate from business logic.
type Handlers struct {
	enqSvc EnquiryService
}

// New constructs and returns a Handlers instance bound to the given service.
func New(enqSvc EnquiryService) *Handlers {
	return &Handlers{enqSvc: enqSvc}
}

//
// DTOs
//

// CreateEnquiryRequest documents the accepted payload. The handler decodes
// into a generic object so every field can be reported individually.
type CreateEnquiryRequest struct {
	Name        string `json:"name"        example:"Thandi Mokoena"`
	Phone       string `json:"phone"       example:"+27 82 555 0101"`
	ServiceType string `json:"serviceType" example:"Home cinema installation"`
	ScreenSize  string `json:"screenSize"  example:"120 inch"`
	BudgetRange string `json:"budgetRange" example:"R100k - R250k"`
	City        string `json:"city"        example:"Cape Town"`
	Message     string `json:"message"     example:"Looking for a 7.2.4 setup in a dedicated room."`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListEnquiriesResponse wraps a page of enquiries and pagination information.
type ListEnquiriesResponse struct {
	Enquiries  []domain.Enquiry `json:"enquiries"`
	Pagination Pagination       `json:"pagination"`
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page, pageSize, _ = utils.Page(
		utils.AtoiDefault(c.Query("page"), defaultPage),
		utils.AtoiDefault(c.Query("page_size"), defaultPageSize),
		defaultPageSize, maxPageSize,
	)
	return
}

//
// Handlers
//

// CreateEnquiry godoc
// @ID          createEnquiry
// @Summary     Submit an enquiry
// @Description Validates a contact-form submission and stores it. The server assigns id and createdAt; unknown fields are ignored.
// @Tags        Enquiries
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.CreateEnquiryRequest  true  "Enquiry payload (all fields required, non-empty)"
//
// @Success     201  {object}  domain.Enquiry
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid JSON or validation failure"
// @Failure     413  {object}  handlers.ErrorResponse  "Body too large"
// @Failure     429  {object}  handlers.ErrorResponse  "Rate limited"
// @Failure     500  {object}  handlers.ErrorResponse  "Failed to create enquiry"
// @Router      /enquiries [post]
func (h *Handlers) CreateEnquiry(c *gin.Context) {
	var payload map[string]any
	if err := c.ShouldBindJSON(&payload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			fail(c, http.StatusRequestEntityTooLarge, ErrCodePayloadTooLarge, msgBodyTooLarge)
			return
		}
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, msgInvalidJSON)
		return
	}
	// A literal null decodes without error; it is not an object either.
	if payload == nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, msgInvalidJSON)
		return
	}

	e, err := h.enqSvc.Create(c.Request.Context(), payload)
	if err != nil {
		var verr *domain.ValidationError
		switch {
		case errors.As(err, &verr):
			failValidation(c, verr)
		default:
			fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, msgCreateFailed, err)
		}
		return
	}
	ok(c, http.StatusCreated, e)
}

// ListEnquiries godoc
// @ID          listEnquiries
// @Summary     List enquiries (paginated)
// @Description Admin route, enabled by ADMIN_ROUTES_ENABLED. Returns enquiries newest first. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Admin
// @Produce     json
//
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"abc123\")
// @Param       page           query   int     false "Page number"                  minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"               minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListEnquiriesResponse
// @Header      200  {string} ETag  "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /enquiries [get]
func (h *Handlers) ListEnquiries(c *gin.Context) {
	ctx := c.Request.Context()
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort). Enquiries are append-only, so count and
	// newest timestamp identify the listing.
	if count, newest, err := h.enqSvc.Stats(ctx); err == nil {
		var ts int64
		if newest != nil {
			ts = newest.UnixNano()
		}
		etag := fmt.Sprintf(`W/"enquiries:%d:%d:%d:%d"`, count, ts, page, pageSize)
		c.Header("ETag", etag)
		if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
			c.Status(http.StatusNotModified)
			return
		}
	}

	items, total, err := h.enqSvc.List(ctx, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "failed to list enquiries", err)
		return
	}

	totalPages := utils.TotalPages(total, pageSize)
	ok(c, http.StatusOK, ListEnquiriesResponse{
		Enquiries: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}

// GetEnquiry godoc
// @ID          getEnquiry
// @Summary     Fetch one enquiry
// @Description Admin route, enabled by ADMIN_ROUTES_ENABLED.
// @Tags        Admin
// @Produce     json
//
// @Param       id  path  string  true  "Enquiry ID (UUID)"  format(uuid) example(141add05-4415-4938-b5a1-17e0d3171aff)
//
// @Success     200  {object} domain.Enquiry
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Enquiry not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /enquiries/{id} [get]
func (h *Handlers) GetEnquiry(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "enquiry id must be a UUID")
		return
	}

	e, err := h.enqSvc.Get(c.Request.Context(), id)
	switch {
	case errors.Is(err, services.ErrEnquiryNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, msgEnquiryNotFound)
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error", err)
	default:
		ok(c, http.StatusOK, e)
	}
}

// Ready godoc
// @ID          ready
// @Summary     Readiness check
// @Description Reports 200 when the record store answers a ping, 503 otherwise.
// @Tags        Health
// @Produce     json
// @Success     200  {object} map[string]string
// @Failure     503  {object} handlers.ErrorResponse "Store unreachable"
// @Router      /ready [get]
func (h *Handlers) Ready(c *gin.Context) {
	if err := h.enqSvc.Ping(c.Request.Context()); err != nil {
		fail(c, http.StatusServiceUnavailable, ErrCodeNotReady, "record store unavailable", err)
		return
	}
	ok(c, http.StatusOK, gin.H{"status": "ready"})
}
