package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"library-backend/internal/domains/borrower/model"
	"library-backend/internal/domains/borrower/service"
	"library-backend/internal/query"
	"library-backend/internal/shared/response"
)

// Handler - HTTP Handler (single file)
type Handler struct {
	service service.ServiceInterface
}

// NewHandler - Constructor with DI
func NewHandler(service service.ServiceInterface) *Handler {
	return &Handler{service: service}
}

// CreateBorrower - POST /v1/borrowers
func (h *Handler) CreateBorrower(c *gin.Context) {
	var req model.CreateBorrowerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "INVALID_REQUEST", "Invalid request body")
		return
	}

	borrower, err := h.service.CreateBorrower(c.Request.Context(), req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, borrower)
}

// GetBorrower - GET /v1/borrowers/:card_id
func (h *Handler) GetBorrower(c *gin.Context) {
	borrower, err := h.service.GetBorrower(c.Request.Context(), c.Param("card_id"))
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, borrower)
}

// SearchBorrowers - GET /v1/borrowers?q=...
func (h *Handler) SearchBorrowers(c *gin.Context) {
	q := query.Parse(c.Query("q"))

	results, err := h.service.SearchBorrowers(c.Request.Context(), q)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, results.Items, response.Meta{
		Page:  results.CurrentPage,
		Limit: results.PageLimit,
		Total: results.Total,
	})
}

// SearchBorrowersWithFines - GET /v1/borrowers/fines?q=...&card_id=...
// Adds per-borrower unpaid and paid fine totals to the search. An
// explicit card_id pins the search to that exact card.
func (h *Handler) SearchBorrowersWithFines(c *gin.Context) {
	q := query.Parse(c.Query("q"))

	results, err := h.service.SearchBorrowersWithFines(c.Request.Context(), c.Query("card_id"), q)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, results.Items, response.Meta{
		Page:  results.CurrentPage,
		Limit: results.PageLimit,
		Total: results.Total,
	})
}
