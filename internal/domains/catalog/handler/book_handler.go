package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"library-backend/internal/domains/catalog/model"
	"library-backend/internal/domains/catalog/service"
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

// CreateBook - POST /v1/books
func (h *Handler) CreateBook(c *gin.Context) {
	var req model.CreateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "INVALID_REQUEST", "Invalid request body")
		return
	}

	book, err := h.service.CreateBook(c.Request.Context(), req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, book)
}

// GetBook - GET /v1/books/:isbn
func (h *Handler) GetBook(c *gin.Context) {
	book, err := h.service.GetBook(c.Request.Context(), c.Param("isbn"))
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, book)
}

// SearchBooks - GET /v1/books?q=...
// The q parameter carries the structured search string, e.g.
// q=title:"dune messiah" author:herbert sort:title order:desc
func (h *Handler) SearchBooks(c *gin.Context) {
	q := query.Parse(c.Query("q"))

	results, err := h.service.SearchBooks(c.Request.Context(), q)
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

// SearchBooksWithLoan - GET /v1/books/with-loans?q=...
// Same search grammar, with each book carrying its active loan (if
// any) so callers can see availability and outstanding fines.
func (h *Handler) SearchBooksWithLoan(c *gin.Context) {
	q := query.Parse(c.Query("q"))

	results, err := h.service.SearchBooksWithLoan(c.Request.Context(), q)
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
