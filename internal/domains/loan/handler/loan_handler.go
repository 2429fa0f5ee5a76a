package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"library-backend/internal/domains/loan/model"
	"library-backend/internal/domains/loan/service"
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

// Checkout - POST /v1/loans/checkout
func (h *Handler) Checkout(c *gin.Context) {
	var req model.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "INVALID_REQUEST", "Invalid request body")
		return
	}

	loan, err := h.service.Checkout(c.Request.Context(), req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, loan)
}

// Checkin - POST /v1/loans/:id/checkin
func (h *Handler) Checkin(c *gin.Context) {
	loanID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "INVALID_REQUEST", "Loan ID must be numeric")
		return
	}

	loan, err := h.service.Checkin(c.Request.Context(), loanID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, loan)
}

// SearchLoans - GET /v1/loans?q=...
func (h *Handler) SearchLoans(c *gin.Context) {
	q := query.Parse(c.Query("q"))

	results, err := h.service.SearchLoans(c.Request.Context(), q)
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

// SearchLoansWithBooks - GET /v1/loans/with-books?q=...
func (h *Handler) SearchLoansWithBooks(c *gin.Context) {
	q := query.Parse(c.Query("q"))

	results, err := h.service.SearchLoansWithBooks(c.Request.Context(), q)
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

// SearchFines - GET /v1/fines?q=...
func (h *Handler) SearchFines(c *gin.Context) {
	q := query.Parse(c.Query("q"))

	results, err := h.service.SearchFines(c.Request.Context(), q)
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

// FineSummary - GET /v1/fines/summary
func (h *Handler) FineSummary(c *gin.Context) {
	summary, err := h.service.FineSummary(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, summary)
}

// SweepFines - POST /v1/fines/sweep
// Body may carry {"as_of": "YYYY-MM-DD"} to recompute against a
// specific date; an empty body sweeps as of today.
func (h *Handler) SweepFines(c *gin.Context) {
	var req model.SweepRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "INVALID_REQUEST", "Invalid request body")
			return
		}
	}

	var asOf time.Time
	if req.AsOf != "" {
		parsed, err := time.Parse("2006-01-02", req.AsOf)
		if err != nil {
			response.BadRequest(c, "INVALID_REQUEST", "as_of must be YYYY-MM-DD")
			return
		}
		asOf = parsed
	}

	updated, err := h.service.SweepFines(c.Request.Context(), asOf)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"updated": updated})
}

// PayLoanFine - POST /v1/fines/:loan_id/pay
func (h *Handler) PayLoanFine(c *gin.Context) {
	loanID, err := strconv.ParseInt(c.Param("loan_id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "INVALID_REQUEST", "Loan ID must be numeric")
		return
	}

	if err := h.service.PayLoanFine(c.Request.Context(), loanID); err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"loan_id": loanID, "paid": true})
}

// PayBorrowerFines - POST /v1/fines/pay
// Settles every payable fine on the card and returns the loans it
// touched; an empty list means nothing was owed.
func (h *Handler) PayBorrowerFines(c *gin.Context) {
	var req model.PayFinesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "INVALID_REQUEST", "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		response.BadRequest(c, "VALIDATION", err.Error())
		return
	}

	settled, err := h.service.PayBorrowerFines(c.Request.Context(), req.CardID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, settled)
}

// UserFines - GET /v1/fines/total?card_id=...&include_paid=true
func (h *Handler) UserFines(c *gin.Context) {
	cardID := c.Query("card_id")
	if cardID == "" {
		response.BadRequest(c, "INVALID_REQUEST", "card_id is required")
		return
	}

	total, err := h.service.UserFines(c.Request.Context(), cardID, boolQuery(c, "include_paid"))
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"card_id": cardID, "total": total})
}

// FinesGrouped - GET /v1/fines/grouped?cards=ID000001,ID000002&include_paid=true
// Totals positive fines per card; no cards filter means all borrowers.
func (h *Handler) FinesGrouped(c *gin.Context) {
	totals, err := h.service.FinesGrouped(c.Request.Context(), cardsQuery(c), boolQuery(c, "include_paid"))
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, totals)
}

func boolQuery(c *gin.Context, name string) bool {
	v, err := strconv.ParseBool(c.DefaultQuery(name, "false"))
	return err == nil && v
}

func cardsQuery(c *gin.Context) []string {
	var cards []string
	for _, card := range strings.Split(c.Query("cards"), ",") {
		if card = strings.TrimSpace(card); card != "" {
			cards = append(cards, card)
		}
	}
	return cards
}
