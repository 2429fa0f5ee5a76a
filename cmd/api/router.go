package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"library-backend/internal/shared/middleware"
	"library-backend/pkg/container"
)

func SetupRouter(c *container.Container) *gin.Engine {
	router := gin.New()

	// Global middlewares
	router.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.CORS(),
	)

	v1 := router.Group("/api/v1")
	{
		// Health check
		v1.GET("/health", healthCheckHandler(c))

		setupBookRoutes(v1, c)
		setupBorrowerRoutes(v1, c)
		setupLoanRoutes(v1, c)
		setupFineRoutes(v1, c)
		setupAssistantRoutes(v1, c)
	}

	return router
}

// ========================================
// BOOK ROUTES
// ========================================
func setupBookRoutes(v1 *gin.RouterGroup, c *container.Container) {
	books := v1.Group("/books")
	{
		books.GET("", c.CatalogHandler.SearchBooks)
		books.GET("/with-loans", c.CatalogHandler.SearchBooksWithLoan)
		books.GET("/:isbn", c.CatalogHandler.GetBook)
		books.POST("", c.CatalogHandler.CreateBook)
	}
}

// ========================================
// BORROWER ROUTES
// ========================================
func setupBorrowerRoutes(v1 *gin.RouterGroup, c *container.Container) {
	borrowers := v1.Group("/borrowers")
	{
		borrowers.GET("", c.BorrowerHandler.SearchBorrowers)
		borrowers.GET("/fines", c.BorrowerHandler.SearchBorrowersWithFines)
		borrowers.GET("/:card_id", c.BorrowerHandler.GetBorrower)
		borrowers.POST("", c.BorrowerHandler.CreateBorrower)
	}
}

// ========================================
// LOAN ROUTES
// ========================================
func setupLoanRoutes(v1 *gin.RouterGroup, c *container.Container) {
	loans := v1.Group("/loans")
	{
		loans.GET("", c.LoanHandler.SearchLoans)
		loans.GET("/with-books", c.LoanHandler.SearchLoansWithBooks)
		loans.POST("/checkout", c.LoanHandler.Checkout)
		loans.POST("/:id/checkin", c.LoanHandler.Checkin)
	}
}

// ========================================
// FINE ROUTES
// ========================================
func setupFineRoutes(v1 *gin.RouterGroup, c *container.Container) {
	fines := v1.Group("/fines")
	{
		fines.GET("", c.LoanHandler.SearchFines)
		fines.GET("/summary", c.LoanHandler.FineSummary)
		fines.GET("/total", c.LoanHandler.UserFines)
		fines.GET("/grouped", c.LoanHandler.FinesGrouped)
		fines.POST("/sweep", c.LoanHandler.SweepFines)
		fines.POST("/pay", c.LoanHandler.PayBorrowerFines)
		fines.POST("/:loan_id/pay", c.LoanHandler.PayLoanFine)
	}
}

// ========================================
// ASSISTANT ROUTES
// ========================================
func setupAssistantRoutes(v1 *gin.RouterGroup, c *container.Container) {
	tools := v1.Group("/assistant/tools")
	{
		tools.GET("", c.AssistantHandler.ListTools)
		tools.POST("/:name", c.AssistantHandler.InvokeTool)
	}
}

// ========================================
// HEALTH CHECK HANDLER
// ========================================
func healthCheckHandler(appCtx *container.Container) gin.HandlerFunc {
	return func(c *gin.Context) {
		health := gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
			"version":   appCtx.Config.App.Version,
			"services":  gin.H{},
		}

		dbStatus := "ok"
		if appCtx.DB == nil || appCtx.DB.Pool == nil {
			dbStatus = "disconnected"
			health["status"] = "degraded"
		} else {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()

			if err := appCtx.DB.HealthCheck(ctx); err != nil {
				dbStatus = fmt.Sprintf("error: %v", err)
				health["status"] = "degraded"
			}
		}

		redisStatus := "ok"
		if appCtx.Cache == nil {
			redisStatus = "disconnected"
		} else {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()

			if err := appCtx.Cache.Ping(ctx); err != nil {
				redisStatus = fmt.Sprintf("error: %v", err)
			}
		}

		health["services"] = gin.H{
			"database": dbStatus,
			"redis":    redisStatus,
		}

		statusCode := http.StatusOK
		if dbStatus != "ok" {
			statusCode = http.StatusServiceUnavailable
		}

		c.JSON(statusCode, health)
	}
}
