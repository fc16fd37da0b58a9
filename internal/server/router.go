// Package server assembles the HTTP API.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "spendlens/internal/docs" // Import swagger docs
	"spendlens/internal/handlers"
	"spendlens/internal/middleware"
	"spendlens/internal/services"
)

// Deps are the collaborators the router wires into handlers.
type Deps struct {
	Verifier    middleware.TokenVerifier
	CORSOrigins []string

	Expenses   services.ExpenseServicer
	Analytics  services.AnalyticsServicer
	Dashboards *services.DashboardHub
	Rates      services.RateSource
	RatesBase  string
	Audit      services.AuditServicer
}

// NewRouter builds the gin engine with middleware and every route.
func NewRouter(d Deps) *gin.Engine {
	expenseHandler := handlers.NewExpenseHandler(d.Expenses, d.Audit)
	analyticsHandler := handlers.NewAnalyticsHandler(d.Analytics, d.Dashboards)
	ratesHandler := handlers.NewRatesHandler(d.Rates, d.RatesBase)
	categoryHandler := handlers.NewCategoryHandler()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.CORS(d.CORSOrigins))

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 group, every route requires a verified user
	v1 := router.Group("/api/v1")
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware(d.Verifier))

	// Expense routes
	expenses := protected.Group("/expenses")
	expenses.GET("", expenseHandler.ListExpenses)
	expenses.POST("", expenseHandler.CreateExpense)
	expenses.PUT("/:id", expenseHandler.UpdateExpense)
	expenses.DELETE("/:id", expenseHandler.DeleteExpense)

	// Analytics routes
	analytics := protected.Group("/analytics")
	analytics.POST("", analyticsHandler.Analyze)
	analytics.GET("/dashboard", analyticsHandler.Dashboard)
	analytics.POST("/dashboard/refresh", analyticsHandler.RefreshDashboard)

	// Exchange rate routes
	protected.GET("/rates", ratesHandler.GetRates)

	// Reference data
	protected.GET("/categories", categoryHandler.GetReference)

	return router
}
