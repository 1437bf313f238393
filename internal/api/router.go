// Package api exposes the planner over HTTP.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"silo-dispatch/internal/api/handlers"
	"silo-dispatch/internal/api/middleware"
	"silo-dispatch/internal/service"
)

type Options struct {
	AllowedOrigins []string
	// Gatherer backs /metrics. Defaults to the global registry.
	Gatherer prometheus.Gatherer
	// Log is used for request logging. Defaults to the global zerolog logger.
	Log *zerolog.Logger
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(p *service.Planner, opts Options) *gin.Engine {
	l := log.Logger
	if opts.Log != nil {
		l = *opts.Log
	}
	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	router := gin.New()
	router.Use(middleware.Logger(l))
	router.Use(middleware.ErrorHandler(l))

	simulationHandler := handlers.NewSimulationHandler(p)
	productHandler := handlers.NewProductHandler(p.Catalog())
	scheduleHandler := handlers.NewScheduleHandler(p)

	router.GET("/health", handlers.Health)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	api := router.Group("/api/v1")
	{
		api.GET("/products", productHandler.ListProducts)
		api.GET("/products/:key", productHandler.GetProduct)

		api.POST("/simulate", simulationHandler.Simulate)
		api.GET("/simulations/:id/stocklog", simulationHandler.GetStockLog)
		api.GET("/simulations/:id/ledger", simulationHandler.GetLedger)
		api.POST("/recalculate", simulationHandler.Recalculate)
		api.POST("/plan", simulationHandler.Plan)

		api.GET("/schedules", scheduleHandler.ListSchedules)
		schedules := api.Group("/schedules/:facility/:product")
		{
			schedules.GET("", scheduleHandler.GetSchedule)
			schedules.POST("", scheduleHandler.CreateSchedule)
			schedules.DELETE("", scheduleHandler.DeleteSchedule)
			schedules.POST("/edits", scheduleHandler.ApplyEdit)
			schedules.POST("/unresolved", scheduleHandler.MarkUnresolved)
			schedules.POST("/reconcile", scheduleHandler.Reconcile)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"code": "NOT_FOUND", "message": "Not found"}})
	})
	return router
}

// Handler returns the router wrapped with CORS.
func Handler(p *service.Planner, opts Options) http.Handler {
	return middleware.CORS(NewRouter(p, opts), opts.AllowedOrigins)
}
