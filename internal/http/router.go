// README: HTTP router registration.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pronto/internal/ai"
	"pronto/internal/http/handlers"
	"pronto/internal/http/middleware"
)

type RouterDeps struct {
	Logger      *zap.Logger
	Matching    handlers.Matcher
	Pricing     handlers.Quoter
	Promotions  handlers.PromoApplier
	Requests    handlers.RequestService
	Dispatcher  handlers.Dispatcher
	Attempts    handlers.AttemptReader
	DispatchLog handlers.DispatchLog
	Surge       handlers.SurgeControl
	Advisor     ai.Advisor
}

func NewRouter(deps RouterDeps) http.Handler {
	r := gin.New()
	r.Use(middleware.Logging(deps.Logger), middleware.Recovery(deps.Logger))

	matchHandler := handlers.NewMatchHandler(deps.Matching, deps.Advisor)
	r.POST("/api/match", matchHandler.Match)

	quoteHandler := handlers.NewQuoteHandler(deps.Pricing, deps.Promotions)
	r.POST("/api/quotes", quoteHandler.Quote)
	r.POST("/api/quotes/promotional", quoteHandler.PromotionalQuote)

	requestHandler := handlers.NewRequestHandler(deps.Requests, deps.Dispatcher, deps.Attempts, deps.DispatchLog)
	r.POST("/api/requests", requestHandler.Create)
	r.GET("/api/requests/:id", requestHandler.Get)
	r.POST("/api/requests/:id/dispatch", requestHandler.Dispatch)
	r.GET("/api/requests/:id/dispatch", requestHandler.DispatchStatus)
	r.POST("/api/requests/:id/accept", requestHandler.Accept)
	r.POST("/api/requests/:id/start", requestHandler.Start)
	r.POST("/api/requests/:id/complete", requestHandler.Complete)
	r.POST("/api/requests/:id/cancel", requestHandler.Cancel)

	surgeHandler := handlers.NewSurgeHandler(deps.Surge)
	r.GET("/api/admin/surge", surgeHandler.Get)
	r.PUT("/api/admin/surge", surgeHandler.Set)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	return r
}
