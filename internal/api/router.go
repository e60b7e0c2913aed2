package api

import "github.com/gin-gonic/gin"

// SetupRouter configures the API routes for the application.
func SetupRouter(router *gin.Engine, h *Handlers) {
	// Group all API routes under /api
	api := router.Group("/api")
	{
		scenarios := api.Group("/scenarios")
		{
			scenarios.GET("", h.ListScenarios)
			scenarios.GET("/:id", h.GetScenario)
		}

		cases := api.Group("/cases")
		{
			cases.GET("", h.ListCases)
			cases.GET("/:id", h.GetCase)
		}

		api.GET("/questions", h.ListQuestions)

		sessions := api.Group("/sessions")
		{
			sessions.POST("", h.CreateSession)
			sessions.GET("/:id", h.GetSession)
			sessions.POST("/:id/advance", h.Advance)
			sessions.POST("/:id/summary", h.Summary)
			sessions.DELETE("/:id", h.DeleteSession)
		}
	}
}
