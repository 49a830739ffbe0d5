package handlers

import (
	"net/http"

	"stock-ledger/internal/ai"
	"stock-ledger/internal/database"

	"github.com/gin-gonic/gin"
)

type AskRequest struct {
	Message string `json:"message" binding:"required"`
}

// AskAI answers a free-text question using the assistant tools.
func AskAI(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req AskRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "Message is required")
			return
		}

		if apiKey == "" {
			abortWith(c, http.StatusServiceUnavailable, "Assistant is not configured (GEMINI_API_KEY missing)")
			return
		}

		response, err := ai.NewAgent(database.DB, apiKey).Run(c.Request.Context(), req.Message)
		if err != nil {
			fail(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"reply": response})
	}
}
