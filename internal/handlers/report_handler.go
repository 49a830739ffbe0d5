package handlers

import (
	"net/http"
	"time"

	"stock-ledger/internal/database"

	"github.com/gin-gonic/gin"
)

// --- GET: /api/reports?from=YYYY-MM-DD&to=YYYY-MM-DD ---
// Defaults to the last 30 days, both ends inclusive.
func GetSalesReport(c *gin.Context) {
	now := time.Now()
	to := now
	from := now.AddDate(0, 0, -30)

	if raw := c.Query("from"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			badRequest(c, "from must be YYYY-MM-DD")
			return
		}
		from = t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			badRequest(c, "to must be YYYY-MM-DD")
			return
		}
		to = t.Add(24*time.Hour - time.Nanosecond)
	}
	if to.Before(from) {
		badRequest(c, "to must not be before from")
		return
	}

	report, err := database.GetSalesReport(c.Request.Context(), database.DB, from, to)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// --- GET: /api/reports/valuation ---
// GetStockValuation values all on-hand inventory at cost, grouped by stock status
func GetStockValuation(c *gin.Context) {
	report, err := database.GetStockValuation(c.Request.Context(), database.DB)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
