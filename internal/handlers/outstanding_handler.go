package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"stock-ledger/internal/database"
	"stock-ledger/internal/export"
	"stock-ledger/internal/notify"
	"stock-ledger/internal/outstanding"
	"stock-ledger/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// keepAlive is how often an idle stream sends a comment so proxies keep it open.
var keepAlive = 25 * time.Second

// outstandingQuery reads ?source=&sort=&order= with date/desc defaults.
func outstandingQuery(c *gin.Context) (outstanding.Query, bool) {
	q := outstanding.DefaultQuery
	q.Source = outstanding.Source(c.DefaultQuery("source", string(outstanding.SourceAll)))
	if sort := c.Query("sort"); sort != "" {
		q.SortBy = sort
	}
	switch strings.ToLower(c.Query("order")) {
	case "":
	case "desc":
		q.Desc = true
	case "asc":
		q.Desc = false
	default:
		badRequest(c, "order must be asc or desc")
		return q, false
	}
	return q, true
}

// GetOutstanding returns every order line still owed, with per-source totals.
func GetOutstanding(c *gin.Context) {
	q, ok := outstandingQuery(c)
	if !ok {
		return
	}
	view, err := services.OutstandingView(c.Request.Context(), database.DB, q)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// ExportOutstanding sends the same view as an .xlsx download.
func ExportOutstanding(c *gin.Context) {
	q, ok := outstandingQuery(c)
	if !ok {
		return
	}
	view, err := services.OutstandingView(c.Request.Context(), database.DB, q)
	if err != nil {
		fail(c, err)
		return
	}

	filename := fmt.Sprintf("outstanding-%s-%s.xlsx", q.Source, time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Status(http.StatusOK)
	if err := export.WriteOutstanding(c.Writer, view); err != nil {
		zap.L().Error("outstanding export failed", zap.Error(err))
	}
}

// StreamOutstanding pushes the view over SSE on connect and after every write
// that can change it.
func StreamOutstanding(c *gin.Context) {
	q, ok := outstandingQuery(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	// Validate before committing to a 200 stream
	view, err := services.OutstandingView(ctx, database.DB, q)
	if err != nil {
		fail(c, err)
		return
	}

	events, cancel := notify.Hub.Subscribe()
	defer cancel()

	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.SSEvent("outstanding", view)
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case ev, open := <-events:
			if !open {
				return false
			}
			if !services.AffectsOutstanding(ev.Topic) {
				return true
			}
			view, err := services.OutstandingView(ctx, database.DB, q)
			if err != nil {
				if ctx.Err() == nil {
					zap.L().Warn("outstanding stream refresh failed", zap.Error(err))
				}
				return ctx.Err() == nil
			}
			c.SSEvent("outstanding", view)
			return true
		case <-ticker.C:
			_, _ = io.WriteString(w, ": ping\n\n")
			return true
		}
	})
}
