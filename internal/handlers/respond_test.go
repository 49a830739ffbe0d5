package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"stock-ledger/internal/inventory"
	"stock-ledger/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFail_StatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"validation", &services.ValidationError{Err: services.ErrValidation, Details: "product_name is required"}, http.StatusBadRequest, "product_name is required"},
		{"over receipt", &services.ValidationError{Err: services.ErrOverReceipt, Details: "6 of 5"}, http.StatusBadRequest, "received quantity exceeds ordered quantity: 6 of 5"},
		{"not found", fmt.Errorf("sale 9: %w", services.ErrNotFound), http.StatusNotFound, "sale 9: record not found"},
		{"sku exhausted", fmt.Errorf("%w after 5 attempts", inventory.ErrAllocationExhausted), http.StatusInternalServerError, "Failed to generate unique SKU"},
		{"other", errors.New("connection refused"), http.StatusInternalServerError, "connection refused"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			fail(c, tt.err)

			assert.Equal(t, tt.status, w.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.message, body["error"])
			assert.Contains(t, body, "request_id")
		})
	}
}
