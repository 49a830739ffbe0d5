package handlers

import (
	"net/http"

	"stock-ledger/internal/database"
	"stock-ledger/internal/notify"
	"stock-ledger/internal/services"

	"github.com/gin-gonic/gin"
)

func GetBills(c *gin.Context) {
	list, err := services.ListBills(c.Request.Context(), database.DB)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func CreateBill(c *gin.Context) {
	var input services.BillInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Invalid input: "+err.Error())
		return
	}
	bill, err := services.CreateBill(c.Request.Context(), database.DB, input)
	if err != nil {
		fail(c, err)
		return
	}
	published(notify.Bills, bill.ID)
	c.JSON(http.StatusCreated, bill)
}

// GetDueDates lists unpaid bills, soonest due first.
func GetDueDates(c *gin.Context) {
	list, err := services.ListDueDates(c.Request.Context(), database.DB)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// UpdateDueDate moves a bill through Pending, Overdue and Paid.
func UpdateDueDate(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var update services.DueDateUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		badRequest(c, "Invalid input: "+err.Error())
		return
	}
	bill, err := services.UpdateDueDate(c.Request.Context(), database.DB, id, update)
	if err != nil {
		fail(c, err)
		return
	}
	published(notify.Bills, bill.ID)
	c.JSON(http.StatusOK, bill)
}
