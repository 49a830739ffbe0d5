package handlers

import (
	"net/http"

	"stock-ledger/internal/database"
	"stock-ledger/internal/services"

	"github.com/gin-gonic/gin"
)

func GetSuppliers(c *gin.Context) {
	list, err := services.ListSuppliers(c.Request.Context(), database.DB)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func CreateSupplier(c *gin.Context) {
	var input services.SupplierInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Invalid input")
		return
	}
	supplier, err := services.CreateSupplier(c.Request.Context(), database.DB, input)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, supplier)
}

func GetWarehouses(c *gin.Context) {
	list, err := services.ListWarehouses(c.Request.Context(), database.DB)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func CreateWarehouse(c *gin.Context) {
	var input services.WarehouseInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Invalid input")
		return
	}
	warehouse, err := services.CreateWarehouse(c.Request.Context(), database.DB, input)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, warehouse)
}
