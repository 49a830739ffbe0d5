package handlers

import (
	"net/http"

	"stock-ledger/internal/database"
	"stock-ledger/internal/notify"
	"stock-ledger/internal/services"

	"github.com/gin-gonic/gin"
)

// --- GET: List all products ---
func GetProducts(c *gin.Context) {
	products, err := services.ListProducts(c.Request.Context(), database.DB)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

// --- GET: One product ---
func GetProduct(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	product, err := services.GetProduct(c.Request.Context(), database.DB, id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// --- POST: Add a new product ---
// A SKU is generated when the body leaves it empty. Stock status is always derived.
func AddProduct(c *gin.Context) {
	var input services.ProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Invalid input: "+err.Error())
		return
	}

	product, err := services.CreateProduct(c.Request.Context(), database.DB, input)
	if err != nil {
		fail(c, err)
		return
	}
	published(notify.Products, product.ID)

	c.JSON(http.StatusCreated, gin.H{
		"message":      "Product created successfully",
		"product_id":   product.ID,
		"sku":          product.SKU,
		"stock_status": product.StockStatus,
		"product":      product,
	})
}

// --- PUT: Update Price or Stock ---
func UpdateProduct(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	// Pointer fields, so only what was sent is updated
	var update services.ProductUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		badRequest(c, "Invalid input: "+err.Error())
		return
	}

	product, err := services.UpdateProduct(c.Request.Context(), database.DB, id, update)
	if err != nil {
		fail(c, err)
		return
	}
	published(notify.Products, product.ID)

	c.JSON(http.StatusOK, gin.H{"message": "Product updated successfully", "product": product})
}

// --- DELETE: Remove a product ---
func DeleteProduct(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := services.DeleteProduct(c.Request.Context(), database.DB, id); err != nil {
		fail(c, err)
		return
	}
	published(notify.Products, id)

	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
}
