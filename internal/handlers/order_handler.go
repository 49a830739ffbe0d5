package handlers

import (
	"net/http"
	"strconv"

	"stock-ledger/internal/database"
	"stock-ledger/internal/notify"
	"stock-ledger/internal/services"

	"github.com/gin-gonic/gin"
)

// --- Purchases ---

func GetPurchases(c *gin.Context) {
	purchases, err := services.ListPurchases(c.Request.Context(), database.DB)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, purchases)
}

func GetPurchase(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	purchase, err := services.GetPurchase(c.Request.Context(), database.DB, id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, purchase)
}

// CreatePurchase stores the header, its lines and any goods already received in one transaction.
func CreatePurchase(c *gin.Context) {
	var input services.PurchaseInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Invalid input: "+err.Error())
		return
	}

	purchase, err := services.CreatePurchase(c.Request.Context(), database.DB, input)
	if err != nil {
		fail(c, err)
		return
	}
	published(notify.Purchases, purchase.ID)
	published(notify.Products, 0)

	c.JSON(http.StatusCreated, purchase)
}

// UpdatePurchase takes header fields and line edits; client-sent statuses are ignored.
func UpdatePurchase(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var update services.PurchaseUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		badRequest(c, "Invalid input: "+err.Error())
		return
	}

	purchase, err := services.UpdatePurchase(c.Request.Context(), database.DB, id, update)
	if err != nil {
		fail(c, err)
		return
	}
	published(notify.Purchases, purchase.ID)
	if len(update.Items) > 0 {
		published(notify.Products, 0)
	}

	c.JSON(http.StatusOK, purchase)
}

func UpdatePurchaseItem(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	itemID, ok := idParam(c, "itemId")
	if !ok {
		return
	}
	var change services.PurchaseItemUpdate
	if err := c.ShouldBindJSON(&change); err != nil {
		badRequest(c, "Invalid input: "+err.Error())
		return
	}

	purchase, err := services.UpdatePurchaseItem(c.Request.Context(), database.DB, id, itemID, change)
	if err != nil {
		fail(c, err)
		return
	}
	published(notify.Purchases, purchase.ID)
	published(notify.Products, 0)

	c.JSON(http.StatusOK, purchase)
}

// --- Sales ---

func GetSales(c *gin.Context) {
	sales, err := services.ListSales(c.Request.Context(), database.DB)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sales)
}

func GetSale(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	sale, err := services.GetSale(c.Request.Context(), database.DB, id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sale)
}

// CreateSale stores the sale with one delivery record per line and deducts delivered stock.
func CreateSale(c *gin.Context) {
	var input services.SaleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Invalid input: "+err.Error())
		return
	}

	sale, err := services.CreateSale(c.Request.Context(), database.DB, input)
	if err != nil {
		fail(c, err)
		return
	}
	published(notify.Sales, sale.ID)
	published(notify.Products, 0)

	c.JSON(http.StatusCreated, sale)
}

func UpdateSale(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var update services.SaleUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		badRequest(c, "Invalid input: "+err.Error())
		return
	}

	sale, err := services.UpdateSale(c.Request.Context(), database.DB, id, update)
	if err != nil {
		fail(c, err)
		return
	}
	published(notify.Sales, sale.ID)

	c.JSON(http.StatusOK, sale)
}

// --- Deliveries ---

// GetDeliveries lists delivery records, optionally for ?sale_id=
func GetDeliveries(c *gin.Context) {
	var saleID uint
	if raw := c.Query("sale_id"); raw != "" {
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			badRequest(c, "Invalid sale_id")
			return
		}
		saleID = uint(n)
	}

	deliveries, err := services.ListDeliveries(c.Request.Context(), database.DB, saleID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, deliveries)
}

func UpdateDelivery(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var update services.DeliveryUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		badRequest(c, "Invalid input: "+err.Error())
		return
	}

	delivery, err := services.UpdateDelivery(c.Request.Context(), database.DB, id, update)
	if err != nil {
		fail(c, err)
		return
	}
	published(notify.Sales, delivery.SaleID)
	published(notify.Products, delivery.ProductID)

	c.JSON(http.StatusOK, delivery)
}
