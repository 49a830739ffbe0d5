package services

import (
	"context"
	"strings"

	"stock-ledger/internal/models"

	"gorm.io/gorm"
)

type SupplierInput struct {
	Name    string `json:"name"`
	Contact string `json:"contact"`
}

type WarehouseInput struct {
	Name     string `json:"name"`
	Location string `json:"location"`
}

func CreateSupplier(ctx context.Context, db *gorm.DB, in SupplierInput) (*models.Supplier, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalid("name is required")
	}
	s := models.Supplier{Name: name, Contact: strings.TrimSpace(in.Contact)}
	if err := db.WithContext(ctx).Create(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func ListSuppliers(ctx context.Context, db *gorm.DB) ([]models.Supplier, error) {
	list := []models.Supplier{}
	err := db.WithContext(ctx).Order("name").Find(&list).Error
	return list, err
}

func CreateWarehouse(ctx context.Context, db *gorm.DB, in WarehouseInput) (*models.Warehouse, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalid("name is required")
	}
	w := models.Warehouse{Name: name, Location: strings.TrimSpace(in.Location)}
	if err := db.WithContext(ctx).Create(&w).Error; err != nil {
		return nil, err
	}
	return &w, nil
}

func ListWarehouses(ctx context.Context, db *gorm.DB) ([]models.Warehouse, error) {
	list := []models.Warehouse{}
	err := db.WithContext(ctx).Order("name").Find(&list).Error
	return list, err
}
