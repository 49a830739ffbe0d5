package services

import (
	"context"
	"errors"

	"stock-ledger/internal/notify"
	"stock-ledger/internal/outstanding"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// LoadOutstandingSources reads the five record sets the view is joined from.
// They are read in one transaction so every set comes from the same snapshot.
func LoadOutstandingSources(ctx context.Context, db *gorm.DB) (outstanding.Sources, error) {
	var src outstanding.Sources
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Items").Find(&src.Purchases).Error; err != nil {
			return err
		}
		if err := tx.Find(&src.Sales).Error; err != nil {
			return err
		}
		if err := tx.Find(&src.SaleItems).Error; err != nil {
			return err
		}
		if err := tx.Find(&src.Deliveries).Error; err != nil {
			return err
		}
		return tx.Find(&src.Products).Error
	})
	if err != nil {
		return outstanding.Sources{}, err
	}
	return src, nil
}

// OutstandingView loads, reconciles, filters and sorts the outstanding deliveries.
func OutstandingView(ctx context.Context, db *gorm.DB, q outstanding.Query) (outstanding.View, error) {
	// Reject bad queries before touching the store
	if _, err := outstanding.ParseSource(string(q.Source)); err != nil {
		return outstanding.View{}, asInvalid(err)
	}

	src, err := LoadOutstandingSources(ctx, db)
	if err != nil {
		return outstanding.View{}, err
	}

	view, err := outstanding.Compute(src, q)
	if err != nil {
		if errors.Is(err, outstanding.ErrInvalidSource) || errors.Is(err, outstanding.ErrInvalidSortField) {
			return outstanding.View{}, asInvalid(err)
		}
		return outstanding.View{}, err
	}

	for _, u := range view.Unresolved {
		zap.L().Warn("outstanding record has a dangling reference",
			zap.String("source", string(u.Source)),
			zap.Uint("record_id", u.RecordID),
			zap.String("missing", u.Missing),
			zap.Uint("ref_id", u.RefID))
	}
	return view, nil
}

// AffectsOutstanding reports whether an event on topic may change the view.
func AffectsOutstanding(topic notify.Topic) bool {
	switch topic {
	case notify.Products, notify.Purchases, notify.Sales:
		return true
	}
	return false
}
