package repository

import (
	"context"
	"time"

	"tiendapos/internal/model"

	"gorm.io/gorm"
)

type VentaRepository interface {
	Create(ctx context.Context, v *model.Venta) error
	ListPorFecha(ctx context.Context, desde, hasta time.Time) ([]model.Venta, error)
}

type ventaRepo struct{ db *gorm.DB }

func NewVentaRepository(db *gorm.DB) VentaRepository { return &ventaRepo{db: db} }

func (r *ventaRepo) Create(ctx context.Context, v *model.Venta) error {
	return r.db.WithContext(ctx).Create(v).Error
}

func (r *ventaRepo) ListPorFecha(ctx context.Context, desde, hasta time.Time) ([]model.Venta, error) {
	var ventas []model.Venta
	err := r.db.WithContext(ctx).
		Where("created_at >= ? AND created_at < ?", desde, hasta).
		Order("created_at DESC").
		Find(&ventas).Error
	return ventas, err
}
