package repository

import (
	"context"
	"errors"
	"time"

	"tiendapos/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrSinSesionAbierta is returned by lookups when the tienda has no open session.
var ErrSinSesionAbierta = errors.New("sin sesion de caja abierta")

type CajaRepository interface {
	CreateSesion(ctx context.Context, s *model.SesionCaja) error
	FindSesionAbiertaPorTienda(ctx context.Context, tiendaID int) (*model.SesionCaja, error)
	FindSesionByID(ctx context.Context, id int64) (*model.SesionCaja, error)
	CerrarSesion(ctx context.Context, s *model.SesionCaja) error
	CreateMovimiento(ctx context.Context, m *model.MovimientoCaja) error
	// RegistrarConFallback appends m to the tienda's open session, opening one
	// with the given saldo inicial when none exists. Lookup, creation and
	// insert run inside one transaction with the session row locked, so
	// concurrent callers converge on a single session.
	RegistrarConFallback(ctx context.Context, tiendaID int, saldoInicial decimal.Decimal, m *model.MovimientoCaja) (*model.SesionCaja, error)
	ListMovimientos(ctx context.Context, sesionCajaID int64) ([]model.MovimientoCaja, error)
	SumMovimientos(ctx context.Context, sesionCajaID int64) (ingresos, egresos decimal.Decimal, err error)
	SumIngresosPorFecha(ctx context.Context, desde, hasta time.Time) (ventas, manuales decimal.Decimal, cant int, err error)
	ListEgresosPorFecha(ctx context.Context, desde, hasta time.Time) ([]model.MovimientoCaja, error)
	SumEgresosHasta(ctx context.Context, hasta time.Time) (decimal.Decimal, error)
	ListSesionesCerradas(ctx context.Context, page, limit int) ([]model.SesionCaja, error)
}

type cajaRepo struct{ db *gorm.DB }

func NewCajaRepository(db *gorm.DB) CajaRepository { return &cajaRepo{db: db} }

func (r *cajaRepo) CreateSesion(ctx context.Context, s *model.SesionCaja) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *cajaRepo) FindSesionAbiertaPorTienda(ctx context.Context, tiendaID int) (*model.SesionCaja, error) {
	var s model.SesionCaja
	err := r.db.WithContext(ctx).
		Where("tienda_id = ? AND abierta", tiendaID).
		First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSinSesionAbierta
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *cajaRepo) FindSesionByID(ctx context.Context, id int64) (*model.SesionCaja, error) {
	var s model.SesionCaja
	err := r.db.WithContext(ctx).Preload("Movimientos").First(&s, id).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// CerrarSesion persists the closing fields. The WHERE abierta guard makes the
// close idempotent at the storage level: a second close updates zero rows.
func (r *cajaRepo) CerrarSesion(ctx context.Context, s *model.SesionCaja) error {
	res := r.db.WithContext(ctx).Model(&model.SesionCaja{}).
		Where("id = ? AND abierta", s.ID).
		Updates(map[string]interface{}{
			"saldo_cierre": s.SaldoCierre,
			"cerrada_en":   s.CerradaEn,
			"abierta":      false,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *cajaRepo) CreateMovimiento(ctx context.Context, m *model.MovimientoCaja) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *cajaRepo) RegistrarConFallback(ctx context.Context, tiendaID int, saldoInicial decimal.Decimal, m *model.MovimientoCaja) (*model.SesionCaja, error) {
	var sesion model.SesionCaja
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("tienda_id = ? AND abierta", tiendaID).
			First(&sesion).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			sesion = model.SesionCaja{
				TiendaID:     tiendaID,
				UsuarioID:    m.UsuarioID,
				SaldoInicial: saldoInicial,
				Abierta:      true,
			}
			// ON CONFLICT DO NOTHING instead of a plain insert: a concurrent
			// request may have opened the session between our lookup and the
			// insert, and a unique violation would abort the transaction. A
			// swallowed conflict leaves ID zero; re-run the locked lookup and
			// reuse the winner's session.
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&sesion).Error; err != nil {
				return err
			}
			if sesion.ID == 0 {
				if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
					Where("tienda_id = ? AND abierta", tiendaID).
					First(&sesion).Error; err != nil {
					return err
				}
			}
		} else if err != nil {
			return err
		}

		m.SesionCajaID = sesion.ID
		return tx.Create(m).Error
	})
	if err != nil {
		return nil, err
	}
	return &sesion, nil
}

func (r *cajaRepo) ListMovimientos(ctx context.Context, sesionCajaID int64) ([]model.MovimientoCaja, error) {
	var movs []model.MovimientoCaja
	err := r.db.WithContext(ctx).
		Where("sesion_caja_id = ?", sesionCajaID).
		Order("creado_en ASC").
		Find(&movs).Error
	return movs, err
}

func (r *cajaRepo) SumMovimientos(ctx context.Context, sesionCajaID int64) (decimal.Decimal, decimal.Decimal, error) {
	rows, err := r.db.WithContext(ctx).Model(&model.MovimientoCaja{}).
		Select("tipo, COALESCE(SUM(monto), 0) AS total").
		Where("sesion_caja_id = ?", sesionCajaID).
		Group("tipo").Rows()
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	defer rows.Close()

	ingresos, egresos := decimal.Zero, decimal.Zero
	for rows.Next() {
		var tipo string
		var total decimal.Decimal
		if err := rows.Scan(&tipo, &total); err != nil {
			return decimal.Zero, decimal.Zero, err
		}
		switch tipo {
		case model.MovimientoIngreso:
			ingresos = total
		case model.MovimientoEgreso:
			egresos = total
		}
	}
	return ingresos, egresos, rows.Err()
}

func (r *cajaRepo) SumIngresosPorFecha(ctx context.Context, desde, hasta time.Time) (decimal.Decimal, decimal.Decimal, int, error) {
	type fila struct {
		ConVenta bool
		Total    decimal.Decimal
		Cant     int
	}
	var filas []fila
	err := r.db.WithContext(ctx).Model(&model.MovimientoCaja{}).
		Select("venta_id IS NOT NULL AS con_venta, COALESCE(SUM(monto), 0) AS total, COUNT(*) AS cant").
		Where("tipo = ? AND creado_en >= ? AND creado_en < ?", model.MovimientoIngreso, desde, hasta).
		Group("venta_id IS NOT NULL").
		Scan(&filas).Error
	if err != nil {
		return decimal.Zero, decimal.Zero, 0, err
	}

	ventas, manuales := decimal.Zero, decimal.Zero
	cant := 0
	for _, f := range filas {
		if f.ConVenta {
			ventas = f.Total
		} else {
			manuales = f.Total
		}
		cant += f.Cant
	}
	return ventas, manuales, cant, nil
}

func (r *cajaRepo) ListEgresosPorFecha(ctx context.Context, desde, hasta time.Time) ([]model.MovimientoCaja, error) {
	var movs []model.MovimientoCaja
	err := r.db.WithContext(ctx).
		Where("tipo = ? AND creado_en >= ? AND creado_en < ?", model.MovimientoEgreso, desde, hasta).
		Order("creado_en ASC").
		Find(&movs).Error
	return movs, err
}

func (r *cajaRepo) SumEgresosHasta(ctx context.Context, hasta time.Time) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.WithContext(ctx).Model(&model.MovimientoCaja{}).
		Select("COALESCE(SUM(monto), 0)").
		Where("tipo = ? AND creado_en < ?", model.MovimientoEgreso, hasta).
		Scan(&total).Error
	return total, err
}

func (r *cajaRepo) ListSesionesCerradas(ctx context.Context, page, limit int) ([]model.SesionCaja, error) {
	var sesiones []model.SesionCaja
	err := r.db.WithContext(ctx).
		Where("NOT abierta").
		Order("cerrada_en DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&sesiones).Error
	return sesiones, err
}
