package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SesionCaja represents the lifecycle of a cash register session for a tienda.
// At most one session per tienda may be open at any time — enforced by a
// partial unique index on (tienda_id) WHERE abierta (see infra/database.go).
type SesionCaja struct {
	ID           int64           `gorm:"primaryKey;autoIncrement"`
	TiendaID     int             `gorm:"not null;index"`
	UsuarioID    uuid.UUID       `gorm:"type:uuid;not null"`
	SaldoInicial decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	// SaldoCierre is computed on close: SaldoInicial + sum(ingresos) - sum(egresos)
	SaldoCierre *decimal.Decimal `gorm:"type:decimal(14,2)"`
	Abierta     bool             `gorm:"not null;default:true"`
	AbiertaEn   time.Time        `gorm:"autoCreateTime"`
	CerradaEn   *time.Time

	Movimientos []MovimientoCaja `gorm:"foreignKey:SesionCajaID"`
}

func (SesionCaja) TableName() string { return "sesiones_caja" }

// Movement kinds. The ledger only knows ingresos and egresos; a
// venta-originated ingreso carries a VentaID back-reference.
const (
	MovimientoIngreso = "ingreso"
	MovimientoEgreso  = "egreso"
)

// MovimientoCaja is an immutable entry in the cash register ledger.
// Movements are NEVER modified or deleted — corrections create inverse entries.
// Monto is always strictly positive; the sign comes from Tipo.
type MovimientoCaja struct {
	ID           int64           `gorm:"primaryKey;autoIncrement"`
	SesionCajaID int64           `gorm:"index;not null"`
	Tipo         string          `gorm:"type:varchar(10);not null"`
	Monto        decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	Concepto     string          `gorm:"not null"`
	// VentaID links the movement to the originating sale, when there is one.
	// Informational back-reference only — no cascade.
	VentaID   *int64
	UsuarioID uuid.UUID `gorm:"type:uuid;not null"`
	CreadoEn  time.Time `gorm:"autoCreateTime;index"`
}

func (MovimientoCaja) TableName() string { return "movimientos_caja" }
