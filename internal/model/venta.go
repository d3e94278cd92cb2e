package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment methods accepted at the register.
const (
	PagoEfectivo      = "efectivo"
	PagoDebito        = "debito"
	PagoCredito       = "credito"
	PagoTransferencia = "transferencia"
)

// Venta is a completed sale. Cash sales feed the caja ledger: registering a
// venta with metodo_pago=efectivo appends an ingreso movement to the open
// session of the tienda.
type Venta struct {
	ID         int64           `gorm:"primaryKey;autoIncrement"`
	TiendaID   int             `gorm:"not null;index"`
	Total      decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	MetodoPago string          `gorm:"type:varchar(20);not null"`
	UsuarioID  uuid.UUID       `gorm:"type:uuid;not null"`
	CreatedAt  time.Time       `gorm:"index"`
}

func (Venta) TableName() string { return "ventas" }
