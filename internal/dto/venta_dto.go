package dto

import "github.com/shopspring/decimal"

type RegistrarVentaRequest struct {
	TiendaID   int             `json:"tienda_id"   validate:"required,min=1"`
	Total      decimal.Decimal `json:"total"`
	MetodoPago string          `json:"metodo_pago" validate:"required,oneof=efectivo debito credito transferencia"`
}

type VentaResponse struct {
	ID         int64           `json:"id"`
	TiendaID   int             `json:"tienda_id"`
	Total      decimal.Decimal `json:"total"`
	MetodoPago string          `json:"metodo_pago"`
	CreatedAt  string          `json:"created_at"`
}
