package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type AbrirCajaRequest struct {
	TiendaID     int             `json:"tienda_id"     validate:"required,min=1"`
	SaldoInicial decimal.Decimal `json:"saldo_inicial"`
}

type CerrarCajaRequest struct {
	SesionCajaID int64 `json:"sesion_caja_id" validate:"required,min=1"`
}

// MovimientoRequest covers both /api/registrar-ingreso and
// /api/registrar-retiro: the route fixes Tipo, the body carries the rest.
// When no session is open for the tienda one is auto-opened before recording.
type MovimientoRequest struct {
	TiendaID int             `json:"tienda_id" validate:"required,min=1"`
	Monto    decimal.Decimal `json:"monto"`
	Concepto string          `json:"concepto"  validate:"required,min=1"`
	VentaID  *int64          `json:"venta_id"`
}

// RetiroRequest is the RPC-style egreso against an explicit session
// (/v1/caja/retiro). Unlike MovimientoRequest it never auto-opens.
type RetiroRequest struct {
	SesionCajaID int64           `json:"sesion_caja_id" validate:"required,min=1"`
	Monto        decimal.Decimal `json:"monto"`
	Concepto     string          `json:"concepto"       validate:"required,min=1"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type SesionCajaResponse struct {
	ID           int64           `json:"id"`
	TiendaID     int             `json:"tienda_id"`
	SaldoInicial decimal.Decimal `json:"saldo_inicial"`
	SaldoCierre  *decimal.Decimal `json:"saldo_cierre,omitempty"`
	Abierta      bool            `json:"abierta"`
	AbiertaEn    string          `json:"abierta_en"`
	CerradaEn    *string         `json:"cerrada_en,omitempty"`
}

type MovimientoResponse struct {
	ID       int64           `json:"id"`
	Tipo     string          `json:"tipo"`
	Monto    decimal.Decimal `json:"monto"`
	Concepto string          `json:"concepto"`
	VentaID  *int64          `json:"venta_id,omitempty"`
	Hora     string          `json:"hora"`
}

// BalanceResponse is the authoritative current state of a tienda's register.
// When no session is open, Abierta=false and the remaining fields are zero —
// the endpoint never errors for the empty case.
type BalanceResponse struct {
	Abierta     bool                 `json:"abierta"`
	Sesion      *SesionCajaResponse  `json:"sesion,omitempty"`
	Movimientos []MovimientoResponse `json:"movimientos,omitempty"`
	Saldo       decimal.Decimal      `json:"saldo"`
}

type CierreCajaResponse struct {
	SesionCajaID int64           `json:"sesion_caja_id"`
	SaldoCierre  decimal.Decimal `json:"saldo_cierre"`
	CerradaEn    string          `json:"cerrada_en"`
}

// ResumenCajaResponse aggregates a date's ingresos: cash sales plus manual
// entries (GET /api/resumen-caja?fecha=YYYY-MM-DD).
type ResumenCajaResponse struct {
	Fecha           string          `json:"fecha"`
	VentasEfectivo  decimal.Decimal `json:"ventas_efectivo"`
	IngresosManual  decimal.Decimal `json:"ingresos_manual"`
	TotalIngresos   decimal.Decimal `json:"total_ingresos"`
	CantMovimientos int             `json:"cant_movimientos"`
}

// DineroRetiradoResponse lists a date's egresos plus the cumulative total
// withdrawn on all prior days (GET /api/dinero-retirado?fecha=YYYY-MM-DD).
type DineroRetiradoResponse struct {
	Fecha        string               `json:"fecha"`
	Retiros      []MovimientoResponse `json:"retiros"`
	TotalDia     decimal.Decimal      `json:"total_dia"`
	TotalPrevio  decimal.Decimal      `json:"total_previo"`
	TotalGeneral decimal.Decimal      `json:"total_general"`
}
