package service

import (
	"context"
	"fmt"
	"time"

	"tiendapos/internal/apierror"
	"tiendapos/internal/dto"
	"tiendapos/internal/model"
	"tiendapos/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type VentaService interface {
	Registrar(ctx context.Context, usuarioID uuid.UUID, req dto.RegistrarVentaRequest) (*dto.VentaResponse, error)
	ListarPorFecha(ctx context.Context, fecha time.Time) ([]dto.VentaResponse, error)
}

type ventaService struct {
	repo repository.VentaRepository
	caja CajaService
}

func NewVentaService(repo repository.VentaRepository, caja CajaService) VentaService {
	return &ventaService{repo: repo, caja: caja}
}

// Registrar persists the sale and, for cash sales, appends the corresponding
// ingreso to the tienda's caja ledger (auto-opening the session if needed).
func (s *ventaService) Registrar(ctx context.Context, usuarioID uuid.UUID, req dto.RegistrarVentaRequest) (*dto.VentaResponse, error) {
	if !req.Total.IsPositive() {
		return nil, apierror.Validation("El total debe ser mayor a cero")
	}

	venta := &model.Venta{
		TiendaID:   req.TiendaID,
		Total:      req.Total,
		MetodoPago: req.MetodoPago,
		UsuarioID:  usuarioID,
	}
	if err := s.repo.Create(ctx, venta); err != nil {
		return nil, apierror.Persistence(err)
	}

	if req.MetodoPago == model.PagoEfectivo {
		_, err := s.caja.RegistrarMovimiento(ctx, usuarioID, model.MovimientoIngreso, dto.MovimientoRequest{
			TiendaID: req.TiendaID,
			Monto:    req.Total,
			Concepto: fmt.Sprintf("Venta #%d", venta.ID),
			VentaID:  &venta.ID,
		})
		if err != nil {
			// The sale is already committed; a ledger failure here must be
			// visible so the register can be reconciled manually.
			log.Error().Err(err).Int64("venta_id", venta.ID).Msg("venta: no se pudo registrar el ingreso en caja")
			return nil, err
		}
	}

	return ventaToResponse(venta), nil
}

func (s *ventaService) ListarPorFecha(ctx context.Context, fecha time.Time) ([]dto.VentaResponse, error) {
	desde, hasta := rangoDia(fecha)
	ventas, err := s.repo.ListPorFecha(ctx, desde, hasta)
	if err != nil {
		return nil, apierror.Persistence(err)
	}
	resp := make([]dto.VentaResponse, 0, len(ventas))
	for i := range ventas {
		resp = append(resp, *ventaToResponse(&ventas[i]))
	}
	return resp, nil
}

func ventaToResponse(v *model.Venta) *dto.VentaResponse {
	return &dto.VentaResponse{
		ID:         v.ID,
		TiendaID:   v.TiendaID,
		Total:      v.Total,
		MetodoPago: v.MetodoPago,
		CreatedAt:  v.CreatedAt.Format(timeFormat),
	}
}
