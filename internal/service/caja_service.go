package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"tiendapos/internal/apierror"
	"tiendapos/internal/config"
	"tiendapos/internal/dto"
	"tiendapos/internal/infra"
	"tiendapos/internal/model"
	"tiendapos/internal/repository"
	"tiendapos/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const timeFormat = "2006-01-02T15:04:05Z"

// Notificador abstracts the async notification handoff. Satisfied by
// worker.Dispatcher; notification failures never affect the caller.
type Notificador interface {
	EnqueueNotificacion(ctx context.Context, payload interface{}) error
}

type CajaService interface {
	Abrir(ctx context.Context, usuarioID uuid.UUID, req dto.AbrirCajaRequest) (*dto.SesionCajaResponse, error)
	Cerrar(ctx context.Context, sesionID int64) (*dto.CierreCajaResponse, error)
	// RegistrarMovimiento appends a movement to the tienda's open session,
	// auto-opening one with the configured default saldo when none exists.
	RegistrarMovimiento(ctx context.Context, usuarioID uuid.UUID, tipo string, req dto.MovimientoRequest) (*dto.MovimientoResponse, error)
	// Retiro records an egreso against an explicit session; it never auto-opens.
	Retiro(ctx context.Context, usuarioID uuid.UUID, req dto.RetiroRequest) (*dto.MovimientoResponse, error)
	BalanceActual(ctx context.Context, tiendaID int) (*dto.BalanceResponse, error)
	ResumenDia(ctx context.Context, fecha time.Time) (*dto.ResumenCajaResponse, error)
	DineroRetirado(ctx context.Context, fecha time.Time) (*dto.DineroRetiradoResponse, error)
	Historial(ctx context.Context, page, limit int) ([]dto.SesionCajaResponse, error)
}

type cajaService struct {
	repo              repository.CajaRepository
	notificador       Notificador
	aperturaDefault   decimal.Decimal
	notificacionEmail string
	pdfStoragePath    string
}

func NewCajaService(repo repository.CajaRepository, notificador Notificador, cfg *config.Config) CajaService {
	apertura, err := decimal.NewFromString(cfg.CajaAperturaDefault)
	if err != nil {
		log.Warn().Str("valor", cfg.CajaAperturaDefault).Msg("CAJA_APERTURA_DEFAULT invalido, usando 0")
		apertura = decimal.Zero
	}
	return &cajaService{
		repo:              repo,
		notificador:       notificador,
		aperturaDefault:   apertura,
		notificacionEmail: cfg.NotificacionEmail,
		pdfStoragePath:    cfg.PDFStoragePath,
	}
}

// ── Abrir ─────────────────────────────────────────────────────────────────────

func (s *cajaService) Abrir(ctx context.Context, usuarioID uuid.UUID, req dto.AbrirCajaRequest) (*dto.SesionCajaResponse, error) {
	if req.SaldoInicial.IsNegative() {
		return nil, apierror.Validation("El saldo inicial no puede ser negativo")
	}

	// Guard: no duplicate open session per tienda. The partial unique index
	// backs this check for the concurrent case.
	if _, err := s.repo.FindSesionAbiertaPorTienda(ctx, req.TiendaID); err == nil {
		return nil, apierror.Validation("Ya existe una caja abierta en esta tienda")
	} else if !errors.Is(err, repository.ErrSinSesionAbierta) {
		return nil, apierror.Persistence(err)
	}

	sesion := &model.SesionCaja{
		TiendaID:     req.TiendaID,
		UsuarioID:    usuarioID,
		SaldoInicial: req.SaldoInicial,
		Abierta:      true,
	}
	if err := s.repo.CreateSesion(ctx, sesion); err != nil {
		return nil, apierror.Persistence(err)
	}

	return sesionToResponse(sesion), nil
}

// ── Cerrar ────────────────────────────────────────────────────────────────────
// Computes the closing balance from the movement ledger and flips the session
// closed. Side effect: a best-effort cierre report (PDF + email) that never
// fails the close.

func (s *cajaService) Cerrar(ctx context.Context, sesionID int64) (*dto.CierreCajaResponse, error) {
	sesion, err := s.repo.FindSesionByID(ctx, sesionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.NotFound("Sesión de caja no encontrada")
		}
		return nil, apierror.Persistence(err)
	}
	if !sesion.Abierta {
		return nil, apierror.NotFound("La sesión ya está cerrada")
	}

	ingresos, egresos, err := s.repo.SumMovimientos(ctx, sesionID)
	if err != nil {
		return nil, apierror.Persistence(err)
	}

	saldoCierre := sesion.SaldoInicial.Add(ingresos).Sub(egresos)
	ahora := time.Now().UTC()
	sesion.SaldoCierre = &saldoCierre
	sesion.CerradaEn = &ahora

	if err := s.repo.CerrarSesion(ctx, sesion); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Lost a race against another close — the session is no longer open.
			return nil, apierror.NotFound("La sesión ya está cerrada")
		}
		return nil, apierror.Persistence(err)
	}

	s.notificarCierre(ctx, sesion, ingresos, egresos)

	return &dto.CierreCajaResponse{
		SesionCajaID: sesion.ID,
		SaldoCierre:  saldoCierre,
		CerradaEn:    ahora.Format(timeFormat),
	}, nil
}

// ── RegistrarMovimiento ───────────────────────────────────────────────────────
// Availability over strictness: the ledger never refuses a movement just
// because nobody opened the register — a session is auto-opened inside the
// same transaction as the insert.

func (s *cajaService) RegistrarMovimiento(ctx context.Context, usuarioID uuid.UUID, tipo string, req dto.MovimientoRequest) (*dto.MovimientoResponse, error) {
	if err := validarMovimiento(tipo, req.Monto, req.Concepto); err != nil {
		return nil, err
	}

	mov := &model.MovimientoCaja{
		Tipo:      tipo,
		Monto:     req.Monto,
		Concepto:  strings.TrimSpace(req.Concepto),
		VentaID:   req.VentaID,
		UsuarioID: usuarioID,
	}
	sesion, err := s.repo.RegistrarConFallback(ctx, req.TiendaID, s.aperturaDefault, mov)
	if err != nil {
		return nil, apierror.Persistence(err)
	}

	if tipo == model.MovimientoEgreso {
		s.notificarEgreso(ctx, sesion, mov)
	}

	return movimientoToResponse(mov), nil
}

// ── Retiro ────────────────────────────────────────────────────────────────────

func (s *cajaService) Retiro(ctx context.Context, usuarioID uuid.UUID, req dto.RetiroRequest) (*dto.MovimientoResponse, error) {
	if err := validarMovimiento(model.MovimientoEgreso, req.Monto, req.Concepto); err != nil {
		return nil, err
	}

	sesion, err := s.repo.FindSesionByID(ctx, req.SesionCajaID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.NotFound("Sesión de caja no encontrada")
		}
		return nil, apierror.Persistence(err)
	}
	if !sesion.Abierta {
		return nil, apierror.NotFound("La sesión ya está cerrada")
	}

	mov := &model.MovimientoCaja{
		SesionCajaID: sesion.ID,
		Tipo:         model.MovimientoEgreso,
		Monto:        req.Monto,
		Concepto:     strings.TrimSpace(req.Concepto),
		UsuarioID:    usuarioID,
	}
	if err := s.repo.CreateMovimiento(ctx, mov); err != nil {
		return nil, apierror.Persistence(err)
	}

	s.notificarEgreso(ctx, sesion, mov)

	return movimientoToResponse(mov), nil
}

// ── BalanceActual ─────────────────────────────────────────────────────────────
// The balance is never persisted while the session is open: it is recomputed
// from the ledger on every read. "No open session" is a valid result, not an
// error.

func (s *cajaService) BalanceActual(ctx context.Context, tiendaID int) (*dto.BalanceResponse, error) {
	sesion, err := s.repo.FindSesionAbiertaPorTienda(ctx, tiendaID)
	if errors.Is(err, repository.ErrSinSesionAbierta) {
		return &dto.BalanceResponse{Abierta: false, Saldo: decimal.Zero}, nil
	}
	if err != nil {
		return nil, apierror.Persistence(err)
	}

	movs, err := s.repo.ListMovimientos(ctx, sesion.ID)
	if err != nil {
		return nil, apierror.Persistence(err)
	}

	saldo := sesion.SaldoInicial
	respMovs := make([]dto.MovimientoResponse, 0, len(movs))
	for i := range movs {
		m := &movs[i]
		if m.Tipo == model.MovimientoIngreso {
			saldo = saldo.Add(m.Monto)
		} else {
			saldo = saldo.Sub(m.Monto)
		}
		respMovs = append(respMovs, *movimientoToResponse(m))
	}

	return &dto.BalanceResponse{
		Abierta:     true,
		Sesion:      sesionToResponse(sesion),
		Movimientos: respMovs,
		Saldo:       saldo,
	}, nil
}

// ── ResumenDia ────────────────────────────────────────────────────────────────

func (s *cajaService) ResumenDia(ctx context.Context, fecha time.Time) (*dto.ResumenCajaResponse, error) {
	desde, hasta := rangoDia(fecha)
	ventas, manuales, cant, err := s.repo.SumIngresosPorFecha(ctx, desde, hasta)
	if err != nil {
		return nil, apierror.Persistence(err)
	}

	return &dto.ResumenCajaResponse{
		Fecha:           desde.Format("2006-01-02"),
		VentasEfectivo:  ventas,
		IngresosManual:  manuales,
		TotalIngresos:   ventas.Add(manuales),
		CantMovimientos: cant,
	}, nil
}

// ── DineroRetirado ────────────────────────────────────────────────────────────

func (s *cajaService) DineroRetirado(ctx context.Context, fecha time.Time) (*dto.DineroRetiradoResponse, error) {
	desde, hasta := rangoDia(fecha)

	egresos, err := s.repo.ListEgresosPorFecha(ctx, desde, hasta)
	if err != nil {
		return nil, apierror.Persistence(err)
	}
	totalPrevio, err := s.repo.SumEgresosHasta(ctx, desde)
	if err != nil {
		return nil, apierror.Persistence(err)
	}

	totalDia := decimal.Zero
	retiros := make([]dto.MovimientoResponse, 0, len(egresos))
	for i := range egresos {
		totalDia = totalDia.Add(egresos[i].Monto)
		retiros = append(retiros, *movimientoToResponse(&egresos[i]))
	}

	return &dto.DineroRetiradoResponse{
		Fecha:        desde.Format("2006-01-02"),
		Retiros:      retiros,
		TotalDia:     totalDia,
		TotalPrevio:  totalPrevio,
		TotalGeneral: totalPrevio.Add(totalDia),
	}, nil
}

// ── Historial ─────────────────────────────────────────────────────────────────

func (s *cajaService) Historial(ctx context.Context, page, limit int) ([]dto.SesionCajaResponse, error) {
	sesiones, err := s.repo.ListSesionesCerradas(ctx, page, limit)
	if err != nil {
		return nil, apierror.Persistence(err)
	}
	resp := make([]dto.SesionCajaResponse, 0, len(sesiones))
	for i := range sesiones {
		resp = append(resp, *sesionToResponse(&sesiones[i]))
	}
	return resp, nil
}

// ── Notificaciones ────────────────────────────────────────────────────────────
// Fire-and-forget: every failure here is logged and swallowed. The movement or
// close that triggered the notification is already committed.

func (s *cajaService) notificarEgreso(ctx context.Context, sesion *model.SesionCaja, mov *model.MovimientoCaja) {
	if s.notificacionEmail == "" {
		return
	}
	payload := worker.NotificacionPayload{
		ToEmail: s.notificacionEmail,
		Subject: fmt.Sprintf("Retiro de caja — Tienda %d", sesion.TiendaID),
		Body: fmt.Sprintf("Se registró un retiro de $ %s.\nConcepto: %s\nSesión: #%d",
			mov.Monto.StringFixed(2), mov.Concepto, sesion.ID),
	}
	if err := s.notificador.EnqueueNotificacion(ctx, payload); err != nil {
		log.Error().Err(err).Int64("sesion_id", sesion.ID).Msg("caja: no se pudo encolar la notificacion de egreso")
	}
}

func (s *cajaService) notificarCierre(ctx context.Context, sesion *model.SesionCaja, ingresos, egresos decimal.Decimal) {
	if s.notificacionEmail == "" {
		return
	}

	attachPath := ""
	if path, err := infra.GenerateCierrePDF(sesion, ingresos, egresos, s.pdfStoragePath); err != nil {
		log.Error().Err(err).Int64("sesion_id", sesion.ID).Msg("caja: no se pudo generar el PDF de cierre")
	} else {
		attachPath = path
	}

	payload := worker.NotificacionPayload{
		ToEmail: s.notificacionEmail,
		Subject: fmt.Sprintf("Cierre de caja — Tienda %d", sesion.TiendaID),
		Body: fmt.Sprintf("Sesión #%d cerrada.\nSaldo de cierre: $ %s",
			sesion.ID, sesion.SaldoCierre.StringFixed(2)),
		AttachPath: attachPath,
	}
	if err := s.notificador.EnqueueNotificacion(ctx, payload); err != nil {
		log.Error().Err(err).Int64("sesion_id", sesion.ID).Msg("caja: no se pudo encolar la notificacion de cierre")
	}
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func validarMovimiento(tipo string, monto decimal.Decimal, concepto string) error {
	if tipo != model.MovimientoIngreso && tipo != model.MovimientoEgreso {
		return apierror.Validation("Tipo de movimiento inválido")
	}
	if !monto.IsPositive() {
		return apierror.Validation("El monto debe ser mayor a cero")
	}
	if strings.TrimSpace(concepto) == "" {
		return apierror.Validation("El concepto es obligatorio")
	}
	return nil
}

func rangoDia(fecha time.Time) (time.Time, time.Time) {
	desde := time.Date(fecha.Year(), fecha.Month(), fecha.Day(), 0, 0, 0, 0, time.UTC)
	return desde, desde.Add(24 * time.Hour)
}

func sesionToResponse(s *model.SesionCaja) *dto.SesionCajaResponse {
	resp := &dto.SesionCajaResponse{
		ID:           s.ID,
		TiendaID:     s.TiendaID,
		SaldoInicial: s.SaldoInicial,
		SaldoCierre:  s.SaldoCierre,
		Abierta:      s.Abierta,
		AbiertaEn:    s.AbiertaEn.Format(timeFormat),
	}
	if s.CerradaEn != nil {
		t := s.CerradaEn.Format(timeFormat)
		resp.CerradaEn = &t
	}
	return resp
}

func movimientoToResponse(m *model.MovimientoCaja) *dto.MovimientoResponse {
	return &dto.MovimientoResponse{
		ID:       m.ID,
		Tipo:     m.Tipo,
		Monto:    m.Monto,
		Concepto: m.Concepto,
		VentaID:  m.VentaID,
		Hora:     m.CreadoEn.Format(timeFormat),
	}
}
