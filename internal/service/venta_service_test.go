package service

import (
	"context"
	"testing"
	"time"

	"tiendapos/internal/apierror"
	"tiendapos/internal/dto"
	"tiendapos/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeVentaRepo struct {
	ventas []model.Venta
	nextID int64
}

func (r *fakeVentaRepo) Create(_ context.Context, v *model.Venta) error {
	r.nextID++
	v.ID = r.nextID
	v.CreatedAt = time.Now().UTC()
	r.ventas = append(r.ventas, *v)
	return nil
}

func (r *fakeVentaRepo) ListPorFecha(_ context.Context, desde, hasta time.Time) ([]model.Venta, error) {
	var result []model.Venta
	for _, v := range r.ventas {
		if !v.CreatedAt.Before(desde) && v.CreatedAt.Before(hasta) {
			result = append(result, v)
		}
	}
	return result, nil
}

func TestVentaEfectivoRegistraIngresoEnCaja(t *testing.T) {
	cajaRepo := newFakeCajaRepo()
	cajaSvc := newTestService(t, cajaRepo, &fakeNotificador{})
	svc := NewVentaService(&fakeVentaRepo{}, cajaSvc)
	ctx := context.Background()
	uid := uuid.New()

	venta, err := svc.Registrar(ctx, uid, dto.RegistrarVentaRequest{
		TiendaID: 1, Total: dec("2500"), MetodoPago: model.PagoEfectivo,
	})
	require.NoError(t, err)

	// La venta en efectivo aparece como ingreso ligado en el ledger de caja
	require.Len(t, cajaRepo.movimientos, 1)
	mov := cajaRepo.movimientos[0]
	assert.Equal(t, model.MovimientoIngreso, mov.Tipo)
	assert.True(t, dec("2500").Equal(mov.Monto))
	require.NotNil(t, mov.VentaID)
	assert.Equal(t, venta.ID, *mov.VentaID)
	assert.Equal(t, "Venta #1", mov.Concepto)
}

func TestVentaConTarjetaNoTocaLaCaja(t *testing.T) {
	cajaRepo := newFakeCajaRepo()
	cajaSvc := newTestService(t, cajaRepo, &fakeNotificador{})
	svc := NewVentaService(&fakeVentaRepo{}, cajaSvc)

	_, err := svc.Registrar(context.Background(), uuid.New(), dto.RegistrarVentaRequest{
		TiendaID: 1, Total: dec("2500"), MetodoPago: model.PagoDebito,
	})
	require.NoError(t, err)
	assert.Empty(t, cajaRepo.movimientos)
	assert.Empty(t, cajaRepo.sesiones, "sin efectivo no hay auto-apertura")
}

func TestVentaRechazaTotalInvalido(t *testing.T) {
	cajaSvc := newTestService(t, newFakeCajaRepo(), &fakeNotificador{})
	svc := NewVentaService(&fakeVentaRepo{}, cajaSvc)

	_, err := svc.Registrar(context.Background(), uuid.New(), dto.RegistrarVentaRequest{
		TiendaID: 1, Total: dec("0"), MetodoPago: model.PagoEfectivo,
	})
	var apiErr *apierror.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, apierror.KindValidation, apiErr.Kind)
}

func TestListarVentasPorFecha(t *testing.T) {
	repo := &fakeVentaRepo{}
	cajaSvc := newTestService(t, newFakeCajaRepo(), &fakeNotificador{})
	svc := NewVentaService(repo, cajaSvc)
	ctx := context.Background()
	uid := uuid.New()

	for _, total := range []string{"100", "200"} {
		_, err := svc.Registrar(ctx, uid, dto.RegistrarVentaRequest{
			TiendaID: 1, Total: dec(total), MetodoPago: model.PagoTransferencia,
		})
		require.NoError(t, err)
	}

	ventas, err := svc.ListarPorFecha(ctx, time.Now().UTC())
	require.NoError(t, err)
	assert.Len(t, ventas, 2)

	ayer, err := svc.ListarPorFecha(ctx, time.Now().UTC().Add(-48*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, ayer)
}
