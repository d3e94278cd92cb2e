package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tiendapos/internal/apierror"
	"tiendapos/internal/dto"
	"tiendapos/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubCajaService returns canned responses so the handler's binding,
// validation and status mapping can be exercised without a datastore.
type stubCajaService struct {
	abrirResp  *dto.SesionCajaResponse
	abrirErr   error
	cerrarResp *dto.CierreCajaResponse
	cerrarErr  error
	movResp    *dto.MovimientoResponse
	movErr     error
	balance    *dto.BalanceResponse
	balanceErr error
}

func (s *stubCajaService) Abrir(_ context.Context, _ uuid.UUID, _ dto.AbrirCajaRequest) (*dto.SesionCajaResponse, error) {
	return s.abrirResp, s.abrirErr
}

func (s *stubCajaService) Cerrar(_ context.Context, _ int64) (*dto.CierreCajaResponse, error) {
	return s.cerrarResp, s.cerrarErr
}

func (s *stubCajaService) RegistrarMovimiento(_ context.Context, _ uuid.UUID, _ string, _ dto.MovimientoRequest) (*dto.MovimientoResponse, error) {
	return s.movResp, s.movErr
}

func (s *stubCajaService) Retiro(_ context.Context, _ uuid.UUID, _ dto.RetiroRequest) (*dto.MovimientoResponse, error) {
	return s.movResp, s.movErr
}

func (s *stubCajaService) BalanceActual(_ context.Context, _ int) (*dto.BalanceResponse, error) {
	return s.balance, s.balanceErr
}

func (s *stubCajaService) ResumenDia(_ context.Context, _ time.Time) (*dto.ResumenCajaResponse, error) {
	return &dto.ResumenCajaResponse{}, nil
}

func (s *stubCajaService) DineroRetirado(_ context.Context, _ time.Time) (*dto.DineroRetiradoResponse, error) {
	return &dto.DineroRetiradoResponse{}, nil
}

func (s *stubCajaService) Historial(_ context.Context, _, _ int) ([]dto.SesionCajaResponse, error) {
	return nil, nil
}

// fakeClaims injects authenticated claims the way JWTAuth would.
func fakeClaims() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ClaimsKey, &middleware.JWTClaims{
			UserID:   uuid.NewString(),
			Username: "cajero@test",
			Rol:      "cajero",
		})
		c.Next()
	}
}

func setupCajaRouter(svc *stubCajaService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewCajaHandler(svc)

	r := gin.New()
	r.Use(fakeClaims())
	r.POST("/v1/caja/abrir", h.Abrir)
	r.POST("/v1/caja/cerrar", h.Cerrar)
	r.POST("/v1/caja/retiro", h.Retiro)
	r.GET("/v1/caja/balance", h.Balance)
	r.POST("/api/registrar-retiro", h.RegistrarRetiro)
	r.GET("/api/resumen-caja", h.ResumenCaja)
	return r
}

func doJSON(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAbrirHandlerCreated(t *testing.T) {
	svc := &stubCajaService{abrirResp: &dto.SesionCajaResponse{
		ID: 1, TiendaID: 1, SaldoInicial: decimal.NewFromInt(50000), Abierta: true,
	}}
	r := setupCajaRouter(svc)

	w := doJSON(r, http.MethodPost, "/v1/caja/abrir", `{"tienda_id":1,"saldo_inicial":"50000"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp dto.SesionCajaResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Abierta)
	assert.Equal(t, int64(1), resp.ID)
}

func TestAbrirHandlerRejectsMissingTienda(t *testing.T) {
	r := setupCajaRouter(&stubCajaService{})

	w := doJSON(r, http.MethodPost, "/v1/caja/abrir", `{"saldo_inicial":"100"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestAbrirHandlerMapsValidationError(t *testing.T) {
	svc := &stubCajaService{abrirErr: apierror.Validation("El saldo inicial no puede ser negativo")}
	r := setupCajaRouter(svc)

	w := doJSON(r, http.MethodPost, "/v1/caja/abrir", `{"tienda_id":1,"saldo_inicial":"-5"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var body apierror.APIError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "El saldo inicial no puede ser negativo", body.Detail)
}

func TestCerrarHandlerMapsNotFound(t *testing.T) {
	svc := &stubCajaService{cerrarErr: apierror.NotFound("Sesión de caja no encontrada")}
	r := setupCajaRouter(svc)

	w := doJSON(r, http.MethodPost, "/v1/caja/cerrar", `{"sesion_caja_id":99}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCerrarHandlerHidesPersistenceDetail(t *testing.T) {
	svc := &stubCajaService{cerrarErr: apierror.Persistence(assert.AnError)}
	r := setupCajaRouter(svc)

	w := doJSON(r, http.MethodPost, "/v1/caja/cerrar", `{"sesion_caja_id":1}`)
	require.Equal(t, http.StatusInternalServerError, w.Code)

	var body apierror.APIError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Error interno del servidor", body.Detail)
	assert.NotContains(t, w.Body.String(), assert.AnError.Error(), "la causa no llega al cliente")
}

func TestBalanceHandlerValidatesTiendaID(t *testing.T) {
	r := setupCajaRouter(&stubCajaService{})

	for _, q := range []string{"", "?tienda_id=abc", "?tienda_id=0", "?tienda_id=-3"} {
		w := doJSON(r, http.MethodGet, "/v1/caja/balance"+q, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, "query %q", q)
	}
}

func TestBalanceHandlerOK(t *testing.T) {
	svc := &stubCajaService{balance: &dto.BalanceResponse{
		Abierta: true,
		Saldo:   decimal.RequireFromString("65000"),
	}}
	r := setupCajaRouter(svc)

	w := doJSON(r, http.MethodGet, "/v1/caja/balance?tienda_id=1", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.BalanceResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Abierta)
	assert.True(t, decimal.RequireFromString("65000").Equal(resp.Saldo))
}

func TestRegistrarRetiroHandler(t *testing.T) {
	svc := &stubCajaService{movResp: &dto.MovimientoResponse{
		ID: 3, Tipo: "egreso", Monto: decimal.NewFromInt(3000), Concepto: "retiro",
	}}
	r := setupCajaRouter(svc)

	w := doJSON(r, http.MethodPost, "/api/registrar-retiro", `{"tienda_id":7,"monto":"3000","concepto":"retiro"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp dto.MovimientoResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "egreso", resp.Tipo)
}

func TestResumenCajaHandlerFechaInvalida(t *testing.T) {
	r := setupCajaRouter(&stubCajaService{})

	w := doJSON(r, http.MethodGet, "/api/resumen-caja?fecha=31-12-2025", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
