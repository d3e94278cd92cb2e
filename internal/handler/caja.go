package handler

import (
	"net/http"
	"strconv"

	"tiendapos/internal/apierror"
	"tiendapos/internal/dto"
	"tiendapos/internal/middleware"
	"tiendapos/internal/model"
	"tiendapos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CajaHandler struct{ svc service.CajaService }

func NewCajaHandler(svc service.CajaService) *CajaHandler { return &CajaHandler{svc: svc} }

// Abrir godoc
// @Summary Abre una nueva sesion de caja para una tienda
// @Tags caja
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.AbrirCajaRequest true "Datos de apertura"
// @Success 201 {object} dto.SesionCajaResponse
// @Failure 400 {object} apierror.APIError
// @Router /v1/caja/abrir [post]
func (h *CajaHandler) Abrir(c *gin.Context) {
	var req dto.AbrirCajaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	usuarioID := currentUserID(c)

	resp, err := h.svc.Abrir(c.Request.Context(), usuarioID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Cerrar godoc
// @Summary Cierra la sesion y persiste el saldo calculado desde el libro
// @Tags caja
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CerrarCajaRequest true "Sesion a cerrar"
// @Success 200 {object} dto.CierreCajaResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/caja/cerrar [post]
func (h *CajaHandler) Cerrar(c *gin.Context) {
	var req dto.CerrarCajaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Cerrar(c.Request.Context(), req.SesionCajaID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Retiro godoc
// @Summary Registra un egreso contra una sesion explicita
// @Tags caja
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.RetiroRequest true "Retiro"
// @Success 201 {object} dto.MovimientoResponse
// @Failure 400 {object} apierror.APIError
// @Router /v1/caja/retiro [post]
func (h *CajaHandler) Retiro(c *gin.Context) {
	var req dto.RetiroRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Retiro(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	middleware.MovimientosCaja.WithLabelValues(model.MovimientoEgreso).Inc()
	c.JSON(http.StatusCreated, resp)
}

// RegistrarRetiro handles POST /api/registrar-retiro: egreso with fallback
// auto-open when the tienda has no session.
func (h *CajaHandler) RegistrarRetiro(c *gin.Context) {
	h.registrarMovimiento(c, model.MovimientoEgreso)
}

// RegistrarIngreso handles POST /api/registrar-ingreso, same fallback behavior.
func (h *CajaHandler) RegistrarIngreso(c *gin.Context) {
	h.registrarMovimiento(c, model.MovimientoIngreso)
}

func (h *CajaHandler) registrarMovimiento(c *gin.Context, tipo string) {
	var req dto.MovimientoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.RegistrarMovimiento(c.Request.Context(), currentUserID(c), tipo, req)
	if err != nil {
		respondError(c, err)
		return
	}
	middleware.MovimientosCaja.WithLabelValues(tipo).Inc()
	c.JSON(http.StatusCreated, resp)
}

// Balance godoc
// @Summary Sesion abierta, movimientos y saldo calculado de una tienda
// @Tags caja
// @Produce json
// @Security BearerAuth
// @Param tienda_id query int true "ID de tienda"
// @Success 200 {object} dto.BalanceResponse
// @Router /v1/caja/balance [get]
func (h *CajaHandler) Balance(c *gin.Context) {
	tiendaID, err := strconv.Atoi(c.Query("tienda_id"))
	if err != nil || tiendaID < 1 {
		c.JSON(http.StatusBadRequest, apierror.New("tienda_id invalido"))
		return
	}
	resp, err := h.svc.BalanceActual(c.Request.Context(), tiendaID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ResumenCaja handles GET /api/resumen-caja?fecha=YYYY-MM-DD.
func (h *CajaHandler) ResumenCaja(c *gin.Context) {
	fecha, ok := parseFecha(c)
	if !ok {
		return
	}
	resp, err := h.svc.ResumenDia(c.Request.Context(), fecha)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// DineroRetirado handles GET /api/dinero-retirado?fecha=YYYY-MM-DD.
func (h *CajaHandler) DineroRetirado(c *gin.Context) {
	fecha, ok := parseFecha(c)
	if !ok {
		return
	}
	resp, err := h.svc.DineroRetirado(c.Request.Context(), fecha)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Historial returns a paginated list of closed cash sessions.
func (h *CajaHandler) Historial(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	resp, err := h.svc.Historial(c.Request.Context(), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp, "page": page, "limit": limit})
}

func currentUserID(c *gin.Context) uuid.UUID {
	claims := middleware.GetClaims(c)
	id, _ := uuid.Parse(claims.UserID)
	return id
}
