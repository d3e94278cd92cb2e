package handler

import (
	"net/http"
	"reflect"
	"time"

	"tiendapos/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0, required work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails —
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("JSON invalido: "+err.Error()))
		return false
	}
	if err := validate.Struct(req); err != nil {
		fields := make(map[string]string)
		for _, fe := range err.(validator.ValidationErrors) {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// respondError maps a typed service error to its HTTP status in one place.
func respondError(c *gin.Context, err error) {
	status, body := apierror.StatusFor(err)
	if status == http.StatusInternalServerError {
		// Surface the cause to the error-handler middleware log, not the client.
		_ = c.Error(err)
	}
	c.JSON(status, body)
}

// parseFecha reads the fecha=YYYY-MM-DD query param, defaulting to today (UTC).
func parseFecha(c *gin.Context) (time.Time, bool) {
	raw := c.Query("fecha")
	if raw == "" {
		return time.Now().UTC(), true
	}
	fecha, err := time.Parse("2006-01-02", raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Fecha invalida, formato esperado YYYY-MM-DD"))
		return time.Time{}, false
	}
	return fecha, true
}
