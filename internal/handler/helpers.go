package handler

import (
	"errors"
	"net/http"
	"reflect"

	"stocktrace/internal/apierror"
	"stocktrace/internal/service"

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
		c.JSON(http.StatusBadRequest, apierror.New("invalid JSON: "+err.Error()))
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

// writeDomainError maps the service error taxonomy to HTTP envelopes.
// Rejected preconditions are 409 with structured detail; anything unknown
// goes through the error-handler middleware as a 500.
func writeDomainError(c *gin.Context, err error) {
	var nf *service.NotFoundError
	if errors.As(err, &nf) {
		c.JSON(http.StatusNotFound, apierror.New(nf.Error()))
		return
	}
	var stock *service.InsufficientStockError
	if errors.As(err, &stock) {
		c.JSON(http.StatusConflict, apierror.NewRejection("insufficient_stock", stock.Error(), stock.Shortfalls))
		return
	}
	var docs *service.MissingDocumentError
	if errors.As(err, &docs) {
		c.JSON(http.StatusConflict, apierror.NewRejection("missing_documents", docs.Error(), docs.Categories))
		return
	}
	var assoc *service.AssociationIncompleteError
	if errors.As(err, &assoc) {
		c.JSON(http.StatusConflict, apierror.NewRejection("association_incomplete", assoc.Error(), assoc.Shortfalls))
		return
	}
	var consumed *service.AlreadyConsumedError
	if errors.As(err, &consumed) {
		c.JSON(http.StatusConflict, apierror.NewRejection("already_consumed", consumed.Error(), nil))
		return
	}
	_ = c.Error(err)
}
