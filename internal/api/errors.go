package api

import (
	"errors"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"dhaba-pos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// FieldError is one rejected request field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var registerTagNames sync.Once

// useJSONFieldNames makes validation errors name fields the way clients send
// them.
func useJSONFieldNames() {
	registerTagNames.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
	})
}

// respondError maps service errors to HTTP responses
func (h *Handler) respondError(c *gin.Context, message string, err error) {
	var (
		verr    *service.ValidationError
		partial *service.PartialFailureError
	)

	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   message,
			"details": []FieldError{{Field: verr.Field, Message: verr.Message}},
		})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error":   message,
			"details": err.Error(),
		})
	case errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrFinalizeInProgress),
		errors.Is(err, service.ErrInsufficientStock):
		c.JSON(http.StatusConflict, gin.H{
			"error":   message,
			"details": err.Error(),
		})
	case errors.Is(err, service.ErrNothingToBill):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":   message,
			"details": err.Error(),
		})
	case errors.As(err, &partial):
		h.logger.Error("Partial failure", zap.Int64("order_id", partial.OrderID), zap.String("stage", partial.Stage), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     message,
			"details":   err.Error(),
			"orderId":   partial.OrderID,
			"stage":     partial.Stage,
			"retryable": true,
		})
	default:
		h.logger.Error(message, zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   message,
			"details": err.Error(),
		})
	}
}

// respondBindError reports a request body that failed to decode or validate
func respondBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		details := make([]FieldError, 0, len(verrs))
		for _, fe := range verrs {
			details = append(details, FieldError{Field: jsonField(fe), Message: fieldMessage(fe)})
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Validation failed",
			"details": details,
		})
		return
	}

	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "Invalid request body",
		"details": err.Error(),
	})
}

// jsonField drops the request type from a namespace such as
// CreateKOTRequest.orderItems[0].quantity.
func jsonField(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	case "email":
		return "must be a valid email address"
	}
	return "failed " + fe.Tag() + " validation"
}
