package handlers

import (
	"net/http"
	"regexp"
	"sync"

	"rentalhub/internal/http/middleware"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RespondError sends standard error payload with request_id included.
func RespondError(c *gin.Context, status int, message string, err error) {
	payload := gin.H{
		"message":    message,
		"request_id": middleware.GetRequestID(c),
	}
	if err != nil {
		payload["error"] = err.Error()
	}
	c.JSON(status, payload)
}

// BindJSONOrError ensures body is present and parsable.
func BindJSONOrError[T any](c *gin.Context, dst *T) bool {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		RespondError(c, http.StatusBadRequest, "empty body", nil)
		return false
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", "invalid payload", err.Error())
		return false
	}
	return true
}

// phPhone matches Philippine mobile numbers: 09XXXXXXXXX or +639XXXXXXXXX.
var phPhone = regexp.MustCompile(`^(?:\+63|0)9\d{9}$`)

var registerOnce sync.Once

// RegisterValidators adds the custom binding rules to gin's validator.
func RegisterValidators() {
	registerOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			_ = v.RegisterValidation("ph_phone", func(fl validator.FieldLevel) bool {
				return phPhone.MatchString(fl.Field().String())
			})
		}
	})
}
