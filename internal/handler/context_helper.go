package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/bureau-roster-api/internal/middleware"
	appErrors "github.com/noah-isme/bureau-roster-api/pkg/errors"
	"github.com/noah-isme/bureau-roster-api/pkg/response"
)

var validate = validator.New()

// actorID returns the member id from the token, writing 401 when absent.
func actorID(c *gin.Context) (string, bool) {
	claims := middleware.Claims(c)
	if claims == nil || claims.MemberID == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return "", false
	}
	return claims.MemberID, true
}

// bindJSON decodes and validates the body, writing 400 on failure.
func bindJSON(c *gin.Context, dst interface{}, message string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, message))
		return false
	}
	if err := validate.Struct(dst); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, message))
		return false
	}
	return true
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
