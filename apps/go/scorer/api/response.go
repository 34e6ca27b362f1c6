package api

import (
	"errors"
	"net/http"

	"roofscore/apps/go/scorer/roofscore"
	"roofscore/apps/go/scorer/types"

	"github.com/gin-gonic/gin"
)

// Response is the envelope of every API response.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func success(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

func failure(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, Response{
		Code:    status,
		Message: message,
	})
}

// errorStatus maps scoring errors to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, roofscore.ErrInvalidUpdate), errors.Is(err, types.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, roofscore.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, roofscore.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, roofscore.ErrUpstreamUnavailable):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func fail(c *gin.Context, err error) {
	status := errorStatus(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		message = http.StatusText(status)
	}
	failure(c, status, message)
}
