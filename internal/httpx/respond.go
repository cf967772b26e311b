// Package httpx is the single translator from the error taxonomy to
// HTTP responses. Every failure body is {"message": "..."} and nothing
// else.
package httpx

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/feastly-dev/feastly/internal/apperr"
)

var statusByKind = map[apperr.Kind]int{
	apperr.Unauthorized: http.StatusUnauthorized,
	apperr.Forbidden:    http.StatusForbidden,
	apperr.BadRequest:   http.StatusBadRequest,
	apperr.NotFound:     http.StatusNotFound,
	apperr.Conflict:     http.StatusConflict,
	apperr.Validation:   http.StatusUnprocessableEntity,
	apperr.Gateway:      http.StatusBadGateway,
	apperr.Internal:     http.StatusInternalServerError,
}

// Error translates err and writes the failure response.
func Error(ctx *gin.Context, err error) {
	kind := apperr.KindOf(err)

	status, ok := statusByKind[kind]
	if !ok {
		status = http.StatusInternalServerError
	}

	if status >= http.StatusInternalServerError {
		logrus.WithError(err).Errorf("%s %s failed", ctx.Request.Method, ctx.FullPath())
	}

	ctx.AbortWithStatusJSON(status, gin.H{"message": apperr.MessageOf(err)})
}
