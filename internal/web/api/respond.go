package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"devicehub/internal/actuation"
	"devicehub/internal/alerts"
	"devicehub/internal/errs"
	"devicehub/internal/rules"
)

// Dependencies are the core services the HTTP surface exposes.
type Dependencies struct {
	Rules      *rules.Service
	Alerts     *alerts.Service
	Dispatcher *actuation.Dispatcher
	Commands   *actuation.Commands
}

// respondError maps the core's closed error kinds onto status codes.
// Validation failures carry the full accumulated violation list.
func respondError(c *gin.Context, err error) {
	var ve *errs.ValidationError
	if errors.As(err, &ve) {
		c.JSON(http.StatusBadRequest, gin.H{"errors": ve.Violations})
		return
	}
	var nf *errs.NotFoundError
	if errors.As(err, &nf) {
		c.JSON(http.StatusNotFound, gin.H{"code": nf.Code, "id": nf.ID})
		return
	}
	var se *errs.SavingError
	if errors.As(err, &se) {
		status := http.StatusInternalServerError
		if se.Code == errs.CodeSavingNonDraft {
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{"code": se.Code})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

// errString renders a per-item error for batch results, nil-safe.
func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
