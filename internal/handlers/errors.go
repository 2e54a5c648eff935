package handlers

import (
	"errors"
	"net/http"
	"strings"

	"go-stock-ledger/internal/config"
	"go-stock-ledger/internal/ledger"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, ledger.ErrValidation), errors.Is(err, ledger.ErrInsufficientStock):
		return http.StatusBadRequest
	case errors.Is(err, ledger.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrConflict):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// respondError writes the ledger error as { message }. Persistence errors
// are logged and reported without their internals.
func (h *Handler) respondError(c *gin.Context, funcName string, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		config.LogError(h.Log, "handlers", funcName, c.FullPath(), c.Params, err)
		msg = "Internal server error"
	}
	_ = c.Error(err)
	c.JSON(status, gin.H{"message": msg})
}

// bindError reports a request body that failed to decode or validate.
func bindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fe.Field()+" ("+fe.Tag()+")")
		}
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid input: " + strings.Join(fields, ", ")})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid input"})
}
