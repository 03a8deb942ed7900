package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jinterlante1206/chorus/internal/chorerr"
)

// writeError maps err to the shared {error:{message,code}} envelope
// and the matching HTTP status: 4xx for client input errors, 5xx for
// upstream failures and internal timeouts.
func writeError(c *gin.Context, err error) {
	status, code := classifyStatus(err)
	c.JSON(status, gin.H{
		"error": gin.H{
			"message": err.Error(),
			"code":    code,
		},
	})
}

func classifyStatus(err error) (int, string) {
	var invalidReq *chorerr.InvalidRequest
	if errors.As(err, &invalidReq) {
		return http.StatusBadRequest, "invalid_request"
	}
	var configErr *chorerr.ConfigInvalid
	if errors.As(err, &configErr) {
		return http.StatusBadRequest, "undefined_model"
	}
	var timeout *chorerr.Timeout
	if errors.As(err, &timeout) {
		return http.StatusGatewayTimeout, "timeout"
	}
	var upstream *chorerr.UpstreamError
	if errors.As(err, &upstream) {
		return http.StatusBadGateway, "upstream_error"
	}
	var transport *chorerr.TransportError
	if errors.As(err, &transport) {
		return http.StatusBadGateway, "transport_error"
	}
	var allFailed *chorerr.AllWorkersFailed
	if errors.As(err, &allFailed) {
		return http.StatusInternalServerError, "all_workers_failed"
	}
	var cancelled *chorerr.Cancelled
	if errors.As(err, &cancelled) {
		return http.StatusRequestTimeout, "cancelled"
	}
	return http.StatusInternalServerError, "internal_error"
}
