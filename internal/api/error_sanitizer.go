package api

import (
	"net/http"

	"github.com/ignite/invoice-admin/internal/pkg/httputil"
	"github.com/ignite/invoice-admin/internal/pkg/logger"
)

// respondSafeError logs the full internal error and sends a public-safe
// message. Use it whenever a 500 would otherwise include err.Error().
func respondSafeError(w http.ResponseWriter, r *http.Request, internalErr error, publicMsg string) {
	if internalErr != nil {
		logger.Error(publicMsg, "method", r.Method, "path", r.URL.Path, "error", internalErr)
	}
	httputil.JSON(w, http.StatusInternalServerError, httputil.ErrorResponse{Error: publicMsg})
}
