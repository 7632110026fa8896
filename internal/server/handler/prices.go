package handler

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// PriceService resolves USD prices for raw address inputs on a chain.
type PriceService interface {
	Prices(ctx context.Context, chainName string, rawAddresses []string) map[string]float64
}

// PriceHandler serves the dashboard's price lookups.
type PriceHandler struct {
	svc    PriceService
	logger *zap.Logger
}

func NewPriceHandler(svc PriceService, logger *zap.Logger) *PriceHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PriceHandler{svc: svc, logger: logger}
}

type pricesResponse struct {
	Prices map[string]float64 `json:"prices"`
}

// GetPrices handles GET /api/prices?chain=<name>&addresses=<comma list>.
// The response always carries every normalized input address, 0 marking
// unknown. Only an unexpected fault inside resolution produces a 500, and
// then with an empty map; the detail stays in the server log.
func (h *PriceHandler) GetPrices(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			h.logger.Error("price resolution panicked", zap.Any("panic", rec))
			writeJSON(w, http.StatusInternalServerError, pricesResponse{Prices: map[string]float64{}})
		}
	}()

	query := r.URL.Query()
	chainName := query.Get("chain")
	addresses := strings.Split(query.Get("addresses"), ",")

	prices := h.svc.Prices(r.Context(), chainName, addresses)
	writeJSON(w, http.StatusOK, pricesResponse{Prices: prices})
}
