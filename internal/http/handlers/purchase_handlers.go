package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"goldbook/internal/http/middleware"
	"goldbook/internal/models"
	"goldbook/internal/service"
)

// PriceSource provides the live snapshot for quoting.
type PriceSource interface {
	CurrentPrices(ctx context.Context) (*models.PriceSnapshot, error)
}

// NewPricesHandler returns GET /prices handler.
func NewPricesHandler(prices PriceSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snapshot, err := prices.CurrentPrices(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, snapshot)
	}
}

type quoteRequest struct {
	Amount float64 `json:"amount"`
}

// NewQuoteHandler returns POST /purchases/quote handler. Quoting is pure and
// leaves no trace if the caller abandons the flow.
func NewQuoteHandler(ledger *service.LedgerService, prices PriceSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req quoteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}

		snapshot, err := prices.CurrentPrices(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}

		quote, err := ledger.Quote(req.Amount, snapshot)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, quote)
	}
}

// NewCommitHandler returns POST /purchases handler. The account comes from the
// session token; the body is the previously issued quote. After a successful
// commit the session is refreshed so the reported balance is never stale
// relative to this write.
func NewCommitHandler(ledger *service.LedgerService, sessions *service.SessionService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.ClaimsFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing session")
			return
		}

		var quote service.Quote
		if err := json.NewDecoder(r.Body).Decode(&quote); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}

		tx, err := ledger.Commit(r.Context(), claims.AccountID, &quote)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		account, err := sessions.Refresh(r.Context(), claims.AccountID)
		if err != nil {
			// Commit already landed; keep the stale cache rather than fail.
			logger.Warn("session refresh after commit failed", zap.String("account_id", claims.AccountID), zap.Error(err))
			account, _ = sessions.Current()
		}

		writeJSON(w, http.StatusCreated, map[string]interface{}{
			"transaction": tx,
			"account":     account,
		})
	}
}
