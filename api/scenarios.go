/*
scenarios.go - Demo scenario endpoints

PURPOSE:
  Lists the built-in seed scenarios and loads one into the running store.
  Loading goes through the same Catalog and Ledger operations as any other
  client (see seed.Apply), so a scenario can never break a stock rule.

USAGE VIA API:
  GET  /api/scenarios
  POST /api/scenarios/load
  {"name": "demo"}

NOTE:
  Loading is additive. The sales ledger is append-only, so there is no
  reset endpoint; restart with an empty store for a clean demo.

SEE ALSO:
  - seed/seed.go: Scenario format and Apply
  - seed/scenarios/: Built-in scenario files
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/MrDieggo/controleEstoque-app/seed"
	"github.com/MrDieggo/controleEstoque-app/stock"
)

// ListScenarios returns the built-in scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	all, err := seed.Builtin()
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	dtos := make([]ScenarioDTO, len(all))
	for i, sc := range all {
		dtos[i] = toScenarioDTO(sc)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// LoadedScenarios returns the names of scenarios loaded since startup.
func (h *Handler) LoadedScenarios(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	loaded := append([]string{}, h.loaded...)
	h.mu.Unlock()
	writeJSON(w, http.StatusOK, loaded)
}

// LoadScenario applies a built-in scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	sc, err := seed.Lookup(req.Name)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Unknown scenario", err)
		return
	}

	res, err := seed.Apply(r.Context(), sc, h.Catalog, h.Ledger)
	if err != nil {
		if errors.Is(err, stock.ErrValidation) || errors.Is(err, stock.ErrInsufficientStock) || errors.Is(err, stock.ErrNotFound) {
			writeJSON(w, http.StatusConflict, ErrorResponse{
				Error:   "scenario stopped: " + err.Error(),
				Code:    "SCENARIO_FAILED",
				Details: res,
			})
			return
		}
		h.writeDomainError(w, r, err)
		return
	}

	h.mu.Lock()
	h.loaded = append(h.loaded, sc.Name)
	h.mu.Unlock()

	h.Logger.Info("scenario loaded",
		zap.String("scenario", res.Scenario),
		zap.Int("products", res.Products),
		zap.Int("sales", res.Sales),
	)
	writeJSON(w, http.StatusOK, res)
}
