package handler

import (
	"context"
	"encoding/json"
	"net/http"

	logger "github.com/sirupsen/logrus"

	"precisioncalc/src/service"
)

type calculator interface {
	Calculate(ctx context.Context, req service.Request) service.Outcome
}

// CalculateHandler returns a handler that runs one calculation. The response
// is always the outcome envelope; a failed calculation is still HTTP 200
// because the healing result is the answer, not an error.
func CalculateHandler(svc calculator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req service.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		if req.Operation == "" {
			http.Error(w, "operation is required", http.StatusBadRequest)
			return
		}
		if req.Operand1 == "" {
			http.Error(w, "operand1 is required", http.StatusBadRequest)
			return
		}

		outcome := svc.Calculate(r.Context(), req)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(outcome); err != nil {
			logger.WithError(err).Error("failed to encode calculation response")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
	}
}
