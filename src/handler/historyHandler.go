package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	logger "github.com/sirupsen/logrus"

	"precisioncalc/src/model"
	"precisioncalc/src/repository"
)

type calculationSearcher interface {
	Search(ctx context.Context, options repository.CalculationSearchOptions) ([]model.CalculationRecord, error)
}

// HistoryHandler returns a handler that lists past calculations from the
// audit store. Supports pagination and filters (operation, success,
// createdFrom, createdTo).
func HistoryHandler(repo calculationSearcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		operation := r.URL.Query().Get("operation")

		var success *bool
		if successParam := r.URL.Query().Get("success"); successParam != "" {
			parsed, err := strconv.ParseBool(successParam)
			if err != nil {
				http.Error(w, "invalid success", http.StatusBadRequest)
				return
			}
			success = &parsed
		}

		var createdFrom, createdTo *time.Time
		if createdFromParam := r.URL.Query().Get("createdFrom"); createdFromParam != "" {
			parsed, err := time.Parse(time.RFC3339, createdFromParam)
			if err != nil {
				http.Error(w, "invalid createdFrom", http.StatusBadRequest)
				return
			}
			createdFrom = &parsed
		}

		if createdToParam := r.URL.Query().Get("createdTo"); createdToParam != "" {
			parsed, err := time.Parse(time.RFC3339, createdToParam)
			if err != nil {
				http.Error(w, "invalid createdTo", http.StatusBadRequest)
				return
			}
			createdTo = &parsed
		}

		page := 1
		if pageParam := r.URL.Query().Get("page"); pageParam != "" {
			parsedPage, err := strconv.Atoi(pageParam)
			if err != nil || parsedPage <= 0 {
				http.Error(w, "invalid page", http.StatusBadRequest)
				return
			}
			page = parsedPage
		}

		pageSize := 20
		if sizeParam := r.URL.Query().Get("pageSize"); sizeParam != "" {
			parsedSize, err := strconv.Atoi(sizeParam)
			if err != nil || parsedSize <= 0 {
				http.Error(w, "invalid pageSize", http.StatusBadRequest)
				return
			}
			pageSize = parsedSize
		}

		offset := (page - 1) * pageSize

		records, err := repo.Search(r.Context(), repository.CalculationSearchOptions{
			Operation:     operation,
			Success:       success,
			CreatedAfter:  createdFrom,
			CreatedBefore: createdTo,
			Limit:         pageSize,
			Offset:        offset,
		})
		if err != nil {
			logger.WithError(err).Error("failed to search calculation history")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(records); err != nil {
			logger.WithError(err).Error("failed to encode history response")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
	}
}

// DefaultHistoryHandler wires the handler to the production repository implementation.
func DefaultHistoryHandler() http.HandlerFunc {
	return HistoryHandler(repository.NewCalculationRepository())
}
