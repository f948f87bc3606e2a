package http

import (
	"errors"
	"log/slog"
	"net/http"

	"saldo/internal/core"
	"saldo/internal/services"
)

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	groupKey, ok := groupFromRequest(w, r)
	if !ok {
		return
	}

	state, err := s.service.CurrentState(r.Context(), groupKey, s.now())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, state)
}

type forecastResponse struct {
	Horizon string               `json:"horizon"`
	Points  []core.ForecastPoint `json:"points"`
}

func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	groupKey, ok := groupFromRequest(w, r)
	if !ok {
		return
	}

	horizon, err := horizonFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	key := s.forecastCacheKey(groupKey, horizon)
	if points, found := s.forecastCache.Get(key); found {
		slog.DebugContext(r.Context(), "Forecast cache hit",
			"group", groupKey, "horizon", horizon.String())
		writeJSON(w, http.StatusOK, forecastResponse{Horizon: horizon.String(), Points: points})
		return
	}

	points, err := s.service.Forecast(r.Context(), groupKey, horizon, s.now())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.forecastCache.Set(key, points)
	writeJSON(w, http.StatusOK, forecastResponse{Horizon: horizon.String(), Points: points})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	groupKey, ok := groupFromRequest(w, r)
	if !ok {
		return
	}

	summary, err := s.service.Summary(r.Context(), groupKey, s.now())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

type balanceRequest struct {
	StartingBalance core.Money `json:"startingBalance"`
}

func (s *Server) handleSetBalance(w http.ResponseWriter, r *http.Request) {
	groupKey, ok := groupFromRequest(w, r)
	if !ok {
		return
	}

	var req balanceRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	state, err := s.service.SetStartingBalance(r.Context(), groupKey, req.StartingBalance, s.now())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.invalidateForecasts(groupKey)
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	groupKey, ok := groupFromRequest(w, r)
	if !ok {
		return
	}

	var item core.RecurringItem
	if !decodeJSON(w, r, &item) {
		return
	}
	if item.ID == "" {
		item.ID = newID()
	}
	item.Title = sanitizeInput(item.Title)

	state, err := s.service.AddItem(r.Context(), groupKey, item, s.now())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.invalidateForecasts(groupKey)
	writeJSON(w, http.StatusCreated, state)
}

func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	groupKey, ok := groupFromRequest(w, r)
	if !ok {
		return
	}
	itemID, ok := idFromRequest(w, r)
	if !ok {
		return
	}

	var item core.RecurringItem
	if !decodeJSON(w, r, &item) {
		return
	}
	// The path wins over whatever the body carries
	item.ID = itemID
	item.Title = sanitizeInput(item.Title)

	state, err := s.service.UpdateItem(r.Context(), groupKey, item, s.now())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.invalidateForecasts(groupKey)
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	groupKey, ok := groupFromRequest(w, r)
	if !ok {
		return
	}
	itemID, ok := idFromRequest(w, r)
	if !ok {
		return
	}

	state, err := s.service.DeleteItem(r.Context(), groupKey, itemID, s.now())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.invalidateForecasts(groupKey)
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleCreatePurchase(w http.ResponseWriter, r *http.Request) {
	groupKey, ok := groupFromRequest(w, r)
	if !ok {
		return
	}

	var purchase core.OneOffPurchase
	if !decodeJSON(w, r, &purchase) {
		return
	}
	if purchase.ID == "" {
		purchase.ID = newID()
	}
	purchase.Title = sanitizeInput(purchase.Title)

	state, err := s.service.AddPurchase(r.Context(), groupKey, purchase, s.now())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.invalidateForecasts(groupKey)
	writeJSON(w, http.StatusCreated, state)
}

func (s *Server) handleDeletePurchase(w http.ResponseWriter, r *http.Request) {
	groupKey, ok := groupFromRequest(w, r)
	if !ok {
		return
	}
	purchaseID, ok := idFromRequest(w, r)
	if !ok {
		return
	}

	state, err := s.service.DeletePurchase(r.Context(), groupKey, purchaseID, s.now())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.invalidateForecasts(groupKey)
	writeJSON(w, http.StatusOK, state)
}

// writeServiceError maps service and domain errors to HTTP statuses.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrItemNotFound),
		errors.Is(err, services.ErrPurchaseNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, core.ErrInvalidHorizon):
		writeError(w, http.StatusBadRequest, err.Error())
	case isValidationError(err):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		slog.ErrorContext(r.Context(), "Request failed",
			"error", err,
			"method", r.Method,
			"url", r.URL.Path)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func isValidationError(err error) bool {
	for _, sentinel := range []error{
		core.ErrMalformedDate,
		core.ErrInvalidAmount,
		core.ErrInvalidInterval,
		core.ErrInvalidUnit,
		core.ErrInvalidKind,
		core.ErrEmptyID,
		core.ErrEmptyTitle,
		core.ErrTitleTooLong,
		core.ErrEndBeforeStart,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
