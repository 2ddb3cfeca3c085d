// Package handlers provides HTTP request handlers for the rxprice API
// endpoints: paged and filtered record browsing, point lookups, derived
// statistics, refreshes and health checks.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rxpricedb/rxprice-api/interfaces"
	"github.com/rxpricedb/rxprice-api/logging"
	"github.com/rxpricedb/rxprice-api/resolver"
	"github.com/rxpricedb/rxprice-api/viewer"
)

// RespondWithJSON writes a JSON response
func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		logging.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Last-Modified", time.Now().UTC().Format(http.TimeFormat))
	w.WriteHeader(code)
	w.Write(data)
}

// RespondWithError writes a JSON error response
func RespondWithError(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, map[string]interface{}{
		"error":   http.StatusText(code),
		"message": message,
		"code":    code,
	})
}

// loadErrorStatus maps controller load failures to HTTP statuses
func loadErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, viewer.ErrLoadInFlight):
		return http.StatusConflict, "A load is already in progress"
	case errors.Is(err, viewer.ErrInvalidPage):
		return http.StatusBadRequest, "Invalid page number"
	default:
		return http.StatusBadGateway, "Failed to read from the record store"
	}
}

// pageEnvelope builds the standard pagination envelope from a state
// snapshot. totalItems and maxPage are -1 while the count aggregate is
// unavailable.
func pageEnvelope(state viewer.State, totalPages int) map[string]interface{} {
	return map[string]interface{}{
		"data":       state.Records,
		"page":       state.Page,
		"pageSize":   state.PageSize,
		"totalItems": state.Total,
		"maxPage":    totalPages,
		"hasMore":    state.HasMore,
	}
}

// ServePagedRecords loads one page through the viewer controller and
// returns it with the pagination envelope
func ServePagedRecords(controller *viewer.Controller, validator interfaces.DataValidator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pageNumber := chi.URLParam(r, "pageNumber")
		page, err := validator.ValidatePageNumber(pageNumber)
		if err != nil {
			logging.Warn("Unusual user input", "pageNumber", pageNumber)
			RespondWithError(w, http.StatusBadRequest, "Invalid page number")
			return
		}

		if err := controller.LoadPage(r.Context(), page); err != nil {
			code, msg := loadErrorStatus(err)
			RespondWithError(w, code, msg)
			return
		}

		state := controller.Snapshot()
		if len(state.Records) == 0 && page > 1 {
			RespondWithError(w, http.StatusNotFound, "Page not found")
			return
		}

		RespondWithJSON(w, http.StatusOK, pageEnvelope(state, controller.TotalPages()))
	}
}

// ServeAllRecords drains the full dataset through the bulk-load path.
// Expensive; the rate limiter prices it accordingly.
func ServeAllRecords(controller *viewer.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := controller.LoadAll(r.Context()); err != nil {
			code, msg := loadErrorStatus(err)
			RespondWithError(w, code, msg)
			return
		}

		state := controller.Snapshot()
		RespondWithJSON(w, http.StatusOK, state.Records)
	}
}

// FindRecord looks up a single record by rxcui
func FindRecord(controller *viewer.Controller, validator interfaces.DataValidator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := chi.URLParam(r, "rxcui")
		rxcui, err := validator.ValidateRxcui(raw)
		if err != nil {
			logging.Warn("Unusual user input", "rxcui", raw)
			RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}

		med, err := controller.Select(r.Context(), rxcui)
		if err != nil {
			if errors.Is(err, interfaces.ErrNotFound) {
				RespondWithError(w, http.StatusNotFound, "Record not found")
				return
			}
			RespondWithError(w, http.StatusBadGateway, "Failed to read from the record store")
			return
		}

		RespondWithJSON(w, http.StatusOK, med)
	}
}

// Browse applies filters, sort and display mode from query parameters to
// the loaded slice and returns the visible records. Filtering is local:
// it never touches the store.
func Browse(controller *viewer.Controller, validator interfaces.DataValidator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		searchText := q.Get("q")
		if err := validator.ValidateSearchText(searchText); err != nil {
			RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}

		filters := viewer.FilterSet{SearchText: searchText}

		switch q.Get("match") {
		case "", "either":
			filters.Match = viewer.MatchEither
		case "matched":
			filters.Match = viewer.MatchedOnly
		case "unmatched":
			filters.Match = viewer.UnmatchedOnly
		default:
			RespondWithError(w, http.StatusBadRequest, "match must be one of: either, matched, unmatched")
			return
		}

		switch q.Get("form") {
		case "", "either":
			filters.Form = viewer.FormEither
		case "liquid":
			filters.Form = viewer.LiquidOnly
		case "solid":
			filters.Form = viewer.SolidOnly
		default:
			RespondWithError(w, http.StatusBadRequest, "form must be one of: either, liquid, solid")
			return
		}

		if raw := q.Get("min_ndc"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				RespondWithError(w, http.StatusBadRequest, "min_ndc must be a non-negative number")
				return
			}
			filters.MinNDCCount = n
		}

		controller.SetFilters(filters)

		if raw := q.Get("sort"); raw != "" {
			ascending := q.Get("dir") != "desc"
			controller.SetSort(viewer.ParseSortKey(raw), ascending)
		}

		if raw := q.Get("view"); raw != "" {
			switch viewer.DisplayMode(raw) {
			case viewer.ModeCards, viewer.ModeTable:
				controller.SetDisplayMode(viewer.DisplayMode(raw))
			default:
				RespondWithError(w, http.StatusBadRequest, "view must be one of: cards, table")
				return
			}
		}

		visible := controller.VisibleRecords()
		state := controller.Snapshot()

		RespondWithJSON(w, http.StatusOK, map[string]interface{}{
			"data":    visible,
			"visible": len(visible),
			"loaded":  len(state.Records),
			"sort":    state.SortKey,
			"dir":     sortDir(state.SortAscending),
			"view":    state.Mode,
		})
	}
}

func sortDir(ascending bool) string {
	if ascending {
		return "asc"
	}
	return "desc"
}

// ResolveName proxies a free-text medication name to the external
// resolver service
func ResolveName(client *resolver.Client, validator interfaces.DataValidator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		text := q.Get("q")
		if text == "" {
			RespondWithError(w, http.StatusBadRequest, "Missing q parameter")
			return
		}
		if err := validator.ValidateSearchText(text); err != nil {
			RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}

		result, err := client.Resolve(r.Context(), resolver.ResolveRequest{
			Text:      text,
			RouteHint: q.Get("route"),
			FormHint:  q.Get("form"),
			Debug:     q.Get("debug") == "true",
		})
		if err != nil {
			logging.Error("Resolver call failed", "error", err)
			RespondWithError(w, http.StatusBadGateway, "Resolver unavailable")
			return
		}

		RespondWithJSON(w, http.StatusOK, result)
	}
}

// StatsHandler returns derived statistics over the loaded slice
func StatsHandler(controller *viewer.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		RespondWithJSON(w, http.StatusOK, controller.Stats())
	}
}

// RefreshHandler discards cached cursors, re-polls the count aggregate
// and reloads the first page
func RefreshHandler(controller *viewer.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := controller.Refresh(r.Context()); err != nil {
			code, msg := loadErrorStatus(err)
			RespondWithError(w, code, msg)
			return
		}

		state := controller.Snapshot()
		RespondWithJSON(w, http.StatusOK, map[string]interface{}{
			"status":     "refreshed",
			"totalItems": state.Total,
			"page":       state.Page,
		})
	}
}

// HealthCheckHandler returns server health information
func HealthCheckHandler(checker interfaces.HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, details, httpStatus := checker.HealthCheck()

		response := map[string]interface{}{
			"status": status,
		}
		for k, v := range details {
			response[k] = v
		}

		RespondWithJSON(w, httpStatus, response)
	}
}
