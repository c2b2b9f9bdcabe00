package http

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"tripledger/internal/aggregate"
	"tripledger/internal/core"
	"tripledger/internal/ledger"
	applog "tripledger/internal/log"
	"tripledger/internal/services"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().JSON(map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	}).Write(w)
}

// handleReady reports ready only once a snapshot has been published.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	status := s.ledger.Status()
	code := http.StatusOK
	ready := "ready"
	if status.State != services.StateReady {
		code = http.StatusServiceUnavailable
		ready = "not_ready"
	}

	NewJSONResponse().
		Status(code).
		Generation(status.Generation).
		JSON(map[string]interface{}{
			"status":    ready,
			"timestamp": time.Now().Format(time.RFC3339),
			"checks": map[string]interface{}{
				"ledger":       status,
				"trip_cache":   s.tripCache.Stats(),
				"rate_limiter": s.rateLimiter.GetMetrics(),
			},
		}).Write(w)
}

// handleMetrics provides application and security metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	status := s.ledger.Status()
	ready := 0
	if status.State == services.StateReady {
		ready = 1
	}
	sec := s.securityDetector.GetMetrics()
	rl := s.rateLimiter.GetMetrics()
	tr := s.traceMiddleware.GetMetrics()
	cs := s.tripCache.Stats()

	fmt.Fprintf(w, "# Ledger\n")
	fmt.Fprintf(w, "ledger_ready %d\n", ready)
	fmt.Fprintf(w, "ledger_generation %d\n", status.Generation)
	fmt.Fprintf(w, "ledger_entries %d\n\n", status.EntryCount)

	fmt.Fprintf(w, "# Requests\n")
	fmt.Fprintf(w, "http_requests_total %d\n", tr.TotalRequests)
	fmt.Fprintf(w, "http_server_errors_total %d\n", tr.ServerErrors)
	fmt.Fprintf(w, "http_response_time_avg_us %d\n\n", tr.AverageResponseTime)

	fmt.Fprintf(w, "# Security\n")
	fmt.Fprintf(w, "rate_limit_hits_total %d\n", rl.TotalHits)
	fmt.Fprintf(w, "rate_limit_clients %d\n", rl.ClientCount)
	fmt.Fprintf(w, "suspicious_requests_total %d\n", sec.SuspiciousRequests)
	fmt.Fprintf(w, "blocked_requests_total %d\n\n", sec.BlockedRequests)

	fmt.Fprintf(w, "# Cache\n")
	fmt.Fprintf(w, "trip_cache_entries %d\n", cs.Size)
	fmt.Fprintf(w, "trip_cache_hits_total %d\n", cs.Hits)
	fmt.Fprintf(w, "trip_cache_misses_total %d\n", cs.Misses)
	fmt.Fprintf(w, "uptime_seconds %d\n", int64(time.Since(s.started).Seconds()))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := s.ledger.Status()
	NewJSONResponse().Generation(status.Generation).JSON(status).Write(w)
}

// handleRefresh fetches the ledger now. A failed fetch still answers with the
// resulting status so the client can show why no data is available.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	status, err := s.ledger.Refresh(r.Context(), services.ReasonRequest)
	if err != nil {
		events(r).LogRefreshFailed(r.Context(), services.ReasonRequest, err)
		NewJSONResponse().
			Status(http.StatusServiceUnavailable).
			RetryAfter(30).
			Generation(status.Generation).
			JSON(status).
			Write(w)
		return
	}
	NewJSONResponse().Generation(status.Generation).JSON(status).Write(w)
}

// readyViews returns the current status, or writes a 503 when no snapshot
// is available.
func (s *Server) readyViews(w http.ResponseWriter) (services.Status, bool) {
	status := s.ledger.Status()
	switch status.State {
	case services.StateReady:
		return status, true
	case services.StateLoading:
		ServiceUnavailableError("ledger is loading").Generation(status.Generation).Write(w)
	default:
		msg := "ledger unavailable"
		if status.Error != "" {
			msg += ": " + status.Error
		}
		ServiceUnavailableError(msg).Generation(status.Generation).Write(w)
	}
	return status, false
}

type tripList struct {
	Trips []core.Trip `json:"trips"`
	Count int         `json:"count"`
}

func (s *Server) handleTrips(w http.ResponseWriter, r *http.Request) {
	filter, err := ParseTripFilter(r.URL.Query())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	status, ok := s.readyViews(w)
	if !ok {
		return
	}

	trips := s.tripCache.Lookup(filter, func() []core.Trip {
		return aggregate.FilterTrips(s.ledger.Views().PresentedTrips(), filter)
	})
	NewJSONResponse().
		Generation(status.Generation).
		JSON(tripList{Trips: trips, Count: len(trips)}).
		Write(w)
}

func (s *Server) handleTrip(w http.ResponseWriter, r *http.Request) {
	key, err := core.ParseTripKey(r.PathValue("plate"), r.PathValue("date"))
	if err != nil {
		BadRequestError("invalid trip date").Write(w)
		return
	}
	status, ok := s.readyViews(w)
	if !ok {
		return
	}
	trip, found := s.ledger.Views().Trip(key)
	if !found || !trip.HasMeaningfulData() {
		NotFoundError("trip " + key.String() + " not found").Write(w)
		return
	}
	NewJSONResponse().Generation(status.Generation).JSON(trip).Write(w)
}

func (s *Server) handleRevenue(w http.ResponseWriter, r *http.Request) {
	status, ok := s.readyViews(w)
	if !ok {
		return
	}
	NewJSONResponse().Generation(status.Generation).JSON(s.ledger.Views().Revenue).Write(w)
}

func (s *Server) handleDrivers(w http.ResponseWriter, r *http.Request) {
	status, ok := s.readyViews(w)
	if !ok {
		return
	}
	drivers := s.ledger.Views().Drivers
	if drivers == nil {
		drivers = []aggregate.DriverEarnings{}
	}
	NewJSONResponse().Generation(status.Generation).JSON(map[string]interface{}{"drivers": drivers}).Write(w)
}

func (s *Server) handleFuelInconsistencies(w http.ResponseWriter, r *http.Request) {
	status, ok := s.readyViews(w)
	if !ok {
		return
	}
	flags := s.ledger.Views().FuelInconsistencies
	if flags == nil {
		flags = []aggregate.FuelInconsistency{}
	}
	NewJSONResponse().Generation(status.Generation).JSON(map[string]interface{}{"inconsistencies": flags}).Write(w)
}

func (s *Server) handleExcluded(w http.ResponseWriter, r *http.Request) {
	status, ok := s.readyViews(w)
	if !ok {
		return
	}
	excluded := s.ledger.Views().Excluded
	if excluded == nil {
		excluded = []core.LedgerEntry{}
	}
	NewJSONResponse().Generation(status.Generation).JSON(map[string]interface{}{"excluded": excluded}).Write(w)
}

// handleEditField reassigns route, driver, front load or back load of a trip.
// Body fields: plate_number, date, field, value.
func (s *Server) handleEditField(w http.ResponseWriter, r *http.Request) {
	body, fail := ParseBodyOrFail(r)
	if fail != nil {
		fail.Write(w)
		return
	}
	if !body.Has("value") {
		BadRequestError("value is required").Write(w)
		return
	}
	key := body.TripKey("plate_number", "date")
	field := core.TripField(body.Get("field"))

	trip, err := s.ledger.EditTripField(r.Context(), key, field, body.Get("value"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	events(r).LogTripEdited(r.Context(), trip.PlateNumber, trip.Date, string(field))
	NewJSONResponse().
		Generation(s.ledger.Status().Generation).
		JSON(trip).
		Write(w)
}

// writeServiceError maps workflow and backend errors onto status codes.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var mutation *ledger.MutationError
	switch {
	case errors.Is(err, services.ErrEditInFlight),
		errors.Is(err, services.ErrInvalidTransition),
		errors.Is(err, services.ErrTransferCancelled):
		ConflictError(err.Error()).Write(w)
	case errors.As(err, &mutation):
		UnprocessableEntityError(ledger.UserMessage(err)).Write(w)
	case errors.Is(err, services.ErrTripNotFound):
		NotFoundError(err.Error()).Write(w)
	case errors.Is(err, services.ErrInvalidField),
		errors.Is(err, services.ErrSameTrip),
		errors.Is(err, services.ErrNoEntriesSelected),
		errors.Is(err, services.ErrUnknownEntry),
		errors.Is(err, core.ErrInvalidDate),
		errors.Is(err, core.ErrEmptyPlate),
		errors.Is(err, core.ErrNoEntryIDs),
		errors.Is(err, core.ErrSameTransferPoint):
		BadRequestError(err.Error()).Write(w)
	case errors.Is(err, services.ErrNoSnapshot), errors.Is(err, ledger.ErrUnavailable):
		ServiceUnavailableError(err.Error()).Write(w)
	default:
		op := applog.OpUpdate
		if r.Method == http.MethodGet {
			op = applog.OpRead
		}
		events(r).LogError(r.Context(), "Request failed", err, applog.ComponentHTTP, op,
			applog.NewFields().WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, "", ""))
		InternalServerError("internal error").Write(w)
	}
}
