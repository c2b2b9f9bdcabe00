// Command ledger-report fetches the ledger once and prints the aggregated
// views as JSON. Configuration comes from the same environment as the server.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"tripledger/internal/aggregate"
	"tripledger/internal/backend"
	"tripledger/internal/cli"
	"tripledger/internal/core"
	applog "tripledger/internal/log"
	"tripledger/internal/services"
)

func main() {
	view := flag.String("view", "all", "view to print: all, trips, revenue, drivers, fuel, excluded")
	plate := flag.String("plate", "", "only trips for this plate")
	from := flag.String("from", "", "only trips on or after this date (YYYY-MM-DD)")
	to := flag.String("to", "", "only trips on or before this date (YYYY-MM-DD)")
	timeout := flag.Duration("timeout", time.Minute, "overall fetch timeout")
	flag.Parse()

	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	res := cli.InitBackend(ctx, logger, cfg)
	if res.Cleanup != nil {
		defer func() { _ = res.Cleanup() }()
	}

	filter, err := buildFilter(*plate, *from, *to)
	if err != nil {
		logger.Error("Invalid filter", "error", err)
		os.Exit(2)
	}

	if err := run(ctx, res, *view, filter, os.Stdout); err != nil {
		logger.Error("Report failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, res *backend.BackendResult, view string, filter aggregate.TripFilter, out io.Writer) error {
	svc := services.NewLedgerService(res.Backend)
	if _, err := svc.Refresh(ctx, services.ReasonRequest); err != nil {
		return err
	}

	payload, err := selectView(svc.Views(), view, filter)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

func buildFilter(plate, from, to string) (aggregate.TripFilter, error) {
	var f aggregate.TripFilter
	if plate != "" {
		f.Plate = core.NormalizePlate(plate)
	}
	for _, p := range []struct {
		name string
		raw  string
		dst  *string
	}{{"from", from, &f.From}, {"to", to, &f.To}} {
		if p.raw == "" {
			continue
		}
		d, err := core.NormalizeDate(p.raw)
		if err != nil {
			return aggregate.TripFilter{}, fmt.Errorf("%s: %w", p.name, err)
		}
		*p.dst = d
	}
	if f.From != "" && f.To != "" && f.From > f.To {
		return aggregate.TripFilter{}, fmt.Errorf("from %s is after to %s", f.From, f.To)
	}
	return f, nil
}

func selectView(v aggregate.Views, view string, filter aggregate.TripFilter) (any, error) {
	trips := aggregate.FilterTrips(v.PresentedTrips(), filter)
	switch view {
	case "all":
		v.Trips = trips
		return v, nil
	case "trips":
		return trips, nil
	case "revenue":
		return v.Revenue, nil
	case "drivers":
		return v.Drivers, nil
	case "fuel":
		return v.FuelInconsistencies, nil
	case "excluded":
		return v.Excluded, nil
	default:
		return nil, fmt.Errorf("unknown view %q", view)
	}
}
