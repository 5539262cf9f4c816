// Command probe queries a running maps API through the discovery client and
// prints the tagged result as JSON. It exits with status 1 when the answer
// is a fallback.
//
//	probe geocode <query> [limit]
//	probe route <origin_lat> <origin_lon> <dest_lat> <dest_lon> [profile]
//	probe suggest <query>...
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"

	"github.com/UnknownOlympus/compass/internal/config"
	"github.com/UnknownOlympus/compass/internal/discovery"
)

const usage = "usage: probe <geocode <query> [limit] | route <olat> <olon> <dlat> <dlon> [profile] | suggest <query>...>"

const defaultLimit = 5

var errFallback = errors.New("maps API unavailable, fallback result returned")

type lookup interface {
	Geocode(ctx context.Context, query string, limit int) discovery.GeocodeResult
	GetRoute(ctx context.Context, originLat, originLon, destLat, destLon float64, profile string) discovery.RouteLookup
}

// report is the printed form of a discovery result.
type report struct {
	Source discovery.Source `json:"source"`
	Cause  string           `json:"cause,omitempty"`
	Result any              `json:"result"`
}

func main() {
	if len(os.Args) < 2 {
		log.Fatal(usage)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.MustLoad()
	client, err := discovery.New(discovery.Options{
		BaseURL: cfg.Discovery.BaseURL,
		Timeout: cfg.Discovery.Timeout,
	})
	if err != nil {
		log.Fatalf("discovery client: %v", err)
	}

	err = run(ctx, client, os.Args[1:], os.Stdout)
	if errors.Is(err, errFallback) {
		os.Exit(1)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, client lookup, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errors.New(usage)
	}

	switch args[0] {
	case "geocode":
		return geocode(ctx, client, args[1:], out)
	case "route":
		return route(ctx, client, args[1:], out)
	case "suggest":
		return suggest(ctx, client, args[1:], out)
	default:
		return fmt.Errorf("unknown command: %s", args[0])
	}
}

func geocode(ctx context.Context, client lookup, args []string, out io.Writer) error {
	if len(args) < 1 {
		return errors.New(usage)
	}

	limit := defaultLimit
	if len(args) > 1 {
		var err error
		if limit, err = strconv.Atoi(args[1]); err != nil {
			return fmt.Errorf("limit: %w", err)
		}
	}

	result := client.Geocode(ctx, args[0], limit)
	return printReport(out, result.Source, result.Cause, result.PlaceResult)
}

func route(ctx context.Context, client lookup, args []string, out io.Writer) error {
	const coordinateArgs = 4
	if len(args) < coordinateArgs {
		return errors.New(usage)
	}

	var coords [coordinateArgs]float64
	for i := range coords {
		v, err := strconv.ParseFloat(args[i], 64)
		if err != nil {
			return fmt.Errorf("coordinate %q: %w", args[i], err)
		}
		coords[i] = v
	}

	profile := ""
	if len(args) > coordinateArgs {
		profile = args[coordinateArgs]
	}

	result := client.GetRoute(ctx, coords[0], coords[1], coords[2], coords[3], profile)
	return printReport(out, result.Source, result.Cause, result.RouteResult)
}

// suggest fires one lookup per query concurrently, as a search box would while
// the user types, and prints only the answer to the last query issued.
func suggest(ctx context.Context, client lookup, queries []string, out io.Writer) error {
	if len(queries) == 0 {
		return errors.New(usage)
	}

	var (
		seq    discovery.Sequencer
		wg     sync.WaitGroup
		mu     sync.Mutex
		latest *discovery.GeocodeResult
	)

	for _, query := range queries {
		ticket := seq.Issue()
		wg.Add(1)
		go func() {
			defer wg.Done()
			result := client.Geocode(ctx, query, defaultLimit)
			if !seq.Latest(ticket) {
				return
			}
			mu.Lock()
			latest = &result
			mu.Unlock()
		}()
	}
	wg.Wait()

	return printReport(out, latest.Source, latest.Cause, latest.PlaceResult)
}

func printReport(out io.Writer, source discovery.Source, cause error, result any) error {
	rep := report{Source: source, Result: result}
	if cause != nil {
		rep.Cause = cause.Error()
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}

	if source == discovery.SourceFallback {
		return errFallback
	}

	return nil
}
