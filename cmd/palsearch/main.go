// FILE: main.go
// Program entrypoint: parses the fixed CLI grammar (spec §6), wires
// ingestion, the comparison generator, the forward-stepwise driver, and the
// permutation validator, serves /metrics, and emits the validated survivors
// as text pattern blocks.
//
// Boot sequence mirrors the teacher's main.go: load env -> build config ->
// wire components -> start the metrics server -> run -> graceful shutdown.
// Positional-argument parsing (mcpt-config, search-config, direction,
// IS/OOS/ISOOS, search-type, threads/validate, --local/--api) is not a
// `flag` package surface — the CLI grammar is fixed-position like the
// original program's argv parsing, so it's handled directly here instead of
// forcing it through named flags.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/chidi150c/palsearch/internal/artifacts"
	"github.com/chidi150c/palsearch/internal/backtest"
	"github.com/chidi150c/palsearch/internal/bars"
	"github.com/chidi150c/palsearch/internal/config"
	"github.com/chidi150c/palsearch/internal/decimal"
	"github.com/chidi150c/palsearch/internal/ingest"
	"github.com/chidi150c/palsearch/internal/metrics"
	"github.com/chidi150c/palsearch/internal/render"
	"github.com/chidi150c/palsearch/internal/runctx"
	"github.com/chidi150c/palsearch/internal/search"
	"github.com/chidi150c/palsearch/internal/validate"
)

const (
	exitOK        = 0
	exitUsageErr  = 2
	exitConfigErr = 1
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(argv []string) int {
	if len(argv) < 6 {
		fmt.Fprintln(os.Stderr, "usage: palsearch <mcpt-config> <search-config> {longonly|shortonly|longshort} {IS|OOS|ISOOS} <search-type 0..4> {threads:<n>|validate:<runid>} {--local <daily> <hourly> | --api:<source> <api-config>}")
		return exitUsageErr
	}

	mcptPath, searchPath := argv[0], argv[1]
	direction := argv[2]
	modeArg := argv[3]
	searchTypeArg := argv[4]
	verbArg := argv[5]
	rest := argv[6:]

	config.LoadEnv()
	ops := config.LoadOpsFromEnv()

	srv := startMetricsServer(ops.Port)
	defer shutdownServer(srv)

	searchTypeN, err := strconv.Atoi(searchTypeArg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ConfigError: search-type must be an integer: %v\n", err)
		return exitUsageErr
	}
	searchType, err := bars.ParseSearchType(searchTypeN)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ConfigError: %v\n", err)
		return exitUsageErr
	}

	mode, err := parseMode(modeArg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "usage error: %v\n", err)
		return exitUsageErr
	}

	sides, err := parseDirection(direction)
	if err != nil {
		fmt.Fprintf(os.Stderr, "usage error: %v\n", err)
		return exitUsageErr
	}

	mcpt, err := config.LoadMcptConfig(mcptPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return exitConfigErr
	}
	sc, err := config.LoadSearchConfig(searchPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return exitConfigErr
	}

	threads, runID, isValidateOnly, err := parseVerb(verbArg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "usage error: %v\n", err)
		return exitUsageErr
	}

	dailyPath, err := parseDataSource(rest)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return exitConfigErr
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if isValidateOnly {
		return revalidate(ctx, runID, sc)
	}

	return searchAndValidate(ctx, mcpt, sc, searchType, mode, sides, threads, ops, dailyPath)
}

func startMetricsServer(port int) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("ok\n")) })
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintf(os.Stderr, "metrics server: %v\n", err)
		}
	}()
	return srv
}

func shutdownServer(srv *http.Server) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func parseMode(s string) (backtest.Mode, error) {
	switch strings.ToUpper(s) {
	case "IS":
		return backtest.InSample, nil
	case "OOS":
		return backtest.OutOfSample, nil
	case "ISOOS":
		return backtest.InSampleOutOfSample, nil
	default:
		return 0, fmt.Errorf("expected IS|OOS|ISOOS, got %q", s)
	}
}

func parseDirection(s string) ([]backtest.Side, error) {
	switch strings.ToLower(s) {
	case "longonly":
		return []backtest.Side{backtest.Long}, nil
	case "shortonly":
		return []backtest.Side{backtest.Short}, nil
	case "longshort":
		return []backtest.Side{backtest.Long, backtest.Short}, nil
	default:
		return nil, fmt.Errorf("expected longonly|shortonly|longshort, got %q", s)
	}
}

func parseVerb(s string) (threads int, runID string, validateOnly bool, err error) {
	switch {
	case strings.HasPrefix(s, "threads:"):
		n, convErr := strconv.Atoi(strings.TrimPrefix(s, "threads:"))
		if convErr != nil {
			return 0, "", false, fmt.Errorf("threads:<n> must be an integer: %v", convErr)
		}
		return n, "", false, nil
	case strings.HasPrefix(s, "validate:"):
		id := strings.TrimPrefix(s, "validate:")
		if id == "" {
			return 0, "", false, fmt.Errorf("validate:<runid> requires a run id")
		}
		return 0, id, true, nil
	default:
		return 0, "", false, fmt.Errorf("expected threads:<n> or validate:<runid>, got %q", s)
	}
}

func parseDataSource(rest []string) (string, error) {
	if len(rest) == 0 {
		return "", &config.ConfigError{Msg: "missing --local <daily> <hourly> or --api:<source> <api-config>"}
	}
	if strings.HasPrefix(rest[0], "--api:") {
		return "", &config.ConfigError{Msg: "API ingestion is out of scope; use --local <daily> <hourly>"}
	}
	if rest[0] != "--local" || len(rest) < 2 {
		return "", &config.ConfigError{Msg: "expected --local <daily> <hourly>"}
	}
	return rest[1], nil
}

// searchAndValidate runs the full pipeline: ingest -> C1/C2 -> per-side
// C3/C4-C8 -> C9 -> render + persist.
func searchAndValidate(ctx context.Context, mcpt config.McptConfig, sc config.SearchConfig, st bars.SearchType, mode backtest.Mode, sides []backtest.Side, threads int, ops config.Ops, dailyPath string) int {
	rawBars, err := ingest.LoadCSV(dailyPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "DataOrderError: %v\n", err)
		return exitConfigErr
	}
	if len(rawBars) < 2 {
		fmt.Println("EmptyFactTable: fewer than 2 bars ingested; zero survivors")
		return exitOK
	}

	lookback := uint8(20)
	window := backtest.DateWindow{ISStart: mcpt.ISDateStart, ISEnd: mcpt.ISDateEnd, OOSStart: mcpt.OOSDateStart, OOSEnd: mcpt.OOSDateEnd}
	risk := sc.Risk()

	rc := runctx.New(runctx.SecurityInfo{Symbol: mcpt.Symbol}, threads, ops.Seed)

	gen := bars.NewGenerator(lookback, st)
	for _, b := range rawBars {
		if err := gen.PushBar(b); err != nil {
			fmt.Fprintf(os.Stderr, "DataOrderError: %v\n", err)
			return exitConfigErr
		}
	}
	matrix := bars.BuildMatrix(gen)
	metrics.FactsGenerated.Set(float64(matrix.NumFacts()))

	var allValidated []validate.Result

	for _, side := range sides {
		base := backtest.Build(rawBars, side, risk, ops.Horizon, mode, window)

		driverCfg := search.Config{
			MaxDepth:          sc.MaxDepth,
			MinTrades:         sc.MinTrades,
			MaxInactivitySpan: sc.MaxInactivitySpan,
			Method:            backtest.PlainVanilla,
			Threads:           rc.ResolvedThreads(runtime.NumCPU()),
			Stepping: search.SteppingConfig{
				BeamWidth:                sc.PassingStratNumPerRound,
				ActivityMultiplier:       sc.ActivityMultiplier,
				StepRedundancyMultiplier: sc.StepRedundancyMultiplier,
				RedundancyFilter:         sc.SurvivalFilterMultiplier,
				N:                        matrix.N(),
			},
			Survival: search.SurvivalConfig{
				ProfitFactorCriterion:        sc.ProfitFactorCriterion,
				PalProfitabilitySafetyFactor: sc.PalProfitabilitySafetyFactor,
				MaxConsecutiveLosers:         sc.MaxConsecutiveLosers,
				R:                            risk.R(),
			},
		}

		depths, err := search.Run(ctx, matrix, base, driverCfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "search failed: %v\n", err)
			return exitConfigErr
		}

		var survivors []search.Candidate
		for _, d := range depths {
			metrics.SetSurvivorsAtDepth(d.Depth, len(d.Survivors))
			metrics.IncExclusionBy("below_min_trades", d.Counters.BelowMinTrades)
			metrics.IncExclusionBy("inactive", d.Counters.Inactive)
			metrics.IncExclusionBy("degenerate", d.Counters.Degenerate)
			metrics.IncExclusionBy("duplicate_footprint", d.Counters.DuplicateFootprint)
			survivors = append(survivors, d.Survivors...)
		}

		vcfg := validate.Config{
			Lookback: lookback, SearchType: st, Method: backtest.PlainVanilla,
			MinTrades: sc.MinTrades, Risk: risk, Side: side, Horizon: ops.Horizon,
			Mode: mode, Window: window, NumPermutations: sc.NumPermutations,
			Alpha: sc.Alpha, Threads: rc.ResolvedThreads(runtime.NumCPU()),
		}
		results, err := validate.Validate(ctx, rc.Rand(), rawBars, gen, survivors, vcfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "validation failed: %v\n", err)
			return exitConfigErr
		}
		for _, r := range results {
			metrics.ObservePValue(mustFloat(r.PValue))
		}
		allValidated = append(allValidated, results...)

		if err := artifacts.Save(artifacts.Run{
			RunID: rc.RunID, CSVPath: dailyPath, Lookback: lookback, SearchType: st,
			Method: backtest.PlainVanilla, MinTrades: sc.MinTrades, Side: side,
			ProfitTarget: risk.ProfitTargetPct, StopLoss: risk.StopLossPct,
			Survivors: artifacts.FromCandidates(survivors, gen.Facts()),
		}); err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not persist run artifacts: %v\n", err)
		}
	}

	emitResults(mcpt.Symbol, dailyPath, allValidated, risk, gen.Facts())
	return exitOK
}

func revalidate(ctx context.Context, runID string, sc config.SearchConfig) int {
	runData, err := artifacts.Load(runID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return exitConfigErr
	}
	rawBars, err := ingest.LoadCSV(runData.CSVPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return exitConfigErr
	}
	gen := bars.NewGenerator(runData.Lookback, runData.SearchType)
	for _, b := range rawBars {
		if err := gen.PushBar(b); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			return exitConfigErr
		}
	}
	survivors := artifacts.ToCandidates(runData.Survivors, gen)

	risk := backtest.RiskParams{ProfitTargetPct: runData.ProfitTarget, StopLossPct: runData.StopLoss}
	vcfg := validate.Config{
		Lookback: runData.Lookback, SearchType: runData.SearchType, Method: runData.Method,
		MinTrades: runData.MinTrades, Risk: risk, Side: runData.Side,
		Horizon: backtest.DefaultHorizon, Mode: backtest.InSampleOutOfSample,
		NumPermutations: sc.NumPermutations, Alpha: sc.Alpha, Threads: 4,
	}
	rng := runctx.New(runctx.SecurityInfo{}, 4, 0).Rand()
	results, err := validate.Validate(ctx, rng, rawBars, gen, survivors, vcfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "validation failed: %v\n", err)
		return exitConfigErr
	}
	emitResults("", runData.CSVPath, results, risk, gen.Facts())
	return exitOK
}

func emitResults(symbol, src string, results []validate.Result, risk backtest.RiskParams, facts []bars.Fact) {
	survived := 0
	for _, r := range results {
		if !r.Survives {
			continue
		}
		survived++
		fmt.Print(render.Block(src, time.Now(), r.Candidate, r.Side, risk, facts))
	}
	fmt.Fprintf(os.Stderr, "run summary: symbol=%s candidates_validated=%d survivors=%d\n", symbol, len(results), survived)
}

func mustFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
