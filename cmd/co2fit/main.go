// Command co2fit fits a polynomial to a NOAA CO2 trend dataset and reports the fitted
// parameters, their uncertainties and the goodness of fit.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	curvefit "github.com/aouyang1/go-curvefit"
	"github.com/aouyang1/go-curvefit/dataset"
	"github.com/aouyang1/go-curvefit/internal/metrics"
	"github.com/aouyang1/go-curvefit/leastsquares"
	"github.com/aouyang1/go-curvefit/noaa"
	"github.com/goccy/go-json"
	"github.com/pkg/profile"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/stat"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	ErrInvalidGuess   = errors.New("invalid initial guess")
	ErrInvalidDegree  = errors.New("degree must be non-negative")
	ErrUnknownProfile = errors.New("unknown profile mode")
)

// Logging configuration.
const (
	logMaxSize   = 50 // MB
	logMaxBackup = 5
	logMaxAge    = 28 // days
)

type config struct {
	dataset     string
	file        string
	degree      int
	guess       string
	method      string
	maxIter     int
	tol         float64
	sigma       float64
	outliers    int
	cacheDir    string
	cacheMaxAge time.Duration
	modelOut    string
	htmlOut     string
	pngOut      string
	metricsOut  string
	logFile     string
	debug       bool
	profile     string
}

func parseFlags(args []string, output io.Writer) (*config, error) {
	cfg := new(config)
	fs := flag.NewFlagSet("co2fit", flag.ContinueOnError)
	fs.SetOutput(output)

	fs.StringVar(&cfg.dataset, "dataset", noaa.MonthlyMLO.Name, "dataset to fit, one of "+strings.Join(noaa.Names(), ", "))
	fs.StringVar(&cfg.file, "file", "", "read the dataset from a local file instead of downloading it")
	fs.IntVar(&cfg.degree, "degree", 2, "polynomial degree, ignored when -guess is set")
	fs.StringVar(&cfg.guess, "guess", "", "comma separated initial coefficients p0,p1,...")
	fs.StringVar(&cfg.method, "method", string(leastsquares.MethodLevenbergMarquardt), "solver method: levenberg-marquardt, bfgs or linear")
	fs.IntVar(&cfg.maxIter, "max-iter", leastsquares.DefaultMaxIterations, "maximum solver iterations")
	fs.Float64Var(&cfg.tol, "tol", leastsquares.DefaultTolerance, "solver convergence tolerance")
	fs.Float64Var(&cfg.sigma, "sigma", 0.5, "uncertainty used for datasets without an uncertainty column")
	fs.IntVar(&cfg.outliers, "outlier-passes", 0, "number of outlier removal passes, 0 disables removal")
	fs.StringVar(&cfg.cacheDir, "cache-dir", "", "directory to cache downloads in")
	fs.DurationVar(&cfg.cacheMaxAge, "cache-max-age", 24*time.Hour, "age after which cached downloads are refreshed")
	fs.StringVar(&cfg.modelOut, "model-out", "", "write the fitted model as json to this path")
	fs.StringVar(&cfg.htmlOut, "html-out", "", "write an html plot of the fit to this path")
	fs.StringVar(&cfg.pngOut, "png-out", "", "write a png plot of the fit to this path")
	fs.StringVar(&cfg.metricsOut, "metrics-out", "", "write prometheus metrics in textfile format to this path")
	fs.StringVar(&cfg.logFile, "log-file", "", "also write logs to this rotated file")
	fs.BoolVar(&cfg.debug, "debug", false, "enable debug logging")
	fs.StringVar(&cfg.profile, "profile", "", "profile the run: cpu or mem")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if cfg.degree < 0 {
		return nil, fmt.Errorf("got %d, %w", cfg.degree, ErrInvalidDegree)
	}
	switch cfg.profile {
	case "", "cpu", "mem":
	default:
		return nil, fmt.Errorf("%q, %w", cfg.profile, ErrUnknownProfile)
	}
	return cfg, nil
}

func setupLogging(cfg *config) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if cfg.debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	var out io.Writer = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	if cfg.logFile != "" {
		fileLog := &lumberjack.Logger{
			Filename:   cfg.logFile,
			MaxSize:    logMaxSize,
			MaxBackups: logMaxBackup,
			MaxAge:     logMaxAge,
		}
		out = zerolog.MultiLevelWriter(out, fileLog)
	}
	log.Logger = zerolog.New(out).With().Timestamp().Logger()
}

func main() {
	os.Exit(realMain())
}

func realMain() int {
	cfg, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	setupLogging(cfg)

	switch cfg.profile {
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.Quiet).Stop()
	case "mem":
		defer profile.Start(profile.MemProfile, profile.ProfilePath("."), profile.Quiet).Stop()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, os.Stdout); err != nil {
		log.Error().Err(err).Str("dataset", cfg.dataset).Msg("fit failed")
		return 1
	}
	return 0
}

func run(ctx context.Context, cfg *config, stdout io.Writer) error {
	ds, err := noaa.Lookup(cfg.dataset)
	if err != nil {
		return err
	}

	tbl, err := loadTable(ctx, cfg, ds)
	if err != nil {
		return err
	}
	if err := noaa.Clean(tbl, ds); err != nil {
		return err
	}
	obs, err := noaa.Observations(tbl, ds, cfg.sigma)
	if err != nil {
		return err
	}
	log.Info().Str("dataset", ds.Name).Int("observations", obs.Len()).Msg("prepared observations")

	guess, err := initialGuess(cfg, obs)
	if err != nil {
		return err
	}
	method, err := leastsquares.ParseMethod(cfg.method)
	if err != nil {
		return err
	}
	opt := &curvefit.Options{
		Solver: &leastsquares.Options{
			Method:        method,
			MaxIterations: cfg.maxIter,
			Tolerance:     cfg.tol,
		},
	}
	if cfg.outliers > 0 {
		opt.OutlierOptions = curvefit.NewOutlierOptions()
		opt.OutlierOptions.NumPasses = cfg.outliers
	}

	m := metrics.New()
	f, err := curvefit.New(opt)
	if err != nil {
		return err
	}

	start := time.Now()
	res, err := f.Fit(obs.X, obs.Y, obs.YErr, guess)
	var iterations int
	if res != nil {
		iterations = res.Iterations
	}
	m.ObserveFit(string(method), time.Since(start), iterations, err)
	if err != nil {
		if cfg.metricsOut != "" {
			if werr := m.WriteTextfile(cfg.metricsOut); werr != nil {
				log.Warn().Err(werr).Str("path", cfg.metricsOut).Msg("unable to write metrics")
			}
		}
		return fmt.Errorf("unable to fit %s, %w", ds.Name, err)
	}
	m.SetReducedChiSquared(ds.Name, res.ReducedChiSquared)

	log.Info().
		Str("dataset", ds.Name).
		Str("method", string(method)).
		Int("params", len(res.Params)).
		Int("iterations", res.Iterations).
		Int("outliers", len(res.Outliers)).
		Float64("reduced_chi_squared", res.ReducedChiSquared).
		Msg("fit complete")

	model, err := f.Model()
	if err != nil {
		return err
	}
	if err := model.TablePrint(stdout, "", "  "); err != nil {
		return err
	}

	return writeArtifacts(cfg, f, model, m)
}

func loadTable(ctx context.Context, cfg *config, ds noaa.Dataset) (*noaa.Table, error) {
	if cfg.file != "" {
		return noaa.Load(cfg.file, ds)
	}

	var cache *noaa.Cache
	if cfg.cacheDir != "" {
		var err error
		cache, err = noaa.NewCache(cfg.cacheDir, cfg.cacheMaxAge)
		if err != nil {
			return nil, err
		}
	}
	return noaa.NewClient(cache).Fetch(ctx, ds)
}

// initialGuess parses -guess or starts a polynomial of -degree at the mean of y
func initialGuess(cfg *config, obs *dataset.Observations) ([]float64, error) {
	if cfg.guess != "" {
		return parseGuess(cfg.guess)
	}
	guess := make([]float64, cfg.degree+1)
	guess[0] = stat.Mean(obs.Y, nil)
	return guess, nil
}

func parseGuess(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	guess := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("%q, %w", p, ErrInvalidGuess)
		}
		guess = append(guess, v)
	}
	return guess, nil
}

func writeArtifacts(cfg *config, f *curvefit.Fitter, model curvefit.Model, m *metrics.Metrics) error {
	if cfg.modelOut != "" {
		out, err := json.MarshalIndent(model, "", "  ")
		if err != nil {
			return fmt.Errorf("unable to encode model, %w", err)
		}
		if err := os.WriteFile(cfg.modelOut, out, 0o644); err != nil {
			return err
		}
		log.Info().Str("path", cfg.modelOut).Msg("wrote model")
	}

	if cfg.htmlOut != "" {
		file, err := os.Create(cfg.htmlOut)
		if err != nil {
			return err
		}
		if err := f.PlotFit(file); err != nil {
			file.Close()
			return err
		}
		if err := file.Close(); err != nil {
			return err
		}
		log.Info().Str("path", cfg.htmlOut).Msg("wrote html plot")
	}

	if cfg.pngOut != "" {
		if err := f.PlotFitPNG(cfg.pngOut); err != nil {
			return err
		}
		log.Info().Str("path", cfg.pngOut).Msg("wrote png plot")
	}

	if cfg.metricsOut != "" {
		if err := m.WriteTextfile(cfg.metricsOut); err != nil {
			return err
		}
		log.Info().Str("path", cfg.metricsOut).Msg("wrote metrics")
	}
	return nil
}
