package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/gymguard/uiharness/internal/config"
	"github.com/gymguard/uiharness/internal/domain"
	"github.com/gymguard/uiharness/internal/harness"
	"github.com/gymguard/uiharness/internal/testapp"
)

var (
	green  = color.New(color.FgGreen, color.Bold)
	red    = color.New(color.FgRed, color.Bold)
	yellow = color.New(color.FgYellow, color.Bold)
	cyan   = color.New(color.FgCyan, color.Bold)
	dim    = color.New(color.Faint)
)

type options struct {
	baseURL        string
	fixture        bool
	headless       bool
	headlessSet    bool
	creds          credentials
	includeFailure bool
	screenshotDir  string
}

func main() {
	godotenv.Load()

	opts := options{}
	flag.StringVar(&opts.baseURL, "url", "", "Base URL of the app under test (default: from application.properties)")
	flag.BoolVar(&opts.fixture, "fixture", false, "Serve the built-in fixture login app and test against it")
	flag.BoolVar(&opts.headless, "headless", false, "Run the browser headless (default: HEADLESS env)")
	flag.StringVar(&opts.creds.Email, "email", testapp.DefaultEmail, "Login email")
	flag.StringVar(&opts.creds.Password, "password", testapp.DefaultPassword, "Login password")
	flag.StringVar(&opts.creds.InvalidPassword, "invalid-password", "bad", "Password expected to be rejected")
	flag.BoolVar(&opts.includeFailure, "include-failure", false, "Add a failing scenario to demonstrate screenshot capture")
	flag.StringVar(&opts.screenshotDir, "screenshots", "", "Screenshot directory (default: from application.properties)")
	flag.Parse()

	flag.Visit(func(f *flag.Flag) {
		if f.Name == "headless" {
			opts.headlessSet = true
		}
	})

	os.Exit(run(opts))
}

func run(opts options) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	printBanner()

	var runner *harness.Runner
	runner, err := harness.NewDefaultRunner(ctx, harness.WithConfigLoader(func() (config.RunConfig, error) {
		return loadConfig(runner.Logger(), &opts)
	}))
	if err != nil {
		red.Printf("❌ Failed to create runner: %v\n", err)
		return 1
	}
	logger := runner.Logger()
	defer logger.Sync()
	defer func() {
		if err := runner.Close(); err != nil {
			logger.Warn("Writing metrics failed", zap.Error(err))
		}
	}()

	if opts.fixture {
		srv, err := testapp.Start("127.0.0.1:0", testapp.New(testapp.Config{
			Email:    opts.creds.Email,
			Password: opts.creds.Password,
			Logger:   logger.Named("fixture"),
		}))
		if err != nil {
			red.Printf("❌ Failed to start fixture app: %v\n", err)
			return 1
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("Fixture app shutdown failed", zap.Error(err))
			}
		}()
		opts.baseURL = srv.URL()
		dim.Printf("   Fixture app at %s\n", opts.baseURL)
	}

	list := scenarios(opts.creds, opts.includeFailure)
	results := runScenarios(ctx, runner, list)

	return printSummary(list, results)
}

// loadConfig loads the properties config and applies command line overrides
func loadConfig(logger *zap.Logger, opts *options) (config.RunConfig, error) {
	cfg, err := config.Load(config.WithLogger(logger))
	if err != nil {
		return config.RunConfig{}, err
	}
	if opts.baseURL != "" {
		cfg.BaseURL = opts.baseURL
	}
	if opts.headlessSet {
		cfg.Headless = opts.headless
	}
	if opts.screenshotDir != "" {
		cfg.ScreenshotDir = opts.screenshotDir
	}
	return cfg, cfg.Validate()
}

func runScenarios(ctx context.Context, runner *harness.Runner, list []scenario) []harness.TestResult {
	bar := progressbar.NewOptions(len(list),
		progressbar.OptionSetDescription("   Running scenarios..."),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)

	results := make([]harness.TestResult, 0, len(list))
	for _, sc := range list {
		if ctx.Err() != nil {
			break
		}
		results = append(results, runner.Run(ctx, sc.Name, sc.Body))
		bar.Add(1)
	}
	bar.Finish()
	fmt.Println()

	return results
}

// printSummary prints one line per scenario and returns the process exit code
func printSummary(list []scenario, results []harness.TestResult) int {
	fmt.Println()
	cyan.Println("📋 Results")

	exit := 0
	for i, r := range results {
		sc := list[i]
		ok := r.Outcome.IsFailure() == sc.ExpectFailure

		switch {
		case r.Outcome == domain.OutcomeSkipped:
			yellow.Printf("   ⏭  %s", r.Name)
		case ok:
			green.Printf("   ✓ %s", r.Name)
		default:
			red.Printf("   ✗ %s", r.Name)
			exit = 1
		}
		dim.Printf(" - %s (%s)\n", sc.Description, r.Duration.Round(time.Millisecond))

		if r.Reason != "" && !ok {
			fmt.Printf("      %s\n", r.Reason)
		}
		if tc, isCase := r.Instance.(*harness.TestCase); isCase && tc.ScreenshotPath() != "" {
			dim.Printf("      📸 %s\n", tc.ScreenshotPath())
		}
	}

	if len(results) < len(list) {
		yellow.Printf("   ⚠ Interrupted after %d of %d scenarios\n", len(results), len(list))
		exit = 1
	}

	fmt.Println()
	if exit == 0 {
		green.Println("✅ Smoke passed")
	} else {
		red.Println("❌ Smoke failed")
	}
	return exit
}

func printBanner() {
	fmt.Println()
	cyan.Println("╔══════════════════════════════════════╗")
	cyan.Println("║        UI Harness · Login Smoke      ║")
	cyan.Println("╚══════════════════════════════════════╝")
	fmt.Println()
}
