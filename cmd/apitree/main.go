package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/getkin/kin-openapi/openapi3"

	"apitree/internal/config"
	"apitree/internal/explorer"
	"apitree/internal/httpclient"
	"apitree/internal/openapi"
	"apitree/internal/tree"
	"apitree/internal/ui"
)

func main() {
	var (
		configPath string
		baseURL    string
		specURL    string
		specFile   string
		timeout    time.Duration
		debug      bool
		list       bool
		sendPath   string
		method     string
		body       string
	)

	flag.StringVar(&configPath, "config", "", "Path to config file (default $XDG_CONFIG_HOME/apitree/config.yaml)")
	flag.StringVar(&baseURL, "base-url", "", "Base URL for executing requests (e.g. http://localhost:8000)")
	flag.StringVar(&specURL, "spec-url", "", "OpenAPI spec URL (http/https)")
	flag.StringVar(&specFile, "spec-file", "", "Path to local OpenAPI spec file")
	flag.DurationVar(&timeout, "timeout", 0, "Request timeout (0 waits indefinitely)")
	flag.BoolVar(&debug, "debug", false, "Write a debug log to the configured log file")
	flag.BoolVar(&list, "list", false, "Print the directory tree and exit")
	flag.StringVar(&sendPath, "send", "", "Send one request for the given path and print the response")
	flag.StringVar(&method, "method", "GET", "Method used with -send (GET or PUT)")
	flag.StringVar(&body, "body", "", "Request body used with -send -method PUT")
	flag.Parse()

	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	cfg, err := loadConfig(configPath)
	if err != nil {
		fatal(2, err)
	}

	// CLI args take precedence over env and the config file.
	if set["base-url"] {
		cfg.BaseURL = baseURL
	}
	applySpecFlags(cfg, set, specURL, specFile)
	if set["timeout"] {
		if timeout < 0 {
			fatal(2, fmt.Errorf("invalid -timeout %s: negative", timeout))
		}
		cfg.Timeout = config.Duration(timeout)
	}
	if set["debug"] {
		cfg.Debug = debug
	}
	cfg.BaseURL = config.NormalizeBaseURL(cfg.BaseURL)

	logger, closeLog, err := openLog(cfg)
	if err != nil {
		fatal(2, err)
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	nodes := tree.Catalog()

	if list {
		printTree(os.Stdout, nodes)
		return
	}

	client := httpclient.New(time.Duration(cfg.Timeout))
	ex := explorer.New(nodes, cfg.BaseURL, client)
	ex.SetLogger(logger)

	if sendPath != "" {
		code, err := sendOnce(ctx, os.Stdout, ex, sendPath, method, body)
		if err != nil {
			fatal(2, err)
		}
		closeLog()
		os.Exit(code)
	}

	doc, err := loadDoc(ctx, cfg.Spec())
	if err != nil {
		fatal(2, err)
	}
	ops := openapi.ExtractOperations(doc)
	logger.Printf("loaded %d operations, base url %s", len(ops), cfg.BaseURL)

	ui.SetDebugLog(logger)
	app := ui.NewApp(ctx, ex)
	app.SetOperations(ops)
	app.SetEditor(cfg.Editor)
	if err := app.Run(); err != nil {
		fatal(1, err)
	}
}

// applySpecFlags overrides the configured OpenAPI source. -spec-url is
// checked before -spec-file, so it wins when both are given.
func applySpecFlags(cfg *config.Config, set map[string]bool, specURL, specFile string) {
	switch {
	case set["spec-url"] && strings.TrimSpace(specURL) != "":
		cfg.SpecURL = specURL
		cfg.SpecFile = ""
	case set["spec-file"] && strings.TrimSpace(specFile) != "":
		cfg.SpecFile = specFile
		cfg.SpecURL = ""
	}
}

func fatal(code int, err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(code)
}

// loadConfig reads -config, then APITREE_CONFIG, then the default path. Only
// the default path may be missing.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		path = strings.TrimSpace(os.Getenv("APITREE_CONFIG"))
	}
	if path != "" {
		return config.Load(path, true)
	}
	return config.Load(config.DefaultPath(), false)
}

func openLog(cfg *config.Config) (*log.Logger, func(), error) {
	if !cfg.Debug {
		return log.New(io.Discard, "", 0), func() {}, nil
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	closed := false
	return log.New(f, "apitree ", log.LstdFlags|log.Lmicroseconds), func() {
		if !closed {
			closed = true
			_ = f.Close()
		}
	}, nil
}

func loadDoc(ctx context.Context, spec string) (*openapi3.T, error) {
	if spec == "" {
		return openapi.LoadEmbedded(ctx)
	}
	return openapi.Load(ctx, spec)
}
