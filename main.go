package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"grabdoc/internal/config"
	"grabdoc/internal/report"
	"grabdoc/internal/source"
)

var version = "dev"

var (
	mode       string
	configPath string
	outputDir  string
	showUI     bool
	proxyURL   string
)

func main() {
	var rootCmd = &cobra.Command{
		Use:     "grabdoc [URL]",
		Short:   "Download documents, slide decks and podcasts rendered in a headless browser",
		Version: version,
		Long: `grabdoc renders a document, slide deck or podcast page in a headless
browser, captures every page and assembles them into a single PDF (or saves
the episode audio). Results are cached by URL, so asking for the same URL
again returns the existing file.`,
		Example: `  # Download a document as vector PDF
  grabdoc https://www.scribd.com/document/123456789/Annual-Report

  # Capture document pages as images instead
  grabdoc --mode image https://www.scribd.com/document/123456789/Annual-Report

  # Download a slide deck into ./decks
  grabdoc -o decks https://www.slideshare.net/slideshow/go-concurrency/1234

  # Download every episode of a podcast series
  grabdoc https://www.everand.com/podcast-show/123456/Some-Show

  # Start the HTTP control surface
  grabdoc serve --port 4173`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				cmd.Help()
				os.Exit(0)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE:         run,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (defaults to ./config.yaml when present)")
	rootCmd.PersistentFlags().StringVarP(&outputDir, "output", "o", "", "Output directory (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&showUI, "showui", false, "Show browser UI (disable headless mode)")
	rootCmd.PersistentFlags().StringVarP(&proxyURL, "proxy", "p", "", "Proxy URL (e.g. http://127.0.0.1:7890), defaults to GRABDOC_PROXY env var")
	rootCmd.Flags().StringVarP(&mode, "mode", "m", string(source.ModeDefault), "Document capture mode (default, image)")

	rootCmd.AddCommand(newServeCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	if err := validateFlags(); err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := log.New(os.Stderr, "", log.LstdFlags)
	ctx, cancel := signalContext(logger)
	defer cancel()

	a := newApp(ctx, cfg, logger)
	defer func() {
		if err := a.Close(); err != nil {
			logger.Printf("WARNING: shutdown: %v", err)
		}
	}()

	art, err := a.jobs.Run(ctx, normalizeURL(args[0]), source.ParseMode(mode), report.NewConsole(os.Stderr))
	if err != nil {
		return fmt.Errorf("failed to download: %w", err)
	}
	fmt.Println(art.Path)
	return nil
}

// loadConfig reads the configuration and applies command line overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if outputDir != "" {
		cfg.Output.Dir = outputDir
	}
	if proxyURL != "" {
		cfg.Browser.Proxy = proxyURL
	}
	if showUI {
		cfg.Browser.Headless = false
	}
	return cfg, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigChan:
			logger.Println("Received interrupt signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()
	return ctx, cancel
}

func validateFlags() error {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case string(source.ModeDefault), string(source.ModeImage):
		return nil
	default:
		return fmt.Errorf("invalid mode: %s", mode)
	}
}

// normalizeURL adds https:// if no protocol prefix is present and lowercases
// an existing one.
func normalizeURL(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return rawURL
	}
	lower := strings.ToLower(rawURL)
	for _, scheme := range []string{"http://", "https://"} {
		if strings.HasPrefix(lower, scheme) {
			return scheme + rawURL[len(scheme):]
		}
	}
	return "https://" + rawURL
}
