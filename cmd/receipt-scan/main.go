package main

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/zombor/receipt-scan/internal/export"
	"github.com/zombor/receipt-scan/internal/receipt"
	"github.com/zombor/receipt-scan/internal/scanning"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	// A missing .env file is fine
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("Could not load .env file", "error", err)
	}

	var cfg config
	fs := ff.NewFlagSet("receipt-scan")
	fs.IntVar(&cfg.Port, 0, "port", 8080, "HTTP server port")
	var (
		authUser = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass = fs.StringLong("auth-pass", "", "Basic auth password (optional)")
		htmlOut  = fs.StringLong("html", "", "Batch mode: also write the highlighted HTML table to this file")
		_        = fs.BoolLong("version", "Show version information")
	)
	fs.StringVar(&cfg.Scanner, 0, "scanner", "gemini", "Model backend: 'gemini', 'vertex' or 'ollama'")
	fs.StringVar(&cfg.GeminiKey, 0, "gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
	fs.StringVar(&cfg.GeminiModel, 0, "gemini-model", scanning.DefaultGeminiModel, "Google Gemini model name")
	fs.StringVar(&cfg.VertexProject, 0, "vertex-project", "", "Google Cloud project for Vertex AI")
	fs.StringVar(&cfg.VertexRegion, 0, "vertex-region", "us-central1", "Google Cloud region for Vertex AI")
	fs.StringVar(&cfg.VertexModel, 0, "vertex-model", scanning.DefaultVertexModel, "Vertex AI model name")
	fs.StringVar(&cfg.OllamaURL, 0, "ollama-url", "http://localhost:11434", "Ollama API base URL")
	fs.StringVar(&cfg.OllamaModel, 0, "ollama-model", "llava", "Ollama model name (e.g., llava, qwen2-vl)")

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("RECEIPT_SCAN"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if cfg.Scanner == "gemini" && cfg.GeminiKey == "" {
		cfg.GeminiKey = os.Getenv("GEMINI_API_KEY")
	}
	if err := cfg.check(); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := newBackend(ctx, cfg)
	if err != nil {
		slog.Error("Failed to initialize scanner", "scanner", cfg.Scanner, "error", err)
		os.Exit(1)
	}
	scanner := scanning.NewClient(backend)
	defer scanner.Close()

	service := receipt.NewService(scanner)

	// Files on the command line are scanned once and printed
	if args := fs.GetArgs(); len(args) > 0 {
		if err := runBatch(ctx, service, args, *htmlOut); err != nil {
			slog.Error("Batch failed", "error", err)
			os.Exit(1)
		}
		return
	}

	server := receipt.NewServer(service, receipt.BasicAuth{
		Username: *authUser,
		Password: *authPass,
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	slog.Info("Server starting", "address", fmt.Sprintf("http://localhost%s", addr), "scanner", cfg.Scanner)
	if *authUser != "" || *authPass != "" {
		slog.Info("Basic auth enabled", "user", *authUser)
	}

	if err := server.Start(ctx, addr); err != nil {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}
	slog.Info("Shutting down...")
}

// newBackend builds the model backend selected by cfg.Scanner
func newBackend(ctx context.Context, cfg config) (scanning.Backend, error) {
	switch cfg.Scanner {
	case "gemini":
		slog.Info("Initializing Gemini scanner...", "model", cfg.GeminiModel)
		return scanning.NewGemini(ctx, cfg.GeminiKey, cfg.GeminiModel)
	case "vertex":
		slog.Info("Initializing Vertex AI scanner...", "project", cfg.VertexProject, "region", cfg.VertexRegion, "model", cfg.VertexModel)
		return scanning.NewVertex(ctx, cfg.VertexProject, cfg.VertexRegion, cfg.VertexModel)
	case "ollama":
		slog.Info("Initializing Ollama scanner...", "url", cfg.OllamaURL, "model", cfg.OllamaModel)
		return scanning.NewOllama(cfg.OllamaURL, cfg.OllamaModel)
	default:
		return nil, fmt.Errorf("invalid scanner type %q: want gemini, vertex or ollama", cfg.Scanner)
	}
}

// runBatch scans paths, waits for every result and copies the completed
// records to stdout, and to htmlPath when set.
func runBatch(ctx context.Context, service *receipt.Service, paths []string, htmlPath string) error {
	files := make([]scanning.File, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("reading %s: %w", p, err)
		}
		name := filepath.Base(p)
		files = append(files, scanning.File{Name: name, ContentType: scanning.ContentTypeFor(name), Data: data})
	}

	service.Submit(files)
	service.Wait()

	var failed int
	for _, e := range service.Entries() {
		if e.Status == receipt.StatusError {
			failed++
			fmt.Fprintf(os.Stderr, "%s: %s\n", e.Filename, e.Error)
		}
	}

	dst := export.WriterClipboard{Plain: os.Stdout}
	if htmlPath != "" {
		f, err := os.Create(htmlPath)
		if err != nil {
			return fmt.Errorf("creating html output: %w", err)
		}
		defer f.Close()
		dst.Styled = f
	}
	if err := export.Copy(ctx, dst, service.Completed()); err != nil {
		return err
	}

	slog.Info("Batch finished", "files", len(files), "failed", failed)
	if failed > 0 {
		return fmt.Errorf("%d of %d files could not be parsed", failed, len(files))
	}
	return nil
}
