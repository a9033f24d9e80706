package main

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
	"github.com/subosito/gotenv"

	"github.com/zombor/kakeibo/internal/receipt"
	"github.com/zombor/kakeibo/internal/scanning"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

type scannerConfig struct {
	kind         string
	ocrSpaceKey  string
	ocrSpaceURL  string
	ocrSpaceLang string
	geminiKey    string
	geminiModel  string
	openAIKey    string
	openAIURL    string
	openAIModel  string
	ollamaURL    string
	ollamaModel  string
}

// firstNonEmpty prefers the flag value and falls back to the provider's
// conventional environment variable
func firstNonEmpty(flag, env string) string {
	if flag != "" {
		return flag
	}
	return os.Getenv(env)
}

func newScanner(ctx context.Context, cfg scannerConfig) (scanning.Scanner, error) {
	switch cfg.kind {
	case "ocrspace":
		key := firstNonEmpty(cfg.ocrSpaceKey, "OCRSPACE_API_KEY")
		if key == "" {
			return nil, errors.New("OCR.space API key is required. Set --ocrspace-key or OCRSPACE_API_KEY")
		}
		slog.Info("Initializing OCR.space scanner...", "language", cfg.ocrSpaceLang)
		return scanning.NewOCRSpace(key, cfg.ocrSpaceURL, cfg.ocrSpaceLang)
	case "gemini":
		key := firstNonEmpty(cfg.geminiKey, "GEMINI_API_KEY")
		if key == "" {
			return nil, errors.New("Gemini API key is required. Set --gemini-key or GEMINI_API_KEY")
		}
		slog.Info("Initializing Gemini scanner...", "model", cfg.geminiModel)
		return scanning.NewGemini(ctx, key, cfg.geminiModel)
	case "openai":
		key := firstNonEmpty(cfg.openAIKey, "OPENAI_API_KEY")
		if key == "" {
			return nil, errors.New("OpenAI API key is required. Set --openai-key or OPENAI_API_KEY")
		}
		slog.Info("Initializing OpenAI scanner...", "model", cfg.openAIModel)
		return scanning.NewOpenAI(key, cfg.openAIURL, cfg.openAIModel)
	case "ollama":
		slog.Info("Initializing Ollama scanner...", "url", cfg.ollamaURL, "model", cfg.ollamaModel)
		return scanning.NewOllama(cfg.ollamaURL, cfg.ollamaModel)
	}
	return nil, fmt.Errorf("invalid scanner type %q: want ocrspace, gemini, openai or ollama", cfg.kind)
}

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	// An optional .env file seeds the environment; real variables win.
	if err := gotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "error: loading .env: %v\n", err)
		os.Exit(1)
	}

	flags := ff.NewFlagSet("kakeibo")
	var (
		cfg         scannerConfig
		port        = flags.IntLong("port", 8080, "HTTP server port")
		dbPath      = flags.StringLong("db", "kakeibo.db", "Database file path")
		storagePath = flags.StringLong("storage", "./receipts", "Receipt photo directory")
		authUser    = flags.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass    = flags.StringLong("auth-pass", "", "Basic auth password (optional)")
		logLevel    = flags.StringLong("log-level", "info", "Log level: debug, info, warn or error")
		_           = flags.BoolLong("version", "Show version information")
	)
	flags.StringVar(&cfg.kind, 0, "scanner", "ocrspace", "OCR provider: ocrspace, gemini, openai or ollama")
	flags.StringVar(&cfg.ocrSpaceKey, 0, "ocrspace-key", "", "OCR.space API key (or OCRSPACE_API_KEY)")
	flags.StringVar(&cfg.ocrSpaceURL, 0, "ocrspace-url", "", "OCR.space endpoint (default https://api.ocr.space/parse/image)")
	flags.StringVar(&cfg.ocrSpaceLang, 0, "ocrspace-language", "jpn", "OCR.space recognition language")
	flags.StringVar(&cfg.geminiKey, 0, "gemini-key", "", "Google Gemini API key (or GEMINI_API_KEY)")
	flags.StringVar(&cfg.geminiModel, 0, "gemini-model", "gemini-2.5-flash", "Google Gemini model name")
	flags.StringVar(&cfg.openAIKey, 0, "openai-key", "", "OpenAI API key (or OPENAI_API_KEY)")
	flags.StringVar(&cfg.openAIURL, 0, "openai-url", "", "OpenAI-compatible base URL (optional)")
	flags.StringVar(&cfg.openAIModel, 0, "openai-model", "gpt-4o-mini", "OpenAI vision model name")
	flags.StringVar(&cfg.ollamaURL, 0, "ollama-url", "http://localhost:11434", "Ollama API base URL")
	flags.StringVar(&cfg.ollamaModel, 0, "ollama-model", "qwen2.5vl", "Ollama vision model name")

	if err := ff.Parse(flags, os.Args[1:],
		ff.WithEnvVarPrefix("KAKEIBO"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(flags))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	var level slog.LevelVar
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		fmt.Fprintf(os.Stderr, "error: --log-level: %v\n", err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: &level})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("Initializing database...", "path", *dbPath)
	db, err := receipt.NewBoltDB(*dbPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	scanner, err := newScanner(ctx, cfg)
	if err != nil {
		slog.Error("Failed to initialize scanner", "scanner", cfg.kind, "error", err)
		os.Exit(1)
	}
	defer scanner.Close()

	slog.Info("Initializing storage...", "path", *storagePath)
	store, err := receipt.NewLocalStorage(*storagePath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}

	server := receipt.NewServer(receipt.NewService(db, scanner, store), receipt.BasicAuth{
		Username: *authUser,
		Password: *authPass,
	})

	addr := fmt.Sprintf(":%d", *port)
	go func() {
		if err := server.Start(addr); err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr), "version", version)
	if *authUser != "" || *authPass != "" {
		slog.Info("Basic auth enabled", "user", *authUser)
	}

	<-ctx.Done()
	slog.Info("Shutting down...")
}
