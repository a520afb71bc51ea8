// Package main is the entry point for the lineview demo host.
//
// lineview renders a text file through the virtualized renderer, either
// interactively in the terminal or once into a PNG image.
package main

import (
	"flag"
	"fmt"
	"os"
	"slices"

	"go.uber.org/zap"

	"github.com/dshills/lineview/internal/config"
	"github.com/dshills/lineview/internal/logging"
	"github.com/dshills/lineview/internal/renderer/buffer"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

type options struct {
	ConfigPath string
	LogLevel   string
	PNGPath    string
	Width      int
	Height     int
	Watch      bool
	File       string
}

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	log, err := newLogger(cfg, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to create logger: %v\n", err)
		return 1
	}
	defer func() { _ = log.Sync() }()

	buf, err := readBuffer(opts.File)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	log.Debug("buffer loaded", zap.String("file", opts.File), zap.Int("lines", buf.LineCount()))

	if opts.PNGPath != "" {
		err = renderImage(cfg, log, buf, opts)
	} else {
		err = runTerminal(cfg, log, buf, opts)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func parseFlags() options {
	var opts options
	var showVersion bool

	flag.StringVar(&opts.ConfigPath, "config", "", "Path to configuration file")
	flag.StringVar(&opts.ConfigPath, "c", "", "Path to configuration file (shorthand)")
	flag.StringVar(&opts.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.StringVar(&opts.PNGPath, "png", "", "Render once into this PNG file instead of the terminal")
	flag.IntVar(&opts.Width, "width", 800, "Image width in pixels (with -png)")
	flag.IntVar(&opts.Height, "height", 600, "Image height in pixels (with -png)")
	flag.BoolVar(&opts.Watch, "watch", true, "Reload styles when the configuration file changes")
	flag.BoolVar(&showVersion, "version", false, "Show version information")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "lineview - virtualized text viewer\n\n")
		fmt.Fprintf(os.Stderr, "Usage: lineview [options] file\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nKeys:\n")
		fmt.Fprintf(os.Stderr, "  Up/Down, j/k        Move the current line\n")
		fmt.Fprintf(os.Stderr, "  PgUp/PgDn, Home/End Scroll\n")
		fmt.Fprintf(os.Stderr, "  m                   Toggle a bookmark on the current line\n")
		fmt.Fprintf(os.Stderr, "  z                   Toggle the fold on the current line\n")
		fmt.Fprintf(os.Stderr, "  q, Esc, Ctrl-C      Quit\n")
	}

	flag.Parse()

	if showVersion {
		fmt.Printf("lineview %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	if opts.LogLevel != "" && !logging.ValidLevel(opts.LogLevel) {
		fmt.Fprintf(os.Stderr, "Error: invalid log level %q (must be debug, info, warn, or error)\n", opts.LogLevel)
		os.Exit(1)
	}

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	opts.File = flag.Arg(0)
	return opts
}

func loadConfig(opts options) (config.Config, error) {
	cfg := config.Default()
	if opts.ConfigPath != "" {
		var err error
		if cfg, err = config.Load(opts.ConfigPath); err != nil {
			return config.Config{}, err
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return config.Config{}, err
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}
	return cfg, nil
}

// newLogger builds the logger. Terminal mode drops stderr output, which
// would draw over the screen.
func newLogger(cfg config.Config, opts options) (*zap.Logger, error) {
	lc := cfg.LoggingConfig()
	if opts.PNGPath == "" {
		lc.OutputPaths = slices.DeleteFunc(lc.OutputPaths, func(p string) bool {
			return p == "stderr" || p == "stdout"
		})
		if len(lc.OutputPaths) == 0 {
			return logging.Nop(), nil
		}
	}
	return logging.New(lc)
}

func readBuffer(path string) (*buffer.Lines, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return buffer.Read(f)
}
