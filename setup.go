package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/metcalfc/prr/internal/config"
	"github.com/metcalfc/prr/internal/paper"
	"github.com/metcalfc/prr/internal/reader"
	"github.com/metcalfc/prr/internal/state"
	"go.uber.org/zap"
)

// Version info (injected via ldflags)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// options are the command line flags shared by both pagers.
type options struct {
	configPath  string
	logPath     string
	fresh       bool
	showTOC     bool
	showVersion bool
}

func parseFlags(fs *flag.FlagSet, args []string) (options, error) {
	var o options
	fs.StringVar(&o.configPath, "config", config.DefaultPath(), "Config file (TOML or YAML)")
	fs.StringVar(&o.logPath, "log", "", "Write debug logs to file")
	fs.BoolVar(&o.fresh, "fresh", false, "Ignore saved reading position")
	fs.BoolVar(&o.showTOC, "toc", false, "Show table of contents at startup")
	fs.BoolVar(&o.showVersion, "v", false, "Show version information")
	fs.BoolVar(&o.showVersion, "version", false, "Show version information")
	err := fs.Parse(args)
	return o, err
}

// newLogger returns a development logger writing to path, or a no-op
// logger when path is empty. The terminal belongs to the pager.
func newLogger(path string) (*zap.Logger, error) {
	if path == "" {
		return zap.NewNop(), nil
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{path}
	cfg.ErrorOutputPaths = []string{path}
	return cfg.Build()
}

// session is a reading session with its saved position.
type session struct {
	*reader.Reader
	store *state.Store
	hash  string
	log   *zap.Logger
}

func layoutFor(cfg config.Config) paper.CellLayout {
	return paper.CellLayout{
		Indent:         cfg.Indent,
		TitleGap:       cfg.TitleGap,
		EastAsianWidth: cfg.EastAsianWidth,
	}
}

// openSession opens filename with cfg. store may be nil to disable saving.
func openSession(filename string, cfg config.Config, store *state.Store, log *zap.Logger) (*session, error) {
	if err := reader.AddHeadings(cfg.Headings...); err != nil {
		return nil, err
	}
	r, err := reader.Open(filename, reader.WithLayout(layoutFor(cfg)), reader.WithLogger(log))
	if err != nil {
		return nil, err
	}

	s := &session{Reader: r, log: log}
	if store != nil {
		hash, err := state.ComputeHash(filename)
		if err != nil {
			log.Warn("reading position disabled", zap.String("path", filename), zap.Error(err))
		} else {
			s.store = store
			s.hash = hash
		}
	}
	return s, nil
}

// start returns the location to open the book at.
func (s *session) start(fresh bool) int {
	if fresh || s.store == nil {
		return 0
	}
	if loc := s.store.Location(s.hash); loc > 0 && loc < s.Book.Size {
		return loc
	}
	return 0
}

func (s *session) save() {
	if s.store == nil {
		return
	}
	if err := s.store.Set(s.hash, s.Position(), s.CurrentChapterTitle()); err != nil {
		s.log.Warn("failed to save reading position", zap.Error(err))
	}
}

func (s *session) forget() {
	if s.store == nil {
		return
	}
	if err := s.store.Clear(s.hash); err != nil {
		s.log.Warn("failed to clear reading position", zap.Error(err))
	}
}

// spoolStdin copies piped input to a temporary file so it can be paged
// like any book. The caller removes the file.
func spoolStdin(r io.Reader) (string, error) {
	f, err := os.CreateTemp("", "prr-*.txt")
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return f.Name(), nil
}

// setup resolves the book, config, logger and position store from the
// command line, exiting on errors the way a CLI should.
func setup(name string, o options, args []string) (*session, func()) {
	if o.showVersion {
		fmt.Printf("%s %s (commit: %s, built: %s)\n", name, version, commit, date)
		os.Exit(0)
	}

	cfg, err := config.Load(o.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if o.logPath == "" {
		o.logPath = cfg.LogFile
	}
	log, err := newLogger(o.logPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to open log '%s': %v\n", o.logPath, err)
		os.Exit(1)
	}

	cleanup := func() { log.Sync() }

	var filename string
	if len(args) > 0 {
		filename = args[0]
	} else {
		stat, _ := os.Stdin.Stat()
		if (stat.Mode() & os.ModeCharDevice) != 0 {
			fmt.Fprintln(os.Stderr, "Error: No input provided. Provide a file or pipe text to stdin.")
			fmt.Fprintf(os.Stderr, "Try: %s -h\n", name)
			os.Exit(1)
		}
		filename, err = spoolStdin(os.Stdin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		cleanup = func() {
			os.Remove(filename)
			log.Sync()
		}
	}

	var store *state.Store
	if len(args) > 0 {
		if store, err = state.NewStore(); err != nil {
			log.Warn("reading position disabled", zap.Error(err))
			store = nil
		}
	}

	s, err := openSession(filename, cfg, store, log)
	if err != nil {
		cleanup()
		fmt.Fprintf(os.Stderr, "Error: Failed to read file '%s': %v\n", filename, err)
		os.Exit(1)
	}
	if s.Book.Size == 0 {
		cleanup()
		fmt.Fprintln(os.Stderr, "Error: No text to read.")
		os.Exit(1)
	}
	return s, cleanup
}
