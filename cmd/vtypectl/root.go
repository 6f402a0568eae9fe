package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joshuapare/vtypekit/addrspace"
	"github.com/joshuapare/vtypekit/pkg/config"
	"github.com/joshuapare/vtypekit/pkg/logger"
	"github.com/joshuapare/vtypekit/pkg/session"
	"github.com/joshuapare/vtypekit/typetable"
)

var (
	// Global flags
	verbose   bool
	quiet     bool
	jsonOut   bool
	noColor   bool
	tableDirs []string
	tableName string
	bits      int
	baseAddr  string
)

var rootCmd = &cobra.Command{
	Use:   "vtypectl",
	Short: "Decode structures in memory images using vtype type tables",
	Long: `vtypectl reads memory dumps and live processes through type tables:
named bundles of structure layouts, enumerations and metadata. It lists the
available tables and types, dumps structures at an address, and walks
doubly-linked lists.

Settings are read from the nearest vtypekit.toml; flags override them.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().
		StringSliceVar(&tableDirs, "tables", nil, "Type table directories (default from vtypekit.toml)")
	rootCmd.PersistentFlags().StringVarP(&tableName, "table", "t", "", "Type table to use")
	rootCmd.PersistentFlags().IntVar(&bits, "bits", 0, "Word size of the target: 32 or 64")
	rootCmd.PersistentFlags().
		StringVar(&baseAddr, "base", "0", "Address of the first byte of a dump file")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// Helper functions for output

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...any) {
	if !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...any) {
	if verbose && !quiet {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// workspace is the configuration, catalog and logger a command runs with.
type workspace struct {
	cfg     *config.Config
	catalog *typetable.Catalog
	log     *slog.Logger
	close   func() error
}

// loadWorkspace reads vtypekit.toml from the current directory or a parent
// and applies the global flags on top of it.
func loadWorkspace() (*workspace, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	cfg, err := config.FindAndLoad(cwd)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = config.Default()
		cfg.Dir = cwd
	}
	if len(tableDirs) > 0 {
		cfg.Tables.Dirs = tableDirs
	}
	if tableName != "" {
		cfg.Tables.Default = tableName
	}
	if bits != 0 {
		cfg.Profile.Bits = bits
	}

	lopts := cfg.LoggerOptions()
	if verbose {
		lopts = logger.Options{Enabled: true, Writer: os.Stderr, Level: slog.LevelDebug}
	}
	log, closeLog, err := logger.New(lopts)
	if err != nil {
		return nil, fmt.Errorf("failed to open log: %w", err)
	}

	cat := typetable.NewCatalog()
	for _, dir := range cfg.TableDirPaths() {
		if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
			log.Debug("skipping missing table directory", "dir", dir)
			continue
		}
		if err := cat.LoadDir(dir); err != nil {
			closeLog()
			return nil, err
		}
		printVerbose("Loaded tables from %s\n", dir)
	}
	return &workspace{cfg: cfg, catalog: cat, log: log, close: closeLog}, nil
}

// open binds the selected table to the memory source named by src.
func (w *workspace) open(src string) (*session.Session, error) {
	if w.cfg.Tables.Default == "" {
		return nil, fmt.Errorf("no type table selected (use --table or tables.default)")
	}
	backend, err := openSource(src)
	if err != nil {
		return nil, err
	}
	s, err := session.ForParams(w.cfg.Profile.Bits, w.cfg.Tables.Default, backend,
		session.WithCatalog(w.catalog),
		session.WithMetadata(w.cfg.ExtraMetadata()),
		session.WithLogger(w.log))
	if err != nil {
		if c, ok := backend.(io.Closer); ok {
			c.Close()
		}
		return nil, err
	}
	return s, nil
}

// openSource opens "pid:<n>" as a live process and anything else as a dump
// file mapped at --base.
func openSource(src string) (addrspace.Backend, error) {
	if rest, ok := strings.CutPrefix(src, "pid:"); ok {
		pid, err := strconv.Atoi(rest)
		if err != nil {
			return nil, fmt.Errorf("invalid pid %q", rest)
		}
		printVerbose("Attaching to process %d\n", pid)
		return addrspace.OpenProcess(pid)
	}
	base, err := parseAddr(baseAddr)
	if err != nil {
		return nil, err
	}
	printVerbose("Mapping %s at 0x%X\n", src, base)
	return addrspace.OpenFile(src, base)
}

// parseAddr accepts Go integer literals. Backtick separators as printed by
// debuggers (0xfffff800`01234567) are ignored.
func parseAddr(s string) (uint64, error) {
	v, err := strconv.ParseUint(strings.ReplaceAll(s, "`", ""), 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q", s)
	}
	return v, nil
}
