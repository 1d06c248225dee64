// Package main provides the CLI entry point for gable.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ukaji3/gable-go/internal/config"
	"github.com/ukaji3/gable-go/internal/logging"
	"github.com/ukaji3/gable-go/pkg/gable"
	"github.com/ukaji3/gable-go/pkg/gable/models"
	"github.com/ukaji3/gable-go/pkg/gable/parser"
	"github.com/ukaji3/gable-go/pkg/gable/protobuf"
	"github.com/ukaji3/gable-go/pkg/gable/sheet"
)

var (
	settingsPath string
	logLevel     string
	logFormat    string
	workspaceDir string

	targetNames []string
	parallelism int

	importShape string
	destDir     string

	schemaShape string
	keyword     string

	cfg *config.Config
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "gable",
		Short: "Export game configuration tables",
		Long: `gable exports typed game-configuration tables (.gable files) to
JSON, CSV, XML, YAML and protobuf, and imports xlsx workbooks into .gable files.`,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
	}

	rootCmd.PersistentFlags().StringVar(&settingsPath, "settings", "", "Settings file (default: $GABLE_SETTINGS or gable.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (default: $LOG_LEVEL)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: text, json (default: $LOG_FORMAT)")
	rootCmd.PersistentFlags().StringVarP(&workspaceDir, "workspace", "w", "", "Workspace directory (default: $GABLE_WORKSPACE or settings)")

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export every table of the workspace for the configured targets",
		Args:  cobra.NoArgs,
		RunE:  runExport,
	}
	exportCmd.Flags().StringSliceVarP(&targetNames, "target", "t", nil, "Targets to build (default: all)")
	exportCmd.Flags().IntVarP(&parallelism, "parallelism", "j", 0, "Concurrent export jobs (default: $GABLE_PARALLELISM)")

	importCmd := &cobra.Command{
		Use:   "import [input.xlsx...]",
		Short: "Import xlsx workbooks into .gable files",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runImport,
	}
	importCmd.Flags().StringVar(&importShape, "shape", "normal", "Table shape: normal, localize, kv, enum")
	importCmd.Flags().StringVarP(&destDir, "dest", "d", "", "Output directory (default: workspace)")

	schemaCmd := &cobra.Command{
		Use:   "schema [table.gable]",
		Short: "Print the field descriptors of a table as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  runSchema,
	}
	schemaCmd.Flags().StringVar(&schemaShape, "shape", "", "Table shape (default: from the parent directory)")
	schemaCmd.Flags().StringVarP(&keyword, "keyword", "k", "", "Keyword selecting the exported fields")

	dumpCmd := &cobra.Command{
		Use:   "dump [table.bin]",
		Short: "Print the contents of a binary table",
		Args:  cobra.ExactArgs(1),
		RunE:  runDump,
	}

	rootCmd.AddCommand(exportCmd, importCmd, schemaCmd, dumpCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func setup(cmd *cobra.Command, args []string) error {
	// a missing .env is fine
	_ = godotenv.Load()

	var err error
	cfg, err = config.Load(settingsPath)
	if err != nil {
		return err
	}
	if err := cfg.ApplyOverrides(logLevel, logFormat, workspaceDir); err != nil {
		return err
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Debug("configuration loaded", "config", cfg.String())
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	ws, err := gable.LoadWorkspace(ctx, cfg.WorkspaceDir())
	if err != nil {
		return fmt.Errorf("load workspace: %w", err)
	}

	var targets []gable.BuildTarget
	if len(targetNames) == 0 {
		if targets, err = cfg.BuildTargets(); err != nil {
			return err
		}
	} else {
		for _, name := range targetNames {
			t, err := cfg.Target(name)
			if err != nil {
				return err
			}
			targets = append(targets, t)
		}
	}

	exporter := &gable.Exporter{Parallelism: cfg.Export.Parallelism}
	if parallelism > 0 {
		exporter.Parallelism = parallelism
	}

	var errs []error
	for _, target := range targets {
		report, err := exporter.Export(ctx, ws, target)
		if err != nil {
			errs = append(errs, fmt.Errorf("target %q: %w", target.DisplayName, err))
			if ctx.Err() != nil {
				break
			}
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d file(s) written\n", target.DisplayName, len(report.Written))
	}
	return errors.Join(errs...)
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	shape := models.ParseShape(importShape)

	dest := destDir
	if dest == "" {
		dest = cfg.WorkspaceDir()
	}

	// enum descriptions resolve against the tables already in the workspace
	var lk *sheet.Lookup
	if ws, err := gable.LoadWorkspace(ctx, cfg.WorkspaceDir()); err == nil {
		lk = ws.Lookup
	}

	for _, path := range args {
		paths, err := gable.Import(ctx, path, shape, dest, lk)
		if err != nil {
			return fmt.Errorf("import %s: %w", path, err)
		}
		for _, p := range paths {
			fmt.Fprintln(cmd.OutOrStdout(), p)
		}
	}
	return nil
}

func runSchema(cmd *cobra.Command, args []string) error {
	path := args[0]

	raw, err := parser.ReadRawTable(path)
	if err != nil {
		return err
	}
	shape := gable.ShapeForPath(filepath.Base(filepath.Dir(path)) + "/")
	if schemaShape != "" {
		shape = models.ParseShape(schemaShape)
	}
	s, err := sheet.New(shape, raw)
	if err != nil {
		return err
	}
	fields, err := s.Fields(keyword)
	if err != nil {
		return fmt.Errorf("%s: %w", s.Link, err)
	}
	if fields == nil {
		fields = []models.FieldInfo{}
	}

	data, err := json.MarshalIndent(fields, "", "  ")
	if err != nil {
		return fmt.Errorf("serialization failed: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

func runDump(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	return protobuf.Dump(cmd.OutOrStdout(), data)
}
