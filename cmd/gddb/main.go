// Package main contains the gddb command-line tool. It uses cobra for CLI
// plumbing the same way smf's own command line does: a root command with
// subcommands, each closing a flags struct over a RunE function that
// returns wrapped errors.
package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/spf13/cobra"

	"gddb/internal/diagnostics"
	"gddb/internal/export"
	introspectmysql "gddb/internal/introspect/mysql"
	"gddb/internal/project"
	"gddb/internal/projectio/sqlschema"
	projecttoml "gddb/internal/projectio/toml"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "gddb",
		Short: "Export a tabular project document to a binary database and manifest",
	}

	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(validateCmd())
	rootCmd.AddCommand(introspectCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type exportFlags struct {
	projectFile         string
	schemaSQLFile       string
	namespace           string
	genDir              string
	binOut              string
	liveOut             string
	writeManifest       bool
	verifyDeterministic bool
}

func exportCmd() *cobra.Command {
	flags := &exportFlags{}
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a TOML project document to a binary database file plus manifest",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runExport(flags)
		},
	}
	cmd.Flags().StringVarP(&flags.projectFile, "project", "p", "", "Path to the TOML project document (required)")
	cmd.Flags().StringVar(&flags.schemaSQLFile, "schema-sql", "", "Path to a SQL DDL file whose CREATE TABLE column layout overlays the TOML project")
	cmd.Flags().StringVar(&flags.namespace, "namespace", "", "Cosmetic namespace recorded in the manifest")
	cmd.Flags().StringVar(&flags.genDir, "generated-output-dir", "", "Directory for generated reader code (passed through, unused by this pipeline)")
	cmd.Flags().StringVarP(&flags.binOut, "output", "o", "", "Binary output path (required)")
	cmd.Flags().StringVar(&flags.liveOut, "live-output", "", "Optional live-reload binary output path")
	cmd.Flags().BoolVar(&flags.writeManifest, "manifest", true, "Write the <output>.manifest.json sidecar")
	cmd.Flags().BoolVar(&flags.verifyDeterministic, "verify-deterministic", false, "Run the pipeline twice in-process and diagnose any byte difference")
	return cmd
}

func runExport(flags *exportFlags) error {
	if flags.projectFile == "" {
		return fmt.Errorf("--project is required")
	}
	if flags.binOut == "" {
		return fmt.Errorf("--output is required")
	}

	proj, err := projecttoml.NewParser().ParseFile(flags.projectFile)
	if err != nil {
		return fmt.Errorf("parsing project: %w", err)
	}
	if err := applySchemaSQL(proj, flags.schemaSQLFile); err != nil {
		return err
	}

	opts := export.Options{
		DefaultNamespace:         flags.namespace,
		GeneratedOutputDirectory: flags.genDir,
		BinaryOutputPath:         flags.binOut,
		LiveBinaryOutputPath:     flags.liveOut,
		WriteManifest:            flags.writeManifest,
	}

	pipeline := export.NewPipeline()
	result := pipeline.Run(proj, opts)
	printDiagnostics(result.Diagnostics)
	if result.HasErrors() {
		return fmt.Errorf("export failed with %d diagnostic(s)", len(result.Diagnostics))
	}

	fmt.Printf("exported %d table(s) to %s\n", len(result.Manifest.Tables), flags.binOut)

	if flags.verifyDeterministic {
		return verifyDeterministic(proj, opts)
	}
	return nil
}

// verifyDeterministic re-runs the pipeline into a throwaway path and
// compares the resulting binary byte-for-byte, operationalizing the
// exporter's determinism property as a user-facing safeguard.
func verifyDeterministic(proj *project.Project, opts export.Options) error {
	tmp := opts.BinaryOutputPath + ".verify.tmp"
	defer os.Remove(tmp)
	defer os.Remove(tmp + ".manifest.json")

	verifyOpts := opts
	verifyOpts.BinaryOutputPath = tmp
	verifyOpts.LiveBinaryOutputPath = ""
	verifyOpts.WriteManifest = false

	second := export.NewPipeline().Run(proj, verifyOpts)
	if second.HasErrors() {
		return fmt.Errorf("deterministic re-export produced diagnostics: %v", second.Diagnostics)
	}

	first, err := os.ReadFile(opts.BinaryOutputPath)
	if err != nil {
		return fmt.Errorf("re-reading first export: %w", err)
	}
	if !bytes.Equal(first, second.Binary) {
		return fmt.Errorf("export/determinism: re-running the pipeline produced a different binary")
	}
	fmt.Println("deterministic: two consecutive exports produced byte-identical output")
	return nil
}

// applySchemaSQL reads and parses schemaSQLFile, if given, and overlays its
// CREATE TABLE column layout onto proj via sqlschema.MergeSchema, letting a
// project author keep column shape in SQL DDL while rows and export
// configuration stay in the TOML document.
func applySchemaSQL(proj *project.Project, schemaSQLFile string) error {
	if schemaSQLFile == "" {
		return nil
	}
	raw, err := os.ReadFile(schemaSQLFile)
	if err != nil {
		return fmt.Errorf("reading schema SQL: %w", err)
	}
	tables, err := sqlschema.NewParser().Parse(string(raw))
	if err != nil {
		return fmt.Errorf("parsing schema SQL: %w", err)
	}
	sqlschema.MergeSchema(proj, tables)
	return nil
}

type validateFlags struct {
	projectFile   string
	schemaSQLFile string
}

func validateCmd() *cobra.Command {
	flags := &validateFlags{}
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a TOML project document without writing any output",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runValidate(flags)
		},
	}
	cmd.Flags().StringVarP(&flags.projectFile, "project", "p", "", "Path to the TOML project document (required)")
	cmd.Flags().StringVar(&flags.schemaSQLFile, "schema-sql", "", "Path to a SQL DDL file whose CREATE TABLE column layout overlays the TOML project")
	return cmd
}

func runValidate(flags *validateFlags) error {
	if flags.projectFile == "" {
		return fmt.Errorf("--project is required")
	}
	proj, err := projecttoml.NewParser().ParseFile(flags.projectFile)
	if err != nil {
		return fmt.Errorf("parsing project: %w", err)
	}
	if err := applySchemaSQL(proj, flags.schemaSQLFile); err != nil {
		return err
	}

	diags := export.NewPipeline().Validate(proj)
	printDiagnostics(diags)
	for _, d := range diags {
		if d.Severity == diagnostics.SeverityError {
			return fmt.Errorf("validation failed with %d diagnostic(s)", len(diags))
		}
	}
	fmt.Println("project is valid")
	return nil
}

type introspectFlags struct {
	dsn     string
	out     string
	timeout int
}

func introspectCmd() *cobra.Command {
	flags := &introspectFlags{}
	cmd := &cobra.Command{
		Use:   "introspect",
		Short: "Build a TOML project document from a live MySQL database's schema",
		Long: `Connects to a MySQL, MariaDB, or TiDB database and reads its information_schema
to build a gddb project document, written out as TOML so it can be hand-edited
(to add select/relation/subtable columns information_schema can't express) and
re-exported.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runIntrospect(flags)
		},
	}
	cmd.Flags().StringVar(&flags.dsn, "dsn", "", "Database connection string (required)")
	cmd.Flags().StringVarP(&flags.out, "output", "o", "", "Output TOML path (required)")
	cmd.Flags().IntVar(&flags.timeout, "timeout", 30, "Connection timeout in seconds")
	return cmd
}

func runIntrospect(flags *introspectFlags) error {
	if flags.dsn == "" {
		return fmt.Errorf("--dsn is required")
	}
	if flags.out == "" {
		return fmt.Errorf("--output is required")
	}

	db, err := sql.Open("mysql", flags.dsn)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(flags.timeout)*time.Second)
	defer cancel()

	proj, err := introspectmysql.NewIntrospecter(db).Introspect(ctx)
	if err != nil {
		return fmt.Errorf("introspecting database: %w", err)
	}

	if err := projecttoml.EncodeFile(proj, flags.out); err != nil {
		return fmt.Errorf("writing project document: %w", err)
	}

	fmt.Printf("introspected %d table(s) to %s\n", len(proj.Tables), flags.out)
	return nil
}

func printDiagnostics(diags []diagnostics.Diagnostic) {
	for _, d := range diags {
		fmt.Fprintln(os.Stderr, d.String())
	}
}
