package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jschaf/sqlnullify"
	"github.com/jschaf/sqlnullify/internal/flags"
	"github.com/peterbourgon/ff/v3/ffcli"
	"go.uber.org/zap/zapcore"
)

const flagHelp = `
sqlnullify infers output-column nullability, input-parameter nullability,
and row-count cardinality for SQL query files, without executing the
queries, and emits type-safe Go wrappers around the result.
`

func run() error {
	checkCmd := newCheckCmd()
	rootFlagSet := flag.NewFlagSet("root", flag.ExitOnError)
	rootCmd := &ffcli.Command{
		ShortUsage:  "sqlnullify <subcommand> [options...]",
		LongHelp:    flagHelp[1 : len(flagHelp)-1],
		FlagSet:     rootFlagSet,
		Subcommands: []*ffcli.Command{checkCmd},
	}
	rootCmd.Exec = func(ctx context.Context, args []string) error {
		fmt.Println(ffcli.DefaultUsageFunc(rootCmd))
		os.Exit(1)
		return nil
	}
	return rootCmd.ParseAndRun(context.Background(), os.Args[1:])
}

func newCheckCmd() *ffcli.Command {
	fset := flag.NewFlagSet("check", flag.ExitOnError)
	outputDir := fset.String("output-dir", "", "where to write generated Go files; defaults to the query dir")
	goPackage := fset.String("go-package", "", "package name for generated files; defaults to the output dir's base name")
	connString := fset.String("conn-string", "", "existing Postgres connection string; if empty, a throwaway Docker Postgres is started")
	pattern := fset.String("pattern", "", "doublestar glob pattern for query files, relative to each --query-dir; defaults to **/*.sql")
	queryDirs := flags.Strings(fset, "query-dir", nil, "directory to search for *.sql query files (repeatable)")
	schemaFiles := flags.Strings(fset, "schema-file", nil, "schema init script to load before inferring (repeatable)")
	verbose := fset.Bool("verbose", false, "log at debug level")

	return &ffcli.Command{
		Name:       "check",
		ShortUsage: "sqlnullify check [options...]",
		ShortHelp:  "infers nullability for query files and emits Go wrappers",
		FlagSet:    fset,
		Exec: func(ctx context.Context, args []string) error {
			if len(*queryDirs) == 0 {
				return fmt.Errorf("sqlnullify check: at least one --query-dir must be specified")
			}
			dirs := make([]string, len(*queryDirs))
			for i, d := range *queryDirs {
				abs, err := filepath.Abs(d)
				if err != nil {
					return fmt.Errorf("absolute path for %s: %w", d, err)
				}
				dirs[i] = abs
			}
			outDir := *outputDir
			if outDir == "" {
				outDir = dirs[0]
			}
			level := zapcore.InfoLevel
			if *verbose {
				level = zapcore.DebugLevel
			}
			opts := sqlnullify.Options{
				ConnString:  *connString,
				SchemaFiles: *schemaFiles,
				QueryDirs:   dirs,
				Pattern:     *pattern,
				OutputDir:   outDir,
				GoPackage:   *goPackage,
				LogLevel:    level,
			}
			fmt.Printf("check: query_dirs=%s out_dir=%s\n", strings.Join(dirs, ","), outDir)
			return sqlnullify.Run(opts)
		},
	}
}

func main() {
	if err := run(); err != nil {
		fmt.Printf("ERROR: %s\n", err.Error())
		os.Exit(1)
	}
}
