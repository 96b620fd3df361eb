// Package sqlnullify wires together query-file discovery, SQL parsing,
// live-Postgres probing, nullability/row-count inference, and Go code
// emission into the single Run entry point cmd/sqlnullify calls.
//
// The overall shape is a zap logger built from a requested level, a
// Postgres connection either supplied by the caller or spun up in a
// throwaway pgdocker container, and errs.Capture-based cleanup of that
// connection, with PREPARE/DESCRIBE + AST-driven inference in the middle
// of the pipeline instead of EXPLAIN-plan analysis.
package sqlnullify

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jschaf/sqlnullify/internal/driverprobe"
	"github.com/jschaf/sqlnullify/internal/emitgo"
	"github.com/jschaf/sqlnullify/internal/errs"
	"github.com/jschaf/sqlnullify/internal/infer"
	"github.com/jschaf/sqlnullify/internal/pgdocker"
	"github.com/jschaf/sqlnullify/internal/pgschema"
	"github.com/jschaf/sqlnullify/internal/queryfile"
	"github.com/jschaf/sqlnullify/internal/sqlparse"
	"github.com/jschaf/sqlnullify/internal/sqlwalk"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options controls one Run invocation.
type Options struct {
	// ConnString to a running Postgres instance; must be parseable by
	// pgconn.ParseConfig. If empty, Run starts a throwaway pgdocker
	// container and loads SchemaFiles into it.
	ConnString string
	// SchemaFiles are *.sql/*.sql.gz/*.sh init scripts loaded into the
	// throwaway container. If ConnString is set, only *.sql files are
	// accepted, and each is executed on that connection.
	SchemaFiles []string
	// QueryDirs are roots to search for query files.
	QueryDirs []string
	// Pattern overrides sqlwalk's default `**/*.sql` glob.
	Pattern string
	// OutputDir is where generated Go files are written; one per input
	// query file, alongside the same base name with a `.go` suffix.
	OutputDir string
	// GoPackage names the generated files' package; defaults to
	// filepath.Base(OutputDir) if empty.
	GoPackage string
	// LogLevel controls the zap logger Run builds internally.
	LogLevel zapcore.Level
}

// Run discovers query files under opts.QueryDirs, infers nullability and
// row-count information for every statement against a live Postgres
// connection, and emits one Go source file per query file into
// opts.OutputDir.
func Run(opts Options) (mErr error) {
	if len(opts.QueryDirs) == 0 {
		return fmt.Errorf("sqlnullify: at least one query dir must be set")
	}
	if opts.OutputDir == "" {
		return fmt.Errorf("sqlnullify: output dir must be set")
	}

	logCfg := zap.NewDevelopmentConfig()
	logCfg.Level = zap.NewAtomicLevelAt(opts.LogLevel)
	logger, err := logCfg.Build()
	if err != nil {
		return fmt.Errorf("create zap logger: %w", err)
	}
	defer logger.Sync() // nolint
	l := logger.Sugar()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pgConn, errEnricher, cleanup, err := connectPostgres(ctx, opts, l)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer errs.Capture(&mErr, cleanup, "close postgres connection")

	files, err := sqlwalk.FindAll(opts.QueryDirs, opts.Pattern)
	if err != nil {
		return errEnricher(fmt.Errorf("find query files: %w", err))
	}
	if len(files) == 0 {
		return fmt.Errorf("sqlnullify: found 0 query files under %v", opts.QueryDirs)
	}

	schema := pgschema.NewLiveClient(pgConn)
	parser := sqlparse.New()
	prober := driverprobe.NewProber(pgConn, nil)

	pkgName := opts.GoPackage
	if pkgName == "" {
		pkgName = filepath.Base(opts.OutputDir)
	}

	for _, path := range files {
		if err := processFile(ctx, path, opts.OutputDir, pkgName, schema, parser, prober, l); err != nil {
			return errEnricher(fmt.Errorf("process query file %s: %w", path, err))
		}
	}
	return nil
}

func processFile(
	ctx context.Context,
	path, outputDir, pkgName string,
	schema pgschema.SchemaClient,
	parser *sqlparse.Parser,
	prober *driverprobe.Prober,
	l *zap.SugaredLogger,
) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read query file: %w", err)
	}
	qf, err := queryfile.Parse(path, src)
	if err != nil {
		return fmt.Errorf("parse query file: %w", err)
	}

	results := make([]emitgo.QueryResult, 0, len(qf.Queries))
	for _, q := range qf.Queries {
		raw, err := prober.Probe(ctx, q.Name, q.SQL)
		if err != nil {
			return fmt.Errorf("probe query %s: %w", q.Name, err)
		}
		enriched, err := infer.Infer(schema, parser, raw, q.SQL, l)
		if err != nil {
			return fmt.Errorf("infer query %s: %w", q.Name, err)
		}
		results = append(results, emitgo.QueryResult{Query: q, Desc: enriched})
	}

	outPath := filepath.Join(outputDir, filepath.Base(path)+".go")
	return writeGoFile(outPath, pkgName, results)
}

func writeGoFile(outPath, pkgName string, results []emitgo.QueryResult) (mErr error) {
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer errs.Capture(&mErr, f.Close, "close output file")
	return emitgo.Generate(f, pkgName, results)
}

// connectPostgres connects to opts.ConnString if given, or starts a
// throwaway pgdocker Postgres container and loads opts.SchemaFiles into
// it. Returns the connection, an error enricher that attaches container
// logs to a failure when a container was started, and a cleanup func.
func connectPostgres(
	ctx context.Context,
	opts Options,
	l *zap.SugaredLogger,
) (*pgx.Conn, func(error) error, func() error, error) {
	if opts.ConnString == "" {
		client, err := pgdocker.Start(ctx, opts.SchemaFiles)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("start dockerized postgres: %w", err)
		}
		stop := func() error { return client.Stop(ctx) }
		connStr, err := client.ConnString()
		if err != nil {
			return nil, nil, nil, fmt.Errorf("get dockerized postgres conn string: %w", err)
		}
		pgConn, err := pgx.Connect(ctx, connStr)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connect to sqlnullify dockerized postgres database: %w", err)
		}
		errEnricher := func(e error) error {
			if e == nil {
				return nil
			}
			logs, logErr := client.GetContainerLogs()
			if logErr != nil {
				return multierr.Append(e, logErr)
			}
			return fmt.Errorf("container logs for postgres container:\n\n%s\n\n%w", logs, e)
		}
		return pgConn, errEnricher, stop, nil
	}

	nopCleanup := func() error { return nil }
	nopErrEnricher := func(e error) error { return e }
	pgConn, err := pgx.Connect(ctx, opts.ConnString)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect to sqlnullify postgres database: %w", err)
	}
	for _, script := range opts.SchemaFiles {
		if filepath.Ext(script) != ".sql" {
			return nil, nopErrEnricher, nopCleanup, fmt.Errorf(
				"cannot run non-sql schema file on existing postgres (*.sh and *.sql.gz only supported without --conn-string): %s", script)
		}
		bs, err := os.ReadFile(script)
		if err != nil {
			return nil, nil, nopCleanup, fmt.Errorf("read schema file: %w", err)
		}
		if _, err := pgConn.Exec(ctx, string(bs)); err != nil {
			return nil, nopErrEnricher, nopCleanup, fmt.Errorf("load schema file into postgres: %w", err)
		}
	}
	return pgConn, nopErrEnricher, nopCleanup, nil
}
