// Command fintrack-export writes the transactions of one identity, or of the
// remembered identity, to a CSV or XLSX file.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"fintrack/internal/backend"
	"fintrack/internal/cli"
	"fintrack/internal/export"
	"fintrack/internal/identity"
	"fintrack/internal/log"
	"fintrack/internal/report"
	"fintrack/internal/services"
)

func main() {
	var (
		user     = flag.String("user", "", "identity to log in as; empty uses the remembered identity or guest")
		password = flag.String("password", "", "password for -user (default $FINTRACK_PASSWORD)")
		format   = flag.String("format", "csv", "export format: csv or xlsx")
		month    = flag.String("month", "", "only export transactions of this month (YYYY-MM)")
		out      = flag.String("out", "", "output file; '-' writes to stdout (default expenses_<date>.<format>)")
	)
	flag.Parse()

	cli.LoadEnvFile()
	logCfg := log.DefaultConfig()
	logCfg.Level = log.ParseLevel(os.Getenv("LOG_LEVEL"))
	logCfg.Component = log.ComponentExport
	logCfg.Output = os.Stderr // stdout may carry the export
	logger := log.New(logCfg)
	log.SetDefault(logger)
	cfg := cli.LoadAndValidateConfig(logger)

	write, ext, err := writerFor(*format)
	if err != nil {
		logger.Error("Invalid format", log.FieldError, err)
		os.Exit(2)
	}

	ctx := context.Background()
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	// Events are not published for a read-only export.
	backendCfg.AMQPURL = ""
	res, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err)
		os.Exit(1)
	}

	code := run(ctx, logger, res, *user, passwordOrEnv(*password), *month, *out, write, ext)
	if res.Cleanup != nil {
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", log.FieldError, err)
		}
	}
	os.Exit(code)
}

func run(ctx context.Context, logger *log.Logger, res *backend.BackendResult,
	user, password, month, out string, write export.Writer, ext string) int {
	registry, err := identity.OpenRegistry(ctx, res.Store)
	if err != nil {
		logger.Error("Failed to load identity registry", log.FieldError, err)
		return 1
	}
	sess, err := services.NewSession(ctx, "export", res.Store, registry, services.WithPersistedIdentity())
	if err != nil {
		logger.Error("Failed to open session", log.FieldError, err)
		return 1
	}
	if user != "" {
		if err := sess.Login(ctx, user, password); err != nil {
			logger.Error("Login failed", log.FieldError, err, "user", user)
			return 1
		}
	}

	txs := sess.Scope().Ledger.List()
	if month != "" {
		m, err := time.Parse("2006-01", month)
		if err != nil {
			logger.Error("Invalid month, expected YYYY-MM", log.FieldError, err, "month", month)
			return 2
		}
		txs = report.InMonth(txs, m.Year(), m.Month())
	}

	if out == "" {
		out = export.FileName(time.Now(), ext)
	}
	if err := writeTo(out, func(w io.Writer) error { return write(w, txs) }); err != nil {
		logger.Error("Export failed", log.FieldError, err, "out", out)
		return 1
	}

	logger.Info("Export complete",
		log.FieldOperation, log.OpExport,
		log.FieldScope, sess.Scope().Name,
		"count", len(txs),
		"out", out)
	return 0
}

func writerFor(format string) (export.Writer, string, error) {
	switch format {
	case "csv":
		return export.WriteCSV, "csv", nil
	case "xlsx":
		return export.WriteXLSX, "xlsx", nil
	default:
		return nil, "", fmt.Errorf("unknown format %q: must be csv or xlsx", format)
	}
}

func passwordOrEnv(p string) string {
	if p != "" {
		return p
	}
	return os.Getenv("FINTRACK_PASSWORD")
}

func writeTo(path string, fn func(io.Writer) error) error {
	if path == "-" {
		return fn(os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
