package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"ajochain/integrations/audit"
	"ajochain/integrations/exports"
)

func runAuditCommand(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] != "export" {
		fmt.Fprintln(stderr, "Usage: ajo-cli audit export --dsn DSN [--driver sqlite|postgres] [--format csv|jsonl] [--plan ID] [--type TYPE] [--out FILE]")
		return 1
	}
	fs := newFlagSet("audit export", stderr)
	driver := fs.String("driver", audit.DriverSQLite, "audit database driver")
	dsn := fs.String("dsn", "", "audit database DSN")
	format := fs.String("format", "jsonl", "csv or jsonl")
	planID := fs.Uint64("plan", 0, "only events of this plan")
	eventType := fs.String("type", "", "only events of this type")
	after := fs.Uint64("after", 0, "only events after this sequence")
	limit := fs.Int("limit", 1000, "maximum records")
	out := fs.String("out", "", "write to file instead of stdout")
	if err := fs.Parse(args[1:]); err != nil {
		return 1
	}
	if strings.TrimSpace(*dsn) == "" {
		return printError(stderr, "--dsn is required")
	}

	db, err := audit.Open(*driver, *dsn)
	if err != nil {
		return printError(stderr, err.Error())
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	indexer, err := audit.NewIndexer(db, nil)
	if err != nil {
		return printError(stderr, err.Error())
	}
	filter := audit.Filter{Type: *eventType, AfterSequence: *after, Limit: *limit}
	if *planID > 0 {
		filter.PlanID = planID
	}
	records, err := indexer.Records(context.Background(), filter)
	if err != nil {
		return printError(stderr, err.Error())
	}

	var (
		data     []byte
		checksum string
	)
	switch strings.ToLower(*format) {
	case "csv":
		data, checksum, err = exports.EventsCSV(records)
	case "jsonl":
		data, checksum, err = exports.EventsJSONL(records)
	default:
		return printError(stderr, "--format must be csv or jsonl")
	}
	if err != nil {
		return printError(stderr, err.Error())
	}
	if strings.TrimSpace(*out) == "" {
		_, _ = stdout.Write(data)
		fmt.Fprintf(stderr, "sha256 %s (%d records)\n", checksum, len(records))
		return 0
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		return printError(stderr, err.Error())
	}
	fmt.Fprintf(stdout, "wrote %d records to %s (sha256 %s)\n", len(records), *out, checksum)
	return 0
}
