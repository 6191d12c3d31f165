// Command mission-check validates a mission record file against the curation
// schema and reference tables, printing graded diagnostics and optionally the
// repaired record.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"oceancurate/internal/core"
	"oceancurate/internal/infra/persistence/memory"
	"oceancurate/internal/refdata"
	"oceancurate/internal/validate"
	"oceancurate/pkg/domain"
)

var exitFunc = os.Exit

var severityLabels = map[domain.Severity]string{
	domain.SeverityInfo:         "INFO",
	domain.SeverityCorrected:    "CORRECTED",
	domain.SeverityUnverifiable: "UNVERIFIABLE",
	domain.SeverityFatal:        "FATAL",
}

func main() {
	exitFunc(cli(os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	missionPath  string
	contextName  string
	refdataSrc   string
	outPath      string
	minSeverity  int
	addNames     bool
	ignoreErrors bool
}

func cli(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("mission-check", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var opts options
	fs.StringVar(&opts.missionPath, "mission", "", "path to the mission record JSON")
	fs.StringVar(&opts.contextName, "context", "import", "validation context: import or export")
	fs.StringVar(&opts.refdataSrc, "refdata", "", "reference source: sqlite snapshot path or http(s) base URL")
	fs.StringVar(&opts.outPath, "out", "", "write the repaired record JSON to this path")
	fs.IntVar(&opts.minSeverity, "min-severity", 1, "lowest severity to print (1=info 2=corrected 3=unverifiable 4=fatal)")
	fs.BoolVar(&opts.addNames, "add-names", false, "overwrite name fields from the reference tables")
	fs.BoolVar(&opts.ignoreErrors, "ignore-errors", false, "emit the repaired record even when fatal defects remain")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if opts.missionPath == "" {
		fmt.Fprintln(stderr, "mission-check: -mission is required")
		fs.Usage()
		return 2
	}
	if opts.refdataSrc == "" {
		opts.refdataSrc = os.Getenv("OCEANCURATE_REFERENCE_DB")
	}

	code, err := run(opts, stdout)
	if err != nil {
		fmt.Fprintf(stderr, "mission-check: %v\n", err)
		return 2
	}
	return code
}

func run(opts options, stdout io.Writer) (int, error) {
	var vctx domain.Context
	switch opts.contextName {
	case "import":
		vctx = domain.ContextImport
	case "export":
		vctx = domain.ContextExport
	default:
		return 2, fmt.Errorf("unknown context %q (want import or export)", opts.contextName)
	}
	if opts.minSeverity < int(domain.SeverityInfo) || opts.minSeverity > int(domain.SeverityFatal) {
		return 2, fmt.Errorf("min-severity %d out of range", opts.minSeverity)
	}

	data, err := os.ReadFile(opts.missionPath)
	if err != nil {
		return 2, fmt.Errorf("read mission: %w", err)
	}
	var mission domain.Mission
	if err := json.Unmarshal(data, &mission); err != nil {
		return 2, fmt.Errorf("decode mission: %w", err)
	}

	refs, props, cleanup, err := openReferences(opts.refdataSrc)
	if err != nil {
		return 2, err
	}
	defer cleanup()

	svc := core.NewService(memory.NewStore(), refs, props)
	out, report, ok := svc.ValidateMission(context.Background(), mission, vctx, validate.Options{
		AddNames:     opts.addNames,
		IgnoreErrors: opts.ignoreErrors,
	})

	for _, d := range report.Filter(domain.Severity(opts.minSeverity)) {
		fmt.Fprintf(stdout, "[%s] %s\n", severityLabels[d.Severity], d.Text)
	}
	fmt.Fprintf(stdout, "%d diagnostics, %d fatal\n",
		len(report.Diagnostics), report.Count(domain.SeverityFatal))

	if opts.outPath != "" && (ok || opts.ignoreErrors) {
		encoded, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return 2, fmt.Errorf("encode repaired record: %w", err)
		}
		if err := os.WriteFile(opts.outPath, append(encoded, '\n'), 0o644); err != nil {
			return 2, fmt.Errorf("write repaired record: %w", err)
		}
	}

	if report.HasFatal() {
		return 1, nil
	}
	return 0, nil
}

// openReferences wires the reference resolver and property type table from
// the -refdata source: an http(s) base URL selects the live service, anything
// else is treated as a sqlite snapshot path, and an empty source disables
// lookups entirely.
func openReferences(src string) (domain.ReferenceResolver, domain.PropertyTypeTable, func(), error) {
	noop := func() {}
	switch {
	case src == "":
		return refdata.NewStaticResolver(), refdata.NewStaticPropertyTypes(), noop, nil
	case strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://"):
		resolver, err := refdata.NewHTTPResolver(src, nil)
		if err != nil {
			return nil, nil, noop, err
		}
		// The live service does not expose property types; the snapshot does.
		return resolver, refdata.NewStaticPropertyTypes(), noop, nil
	default:
		resolver, err := refdata.OpenSQLite(src)
		if err != nil {
			return nil, nil, noop, err
		}
		return resolver, resolver, func() { _ = resolver.Close() }, nil
	}
}
