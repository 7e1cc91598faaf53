package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/tekert/goevtx/evtx"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		debugLevel string
		stats      bool
		outPath    string
	)

	flag.StringVar(&debugLevel, "debug", "", "Set diagnostic log level (trace|debug|info|warn|error).")
	flag.BoolVar(&stats, "stats", false, "Emit a JSON per-file summary on stderr after each file.")
	flag.StringVar(&outPath, "o", "", "Write rendered events to a file instead of stdout.")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <file>...\n\n", os.Args[0])
		fmt.Fprintln(os.Stderr, "Decode EVTX event log files to one line of key/value text per record.")
		fmt.Fprintln(os.Stderr, "Each file is processed independently; a file that fails to parse prints")
		fmt.Fprintln(os.Stderr, "\"Failed on <path>\" and processing continues with the next one.")
		fmt.Fprintln(os.Stderr, "\nOptions:")
		flag.PrintDefaults()
		fmt.Fprintln(os.Stderr, "\nExamples:")
		fmt.Fprintln(os.Stderr, "  evtxdump Security.evtx")
		fmt.Fprintln(os.Stderr, "  evtxdump -stats System.evtx Application.evtx")
		fmt.Fprintln(os.Stderr, "  evtxdump -debug debug -o events.txt Security.evtx")
	}

	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		return fmt.Errorf("no input files")
	}

	switch debugLevel {
	case "":
		// Only error-level diagnostics by default; the rendered events are the output.
		evtx.SetLogErrorLevel()
	case "trace":
		evtx.SetLogTraceLevel()
	case "debug":
		evtx.SetLogDebugLevel()
	case "info":
		evtx.SetLogInfoLevel()
	case "warn":
		evtx.SetLogWarnLevel()
	case "error":
		evtx.SetLogErrorLevel()
	default:
		return fmt.Errorf("invalid -debug level %q", debugLevel)
	}

	out := os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("cannot create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	p := evtx.NewParser(out)
	for _, path := range flag.Args() {
		// Parse failures are already reported on the output stream; the
		// exit code stays zero either way.
		_ = p.ParseFile(path)

		if stats {
			b, err := json.Marshal(p.Stats())
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error marshaling stats: %v\n", err)
				continue
			}
			fmt.Fprintln(os.Stderr, string(b))
		}
	}

	// Report any suppressed diagnostic counts before exiting.
	evtx.GetLogManager().GetSampler().Flush()

	return nil
}
