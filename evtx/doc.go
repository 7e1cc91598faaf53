// Package evtx decodes Windows Event Log files in the EVTX container
// format and renders one line of key/value text per event record.
//
// EVTX is a chunked binary container whose records hold a BinXml stream: a
// tokenized, template-driven representation of XML where repeating
// structure is deduplicated via per-chunk templates and values arrive in a
// parallel argument table. The package walks the container, decodes the
// BinXml per record, and writes a flat 'key':value projection.
//
// Basic usage:
//
//	p := evtx.NewParser(os.Stdout)
//	if err := p.ParseFile("Security.evtx"); err != nil {
//	    // "Failed on <path>" has already been written to the output
//	}
//
// A Parser carries all mutable decode state, so concurrent file parses
// should each use their own instance.
package evtx
