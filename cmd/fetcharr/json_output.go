package main

import (
	"encoding/json"
	"io"
)

// writeJSON renders v for the --json output mode shared by the search and
// config commands. Indented output keeps the reports diffable.
func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
