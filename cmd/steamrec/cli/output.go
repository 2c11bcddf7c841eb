package cli

import (
	"io"

	"github.com/goccy/go-json"
)

// writeJSON prints v as indented JSON for --ci consumers.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
