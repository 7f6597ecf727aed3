// Package render writes the renderer-facing outputs: one JSON document per
// classified map and plain-text tables for city comparisons.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/couchcryptid/climate-atlas/internal/domain"
)

// WriteTables prints tables as aligned text, one block per table.
func WriteTables(w io.Writer, tables []domain.Table) error {
	for i, t := range tables {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if t.Title != "" {
			if _, err := fmt.Fprintf(w, "%s:\n", t.Title); err != nil {
				return err
			}
		}
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, strings.Join(t.Columns, "\t"))
		fmt.Fprintln(tw, strings.Join(rule(t.Columns), "\t"))
		for _, row := range t.Rows {
			fmt.Fprintln(tw, strings.Join(row, "\t"))
		}
		if err := tw.Flush(); err != nil {
			return fmt.Errorf("write table %q: %w", t.Title, err)
		}
	}
	return nil
}

// WriteTablesJSON encodes tables as an indented JSON array.
func WriteTablesJSON(w io.Writer, tables []domain.Table) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(tables); err != nil {
		return fmt.Errorf("encode tables: %w", err)
	}
	return nil
}

func rule(columns []string) []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = strings.Repeat("-", max(len([]rune(c)), 3))
	}
	return out
}
