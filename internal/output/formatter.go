package output

import (
	"encoding/json"
	"fmt"
	"io"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// Write prints v as indented JSON, or through its String method when the
// text format is asked for and v has one.
func Write(w io.Writer, format Format, v any) error {
	if format == FormatText {
		if s, ok := v.(fmt.Stringer); ok {
			_, err := fmt.Fprintln(w, s.String())
			return err
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
