package export

import (
	"strings"

	"github.com/parishkit/chms-api/internal/model"
)

// GenerateCSV serializes cards through a format: header row, one data
// row per card, rows joined with \n and no trailing newline. Output is
// deterministic; no sorting or filtering happens here.
func GenerateCSV(cards []*model.ConnectCard, format *Format) string {
	rows := make([]string, 0, len(cards)+1)
	rows = append(rows, joinFields(format.Headers()))
	for _, c := range cards {
		rows = append(rows, joinFields(format.Row(c)))
	}
	return strings.Join(rows, "\n")
}

func joinFields(fields []string) string {
	escaped := make([]string, len(fields))
	for i, f := range fields {
		escaped[i] = escapeField(f)
	}
	return strings.Join(escaped, ",")
}

// escapeField applies RFC 4180 minimal quoting: a field is quoted only
// if it contains a comma, a double quote, or a newline; embedded
// quotes are doubled.
func escapeField(f string) string {
	if !strings.ContainsAny(f, ",\"\n\r") {
		return f
	}
	return `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
}
