package catalog

import (
	"fmt"
	"strings"

	contractx "github.com/pattadon/shoppilot/agent/contract"
)

const sampleRowLimit = 5

// FormatResult renders a query result for the user. A one-cell result is a
// labeled scalar, up to 10 rows are listed in full, larger sets are sampled
// with an explicit remainder suffix.
func FormatResult(question string, result contractx.QueryResult) string {
	if len(result.Rows) == 0 {
		return "No results found for your query."
	}

	if len(result.Rows) == 1 && len(result.Columns) == 1 {
		return formatScalar(question, result.Rows[0][result.Columns[0]])
	}

	if len(result.Rows) <= 10 {
		var b strings.Builder
		fmt.Fprintf(&b, "Found %d results:\n\n", len(result.Rows))
		for i, row := range result.Rows {
			fmt.Fprintf(&b, "%d. %s\n", i+1, formatRow(row, result.Columns, 0))
		}
		return b.String()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d results (showing first %d):\n\n", len(result.Rows), sampleRowLimit)
	for i, row := range result.Rows[:sampleRowLimit] {
		fmt.Fprintf(&b, "%d. %s\n", i+1, formatRow(row, result.Columns, 3))
	}
	fmt.Fprintf(&b, "\n... and %d more results.", len(result.Rows)-sampleRowLimit)
	return b.String()
}

func formatScalar(question string, value any) string {
	if value == nil {
		return fmt.Sprintf("%s: no data available", question)
	}
	switch v := value.(type) {
	case float64:
		return fmt.Sprintf("%s: Rs.%s", question, groupThousands(fmt.Sprintf("%.2f", v)))
	case int64:
		return fmt.Sprintf("%s: %s", question, groupThousands(fmt.Sprintf("%d", v)))
	default:
		return fmt.Sprintf("%s: %v", question, v)
	}
}

// formatRow joins a row's values with " | " in column order. maxFields > 0
// truncates wide rows for readability in sampled output.
func formatRow(row map[string]any, columns []string, maxFields int) string {
	parts := make([]string, 0, len(columns))
	for _, col := range columns {
		if maxFields > 0 && len(parts) >= maxFields {
			break
		}
		parts = append(parts, formatCell(col, row[col]))
	}
	return strings.Join(parts, " | ")
}

func formatCell(column string, value any) string {
	if value == nil {
		if column == "price_inr" {
			return "Rs.N/A"
		}
		return "N/A"
	}
	if column == "price_inr" {
		return fmt.Sprintf("Rs.%v", value)
	}
	lower := strings.ToLower(column)
	if strings.Contains(lower, "count") || strings.Contains(lower, "avg") {
		switch v := value.(type) {
		case float64:
			return groupThousands(fmt.Sprintf("%.2f", v))
		case int64:
			return groupThousands(fmt.Sprintf("%d", v))
		}
	}
	return fmt.Sprintf("%v", value)
}

// groupThousands inserts comma separators into the integer part of a
// formatted number ("1998.00" -> "1,998.00").
func groupThousands(s string) string {
	intPart := s
	fracPart := ""
	if idx := strings.IndexByte(s, '.'); idx >= 0 {
		intPart, fracPart = s[:idx], s[idx:]
	}
	sign := ""
	if strings.HasPrefix(intPart, "-") {
		sign, intPart = "-", intPart[1:]
	}
	if len(intPart) <= 3 {
		return sign + intPart + fracPart
	}
	var b strings.Builder
	lead := len(intPart) % 3
	if lead > 0 {
		b.WriteString(intPart[:lead])
	}
	for i := lead; i < len(intPart); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(intPart[i : i+3])
	}
	return sign + b.String() + fracPart
}
