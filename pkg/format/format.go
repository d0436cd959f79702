// Package format holds Russian-locale presentation helpers shared by the
// report builders.
package format

import (
	"fmt"
	"strings"
	"time"
)

// Days renders a day count with the correct Russian plural form:
// 1 день, 2 дня, 5 дней.
func Days(n int) string {
	return fmt.Sprintf("%d %s", n, dayWord(n))
}

func dayWord(n int) string {
	if n < 0 {
		n = -n
	}
	switch {
	case n%100 >= 11 && n%100 <= 14:
		return "дней"
	case n%10 == 1:
		return "день"
	case n%10 >= 2 && n%10 <= 4:
		return "дня"
	default:
		return "дней"
	}
}

// Date renders a timestamp as DD.MM.YYYY.
func Date(t time.Time) string {
	return t.Format("02.01.2006")
}

// DateTime renders a timestamp as DD.MM.YYYY HH:MM.
func DateTime(t time.Time) string {
	return t.Format("02.01.2006 15:04")
}

// Table renders rows as a plain-text table with columns padded to the
// widest cell. Rows shorter than the widest row are padded with blanks.
func Table(rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}
	cols := 0
	for _, row := range rows {
		if len(row) > cols {
			cols = len(row)
		}
	}
	widths := make([]int, cols)
	for _, row := range rows {
		for i, cell := range row {
			if w := len([]rune(cell)); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var b strings.Builder
	for _, row := range rows {
		for i := 0; i < cols; i++ {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			b.WriteString(cell)
			if i < cols-1 {
				b.WriteString(strings.Repeat(" ", widths[i]-len([]rune(cell))+2))
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}
