package logbook

import "strings"

const (
	DefaultPageSize = 25
	MaxPageSize     = 500
)

// Page is a normalized 1-based page request.
type Page struct {
	Size   int
	Number int
}

func NormalizePage(size int, number int) Page {
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	if number <= 0 {
		number = 1
	}
	return Page{Size: size, Number: number}
}

func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// NormalizeDirection accepts asc/desc in any case and defaults to fallback.
func NormalizeDirection(direction string, fallback string) string {
	switch strings.ToUpper(strings.TrimSpace(direction)) {
	case "ASC":
		return "ASC"
	case "DESC":
		return "DESC"
	default:
		return fallback
	}
}
