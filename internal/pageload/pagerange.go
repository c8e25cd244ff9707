package pageload

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ParsePageRange expands a range expression like "1-5,7,9-12" into ascending
// unique page numbers, dropping pages outside [1, numPages]. An empty
// expression selects every page. Malformed expressions are an error.
func ParsePageRange(expr string, numPages int) ([]int, error) {
	if strings.TrimSpace(expr) == "" {
		pages := make([]int, 0, numPages)
		for i := 1; i <= numPages; i++ {
			pages = append(pages, i)
		}
		return pages, nil
	}

	selected := make(map[int]bool)
	for _, part := range strings.Split(expr, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, fmt.Errorf("empty segment in page range %q", expr)
		}

		lo, hi, err := parseRangePart(part)
		if err != nil {
			return nil, err
		}
		for p := lo; p <= hi; p++ {
			if p >= 1 && p <= numPages {
				selected[p] = true
			}
		}
	}

	pages := make([]int, 0, len(selected))
	for p := range selected {
		pages = append(pages, p)
	}
	sort.Ints(pages)
	return pages, nil
}

func parseRangePart(part string) (lo, hi int, err error) {
	if a, b, found := strings.Cut(part, "-"); found {
		lo, err = strconv.Atoi(strings.TrimSpace(a))
		if err != nil {
			return 0, 0, fmt.Errorf("invalid page range segment %q", part)
		}
		hi, err = strconv.Atoi(strings.TrimSpace(b))
		if err != nil {
			return 0, 0, fmt.Errorf("invalid page range segment %q", part)
		}
		if lo > hi {
			return 0, 0, fmt.Errorf("descending page range segment %q", part)
		}
		return lo, hi, nil
	}

	n, err := strconv.Atoi(part)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid page number %q", part)
	}
	return n, n, nil
}
