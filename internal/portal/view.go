package portal

import (
	"fmt"
	"sort"
	"strings"

	"github.com/contractportal/portal/internal/client"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortMode orders the visible list.
type SortMode string

const (
	SortNameAsc  SortMode = "name-asc"
	SortNameDesc SortMode = "name-desc"
	SortDateAsc  SortMode = "date-asc"
	SortDateDesc SortMode = "date-desc"
)

// DefaultSort is the initial sort mode.
const DefaultSort = SortDateDesc

// SortModes lists every mode in display order.
var SortModes = []SortMode{SortDateDesc, SortDateAsc, SortNameAsc, SortNameDesc}

// ParseSortMode validates s.
func ParseSortMode(s string) (SortMode, error) {
	for _, m := range SortModes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown sort mode %q", s)
}

// Filter keeps files whose name contains term, ignoring case. An empty term keeps everything.
func Filter(files []client.Contract, term string) []client.Contract {
	term = strings.ToLower(term)
	out := make([]client.Contract, 0, len(files))
	for _, f := range files {
		if strings.Contains(strings.ToLower(f.Name), term) {
			out = append(out, f)
		}
	}
	return out
}

// Sort returns a sorted copy of files.
func Sort(files []client.Contract, mode SortMode) []client.Contract {
	out := make([]client.Contract, len(files))
	copy(out, files)

	switch mode {
	case SortNameAsc, SortNameDesc:
		col := collate.New(language.Und)
		sort.SliceStable(out, func(i, j int) bool {
			cmp := col.CompareString(out[i].Name, out[j].Name)
			if mode == SortNameDesc {
				return cmp > 0
			}
			return cmp < 0
		})
	case SortDateAsc:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].UploadedAt.Before(out[j].UploadedAt)
		})
	default:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].UploadedAt.After(out[j].UploadedAt)
		})
	}
	return out
}

// Visible derives the displayed list: filter by term, then sort.
func Visible(files []client.Contract, term string, mode SortMode) []client.Contract {
	return Sort(Filter(files, term), mode)
}
