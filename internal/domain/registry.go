package domain

import (
	"errors"
	"iter"
	"log/slog"
	"strconv"
	"strings"
)

// Rows is a registry dataset as a sequence of rows, header excluded. A
// non-nil error ends the sequence.
type Rows = iter.Seq2[[]string, error]

// RegistryDataset names a static incident registry and the columns it is
// counted by.
type RegistryDataset struct {
	Name       string
	CodeColumn int // INSEE commune code
	NameColumn int // commune name
}

// Known registries.
var (
	GASPAR = RegistryDataset{Name: "gaspar", CodeColumn: 1, NameColumn: 2}
	BASOL  = RegistryDataset{Name: "basol", CodeColumn: 8, NameColumn: 7}
)

// CountByDepartment counts rows per department, the department being derived
// from the INSEE code in column. Every region starts at zero. Rows for codes
// outside the region set are logged and skipped.
func CountByDepartment(rows Rows, dataset RegistryDataset, logger *slog.Logger) (*RegionTable[int], error) {
	counts := NewFilledRegionTable(0)
	unknown := make(map[RegionCode]int)
	row := 0
	for cells, err := range rows {
		row++
		if err != nil {
			return nil, err
		}
		if dataset.CodeColumn >= len(cells) {
			return nil, &MalformedDatasetError{Dataset: dataset.Name, Row: row, Reason: "missing INSEE code column"}
		}
		code := strings.TrimSpace(cells[dataset.CodeColumn])
		if len(code) < 2 {
			return nil, &MalformedDatasetError{Dataset: dataset.Name, Row: row, Reason: "unexpected INSEE code " + strconv.Quote(code)}
		}
		dep := DepartmentFromCommune(code)
		if err := counts.Update(dep, func(n int) int { return n + 1 }); err != nil {
			if !errors.Is(err, ErrUnknownRegion) {
				return nil, err
			}
			unknown[dep]++
		}
	}
	for dep, n := range unknown {
		logger.Warn("registry rows outside known departments", "dataset", dataset.Name, "department", dep, "rows", n)
	}
	return counts, nil
}

// CountByName counts rows whose commune name equals name, case-insensitively.
func CountByName(rows Rows, dataset RegistryDataset, name string) (int, error) {
	count := 0
	row := 0
	for cells, err := range rows {
		row++
		if err != nil {
			return 0, err
		}
		if dataset.NameColumn >= len(cells) {
			return 0, &MalformedDatasetError{Dataset: dataset.Name, Row: row, Reason: "missing commune name column"}
		}
		if strings.EqualFold(strings.TrimSpace(cells[dataset.NameColumn]), name) {
			count++
		}
	}
	return count, nil
}
