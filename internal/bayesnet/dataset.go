package bayesnet

import "fmt"

// Dataset is an immutable N×n matrix of binary observations. Rows are
// samples (tumours), columns are mutation indicator variables.
type Dataset struct {
	names []string
	rows  [][]uint8
}

// NewDataset validates and wraps the given rows. Every row must have one
// entry per variable name and contain only 0/1 values.
func NewDataset(names []string, rows [][]uint8) (*Dataset, error) {
	n := len(names)
	if n == 0 {
		return nil, fmt.Errorf("bayesnet: dataset needs at least one variable")
	}
	for i, row := range rows {
		if len(row) != n {
			return nil, fmt.Errorf("bayesnet: row %d has %d entries, want %d", i, len(row), n)
		}
		for j, v := range row {
			if v > 1 {
				return nil, fmt.Errorf("bayesnet: row %d column %d holds %d, want 0 or 1", i, j, v)
			}
		}
	}
	return &Dataset{names: names, rows: rows}, nil
}

// Len returns the number of samples.
func (d *Dataset) Len() int { return len(d.rows) }

// NumVars returns the number of variables.
func (d *Dataset) NumVars() int { return len(d.names) }

// Row returns the i-th observation. Callers must not modify it.
func (d *Dataset) Row(i int) []uint8 { return d.rows[i] }

// Name returns the label of variable j.
func (d *Dataset) Name(j int) string { return d.names[j] }
