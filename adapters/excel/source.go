package excel

import (
	"context"
	"sync"

	"bmcount/domain/countdata"
	"bmcount/internal"
	"bmcount/internal/errors"
	"bmcount/ports"
)

// tableSource serves the groups of one count table file. The file is read
// on first use.
type tableSource struct {
	reader *TableReader

	once  sync.Once
	table *CountTable
	err   error
}

// NewTableSource creates a CountSource over an .xlsx or .csv count table.
func NewTableSource(filePath string, logger *internal.Logger) ports.CountSource {
	return &tableSource{reader: NewTableReader(filePath, logger)}
}

func (s *tableSource) load() (*CountTable, error) {
	s.once.Do(func() {
		s.table, s.err = s.reader.Read()
	})
	return s.table, s.err
}

func (s *tableSource) Groups(ctx context.Context) ([]string, error) {
	table, err := s.load()
	if err != nil {
		return nil, err
	}
	return append([]string(nil), table.Groups...), nil
}

func (s *tableSource) LoadCounts(ctx context.Context, group string) (countdata.CountMap[float64], error) {
	table, err := s.load()
	if err != nil {
		return nil, err
	}
	counts, ok := table.Counts[group]
	if !ok {
		return nil, errors.NotFound("group " + group)
	}
	return countdata.Join(counts), nil
}
