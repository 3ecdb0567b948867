package testutil

import (
	"context"

	"github.com/kbukum/etlkit/pipeline"
	"github.com/kbukum/etlkit/record"
)

// Item is one element of a SliceSource stream: a record, or the per-item
// error returned in its place.
type Item struct {
	Record *record.Record
	Err    error
}

// Records wraps records as clean items.
func Records(recs ...*record.Record) []Item {
	items := make([]Item, len(recs))
	for i, rec := range recs {
		items[i] = Item{Record: rec}
	}
	return items
}

// SliceSource is an in-memory pipeline.Source serving a fixed schema and
// item list. SchemaErr and ReadErr inject structural failures; an Item
// with Err set surfaces as a per-item error, the way a file source
// reports a bad line. Reads and Closes count calls.
type SliceSource struct {
	SourceName string
	SchemaVal  record.Schema
	SchemaErr  error
	ReadErr    error
	Items      []Item
	CloseErr   error

	Reads  int
	Closes int
}

func (s *SliceSource) Name() string {
	if s.SourceName == "" {
		return "slice"
	}
	return s.SourceName
}

func (s *SliceSource) Schema(context.Context) (record.Schema, error) {
	if s.SchemaErr != nil {
		return record.Schema{}, s.SchemaErr
	}
	return s.SchemaVal, nil
}

func (s *SliceSource) Read(context.Context) (pipeline.Iterator[*record.Record], error) {
	s.Reads++
	if s.ReadErr != nil {
		return nil, s.ReadErr
	}
	items := s.Items
	index := 0
	return pipeline.FromFunc(func(context.Context) (*record.Record, bool, error) {
		if index >= len(items) {
			return nil, false, nil
		}
		item := items[index]
		index++
		if item.Err != nil {
			return nil, false, item.Err
		}
		return item.Record, true, nil
	}, nil), nil
}

func (s *SliceSource) Close(context.Context) error {
	s.Closes++
	return s.CloseErr
}

var _ pipeline.Source = (*SliceSource)(nil)
