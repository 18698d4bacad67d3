package matching

import (
	"fmt"

	"github.com/cityagent/emptyleg/pkg/transfer"
	"github.com/cityagent/emptyleg/pkg/util"
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/rs/zerolog/log"
)

// RecordFilter restricts which records take part in matching, eg. `Pickup contains "Dalaman"`
type RecordFilter struct {
	expression string
	program    *vm.Program
}

func NewRecordFilter(expression string) (*RecordFilter, error) {
	if expression == "" {
		return nil, nil
	}

	program, err := expr.Compile(expression, expr.Env(transfer.Record{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compiling record filter: %w", err)
	}

	return &RecordFilter{
		expression: expression,
		program:    program,
	}, nil
}

func (f *RecordFilter) Allows(record *transfer.Record) bool {
	if f == nil {
		return true
	}

	output, err := expr.Run(f.program, *record)
	if err != nil {
		log.Debug().Err(err).Str("id", record.ID).Str("filter", f.expression).Msg("Record filter failed")
		return false
	}

	return output.(bool)
}

// Apply returns the records the filter allows, preserving order
func (f *RecordFilter) Apply(records []*transfer.Record) []*transfer.Record {
	if f == nil {
		return records
	}

	filtered := append([]*transfer.Record(nil), records...)
	util.InPlaceFilter(&filtered, f.Allows)

	return filtered
}
