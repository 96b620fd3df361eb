package infer

import (
	"fmt"

	"github.com/jschaf/sqlnullify/internal/ast"
	"github.com/jschaf/sqlnullify/internal/pgschema"
)

// paramRecord is one column-bound-site observation: the 1-based parameter
// index and whether the column it's bound against is nullable.
type paramRecord struct {
	index    int
	nullable bool
}

// inferParamNullability derives parameter nullability: params default to
// nullable; a bare Parameter bound directly against an INSERT VALUES
// column or an UPDATE SET column is refined to non-NULL iff that column
// is. An index seen at multiple binding sites is nullable iff any site
// deems it nullable — a pessimistic union that's associative and so
// order-independent.
func inferParamNullability(schema pgschema.SchemaClient, stmt ast.Statement) (map[int]bool, error) {
	var records []paramRecord

	switch s := stmt.(type) {
	case *ast.InsertStatement:
		if s.DefaultVals || s.Select != nil {
			return nil, nil
		}
		table, err := schema.GetTable(schemaArgOf(s.Table), s.Table.Name)
		if err != nil {
			return nil, fmt.Errorf("resolve insert target table: %w", err)
		}
		for _, row := range s.Values {
			for j, v := range row {
				if j >= len(s.Columns) {
					continue
				}
				p, ok := v.(*ast.Parameter)
				if !ok {
					continue
				}
				col, ok := table.Column(s.Columns[j])
				if !ok {
					return nil, fmt.Errorf("unknown column %q on table %q", s.Columns[j], s.Table.Name)
				}
				records = append(records, paramRecord{index: p.Index, nullable: col.Nullable})
			}
		}

	case *ast.UpdateStatement:
		table, err := schema.GetTable(schemaArgOf(s.Table), s.Table.Name)
		if err != nil {
			return nil, fmt.Errorf("resolve update target table: %w", err)
		}
		for _, set := range s.Sets {
			p, ok := set.Value.(*ast.Parameter)
			if !ok {
				continue
			}
			col, ok := table.Column(set.Column)
			if !ok {
				return nil, fmt.Errorf("unknown column %q on table %q", set.Column, s.Table.Name)
			}
			records = append(records, paramRecord{index: p.Index, nullable: col.Nullable})
		}

	case *ast.SelectStatement, *ast.DeleteStatement:
		// No column-bound sites; every parameter stays at whatever the
		// driver probe reported.
		return nil, nil

	default:
		return nil, fmt.Errorf("unhandled statement type %T", stmt)
	}

	merged := make(map[int]bool, len(records))
	for _, r := range records {
		merged[r.index] = merged[r.index] || r.nullable
	}
	return merged, nil
}

func schemaArgOf(ref ast.TableRef) *string {
	if ref.Schema == "" {
		return nil
	}
	s := ref.Schema
	return &s
}
