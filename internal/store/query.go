package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/symtrace/internal/ir"
)

// predicate is a filter over the joined nodes/graphs columns.
// Only the types in this file implement it.
type predicate interface {
	compile() (string, []any)
}

// equals is column = value.
type equals struct {
	column string
	value  any
}

func (p equals) compile() (string, []any) {
	return p.column + " = ?", []any{p.value}
}

// oneOf is column IN (values...).
type oneOf struct {
	column string
	values []any
}

func (p oneOf) compile() (string, []any) {
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(p.values)), ", ")
	return fmt.Sprintf("%s IN (%s)", p.column, marks), p.values
}

// and is the conjunction of its predicates; empty means no filter.
type and []predicate

func (p and) compile() (string, []any) {
	if len(p) == 0 {
		return "1 = 1", nil
	}
	parts := make([]string, 0, len(p))
	var params []any
	for _, sub := range p {
		sql, subParams := sub.compile()
		parts = append(parts, sql)
		params = append(params, subParams...)
	}
	return strings.Join(parts, " AND "), params
}

// NodeQuery selects stored nodes across graphs. Empty fields match
// everything.
type NodeQuery struct {
	GraphID  string
	Kind     ir.Kind
	Name     string
	TypeHint string

	// Target is the rendered target: "operator.add" matches the function
	// add of module operator as well as the method or attribute named
	// "operator.add"; "relu" matches a method relu or a module-less
	// function relu.
	Target string
}

// NodeMatch is one stored node found by FindNodes.
type NodeMatch struct {
	GraphID   string `json:"graph_id"`
	GraphName string `json:"graph_name"`
	Seq       int64  `json:"seq"`
	Position  int    `json:"position"`
	Name      string `json:"name"`
	Kind      string `json:"kind"`
	Target    string `json:"target"`
}

// filter builds the query's predicate. Target values are compared in
// their canonical JSON form, as stored.
func (q NodeQuery) filter() (predicate, error) {
	var preds and
	if q.GraphID != "" {
		preds = append(preds, equals{"n.graph_id", q.GraphID})
	}
	if q.Kind != "" {
		preds = append(preds, equals{"n.kind", string(q.Kind)})
	}
	if q.Name != "" {
		preds = append(preds, equals{"n.name", q.Name})
	}
	if q.TypeHint != "" {
		preds = append(preds, equals{"n.type_hint", q.TypeHint})
	}
	if q.Target != "" {
		var values []any
		for _, t := range targetCandidates(q.Target) {
			data, err := ir.MarshalTarget(t)
			if err != nil {
				return nil, err
			}
			values = append(values, string(data))
		}
		preds = append(preds, oneOf{"n.target", values})
	}
	return preds, nil
}

// targetCandidates lists every target whose rendering is s.
func targetCandidates(s string) []ir.Target {
	fn := ir.Function{Name: s}
	if i := strings.LastIndex(s, "."); i >= 0 {
		fn = ir.Function{Module: s[:i], Name: s[i+1:]}
	}
	return []ir.Target{fn, ir.Name(s)}
}

// compileNodeQuery renders q as parameterized SQL. Results are always
// ordered by graph seq, then node position.
func compileNodeQuery(q NodeQuery) (string, []any, error) {
	pred, err := q.filter()
	if err != nil {
		return "", nil, fmt.Errorf("compile node query: %w", err)
	}
	where, params := pred.compile()
	sql := `
		SELECT n.graph_id, g.name, g.seq, n.position, n.name, n.kind, n.target
		FROM nodes n
		JOIN graphs g ON g.id = n.graph_id
		WHERE ` + where + `
		ORDER BY g.seq ASC, n.position ASC`
	return sql, params, nil
}

// FindNodes returns the stored nodes matching q, ordered by graph write
// order and then recording order. Returns an empty slice (not nil) when
// nothing matches.
func (s *Store) FindNodes(ctx context.Context, q NodeQuery) ([]NodeMatch, error) {
	sql, params, err := compileNodeQuery(q)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, sql, params...)
	if err != nil {
		return nil, fmt.Errorf("find nodes: %w", err)
	}
	defer rows.Close()

	matches := []NodeMatch{}
	for rows.Next() {
		var m NodeMatch
		var target string
		if err := rows.Scan(&m.GraphID, &m.GraphName, &m.Seq, &m.Position, &m.Name, &m.Kind, &target); err != nil {
			return nil, fmt.Errorf("find nodes: scan: %w", err)
		}
		t, err := ir.UnmarshalTarget([]byte(target))
		if err != nil {
			return nil, fmt.Errorf("find nodes: node %s: %w", m.Name, err)
		}
		m.Target = t.String()
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("find nodes: %w", err)
	}
	return matches, nil
}
