package store

import (
	"context"
	"fmt"

	"github.com/roach88/symtrace/internal/ir"
)

// ReadGraph loads the graph stored under id and rebuilds it node by node.
// Returns an error wrapping sql.ErrNoRows if not found.
//
// The rebuilt graph is hashed again; a mismatch with the stored hash means
// the rows were altered after writing and is reported as an error.
func (s *Store) ReadGraph(ctx context.Context, id string) (GraphRecord, *ir.Graph, error) {
	rec, err := scanRecord(s.db.QueryRowContext(ctx, selectRecord+` WHERE id = ?`, id))
	if err != nil {
		return GraphRecord{}, nil, fmt.Errorf("read graph %s: %w", id, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT position, name, kind, target, args, kwargs, type_hint
		FROM nodes
		WHERE graph_id = ?
		ORDER BY position ASC
	`, id)
	if err != nil {
		return GraphRecord{}, nil, fmt.Errorf("query nodes: %w", err)
	}
	defer rows.Close()

	g := ir.New()
	for rows.Next() {
		var row nodeRow
		if err := rows.Scan(
			&row.Position,
			&row.Name,
			&row.Kind,
			&row.Target,
			&row.Args,
			&row.Kwargs,
			&row.TypeHint,
		); err != nil {
			return GraphRecord{}, nil, fmt.Errorf("scan node: %w", err)
		}
		if err := restoreNode(g, row); err != nil {
			return GraphRecord{}, nil, fmt.Errorf("read graph %s: %w", id, err)
		}
	}
	if err := rows.Err(); err != nil {
		return GraphRecord{}, nil, fmt.Errorf("iterate nodes: %w", err)
	}

	if g.Len() != rec.NodeCount {
		return GraphRecord{}, nil, fmt.Errorf("read graph %s: stored %d nodes, found %d", id, rec.NodeCount, g.Len())
	}
	hash, err := ir.GraphHash(g)
	if err != nil {
		return GraphRecord{}, nil, fmt.Errorf("read graph %s: %w", id, err)
	}
	if hash != rec.Hash {
		return GraphRecord{}, nil, fmt.Errorf("read graph %s: content hash %s does not match stored %s", id, hash, rec.Hash)
	}

	return rec, g, nil
}

// ListGraphs returns every stored graph record ordered by seq ASC, id ASC.
// Returns an empty slice (not nil) for an empty store.
func (s *Store) ListGraphs(ctx context.Context) ([]GraphRecord, error) {
	return s.queryRecords(ctx, selectRecord+`
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
}

// FindByHash returns the records of every stored graph with the given
// content hash, ordered by seq ASC, id ASC.
func (s *Store) FindByHash(ctx context.Context, hash string) ([]GraphRecord, error) {
	return s.queryRecords(ctx, selectRecord+`
		WHERE graph_hash = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, hash)
}

func (s *Store) queryRecords(ctx context.Context, query string, args ...any) ([]GraphRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query graphs: %w", err)
	}
	defer rows.Close()

	records := []GraphRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate graphs: %w", err)
	}
	return records, nil
}
