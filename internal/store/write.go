package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/symtrace/internal/ir"
)

// ErrGraphConflict is returned when a graph ID is already stored with
// different content.
var ErrGraphConflict = errors.New("graph id already stored with different content")

// GraphRecord is the stored metadata of one graph.
type GraphRecord struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Hash          string `json:"hash"`
	IRVersion     string `json:"ir_version"`
	TracerVersion string `json:"tracer_version"`
	NodeCount     int    `json:"node_count"`
	Seq           int64  `json:"seq"`
}

// WriteGraph persists g under id. name is a display label (typically the
// scenario name) and need not be unique.
//
// Writing an ID that is already stored is a no-op when the content hash
// matches: the existing record is returned with inserted=false. A different
// hash returns ErrGraphConflict. The graph row and every node row are
// written in one transaction.
func (s *Store) WriteGraph(ctx context.Context, id, name string, g *ir.Graph) (rec GraphRecord, inserted bool, err error) {
	hash, err := ir.GraphHash(g)
	if err != nil {
		return GraphRecord{}, false, fmt.Errorf("write graph: %w", err)
	}

	rows := make([]nodeRow, 0, g.Len())
	for i, n := range g.Nodes() {
		row, err := marshalNode(i, n)
		if err != nil {
			return GraphRecord{}, false, fmt.Errorf("write graph: %w", err)
		}
		rows = append(rows, row)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return GraphRecord{}, false, fmt.Errorf("write graph: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	// Seq is a logical clock: one past the highest stored graph
	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM graphs`).Scan(&seq); err != nil {
		return GraphRecord{}, false, fmt.Errorf("write graph: next seq: %w", err)
	}

	rec = GraphRecord{
		ID:            id,
		Name:          name,
		Hash:          hash,
		IRVersion:     ir.IRVersion,
		TracerVersion: ir.TracerVersion,
		NodeCount:     len(rows),
		Seq:           seq,
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO graphs
		(id, name, graph_hash, ir_version, tracer_version, node_count, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		rec.ID,
		rec.Name,
		rec.Hash,
		rec.IRVersion,
		rec.TracerVersion,
		rec.NodeCount,
		rec.Seq,
	)
	if err != nil {
		return GraphRecord{}, false, fmt.Errorf("write graph: insert: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return GraphRecord{}, false, fmt.Errorf("write graph: rows affected: %w", err)
	}
	if rowsAffected == 0 {
		// Conflict - the ID exists, accept it only if the content is the same
		existing, err := scanRecord(tx.QueryRowContext(ctx, selectRecord+` WHERE id = ?`, id))
		if err != nil {
			return GraphRecord{}, false, fmt.Errorf("write graph: select existing: %w", err)
		}
		if existing.Hash != hash {
			return GraphRecord{}, false, fmt.Errorf("write graph %s: %w", id, ErrGraphConflict)
		}
		return existing, false, nil
	}

	for _, row := range rows {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO nodes
			(graph_id, position, name, kind, target, args, kwargs, type_hint)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`,
			id,
			row.Position,
			row.Name,
			row.Kind,
			row.Target,
			row.Args,
			row.Kwargs,
			row.TypeHint,
		)
		if err != nil {
			return GraphRecord{}, false, fmt.Errorf("write graph: insert node %s: %w", row.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return GraphRecord{}, false, fmt.Errorf("write graph: commit: %w", err)
	}
	return rec, true, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

const selectRecord = `
	SELECT id, name, graph_hash, ir_version, tracer_version, node_count, seq
	FROM graphs`

func scanRecord(row scanner) (GraphRecord, error) {
	var rec GraphRecord
	err := row.Scan(
		&rec.ID,
		&rec.Name,
		&rec.Hash,
		&rec.IRVersion,
		&rec.TracerVersion,
		&rec.NodeCount,
		&rec.Seq,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return GraphRecord{}, err
		}
		return GraphRecord{}, fmt.Errorf("scan graph: %w", err)
	}
	return rec, nil
}
