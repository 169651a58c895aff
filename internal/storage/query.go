package storage

import (
	"encoding/json"
	"fmt"

	"axe/internal/axiom"
)

// QueryOptions narrows an axiom query. Zero values mean "any".
type QueryOptions struct {
	Function      string     // exact match on the qualified function name
	Type          axiom.Type // exact match on the axiom type
	Header        string     // substring match on the header path
	MinConfidence float64
	Limit         int // 0 = unlimited
}

// QueryAxioms returns cached axioms matching opts, ordered by header,
// line and id so repeated queries print identically.
func (c *Cache) QueryAxioms(opts QueryOptions) ([]axiom.Axiom, error) {
	query := "SELECT record_json FROM axioms WHERE confidence >= ?"
	args := []interface{}{opts.MinConfidence}

	if opts.Function != "" {
		query += " AND function = ?"
		args = append(args, opts.Function)
	}
	if opts.Type != "" {
		query += " AND axiom_type = ?"
		args = append(args, string(opts.Type))
	}
	if opts.Header != "" {
		query += " AND header LIKE ?"
		args = append(args, "%"+opts.Header+"%")
	}
	query += " ORDER BY header, line, axiom_id"
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := c.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("axiom query failed: %w", err)
	}
	defer rows.Close()

	var axioms []axiom.Axiom
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var ax axiom.Axiom
		if err := json.Unmarshal([]byte(raw), &ax); err != nil {
			return nil, fmt.Errorf("corrupt cached axiom record: %w", err)
		}
		axioms = append(axioms, ax)
	}
	return axioms, rows.Err()
}

// QueryCalls returns cached call edges, optionally narrowed to one
// caller, ordered by file, caller and line.
func (c *Cache) QueryCalls(caller string) ([]axiom.FunctionCall, error) {
	query := "SELECT record_json FROM calls"
	var args []interface{}
	if caller != "" {
		query += " WHERE caller = ?"
		args = append(args, caller)
	}
	query += " ORDER BY file_path, caller, line"

	rows, err := c.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("call query failed: %w", err)
	}
	defer rows.Close()

	var calls []axiom.FunctionCall
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var call axiom.FunctionCall
		if err := json.Unmarshal([]byte(raw), &call); err != nil {
			return nil, fmt.Errorf("corrupt cached call record: %w", err)
		}
		calls = append(calls, call)
	}
	return calls, rows.Err()
}
