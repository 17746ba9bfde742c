package tools

import (
	"database/sql"

	_ "modernc.org/sqlite" // pure-Go, CGO-free driver registered as "sqlite"

	"github.com/localcoder/nanocore/internal/types"
)

// sqliteSchema implements sqlite.schema {path} -> {tables[]}.
func (e *Executor) sqliteSchema(params types.Params) (types.ToolResult, error) {
	path, ok := params["path"].(string)
	if !ok || path == "" {
		return types.ToolResult{}, types.NewError(types.ErrSchemaMismatch, "sqlite.schema requires a path")
	}
	db, err := sql.Open("sqlite", ExpandHome(path))
	if err != nil {
		return errResult(types.ToolSQLite, "schema", types.ErrNotFound, "open %s: %v", path, err), nil
	}
	defer db.Close()

	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type='table' ORDER BY name`)
	if err != nil {
		return errResult(types.ToolSQLite, "schema", types.ErrSubprocessFailed, "query schema: %v", err), nil
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return errResult(types.ToolSQLite, "schema", types.ErrSubprocessFailed, "scan: %v", err), nil
		}
		tables = append(tables, name)
	}
	return types.ToolResult{
		Tool: types.ToolSQLite, Action: "schema", Success: true,
		Output: map[string]any{"tables": tables},
	}, nil
}

// sqliteQuery implements sqlite.query {path, sql} -> {columns[], rows[]}.
func (e *Executor) sqliteQuery(params types.Params) (types.ToolResult, error) {
	path, _ := params["path"].(string)
	query, _ := params["sql"].(string)
	if path == "" || query == "" {
		return types.ToolResult{}, types.NewError(types.ErrSchemaMismatch, "sqlite.query requires path and sql")
	}
	db, err := sql.Open("sqlite", ExpandHome(path))
	if err != nil {
		return errResult(types.ToolSQLite, "query", types.ErrNotFound, "open %s: %v", path, err), nil
	}
	defer db.Close()

	rows, err := db.Query(query)
	if err != nil {
		return errResult(types.ToolSQLite, "query", types.ErrSubprocessFailed, "query: %v", err), nil
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return errResult(types.ToolSQLite, "query", types.ErrSubprocessFailed, "columns: %v", err), nil
	}

	var out [][]any
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return errResult(types.ToolSQLite, "query", types.ErrSubprocessFailed, "scan: %v", err), nil
		}
		out = append(out, vals)
	}
	return types.ToolResult{
		Tool: types.ToolSQLite, Action: "query", Success: true,
		Output: map[string]any{"columns": cols, "rows": out},
	}, nil
}
