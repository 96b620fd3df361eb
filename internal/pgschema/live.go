package pgschema

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
)

// LiveClient is a SchemaClient backed by a running Postgres connection. It
// queries pg_class/pg_attribute/pg_type directly rather than relying on
// information_schema, extended to resolve array element OID/nullability so
// it can populate Type.ArrayElem.
type LiveClient struct {
	conn *pgx.Conn

	mu    sync.Mutex
	cache map[string]Table // keyed the same way as StaticClient
}

// NewLiveClient wraps conn. conn must remain open for the lifetime of the
// LiveClient.
func NewLiveClient(conn *pgx.Conn) *LiveClient {
	return &LiveClient{conn: conn, cache: make(map[string]Table, 16)}
}

const defaultQueryTimeout = 5 * time.Second

func (c *LiveClient) GetTable(schema *string, name string) (Table, error) {
	k := key(derefOrEmpty(schema), name)
	c.mu.Lock()
	if t, ok := c.cache[k]; ok {
		c.mu.Unlock()
		return t, nil
	}
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), defaultQueryTimeout)
	defer cancel()

	tableOID, resolvedSchema, err := c.resolveTableOID(ctx, schema, name)
	if err != nil {
		return Table{}, err
	}
	cols, err := c.fetchColumns(ctx, tableOID)
	if err != nil {
		return Table{}, fmt.Errorf("fetch columns for table %s.%s: %w", resolvedSchema, name, err)
	}

	t := Table{Schema: resolvedSchema, Name: name, Columns: cols}
	c.mu.Lock()
	c.cache[k] = t
	c.mu.Unlock()
	return t, nil
}

func (c *LiveClient) resolveTableOID(ctx context.Context, schema *string, name string) (oid uint32, resolvedSchema string, err error) {
	var q string
	var args []interface{}
	if schema != nil {
		q = `SELECT cls.oid, ns.nspname
		     FROM pg_class cls JOIN pg_namespace ns ON ns.oid = cls.relnamespace
		     WHERE ns.nspname = $1 AND cls.relname = $2`
		args = []interface{}{*schema, name}
	} else {
		q = `SELECT cls.oid, ns.nspname
		     FROM pg_class cls JOIN pg_namespace ns ON ns.oid = cls.relnamespace
		     WHERE cls.relname = $1 AND ns.nspname = ANY(current_schemas(false))
		     ORDER BY array_position(current_schemas(false), ns.nspname)
		     LIMIT 1`
		args = []interface{}{name}
	}
	row := c.conn.QueryRow(ctx, q, args...)
	if scanErr := row.Scan(&oid, &resolvedSchema); scanErr != nil {
		if schema != nil {
			return 0, "", &ErrTableNotFound{Schema: *schema, Name: name}
		}
		return 0, "", &ErrTableNotFound{Name: name}
	}
	return oid, resolvedSchema, nil
}

// fetchColumns loads every non-dropped column of tableOID, including
// array element nullability derived from the element type's typnotnull
// when the column's own base type is an array (typcategory 'A').
func (c *LiveClient) fetchColumns(ctx context.Context, tableOID uint32) ([]Column, error) {
	const q = `
		SELECT attr.attname,
		       attr.atttypid,
		       attr.attnotnull,
		       attr.attnum < 0 AS hidden,
		       elem_typ.oid IS NOT NULL AS is_array,
		       COALESCE(elem_typ.oid, 0),
		       COALESCE(elem_typ.typnotnull, false)
		FROM pg_attribute attr
		JOIN pg_type typ ON typ.oid = attr.atttypid
		LEFT JOIN pg_type elem_typ ON elem_typ.oid = typ.typelem AND typ.typcategory = 'A'
		WHERE attr.attrelid = $1
		  AND attr.attisdropped = false
		  AND (attr.attnum > 0 OR attr.attnum < 0)
		ORDER BY attr.attnum`
	rows, err := c.conn.Query(ctx, q, tableOID)
	if err != nil {
		return nil, fmt.Errorf("query pg_attribute: %w", err)
	}
	defer rows.Close()

	var cols []Column
	for rows.Next() {
		var (
			name          string
			typeOID       uint32
			notNull       bool
			hidden        bool
			isArray       bool
			elemOID       uint32
			elemNotNull   bool
		)
		if err := rows.Scan(&name, &typeOID, &notNull, &hidden, &isArray, &elemOID, &elemNotNull); err != nil {
			return nil, fmt.Errorf("scan pg_attribute row: %w", err)
		}
		typ := Type{OID: typeOID}
		if isArray {
			typ.ArrayElem = &ArrayElem{OID: elemOID, Nullable: !elemNotNull}
		}
		cols = append(cols, Column{
			Name:     name,
			Type:     typ,
			Nullable: !notNull,
			Hidden:   hidden,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pg_attribute rows: %w", err)
	}
	return cols, nil
}

func derefOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
