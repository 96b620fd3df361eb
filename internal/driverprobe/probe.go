// Package driverprobe produces the "raw" StatementDescription that
// internal/infer refines: for each SQL statement, it asks the live
// Postgres connection to PREPARE the statement and DESCRIBE it, and turns
// the returned parameter and result OIDs into a conservative, all-nullable
// StatementDescription, before any nullability or row-count refinement is
// applied.
//
// Connection handling follows a familiar pattern (context timeouts, one
// *pgx.Conn reused across queries, %w-wrapped errors), but PREPARE/DESCRIBE
// replaces EXPLAIN-plan analysis entirely: PREPARE's row description is
// exact for the output shape, where EXPLAIN JSON output would need parsing
// to recover it.
package driverprobe

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgtype"
	"github.com/jackc/pgx/v4"
	"github.com/jschaf/sqlnullify/internal/infer"
	"github.com/jschaf/sqlnullify/internal/pgschema"
)

// defaultTimeout bounds a single PREPARE/DESCRIBE round trip.
const defaultTimeout = 15 * time.Second

// Prober prepares statements against a live connection to recover their
// column and parameter shape.
type Prober struct {
	conn  *pgx.Conn
	trace *ClientTrace
}

// NewProber wraps conn. The same connection can be reused across many
// Probe calls; each call runs its own PREPARE/DEALLOCATE pair so probed
// statements don't accumulate as named prepared statements on conn.
func NewProber(conn *pgx.Conn, trace *ClientTrace) *Prober {
	return &Prober{conn: conn, trace: trace}
}

// Probe prepares sql and returns the conservative, unrefined
// StatementDescription: every column and parameter is marked nullable,
// since PREPARE/DESCRIBE alone cannot rule out NULL. internal/infer.Infer
// is what narrows these down using the statement's AST.
func (p *Prober) Probe(ctx context.Context, name, sql string) (infer.StatementDescription, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if ctxTrace := ContextClientTrace(ctx); ctxTrace != nil {
		combined := ClientTrace{}
		if p.trace != nil {
			combined = *p.trace
		}
		combined.compose(ctxTrace)
		p = &Prober{conn: p.conn, trace: &combined}
	}

	if p.trace != nil && p.trace.SendQuery != nil {
		p.trace.SendQuery(sql)
	}

	sd, err := p.conn.Prepare(ctx, "", sql)
	if err != nil {
		if p.trace != nil && p.trace.GotResponse != nil {
			p.trace.GotResponse(nil, err)
		}
		return infer.StatementDescription{}, fmt.Errorf("prepare statement %q: %w", name, err)
	}
	defer func() { _ = p.conn.Deallocate(ctx, "") }()

	if p.trace != nil && p.trace.GotResponse != nil {
		p.trace.GotResponse(sd, nil)
	}

	return describeToRaw(name, sql, sd), nil
}

// describeToRaw converts a *pgconn.StatementDescription into the raw,
// all-nullable infer.StatementDescription shape.
func describeToRaw(name, sql string, sd *pgconn.StatementDescription) infer.StatementDescription {
	columns := make([]infer.Column, len(sd.Fields))
	for i, f := range sd.Fields {
		columns[i] = infer.Column{
			Name:     string(f.Name),
			Type:     oidToType(pgschema.OID(f.DataTypeOID)),
			Nullable: true,
		}
	}
	params := make([]infer.Param, len(sd.ParamOIDs))
	for i, oid := range sd.ParamOIDs {
		params[i] = infer.Param{OID: pgschema.OID(oid), Nullable: true}
	}
	return infer.StatementDescription{
		SQL:      sql,
		Columns:  columns,
		Params:   params,
		RowCount: infer.RowCountMany,
	}
}

// oidToType classifies oid as a scalar or array pgschema.Type using
// jackc/pgtype's own OID-to-array-element table, so this package never has
// to hardcode Postgres's array OID numbering scheme.
func oidToType(oid pgschema.OID) pgschema.Type {
	if elemOID, ok := arrayElemOIDs[uint32(oid)]; ok {
		return pgschema.Type{OID: oid, ArrayElem: &pgschema.ArrayElem{OID: pgschema.OID(elemOID)}}
	}
	return pgschema.Type{OID: oid}
}

// arrayElemOIDs maps a handful of common Postgres array type OIDs to their
// element type OID. pgtype exposes both sides of the pair as named
// constants but not a ready-made map, so this package builds the narrow
// slice it actually needs (the types callers are likely to bind as query
// parameters or select as columns) rather than the full catalog.
var arrayElemOIDs = map[uint32]uint32{
	pgtype.BoolArrayOID:      pgtype.BoolOID,
	pgtype.Int2ArrayOID:      pgtype.Int2OID,
	pgtype.Int4ArrayOID:      pgtype.Int4OID,
	pgtype.Int8ArrayOID:      pgtype.Int8OID,
	pgtype.Float4ArrayOID:    pgtype.Float4OID,
	pgtype.Float8ArrayOID:    pgtype.Float8OID,
	pgtype.TextArrayOID:      pgtype.TextOID,
	pgtype.VarcharArrayOID:   pgtype.VarcharOID,
	pgtype.NumericArrayOID:   pgtype.NumericOID,
	pgtype.UUIDArrayOID:      pgtype.UUIDOID,
	pgtype.DateArrayOID:      pgtype.DateOID,
	pgtype.TimestampArrayOID: pgtype.TimestampOID,
}
