package driverprobe_test

import (
	"context"
	"testing"

	"github.com/jackc/pgconn"
	"github.com/jschaf/sqlnullify/internal/driverprobe"
	"github.com/jschaf/sqlnullify/internal/pgtest"
	"github.com/jschaf/sqlnullify/internal/texts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests need a live Postgres instance (see internal/pgdocker /
// internal/pgtest) and rely on one being reachable at localhost:5555.
func TestProber_Probe_ReportsAllColumnsAndParamsNullable(t *testing.T) {
	conn, cleanup := pgtest.NewPostgresSchemaString(t, texts.Dedent(`
		CREATE TABLE users (
			user_id bigint PRIMARY KEY,
			name text NOT NULL,
			bio text
		);
	`))
	defer cleanup()

	p := driverprobe.NewProber(conn, nil)
	desc, err := p.Probe(context.Background(), "FindUser", "select user_id, name, bio from users where user_id = $1")
	require.NoError(t, err)

	require.Len(t, desc.Columns, 3)
	require.Len(t, desc.Params, 1)
	for _, c := range desc.Columns {
		assert.True(t, c.Nullable, "probe result is conservative: every column starts nullable")
	}
	assert.True(t, desc.Params[0].Nullable)
}

func TestProber_Probe_FiresTraceHooks(t *testing.T) {
	conn, cleanup := pgtest.NewPostgresSchemaString(t, "CREATE TABLE t (a int);")
	defer cleanup()

	var sentSQL string
	var gotResponse *pgconn.StatementDescription
	trace := &driverprobe.ClientTrace{
		SendQuery: func(sql string) { sentSQL = sql },
		GotResponse: func(sd *pgconn.StatementDescription, err error) {
			gotResponse = sd
		},
	}
	p := driverprobe.NewProber(conn, trace)
	_, err := p.Probe(context.Background(), "SelectA", "select a from t")
	require.NoError(t, err)

	assert.Equal(t, "select a from t", sentSQL)
	require.NotNil(t, gotResponse)
	assert.Len(t, gotResponse.Fields, 1)
}
