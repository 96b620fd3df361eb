package driverprobe

import (
	"context"

	"github.com/jackc/pgconn"
)

// clientEventContextKey is a unique type to prevent context key collisions.
type clientEventContextKey struct{}

// ContextClientTrace returns the ClientTrace associated with ctx, or nil.
func ContextClientTrace(ctx context.Context) *ClientTrace {
	trace, _ := ctx.Value(clientEventContextKey{}).(*ClientTrace)
	return trace
}

// WithClientTrace returns a context whose Prober calls will invoke trace's
// hooks in addition to any hooks already registered on ctx.
//
// This narrows a more general pgx client trace (one that could hook into
// query/exec/batch calls generically) down to the two events a probe run
// over PREPARE/DESCRIBE actually produces.
func WithClientTrace(ctx context.Context, trace *ClientTrace) context.Context {
	if trace == nil {
		panic("nil trace")
	}
	old := ContextClientTrace(ctx)
	trace.compose(old)
	return context.WithValue(ctx, clientEventContextKey{}, trace)
}

// ClientTrace is a set of hooks run at various stages of probing a
// statement. Any hook may be nil.
type ClientTrace struct {
	// SendQuery is called just before a statement is sent to Postgres to be
	// prepared.
	SendQuery func(sql string)
	// GotResponse is called after PREPARE returns, successfully or not.
	GotResponse func(*pgconn.StatementDescription, error)
}

func (t *ClientTrace) compose(old *ClientTrace) {
	if old == nil {
		return
	}
	if old.SendQuery != nil {
		if t.SendQuery == nil {
			t.SendQuery = old.SendQuery
		} else {
			cur := t.SendQuery
			t.SendQuery = func(sql string) { cur(sql); old.SendQuery(sql) }
		}
	}
	if old.GotResponse != nil {
		if t.GotResponse == nil {
			t.GotResponse = old.GotResponse
		} else {
			cur := t.GotResponse
			t.GotResponse = func(sd *pgconn.StatementDescription, err error) { cur(sd, err); old.GotResponse(sd, err) }
		}
	}
}
