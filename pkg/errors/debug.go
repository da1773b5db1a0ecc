package errors

import (
	"errors"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// PGDiagnostics carries the server-side detail of a postgres failure.
type PGDiagnostics struct {
	Code       string `json:"code"`
	Constraint string `json:"constraint,omitempty"`
	Table      string `json:"table,omitempty"`
	Column     string `json:"column,omitempty"`
	Detail     string `json:"detail,omitempty"`
	Message    string `json:"message,omitempty"`
}

// Diagnostics is the log-friendly breakdown of an error chain.
type Diagnostics struct {
	Message  string         `json:"message"`
	Code     Code           `json:"code,omitempty"`
	Chain    []string       `json:"chain,omitempty"`
	Fields   []string       `json:"fields,omitempty"`
	Postgres *PGDiagnostics `json:"postgres,omitempty"`
}

// Diagnose walks err and collects what a log line needs to explain it.
func Diagnose(err error) Diagnostics {
	if err == nil {
		return Diagnostics{}
	}

	d := Diagnostics{Message: err.Error()}
	if typed := As(err); typed != nil {
		d.Code = typed.Code()
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}
	if fields := Fields(err); len(fields) > 0 {
		for name := range fields {
			d.Fields = append(d.Fields, name)
		}
		sort.Strings(d.Fields)
	}
	d.Postgres = postgresDiagnostics(err)
	return d
}

// LogFields flattens the diagnostics into logger fields.
func (d Diagnostics) LogFields() map[string]any {
	fields := map[string]any{
		"error":       d.Message,
		"error_code":  d.Code,
		"error_chain": d.Chain,
	}
	if len(d.Fields) > 0 {
		fields["error_fields"] = d.Fields
	}
	if pg := d.Postgres; pg != nil {
		fields["pg_code"] = pg.Code
		fields["pg_constraint"] = pg.Constraint
		fields["pg_table"] = pg.Table
		fields["pg_column"] = pg.Column
		fields["pg_detail"] = pg.Detail
		fields["pg_message"] = pg.Message
	}
	return fields
}

func postgresDiagnostics(err error) *PGDiagnostics {
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return &PGDiagnostics{
			Code:       pgxErr.Code,
			Constraint: pgxErr.ConstraintName,
			Table:      pgxErr.TableName,
			Column:     pgxErr.ColumnName,
			Detail:     pgxErr.Detail,
			Message:    pgxErr.Message,
		}
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return &PGDiagnostics{
			Code:       string(pqErr.Code),
			Constraint: pqErr.Constraint,
			Table:      pqErr.Table,
			Column:     pqErr.Column,
			Detail:     pqErr.Detail,
			Message:    pqErr.Message,
		}
	}
	return nil
}
