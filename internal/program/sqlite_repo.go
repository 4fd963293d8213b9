package program

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/2beens/rehabtracker/internal/telemetry/tracing"

	"go.opentelemetry.io/otel/attribute"
)

// SQLiteRepo stores entries in a local sqlite file, for development setups.
type SQLiteRepo struct {
	db *sql.DB
}

func NewSQLiteRepo(db *sql.DB) *SQLiteRepo {
	return &SQLiteRepo{
		db: db,
	}
}

func (r *SQLiteRepo) EnsureSchema(ctx context.Context) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.sqlite.program.ensure-schema")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if _, err := r.db.ExecContext(ctx, createTableSQL("INTEGER PRIMARY KEY AUTOINCREMENT")); err != nil {
		return fmt.Errorf("create table: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, createIndexSQL); err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	return nil
}

func (r *SQLiteRepo) Create(ctx context.Context, entry Entry) (_ int64, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.sqlite.program.create")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	stateText, err := EncodeCompletionState(entry.CompletionState)
	if err != nil {
		return -1, err
	}

	res, err := r.db.ExecContext(
		ctx,
		`INSERT INTO exercise_todo
				(user_id, date, name, repetitions, sets, weight, rest_time, completion_state)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?);`,
		entry.PatientID, entry.Date, entry.Name, entry.Repetitions, entry.Sets, entry.Weight, entry.RestTimeSeconds, stateText,
	)
	if err != nil {
		return -1, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return -1, fmt.Errorf("last insert id: %w", err)
	}

	span.SetAttributes(attribute.Int64("entry.id", id))
	return id, nil
}

func (r *SQLiteRepo) Get(ctx context.Context, id int64) (_ *Entry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.sqlite.program.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int64("id", id))

	row := r.db.QueryRowContext(
		ctx,
		`SELECT `+entryColumns+` FROM exercise_todo WHERE id = ?;`,
		id,
	)
	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &entry, nil
}

func (r *SQLiteRepo) Update(ctx context.Context, id int64, params UpdateParams) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.sqlite.program.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int64("id", id))

	values, err := updateValues(params)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(
		ctx,
		`UPDATE exercise_todo SET
				name = COALESCE(?, name),
				repetitions = COALESCE(?, repetitions),
				sets = COALESCE(?, sets),
				weight = CASE WHEN ? THEN NULL ELSE COALESCE(?, weight) END,
				rest_time = COALESCE(?, rest_time),
				completion_state = COALESCE(?, completion_state)
			WHERE id = ?;`,
		append(values, id)...,
	)
	if err != nil {
		return err
	}

	return checkAffected(res)
}

func (r *SQLiteRepo) Delete(ctx context.Context, id int64) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.sqlite.program.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int64("id", id))

	res, err := r.db.ExecContext(ctx, `DELETE FROM exercise_todo WHERE id = ?;`, id)
	if err != nil {
		return err
	}

	return checkAffected(res)
}

func (r *SQLiteRepo) ListByPatientAndDate(ctx context.Context, patientID, date string) (_ []Entry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.sqlite.program.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("patient_id", patientID))
	span.SetAttributes(attribute.String("date", date))

	rows, err := r.db.QueryContext(
		ctx,
		`SELECT `+entryColumns+` FROM exercise_todo
			WHERE user_id = ? AND date = ?
			ORDER BY id;`,
		patientID, date,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return r.rows2entries(rows)
}

func (r *SQLiteRepo) ListByPatientInRange(ctx context.Context, patientID, start, end string) (_ []Entry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.sqlite.program.list-range")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("patient_id", patientID))
	span.SetAttributes(attribute.String("start", start))
	span.SetAttributes(attribute.String("end", end))

	// sqlite compares TEXT with BINARY collation by default
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT `+entryColumns+` FROM exercise_todo
			WHERE user_id = ? AND date >= ? AND date <= ?
			ORDER BY date, id;`,
		patientID, start, end,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return r.rows2entries(rows)
}

func (r *SQLiteRepo) UpdateCompletionState(ctx context.Context, id int64, state []bool) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.sqlite.program.update-completion")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int64("id", id))

	stateText, err := EncodeCompletionState(state)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(
		ctx,
		`UPDATE exercise_todo SET completion_state = ? WHERE id = ?;`,
		stateText, id,
	)
	if err != nil {
		return err
	}

	return checkAffected(res)
}

func (r *SQLiteRepo) rows2entries(rows *sql.Rows) ([]Entry, error) {
	entries := []Entry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func checkAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
