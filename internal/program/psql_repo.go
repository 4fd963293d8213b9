package program

import (
	"context"
	"errors"
	"fmt"

	"github.com/2beens/rehabtracker/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

type PsqlRepo struct {
	db *pgxpool.Pool
}

func NewPsqlRepo(db *pgxpool.Pool) *PsqlRepo {
	return &PsqlRepo{
		db: db,
	}
}

// EnsureSchema creates the entries table if missing.
func (r *PsqlRepo) EnsureSchema(ctx context.Context) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.psql.program.ensure-schema")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if _, err := r.db.Exec(ctx, createTableSQL("BIGSERIAL PRIMARY KEY")); err != nil {
		return fmt.Errorf("create table: %w", err)
	}
	if _, err := r.db.Exec(ctx, createIndexSQL); err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	return nil
}

func (r *PsqlRepo) Create(ctx context.Context, entry Entry) (_ int64, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.psql.program.create")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	stateText, err := EncodeCompletionState(entry.CompletionState)
	if err != nil {
		return -1, err
	}

	rows, err := r.db.Query(
		ctx,
		`INSERT INTO exercise_todo
				(user_id, date, name, repetitions, sets, weight, rest_time, completion_state)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id;`,
		entry.PatientID, entry.Date, entry.Name, entry.Repetitions, entry.Sets, entry.Weight, entry.RestTimeSeconds, stateText,
	)
	if err != nil {
		return -1, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return -1, err
	}

	if !rows.Next() {
		return -1, errors.New("unexpected error [no rows next]")
	}

	var id int64
	if err := rows.Scan(&id); err != nil {
		return -1, fmt.Errorf("rows scan: %w", err)
	}

	span.SetAttributes(attribute.Int64("entry.id", id))
	return id, nil
}

func (r *PsqlRepo) Get(ctx context.Context, id int64) (_ *Entry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.psql.program.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int64("id", id))

	row := r.db.QueryRow(
		ctx,
		`SELECT `+entryColumns+` FROM exercise_todo WHERE id = $1;`,
		id,
	)
	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &entry, nil
}

func (r *PsqlRepo) Update(ctx context.Context, id int64, params UpdateParams) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.psql.program.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int64("id", id))

	values, err := updateValues(params)
	if err != nil {
		return err
	}

	tag, err := r.db.Exec(
		ctx,
		`UPDATE exercise_todo SET
				name = COALESCE($1::text, name),
				repetitions = COALESCE($2::integer, repetitions),
				sets = COALESCE($3::integer, sets),
				weight = CASE WHEN $4::boolean THEN NULL ELSE COALESCE($5::double precision, weight) END,
				rest_time = COALESCE($6::integer, rest_time),
				completion_state = COALESCE($7::text, completion_state)
			WHERE id = $8;`,
		append(values, id)...,
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *PsqlRepo) Delete(ctx context.Context, id int64) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.psql.program.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int64("id", id))

	tag, err := r.db.Exec(
		ctx,
		`DELETE FROM exercise_todo WHERE id = $1`,
		id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PsqlRepo) ListByPatientAndDate(ctx context.Context, patientID, date string) (_ []Entry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.psql.program.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("patient_id", patientID))
	span.SetAttributes(attribute.String("date", date))

	rows, err := r.db.Query(
		ctx,
		`SELECT `+entryColumns+` FROM exercise_todo
			WHERE user_id = $1 AND date = $2
			ORDER BY id;`,
		patientID, date,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.rows2entries(rows)
}

func (r *PsqlRepo) ListByPatientInRange(ctx context.Context, patientID, start, end string) (_ []Entry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.psql.program.list-range")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("patient_id", patientID))
	span.SetAttributes(attribute.String("start", start))
	span.SetAttributes(attribute.String("end", end))

	// COLLATE "C" keeps the comparison byte-wise, same as the other stores
	rows, err := r.db.Query(
		ctx,
		`SELECT `+entryColumns+` FROM exercise_todo
			WHERE user_id = $1
				AND date COLLATE "C" >= $2
				AND date COLLATE "C" <= $3
			ORDER BY date COLLATE "C", id;`,
		patientID, start, end,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.rows2entries(rows)
}

func (r *PsqlRepo) UpdateCompletionState(ctx context.Context, id int64, state []bool) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.psql.program.update-completion")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int64("id", id))

	stateText, err := EncodeCompletionState(state)
	if err != nil {
		return err
	}

	tag, err := r.db.Exec(
		ctx,
		`UPDATE exercise_todo SET completion_state = $1 WHERE id = $2;`,
		stateText, id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PsqlRepo) rows2entries(rows pgx.Rows) ([]Entry, error) {
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
