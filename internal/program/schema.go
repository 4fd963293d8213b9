package program

import (
	"fmt"
)

const tableName = "exercise_todo"

// the schema is shared by postgres and sqlite, only the id column differs
func createTableSQL(idColumn string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id %s,
	user_id TEXT NOT NULL,
	date TEXT NOT NULL,
	name TEXT NOT NULL,
	repetitions INTEGER NOT NULL,
	sets INTEGER NOT NULL,
	weight DOUBLE PRECISION,
	rest_time INTEGER NOT NULL,
	completion_state TEXT NOT NULL DEFAULT '[]'
);`, tableName, idColumn)
}

const createIndexSQL = `CREATE INDEX IF NOT EXISTS exercise_todo_user_date_idx ON exercise_todo (user_id, date);`

type rowScanner interface {
	Scan(dest ...any) error
}

// scanEntry reads the columns in the order of entryColumns.
func scanEntry(row rowScanner) (Entry, error) {
	var (
		e         Entry
		stateText string
	)
	if err := row.Scan(
		&e.ID, &e.PatientID, &e.Date, &e.Name, &e.Repetitions, &e.Sets, &e.Weight, &e.RestTimeSeconds, &stateText,
	); err != nil {
		return Entry{}, fmt.Errorf("rows scan: %w", err)
	}

	state, err := DecodeCompletionState(stateText)
	if err != nil {
		return Entry{}, fmt.Errorf("entry %d: %w", e.ID, err)
	}
	e.CompletionState = state
	return e, nil
}

const entryColumns = `id, user_id, date, name, repetitions, sets, weight, rest_time, completion_state`

// updateValues flattens UpdateParams into the arguments of the update statement.
func updateValues(params UpdateParams) ([]any, error) {
	var stateText *string
	if params.CompletionState != nil {
		s, err := EncodeCompletionState(*params.CompletionState)
		if err != nil {
			return nil, err
		}
		stateText = &s
	}
	return []any{
		params.Name,
		params.Repetitions,
		params.Sets,
		params.ClearWeight,
		params.Weight,
		params.RestTimeSeconds,
		stateText,
	}, nil
}
