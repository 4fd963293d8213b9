package program

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func newTestSQLiteRepo(t *testing.T) *SQLiteRepo {
	t.Helper()

	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "program.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})

	repo := NewSQLiteRepo(db)
	require.NoError(t, repo.EnsureSchema(context.Background()))
	// idempotent
	require.NoError(t, repo.EnsureSchema(context.Background()))
	return repo
}

func storesUnderTest(t *testing.T) map[string]Store {
	return map[string]Store{
		"memory": NewMemoryRepo(),
		"sqlite": newTestSQLiteRepo(t),
	}
}

func float64Ptr(f float64) *float64 { return &f }
func intPtr(i int) *int             { return &i }
func stringPtr(s string) *string    { return &s }

func testEntry(patientID, date, name string, sets int) Entry {
	return Entry{
		PatientID:       patientID,
		Date:            date,
		Name:            name,
		Repetitions:     10,
		Sets:            sets,
		Weight:          float64Ptr(12.5),
		RestTimeSeconds: 60,
		CompletionState: make([]bool, sets),
	}
}

func TestStore_CRUD(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			e := testEntry("p1", "2024-03-01", "squat", 3)
			id, err := store.Create(ctx, e)
			require.NoError(t, err)
			require.Positive(t, id)

			got, err := store.Get(ctx, id)
			require.NoError(t, err)
			e.ID = id
			assert.Equal(t, e, *got)

			bodyweight := testEntry("p1", "2024-03-01", "plank", 2)
			bodyweight.Weight = nil
			id2, err := store.Create(ctx, bodyweight)
			require.NoError(t, err)
			assert.NotEqual(t, id, id2)

			got, err = store.Get(ctx, id2)
			require.NoError(t, err)
			assert.Nil(t, got.Weight)

			require.NoError(t, store.Delete(ctx, id))
			_, err = store.Get(ctx, id)
			assert.ErrorIs(t, err, ErrNotFound)
			assert.ErrorIs(t, store.Delete(ctx, id), ErrNotFound)
		})
	}
}

func TestStore_UpdateIsPartial(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			e := testEntry("p1", "2024-03-01", "squat", 3)
			id, err := store.Create(ctx, e)
			require.NoError(t, err)

			require.NoError(t, store.Update(ctx, id, UpdateParams{
				Repetitions: intPtr(8),
			}))
			got, err := store.Get(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, 8, got.Repetitions)
			assert.Equal(t, "squat", got.Name)
			assert.Equal(t, 3, got.Sets)
			assert.Equal(t, 12.5, *got.Weight)
			assert.Equal(t, 60, got.RestTimeSeconds)
			assert.Equal(t, []bool{false, false, false}, got.CompletionState)

			// sets change does not resize the state
			require.NoError(t, store.Update(ctx, id, UpdateParams{
				Name:            stringPtr("front squat"),
				Sets:            intPtr(5),
				Weight:          float64Ptr(20),
				RestTimeSeconds: intPtr(0),
			}))
			got, err = store.Get(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, "front squat", got.Name)
			assert.Equal(t, 5, got.Sets)
			assert.Equal(t, 20.0, *got.Weight)
			assert.Equal(t, 0, got.RestTimeSeconds)
			assert.Len(t, got.CompletionState, 3)

			state := []bool{true}
			require.NoError(t, store.Update(ctx, id, UpdateParams{
				ClearWeight:     true,
				CompletionState: &state,
			}))
			got, err = store.Get(ctx, id)
			require.NoError(t, err)
			assert.Nil(t, got.Weight)
			assert.Equal(t, []bool{true}, got.CompletionState)
			assert.Equal(t, "p1", got.PatientID)
			assert.Equal(t, "2024-03-01", got.Date)

			assert.ErrorIs(t, store.Update(ctx, id+100, UpdateParams{Sets: intPtr(1)}), ErrNotFound)
		})
	}
}

func TestStore_UpdateCompletionState(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			id, err := store.Create(ctx, testEntry("p1", "2024-03-01", "squat", 3))
			require.NoError(t, err)

			require.NoError(t, store.UpdateCompletionState(ctx, id, []bool{true, true, false, true}))
			got, err := store.Get(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, []bool{true, true, false, true}, got.CompletionState)
			assert.Equal(t, 3, got.Sets)

			require.NoError(t, store.UpdateCompletionState(ctx, id, []bool{}))
			got, err = store.Get(ctx, id)
			require.NoError(t, err)
			assert.Empty(t, got.CompletionState)

			assert.ErrorIs(t, store.UpdateCompletionState(ctx, id+100, []bool{true}), ErrNotFound)
		})
	}
}

func TestStore_Lists(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			create := func(patientID, date, name string) int64 {
				id, err := store.Create(ctx, testEntry(patientID, date, name, 2))
				require.NoError(t, err)
				return id
			}

			idA := create("p1", "2024-03-02", "a")
			idB := create("p1", "2024-03-01", "b")
			idC := create("p1", "2024-03-02", "c")
			create("p2", "2024-03-02", "other patient")
			idD := create("p1", "2024-03-05", "d")
			create("p1", "2024-03-06", "after range")
			create("p1", "2024-02-28", "before range")

			day, err := store.ListByPatientAndDate(ctx, "p1", "2024-03-02")
			require.NoError(t, err)
			require.Len(t, day, 2)
			assert.Equal(t, idA, day[0].ID)
			assert.Equal(t, idC, day[1].ID)

			empty, err := store.ListByPatientAndDate(ctx, "p3", "2024-03-02")
			require.NoError(t, err)
			assert.NotNil(t, empty)
			assert.Empty(t, empty)

			// both bounds inclusive, ordered by date then id
			ranged, err := store.ListByPatientInRange(ctx, "p1", "2024-03-01", "2024-03-05")
			require.NoError(t, err)
			require.Len(t, ranged, 4)
			assert.Equal(t, []int64{idB, idA, idC, idD}, []int64{ranged[0].ID, ranged[1].ID, ranged[2].ID, ranged[3].ID})

			single, err := store.ListByPatientInRange(ctx, "p1", "2024-03-05", "2024-03-05")
			require.NoError(t, err)
			require.Len(t, single, 1)
			assert.Equal(t, idD, single[0].ID)

			inverted, err := store.ListByPatientInRange(ctx, "p1", "2024-03-05", "2024-03-01")
			require.NoError(t, err)
			assert.Empty(t, inverted)
		})
	}
}

func TestMemoryRepo_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepo()

	id, err := repo.Create(ctx, testEntry("p1", "2024-03-01", "squat", 2))
	require.NoError(t, err)

	got, err := repo.Get(ctx, id)
	require.NoError(t, err)
	got.CompletionState[0] = true
	*got.Weight = 99

	again, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []bool{false, false}, again.CompletionState)
	assert.Equal(t, 12.5, *again.Weight)
}

func TestSQLiteRepo_CorruptStoredState(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewSQLiteRepo(db)

	rows := sqlmock.NewRows([]string{"id", "user_id", "date", "name", "repetitions", "sets", "weight", "rest_time", "completion_state"}).
		AddRow(int64(7), "p1", "2024-03-01", "squat", 10, 3, nil, 60, "[true, maybe]")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, user_id, date, name")).
		WithArgs(int64(7)).
		WillReturnRows(rows)

	_, err = repo.Get(context.Background(), 7)
	assert.ErrorIs(t, err, ErrCorruptState)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteRepo_StoreErrors(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewSQLiteRepo(db)
	ctx := context.Background()
	connErr := errors.New("disk I/O error")

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO exercise_todo")).
		WillReturnError(connErr)
	_, err = repo.Create(ctx, testEntry("p1", "2024-03-01", "squat", 1))
	assert.ErrorIs(t, err, connErr)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, user_id")).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	_, err = repo.Get(ctx, 3)
	assert.ErrorIs(t, err, ErrNotFound)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM exercise_todo")).
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Delete(ctx, 3), ErrNotFound)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE exercise_todo SET completion_state")).
		WithArgs("[true]", int64(3)).
		WillReturnError(connErr)
	assert.ErrorIs(t, repo.UpdateCompletionState(ctx, 3, []bool{true}), connErr)

	assert.NoError(t, mock.ExpectationsWereMet())
}
