package program

import (
	"context"
	"sort"
)

// Store persists program entries. It is injected into the Service and the report generator.
type Store interface {
	Create(ctx context.Context, entry Entry) (int64, error)
	Get(ctx context.Context, id int64) (*Entry, error)
	Update(ctx context.Context, id int64, params UpdateParams) error
	Delete(ctx context.Context, id int64) error
	// ListByPatientAndDate returns the entries sorted by id.
	ListByPatientAndDate(ctx context.Context, patientID, date string) ([]Entry, error)
	// ListByPatientInRange returns entries with start <= date <= end, compared as strings,
	// sorted by date and then id.
	ListByPatientInRange(ctx context.Context, patientID, start, end string) ([]Entry, error)
	UpdateCompletionState(ctx context.Context, id int64, state []bool) error
}

func sortByID(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].ID < entries[j].ID
	})
}

func sortByDateAndID(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Date != entries[j].Date {
			return entries[i].Date < entries[j].Date
		}
		return entries[i].ID < entries[j].ID
	})
}
