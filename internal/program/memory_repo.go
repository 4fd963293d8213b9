package program

import (
	"context"
	"fmt"
	"sync"

	"github.com/2beens/rehabtracker/internal/telemetry/tracing"

	"go.opentelemetry.io/otel/attribute"
)

// MemoryRepo keeps entries in memory. Used in tests and when running without a database.
type MemoryRepo struct {
	mutex   sync.RWMutex
	lastID  int64
	entries map[int64]Entry
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		entries: make(map[int64]Entry),
	}
}

func (r *MemoryRepo) Create(ctx context.Context, entry Entry) (_ int64, err error) {
	_, span := tracing.GlobalTracer.Start(ctx, "repo.memory.program.create")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.lastID++
	entry.ID = r.lastID
	r.entries[entry.ID] = cloneEntry(entry)

	span.SetAttributes(attribute.Int64("entry.id", entry.ID))
	return entry.ID, nil
}

func (r *MemoryRepo) Get(ctx context.Context, id int64) (_ *Entry, err error) {
	_, span := tracing.GlobalTracer.Start(ctx, "repo.memory.program.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int64("id", id))

	r.mutex.RLock()
	defer r.mutex.RUnlock()

	entry, ok := r.entries[id]
	if !ok {
		return nil, fmt.Errorf("get %d: %w", id, ErrNotFound)
	}
	c := cloneEntry(entry)
	return &c, nil
}

func (r *MemoryRepo) Update(ctx context.Context, id int64, params UpdateParams) (err error) {
	_, span := tracing.GlobalTracer.Start(ctx, "repo.memory.program.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int64("id", id))

	r.mutex.Lock()
	defer r.mutex.Unlock()

	entry, ok := r.entries[id]
	if !ok {
		return fmt.Errorf("update %d: %w", id, ErrNotFound)
	}
	params.apply(&entry)
	r.entries[id] = entry
	return nil
}

func (r *MemoryRepo) Delete(ctx context.Context, id int64) (err error) {
	_, span := tracing.GlobalTracer.Start(ctx, "repo.memory.program.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int64("id", id))

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, ok := r.entries[id]; !ok {
		return fmt.Errorf("delete %d: %w", id, ErrNotFound)
	}
	delete(r.entries, id)
	return nil
}

func (r *MemoryRepo) ListByPatientAndDate(ctx context.Context, patientID, date string) (_ []Entry, err error) {
	_, span := tracing.GlobalTracer.Start(ctx, "repo.memory.program.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("patient_id", patientID))
	span.SetAttributes(attribute.String("date", date))

	r.mutex.RLock()
	defer r.mutex.RUnlock()

	entries := []Entry{}
	for _, e := range r.entries {
		if e.PatientID == patientID && e.Date == date {
			entries = append(entries, cloneEntry(e))
		}
	}
	sortByID(entries)
	return entries, nil
}

func (r *MemoryRepo) ListByPatientInRange(ctx context.Context, patientID, start, end string) (_ []Entry, err error) {
	_, span := tracing.GlobalTracer.Start(ctx, "repo.memory.program.list-range")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("patient_id", patientID))
	span.SetAttributes(attribute.String("start", start))
	span.SetAttributes(attribute.String("end", end))

	r.mutex.RLock()
	defer r.mutex.RUnlock()

	entries := []Entry{}
	for _, e := range r.entries {
		if e.PatientID == patientID && e.Date >= start && e.Date <= end {
			entries = append(entries, cloneEntry(e))
		}
	}
	sortByDateAndID(entries)
	return entries, nil
}

func (r *MemoryRepo) UpdateCompletionState(ctx context.Context, id int64, state []bool) (err error) {
	_, span := tracing.GlobalTracer.Start(ctx, "repo.memory.program.update-completion")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int64("id", id))

	r.mutex.Lock()
	defer r.mutex.Unlock()

	entry, ok := r.entries[id]
	if !ok {
		return fmt.Errorf("update completion %d: %w", id, ErrNotFound)
	}
	entry.CompletionState = append([]bool{}, state...)
	r.entries[id] = entry
	return nil
}
