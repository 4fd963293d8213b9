package program

// Entry is one exercise assigned to a patient for a given day.
// ID, PatientID and Date never change after creation.
type Entry struct {
	ID              int64    `json:"id"`
	PatientID       string   `json:"user_id"`
	Date            string   `json:"date"`
	Name            string   `json:"name"`
	Repetitions     int      `json:"repetitions"`
	Sets            int      `json:"sets"`
	Weight          *float64 `json:"weight"` // nil means bodyweight
	RestTimeSeconds int      `json:"rest_time"`
	CompletionState []bool   `json:"completion_state"`
}

type CreateParams struct {
	PatientID       string
	Date            string
	Name            string
	Repetitions     int
	Sets            int
	Weight          *float64
	RestTimeSeconds *int
}

// UpdateParams holds the fields of a partial update, nil fields are left as they are.
type UpdateParams struct {
	Name            *string
	Repetitions     *int
	Sets            *int
	Weight          *float64
	ClearWeight     bool // weight explicitly set to null
	RestTimeSeconds *int
	CompletionState *[]bool
}

func (p UpdateParams) IsEmpty() bool {
	return p.Name == nil &&
		p.Repetitions == nil &&
		p.Sets == nil &&
		p.Weight == nil &&
		!p.ClearWeight &&
		p.RestTimeSeconds == nil &&
		p.CompletionState == nil
}

// apply writes the supplied fields onto the entry.
func (p UpdateParams) apply(e *Entry) {
	if p.Name != nil {
		e.Name = *p.Name
	}
	if p.Repetitions != nil {
		e.Repetitions = *p.Repetitions
	}
	if p.Sets != nil {
		e.Sets = *p.Sets
	}
	if p.ClearWeight {
		e.Weight = nil
	} else if p.Weight != nil {
		w := *p.Weight
		e.Weight = &w
	}
	if p.RestTimeSeconds != nil {
		e.RestTimeSeconds = *p.RestTimeSeconds
	}
	if p.CompletionState != nil {
		e.CompletionState = append([]bool{}, (*p.CompletionState)...)
	}
}

func cloneEntry(e Entry) Entry {
	c := e
	if e.Weight != nil {
		w := *e.Weight
		c.Weight = &w
	}
	c.CompletionState = append([]bool{}, e.CompletionState...)
	return c
}
