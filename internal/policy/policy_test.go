package policy

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2beens/rehabtracker/internal/auth"
)

var (
	therapist = auth.Principal{ID: "t1", Role: auth.RoleTherapist}
	patientP1 = auth.Principal{ID: "p1", Role: auth.RolePatient}
	unknown   = auth.Principal{ID: "x1", Role: auth.Role("admin")}
)

func TestDecide_Table(t *testing.T) {
	testCases := []struct {
		name      string
		principal auth.Principal
		action    Action
		ownerID   string
		want      Decision
	}{
		// rule 1: therapist only
		{"therapist assign", therapist, ActionAssign, "p1", Allow},
		{"patient assign own", patientP1, ActionAssign, "p1", Deny},
		{"unknown assign", unknown, ActionAssign, "p1", Deny},
		{"therapist modify", therapist, ActionModifyProgram, "", Allow},
		{"patient modify own", patientP1, ActionModifyProgram, "p1", Deny},
		{"therapist delete", therapist, ActionDeleteProgram, "", Allow},
		{"patient delete own", patientP1, ActionDeleteProgram, "p1", Deny},
		// rule 2: view
		{"therapist view any", therapist, ActionViewProgram, "p2", Allow},
		{"patient view own", patientP1, ActionViewProgram, "p1", Allow},
		{"patient view other", patientP1, ActionViewProgram, "p2", Deny},
		{"patient view unresolved self token", patientP1, ActionViewProgram, SelfToken, Deny},
		{"unknown view own", auth.Principal{ID: "p1", Role: "admin"}, ActionViewProgram, "p1", Deny},
		// rule 3: report
		{"therapist report any", therapist, ActionReportView, "p2", Allow},
		{"patient report own", patientP1, ActionReportView, "p1", Allow},
		{"patient report other", patientP1, ActionReportView, "p2", Deny},
		{"unknown report", unknown, ActionReportView, "x1", Deny},
		// rule 4: completion is not checked
		{"patient completion other", patientP1, ActionUpdateCompletion, "p2", Allow},
		{"unknown completion", unknown, ActionUpdateCompletion, "", Allow},
		// unknown action
		{"therapist unknown action", therapist, Action("export"), "p1", Deny},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Decide(tc.principal, tc.action, tc.ownerID))
		})
	}
}

func TestDecide_EmptyPatientIDNeverMatches(t *testing.T) {
	p := auth.Principal{ID: "", Role: auth.RolePatient}
	assert.Equal(t, Deny, Decide(p, ActionViewProgram, ""))
	assert.Equal(t, Deny, Decide(p, ActionReportView, ""))
}

func TestAuthorize(t *testing.T) {
	require.NoError(t, Authorize(therapist, ActionAssign, "p1"))

	err := Authorize(patientP1, ActionAssign, "p1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestResolveOwner(t *testing.T) {
	assert.Equal(t, "p1", ResolveOwner(patientP1, SelfToken))
	assert.Equal(t, "p2", ResolveOwner(patientP1, "p2"))
	assert.Equal(t, "t1", ResolveOwner(therapist, SelfToken))

	// after resolving, the self token grants own access
	assert.Equal(t, Allow, Decide(patientP1, ActionViewProgram, ResolveOwner(patientP1, SelfToken)))
}

func TestDecide_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	ids := gen.OneConstOf("p1", "p2", "p3", "t1")
	viewActions := gen.OneConstOf(ActionViewProgram, ActionReportView)
	therapistOnly := gen.OneConstOf(ActionAssign, ActionModifyProgram, ActionDeleteProgram)

	properties.Property("patients see exactly their own data", prop.ForAll(
		func(id, owner string, action Action) bool {
			p := auth.Principal{ID: id, Role: auth.RolePatient}
			return Decide(p, action, owner) == Decision(id == owner)
		},
		ids, ids, viewActions,
	))

	properties.Property("therapists see everything", prop.ForAll(
		func(id, owner string, action Action) bool {
			p := auth.Principal{ID: id, Role: auth.RoleTherapist}
			return Decide(p, action, owner) == Allow
		},
		ids, ids, viewActions,
	))

	properties.Property("program mutations are therapist only, regardless of owner", prop.ForAll(
		func(id, owner string, action Action, isTherapist bool) bool {
			role := auth.RolePatient
			if isTherapist {
				role = auth.RoleTherapist
			}
			p := auth.Principal{ID: id, Role: role}
			return Decide(p, action, owner) == Decision(isTherapist)
		},
		ids, ids, therapistOnly, gen.Bool(),
	))

	properties.Property("decisions are deterministic", prop.ForAll(
		func(id, owner string, action Action) bool {
			p := auth.Principal{ID: id, Role: auth.RolePatient}
			return Decide(p, action, owner) == Decide(p, action, owner)
		},
		ids, ids, gen.OneConstOf(ActionAssign, ActionViewProgram, ActionReportView, ActionUpdateCompletion),
	))

	properties.TestingRun(t)
}
