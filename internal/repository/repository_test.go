package repository

import "testing"

func TestSetUpdateEmpty(t *testing.T) {
	if !(SetUpdate{}).Empty() {
		t.Error("zero update must be empty")
	}

	reps := 8
	weight := 82.5
	duration := 60
	rest := 90
	completed := true
	notes := ""
	number := 2

	cases := []struct {
		name   string
		update SetUpdate
	}{
		{"setNumber", SetUpdate{SetNumber: &number}},
		{"reps", SetUpdate{Reps: &reps}},
		{"weight", SetUpdate{Weight: &weight}},
		{"duration", SetUpdate{Duration: &duration}},
		{"restDuration", SetUpdate{RestDuration: &rest}},
		{"completed", SetUpdate{Completed: &completed}},
		// An empty string still counts as a supplied value: it clears notes.
		{"notes", SetUpdate{Notes: &notes}},
	}
	for _, tc := range cases {
		if tc.update.Empty() {
			t.Errorf("update with %s set must not be empty", tc.name)
		}
	}
}
