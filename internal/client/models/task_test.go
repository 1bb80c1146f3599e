package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in      string
		want    Status
		wantErr bool
	}{
		{"To Do", StatusTodo, false},
		{"todo", StatusTodo, false},
		{"  in   progress ", StatusInProgress, false},
		{"doing", StatusInProgress, false},
		{"DONE", StatusDone, false},
		{"blocked", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseStatus(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnknownStatus)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
			require.True(t, got.Valid())
		})
	}
}

func TestTaskApply_FieldLevel(t *testing.T) {
	task := Task{ID: "1", Title: "X", Description: "d", Status: StatusTodo, Tags: []string{"a"}, Version: 1}

	task.Apply(TaskPatch{ID: "1", Status: ptr(StatusDone), Version: 2})
	task.Apply(TaskPatch{ID: "1", Title: ptr("Y")})

	want := Task{ID: "1", Title: "Y", Description: "d", Status: StatusDone, Tags: []string{"a"}, Version: 2}
	if diff := cmp.Diff(want, task); diff != "" {
		t.Fatalf("task mismatch (-want +got):\n%s", diff)
	}
}

func TestTaskApply_ClearsAssigneeWithEmptyString(t *testing.T) {
	task := Task{ID: "1", AssignedTo: "u1"}
	task.Apply(TaskPatch{AssignedTo: ptr("")})
	require.Empty(t, task.AssignedTo)
}

func TestTaskPatch_JSONAbsentFields(t *testing.T) {
	var p TaskPatch
	require.NoError(t, json.Unmarshal([]byte(`{"id":"1","title":"Y"}`), &p))
	require.Equal(t, "Y", *p.Title)
	require.Nil(t, p.Status)
	require.Nil(t, p.Tags)
	require.False(t, p.Empty())

	require.True(t, TaskPatch{ID: "1"}.Empty())
	require.False(t, TaskPatch{ClearDueDate: true}.Empty())
}

func TestTaskClone_Independent(t *testing.T) {
	due := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	orig := Task{ID: "1", Tags: []string{"a"}, DueDate: &due}
	c := orig.Clone()
	c.Tags[0] = "b"
	*c.DueDate = due.Add(time.Hour)

	require.Equal(t, "a", orig.Tags[0])
	require.Equal(t, due, *orig.DueDate)
}

func TestPatchFromTask_RoundTrip(t *testing.T) {
	due := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)
	src := Task{ID: "1", Title: "T", Description: "D", Status: StatusInProgress, DueDate: &due, AssignedTo: "u", Tags: []string{"x"}, BoardID: "b", Version: 3}

	var dst Task
	dst.ID = "1"
	dst.Apply(PatchFromTask(src))

	if diff := cmp.Diff(src, dst); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestPatchFromTask_CarriesClears(t *testing.T) {
	p := PatchFromTask(Task{ID: "1", Title: "T", Status: StatusTodo, BoardID: "b", Version: 2})
	require.NotNil(t, p.AssignedTo)
	require.NotNil(t, p.Tags)
	require.True(t, p.ClearDueDate)

	raw, err := json.Marshal(p)
	require.NoError(t, err)
	require.Contains(t, string(raw), `"assignedTo":""`)
	require.Contains(t, string(raw), `"tags":[]`)
	require.Contains(t, string(raw), `"clearDueDate":true`)

	due := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)
	held := Task{ID: "1", AssignedTo: "u", Tags: []string{"x"}, DueDate: &due}
	var decoded TaskPatch
	require.NoError(t, json.Unmarshal(raw, &decoded))
	held.Apply(decoded)
	require.Empty(t, held.AssignedTo)
	require.Nil(t, held.Tags)
	require.Nil(t, held.DueDate)
	require.Equal(t, int64(2), held.Version)
}

func TestParseTags(t *testing.T) {
	require.Equal(t, []string{"a", "b c"}, ParseTags(" a, ,b c,"))
	require.Nil(t, ParseTags(""))
}
