package repository

import (
	"reflect"
	"testing"
)

func TestColumnsOfReadsDBTags(t *testing.T) {
	cols := columnsOf(reflect.TypeOf(Vote{}))
	want := []string{"id", "election_id", "voter_id", "candidate_id", "created_at"}
	if !reflect.DeepEqual(cols, want) {
		t.Errorf("columns = %v, want %v", cols, want)
	}
}

func TestNamedPlaceholders(t *testing.T) {
	got := namedPlaceholders([]string{"id", "email", "created_at"})
	want := ":id, :email, :created_at"
	if got != want {
		t.Errorf("placeholders = %q, want %q", got, want)
	}
}

func TestEntityID(t *testing.T) {
	v := &Vote{ID: "vote-1", ElectionID: "e1", VoterID: "u1", CandidateID: "c1"}
	if got := entityID(v); got != "vote-1" {
		t.Errorf("entityID = %q, want vote-1", got)
	}
	if got := entityID(&Vote{}); got != "" {
		t.Errorf("entityID of zero entity = %q, want empty", got)
	}
}

func TestPatchOfSkipsZeroFields(t *testing.T) {
	phone := "555-0100"
	cols := columnsOf(reflect.TypeOf(User{}))

	u := &User{ID: "u1", Email: "a@b.com", Phone: &phone}
	patch := patchOf(u, cols)

	want := map[string]any{"email": "a@b.com", "phone": &phone}
	if !reflect.DeepEqual(patch, want) {
		t.Errorf("patch = %v, want %v", patch, want)
	}
	if _, ok := patch["id"]; ok {
		t.Error("patch must never carry the primary key")
	}
	if _, ok := patch["first_name"]; ok {
		t.Error("nil pointer field leaked into the patch")
	}
}

func TestFilterPatchMergeSemantics(t *testing.T) {
	cols := []string{"id", "a", "b", "c"}

	// nil values mean "leave the stored value untouched"
	patch := map[string]any{"a": nil, "b": 3, "id": "x", "unknown": 1}
	got := filterPatch(patch, cols)

	want := map[string]any{"b": 3}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("filtered = %v, want %v", got, want)
	}
}

func TestFilterPatchDropsTypedNilPointers(t *testing.T) {
	var nilStr *string
	got := filterPatch(map[string]any{"a": nilStr}, []string{"a"})
	if len(got) != 0 {
		t.Errorf("filtered = %v, want empty", got)
	}
}
