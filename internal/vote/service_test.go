package vote

import (
	"context"
	"errors"
	"testing"

	"github.com/MumuCarrot/vote-BE/internal/repository"
)

// fakeStore keeps votes in memory and matches rows against the rendered
// SQL of the conditions the service builds.
type fakeStore struct {
	rows []repository.Vote
}

func (f *fakeStore) match(cond repository.Condition, v repository.Vote) bool {
	expr, args := cond.SQL()
	switch expr {
	case "TRUE":
		return true
	case "id = ?":
		return v.ID == args[0].(string)
	case "election_id = ?":
		return v.ElectionID == args[0].(string)
	case "voter_id = ?":
		return v.VoterID == args[0].(string)
	case "(election_id = ?) AND (voter_id = ?)":
		return v.ElectionID == args[0].(string) && v.VoterID == args[1].(string)
	}
	return false
}

func (f *fakeStore) Create(ctx context.Context, v *repository.Vote, exists repository.Condition) (*repository.Vote, error) {
	f.rows = append(f.rows, *v)
	return v, nil
}

func (f *fakeStore) ReadOne(ctx context.Context, cond repository.Condition) (*repository.Vote, error) {
	for i := range f.rows {
		if f.match(cond, f.rows[i]) {
			out := f.rows[i]
			return &out, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) ReadMany(ctx context.Context, cond repository.Condition) ([]repository.Vote, error) {
	var out []repository.Vote
	for _, v := range f.rows {
		if f.match(cond, v) {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

func (f *fakeStore) ReadPaginated(ctx context.Context, cond repository.Condition, page, pageSize int) ([]repository.Vote, error) {
	return f.ReadMany(ctx, cond)
}

func (f *fakeStore) UpdateFields(ctx context.Context, patch map[string]any, cond repository.Condition) (*repository.Vote, error) {
	for i := range f.rows {
		if !f.match(cond, f.rows[i]) {
			continue
		}
		if v, ok := patch["candidate_id"]; ok {
			f.rows[i].CandidateID = v.(string)
		}
		if v, ok := patch["voter_id"]; ok {
			f.rows[i].VoterID = v.(string)
		}
		out := f.rows[i]
		return &out, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeStore) Delete(ctx context.Context, cond repository.Condition) (bool, error) {
	for i := range f.rows {
		if f.match(cond, f.rows[i]) {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func newVoteService() (*Service, *fakeStore) {
	store := &fakeStore{}
	return NewService(store, nil), store
}

func TestCreateStampsTheCaller(t *testing.T) {
	svc, _ := newVoteService()
	ctx := context.Background()

	v, err := svc.Create(ctx, CreateInput{ElectionID: "e1", CandidateID: "c1"}, "voter-1")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if v.VoterID != "voter-1" {
		t.Errorf("voter id = %q, want voter-1", v.VoterID)
	}
	if v.ID == "" {
		t.Error("created vote has no id")
	}
	if v.CreatedAt == nil {
		t.Error("created vote has no timestamp")
	}
}

func TestUpdateByOwner(t *testing.T) {
	svc, _ := newVoteService()
	ctx := context.Background()

	v, err := svc.Create(ctx, CreateInput{ElectionID: "e1", CandidateID: "c1"}, "voter-1")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	newCandidate := "c2"
	updated, err := svc.Update(ctx, v.ID, UpdateInput{CandidateID: &newCandidate}, "voter-1")
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.CandidateID != "c2" {
		t.Errorf("candidate id = %q, want c2", updated.CandidateID)
	}
	if updated.VoterID != "voter-1" {
		t.Errorf("voter id changed to %q", updated.VoterID)
	}
}

func TestUpdateByNonOwnerDenied(t *testing.T) {
	svc, store := newVoteService()
	ctx := context.Background()

	v, err := svc.Create(ctx, CreateInput{ElectionID: "e1", CandidateID: "c1"}, "voter-1")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	newCandidate := "c2"
	_, err = svc.Update(ctx, v.ID, UpdateInput{CandidateID: &newCandidate}, "intruder")
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("err = %v, want ErrPermissionDenied", err)
	}
	if store.rows[0].CandidateID != "c1" {
		t.Error("denied update still changed the row")
	}
}

func TestUpdateMissingVoteBeatsOwnershipCheck(t *testing.T) {
	svc, _ := newVoteService()
	ctx := context.Background()

	// A vote that does not exist is reported as missing, never as a
	// permission problem, regardless of who asks.
	newCandidate := "c2"
	_, err := svc.Update(ctx, "missing", UpdateInput{CandidateID: &newCandidate}, "anyone")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestUpdateEmptyPatchReturnsExisting(t *testing.T) {
	svc, _ := newVoteService()
	ctx := context.Background()

	v, err := svc.Create(ctx, CreateInput{ElectionID: "e1", CandidateID: "c1"}, "voter-1")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := svc.Update(ctx, v.ID, UpdateInput{}, "voter-1")
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if got.CandidateID != "c1" {
		t.Errorf("candidate id = %q, want unchanged c1", got.CandidateID)
	}
}

func TestDeleteByNonOwnerDenied(t *testing.T) {
	svc, store := newVoteService()
	ctx := context.Background()

	v, err := svc.Create(ctx, CreateInput{ElectionID: "e1", CandidateID: "c1"}, "voter-1")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	err = svc.Delete(ctx, v.ID, "intruder")
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("err = %v, want ErrPermissionDenied", err)
	}
	if len(store.rows) != 1 {
		t.Error("denied delete removed the row")
	}
}

func TestDeleteMissingVote(t *testing.T) {
	svc, _ := newVoteService()

	err := svc.Delete(context.Background(), "missing", "anyone")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestDeleteByOwner(t *testing.T) {
	svc, store := newVoteService()
	ctx := context.Background()

	v, err := svc.Create(ctx, CreateInput{ElectionID: "e1", CandidateID: "c1"}, "voter-1")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := svc.Delete(ctx, v.ID, "voter-1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if len(store.rows) != 0 {
		t.Error("row survived the delete")
	}
}

func TestGetUserVoteForElection(t *testing.T) {
	svc, _ := newVoteService()
	ctx := context.Background()

	if _, err := svc.Create(ctx, CreateInput{ElectionID: "e1", CandidateID: "c1"}, "voter-1"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := svc.Create(ctx, CreateInput{ElectionID: "e2", CandidateID: "c9"}, "voter-1"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	v, err := svc.GetUserVoteForElection(ctx, "e1", "voter-1")
	if err != nil {
		t.Fatalf("GetUserVoteForElection failed: %v", err)
	}
	if v == nil || v.CandidateID != "c1" {
		t.Errorf("vote = %+v, want the e1 vote", v)
	}

	none, err := svc.GetUserVoteForElection(ctx, "e1", "someone-else")
	if err != nil {
		t.Fatalf("GetUserVoteForElection failed: %v", err)
	}
	if none != nil {
		t.Errorf("vote = %+v, want nil for a user who has not voted", none)
	}
}

func TestListingsReturnEmptySlices(t *testing.T) {
	svc, _ := newVoteService()
	ctx := context.Background()

	byElection, err := svc.GetByElection(ctx, "e1")
	if err != nil {
		t.Fatalf("GetByElection failed: %v", err)
	}
	if byElection == nil || len(byElection) != 0 {
		t.Errorf("votes = %v, want empty non-nil slice", byElection)
	}

	byUser, err := svc.GetByUser(ctx, "voter-1")
	if err != nil {
		t.Fatalf("GetByUser failed: %v", err)
	}
	if byUser == nil || len(byUser) != 0 {
		t.Errorf("votes = %v, want empty non-nil slice", byUser)
	}
}
