// Package vote implements vote CRUD with the ownership rule that only
// the voter who cast a vote may change or remove it.
package vote

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/MumuCarrot/vote-BE/internal/metrics"
	"github.com/MumuCarrot/vote-BE/internal/repository"
)

// ErrPermissionDenied signals that the caller does not own the vote
var ErrPermissionDenied = errors.New("you don't have permission to modify this vote")

// Store persists vote rows
type Store interface {
	Create(ctx context.Context, v *repository.Vote, exists repository.Condition) (*repository.Vote, error)
	ReadOne(ctx context.Context, cond repository.Condition) (*repository.Vote, error)
	ReadMany(ctx context.Context, cond repository.Condition) ([]repository.Vote, error)
	ReadPaginated(ctx context.Context, cond repository.Condition, page, pageSize int) ([]repository.Vote, error)
	UpdateFields(ctx context.Context, patch map[string]any, cond repository.Condition) (*repository.Vote, error)
	Delete(ctx context.Context, cond repository.Condition) (bool, error)
}

// CreateInput is the vote creation payload. The voter is always the
// authenticated caller, never taken from the payload.
type CreateInput struct {
	ElectionID  string `json:"election_id" validate:"required"`
	CandidateID string `json:"candidate_id" validate:"required"`
}

// UpdateInput is a merge-patch over a vote. The voter id cannot be
// changed through an update.
type UpdateInput struct {
	CandidateID *string `json:"candidate_id,omitempty"`
}

// Service provides vote operations
type Service struct {
	votes Store
	log   *slog.Logger
}

// NewService creates a vote service
func NewService(votes Store, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{votes: votes, log: log}
}

// Create casts a vote on behalf of voterID
func (s *Service) Create(ctx context.Context, in CreateInput, voterID string) (*repository.Vote, error) {
	s.log.Info("creating vote", "election_id", in.ElectionID, "voter_id", voterID)

	now := time.Now().UTC()
	v := &repository.Vote{
		ID:          uuid.NewString(),
		ElectionID:  in.ElectionID,
		VoterID:     voterID,
		CandidateID: in.CandidateID,
		CreatedAt:   &now,
	}

	created, err := s.votes.Create(ctx, v, repository.Condition{})
	if err != nil {
		return nil, err
	}

	metrics.VotesCast.Inc()
	s.log.Info("vote created", "vote_id", created.ID)
	return created, nil
}

// GetByID returns a vote, or nil when absent
func (s *Service) GetByID(ctx context.Context, id string) (*repository.Vote, error) {
	return s.votes.ReadOne(ctx, repository.Eq("id", id))
}

// GetByElection returns all votes for an election
func (s *Service) GetByElection(ctx context.Context, electionID string) ([]repository.Vote, error) {
	votes, err := s.votes.ReadMany(ctx, repository.Eq("election_id", electionID))
	if err != nil {
		return nil, err
	}
	if votes == nil {
		return []repository.Vote{}, nil
	}
	return votes, nil
}

// GetByUser returns all votes cast by a user
func (s *Service) GetByUser(ctx context.Context, userID string) ([]repository.Vote, error) {
	votes, err := s.votes.ReadMany(ctx, repository.Eq("voter_id", userID))
	if err != nil {
		return nil, err
	}
	if votes == nil {
		return []repository.Vote{}, nil
	}
	return votes, nil
}

// GetUserVoteForElection returns the caller's vote in one election, or
// nil when they have not voted.
func (s *Service) GetUserVoteForElection(ctx context.Context, electionID, userID string) (*repository.Vote, error) {
	return s.votes.ReadOne(ctx, repository.And(
		repository.Eq("election_id", electionID),
		repository.Eq("voter_id", userID),
	))
}

// Update applies a merge-patch to a vote. The existence check runs
// before the ownership check, so a missing vote surfaces as
// repository.ErrNotFound and a foreign vote as ErrPermissionDenied.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput, currentUserID string) (*repository.Vote, error) {
	s.log.Info("updating vote", "vote_id", id)

	v, err := s.votes.ReadOne(ctx, repository.Eq("id", id))
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, repository.ErrNotFound
	}

	if v.VoterID != currentUserID {
		s.log.Warn("vote update denied", "vote_id", id, "user_id", currentUserID, "owner_id", v.VoterID)
		return nil, ErrPermissionDenied
	}

	patch := make(map[string]any)
	if in.CandidateID != nil {
		patch["candidate_id"] = *in.CandidateID
	}
	if len(patch) == 0 {
		return v, nil
	}

	updated, err := s.votes.UpdateFields(ctx, patch, repository.Eq("id", id))
	if err != nil {
		return nil, err
	}

	s.log.Info("vote updated", "vote_id", id)
	return updated, nil
}

// Delete removes a vote owned by currentUserID
func (s *Service) Delete(ctx context.Context, id, currentUserID string) error {
	s.log.Info("deleting vote", "vote_id", id)

	v, err := s.votes.ReadOne(ctx, repository.Eq("id", id))
	if err != nil {
		return err
	}
	if v == nil {
		return repository.ErrNotFound
	}

	if v.VoterID != currentUserID {
		s.log.Warn("vote delete denied", "vote_id", id, "user_id", currentUserID, "owner_id", v.VoterID)
		return ErrPermissionDenied
	}

	deleted, err := s.votes.Delete(ctx, repository.Eq("id", id))
	if err != nil {
		return err
	}
	if !deleted {
		return repository.ErrNotFound
	}

	s.log.Info("vote deleted", "vote_id", id)
	return nil
}

// List returns a page of votes
func (s *Service) List(ctx context.Context, page, pageSize int) ([]repository.Vote, error) {
	votes, err := s.votes.ReadPaginated(ctx, repository.All(), page, pageSize)
	if err != nil {
		return nil, err
	}
	if votes == nil {
		return []repository.Vote{}, nil
	}
	return votes, nil
}
