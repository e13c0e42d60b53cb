// Package election implements election CRUD with its owned candidates,
// settings, and attachments. An election must always carry at least two
// candidates, and supplying a candidate or attachment list on update
// replaces the stored set wholesale.
package election

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/MumuCarrot/vote-BE/internal/audit"
	"github.com/MumuCarrot/vote-BE/internal/metrics"
	"github.com/MumuCarrot/vote-BE/internal/repository"
	"github.com/MumuCarrot/vote-BE/internal/sanitizer"
)

// ErrValidation signals a violated domain invariant
var ErrValidation = errors.New("election must have at least two candidates")

// ElectionStore persists election rows
type ElectionStore interface {
	Create(ctx context.Context, e *repository.Election, exists repository.Condition) (*repository.Election, error)
	ReadOne(ctx context.Context, cond repository.Condition) (*repository.Election, error)
	ReadPaginated(ctx context.Context, cond repository.Condition, page, pageSize int) ([]repository.Election, error)
	UpdateFields(ctx context.Context, patch map[string]any, cond repository.Condition) (*repository.Election, error)
	Delete(ctx context.Context, cond repository.Condition) (bool, error)
}

// CandidateStore persists candidate rows
type CandidateStore interface {
	Create(ctx context.Context, c *repository.Candidate, exists repository.Condition) (*repository.Candidate, error)
	ReadMany(ctx context.Context, cond repository.Condition) ([]repository.Candidate, error)
	Delete(ctx context.Context, cond repository.Condition) (bool, error)
}

// SettingStore persists election setting rows
type SettingStore interface {
	Create(ctx context.Context, s *repository.ElectionSetting, exists repository.Condition) (*repository.ElectionSetting, error)
	ReadOne(ctx context.Context, cond repository.Condition) (*repository.ElectionSetting, error)
	UpdateFields(ctx context.Context, patch map[string]any, cond repository.Condition) (*repository.ElectionSetting, error)
}

// AttachmentStore persists attachment rows
type AttachmentStore interface {
	Create(ctx context.Context, a *repository.Attachment, exists repository.Condition) (*repository.Attachment, error)
	ReadMany(ctx context.Context, cond repository.Condition) ([]repository.Attachment, error)
	Delete(ctx context.Context, cond repository.Condition) (bool, error)
}

// CandidateInput describes one candidate in a create or update payload
type CandidateInput struct {
	Name        string  `json:"name" validate:"required"`
	Description *string `json:"description,omitempty"`
}

// SettingsInput describes the election settings payload
type SettingsInput struct {
	AllowRevoting bool `json:"allow_revoting"`
	MaxVotes      int  `json:"max_votes" validate:"gte=1"`
	RequireAuth   bool `json:"require_auth"`
}

// AttachmentInput references an already-uploaded file
type AttachmentInput struct {
	FileURL string `json:"file_url" validate:"required"`
}

// CreateInput is the election creation payload
type CreateInput struct {
	Title       string            `json:"title" validate:"required"`
	Description *string           `json:"description,omitempty"`
	StartDate   time.Time         `json:"start_date" validate:"required"`
	EndDate     time.Time         `json:"end_date" validate:"required"`
	IsPublic    bool              `json:"is_public"`
	Candidates  []CandidateInput  `json:"candidates" validate:"required"`
	Settings    *SettingsInput    `json:"settings,omitempty"`
	Attachments []AttachmentInput `json:"attachments,omitempty"`
}

// UpdateInput is a merge-patch over an election. A non-nil Candidates or
// Attachments slice replaces the stored set.
type UpdateInput struct {
	Title       *string           `json:"title,omitempty"`
	Description *string           `json:"description,omitempty"`
	StartDate   *time.Time        `json:"start_date,omitempty"`
	EndDate     *time.Time        `json:"end_date,omitempty"`
	IsPublic    *bool             `json:"is_public,omitempty"`
	Candidates  []CandidateInput  `json:"candidates,omitempty"`
	Settings    *SettingsInput    `json:"settings,omitempty"`
	Attachments []AttachmentInput `json:"attachments,omitempty"`
}

// View is the assembled election response with its owned records
type View struct {
	ID          string                      `json:"id"`
	Title       string                      `json:"title"`
	Description *string                     `json:"description,omitempty"`
	StartDate   time.Time                   `json:"start_date"`
	EndDate     time.Time                   `json:"end_date"`
	IsPublic    bool                        `json:"is_public"`
	CreatedAt   *time.Time                  `json:"created_at,omitempty"`
	Candidates  []repository.Candidate      `json:"candidates"`
	Settings    *repository.ElectionSetting `json:"settings,omitempty"`
	Attachments []repository.Attachment     `json:"attachments"`
}

// Service provides election operations
type Service struct {
	elections   ElectionStore
	candidates  CandidateStore
	settings    SettingStore
	attachments AttachmentStore
	sanitize    *sanitizer.Sanitizer
	audit       *audit.Recorder
	log         *slog.Logger
}

// NewService creates an election service
func NewService(
	elections ElectionStore,
	candidates CandidateStore,
	settings SettingStore,
	attachments AttachmentStore,
	sanitize *sanitizer.Sanitizer,
	auditRec *audit.Recorder,
	log *slog.Logger,
) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		elections:   elections,
		candidates:  candidates,
		settings:    settings,
		attachments: attachments,
		sanitize:    sanitize,
		audit:       auditRec,
		log:         log,
	}
}

// Create creates an election with its candidates, settings, and
// attachments. Fails with ErrValidation when fewer than two candidates
// are supplied.
func (s *Service) Create(ctx context.Context, in CreateInput, actorID string) (*View, error) {
	s.log.Info("creating election", "title", in.Title)

	if len(in.Candidates) < 2 {
		s.log.Warn("election rejected, not enough candidates", "count", len(in.Candidates))
		return nil, ErrValidation
	}

	now := time.Now().UTC()
	e := &repository.Election{
		ID:          uuid.NewString(),
		Title:       in.Title,
		Description: s.sanitize.SanitizePtr(in.Description),
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		IsPublic:    in.IsPublic,
		CreatedAt:   &now,
	}

	created, err := s.elections.Create(ctx, e, repository.Condition{})
	if err != nil {
		return nil, err
	}

	settings := repository.ElectionSetting{
		ID:            uuid.NewString(),
		ElectionID:    created.ID,
		AllowRevoting: true,
		MaxVotes:      1,
		RequireAuth:   true,
	}
	if in.Settings != nil {
		settings.AllowRevoting = in.Settings.AllowRevoting
		settings.MaxVotes = in.Settings.MaxVotes
		settings.RequireAuth = in.Settings.RequireAuth
	}
	if _, err := s.settings.Create(ctx, &settings, repository.Condition{}); err != nil {
		return nil, err
	}

	if err := s.insertCandidates(ctx, created.ID, in.Candidates); err != nil {
		return nil, err
	}
	if err := s.insertAttachments(ctx, created.ID, in.Attachments); err != nil {
		return nil, err
	}

	metrics.ElectionsCreated.Inc()
	s.audit.Record(ctx, actorID, "election.create", "election", created.ID)
	s.log.Info("election created", "election_id", created.ID)

	return s.buildView(ctx, created)
}

// GetByID returns the assembled election, or nil when absent
func (s *Service) GetByID(ctx context.Context, id string) (*View, error) {
	e, err := s.elections.ReadOne(ctx, repository.Eq("id", id))
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, nil
	}
	return s.buildView(ctx, e)
}

// Update applies a merge-patch to an election. A supplied candidate list
// must hold at least two entries and replaces the stored candidates
// destructively; same replace semantics for attachments.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput, actorID string) (*View, error) {
	s.log.Info("updating election", "election_id", id)

	e, err := s.elections.ReadOne(ctx, repository.Eq("id", id))
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, repository.ErrNotFound
	}

	if in.Candidates != nil && len(in.Candidates) < 2 {
		s.log.Warn("election update rejected, not enough candidates", "count", len(in.Candidates))
		return nil, ErrValidation
	}

	patch := make(map[string]any)
	if in.Title != nil {
		patch["title"] = *in.Title
	}
	if in.Description != nil {
		patch["description"] = s.sanitize.Sanitize(*in.Description)
	}
	if in.StartDate != nil {
		patch["start_date"] = *in.StartDate
	}
	if in.EndDate != nil {
		patch["end_date"] = *in.EndDate
	}
	if in.IsPublic != nil {
		patch["is_public"] = *in.IsPublic
	}

	updated := e
	if len(patch) > 0 {
		updated, err = s.elections.UpdateFields(ctx, patch, repository.Eq("id", id))
		if err != nil {
			return nil, err
		}
	}

	if in.Settings != nil {
		if err := s.upsertSettings(ctx, id, *in.Settings); err != nil {
			return nil, err
		}
	}

	if in.Candidates != nil {
		if err := s.replaceCandidates(ctx, id, in.Candidates); err != nil {
			return nil, err
		}
	}

	if in.Attachments != nil {
		if err := s.replaceAttachments(ctx, id, in.Attachments); err != nil {
			return nil, err
		}
	}

	s.audit.Record(ctx, actorID, "election.update", "election", id)
	s.log.Info("election updated", "election_id", id)

	return s.buildView(ctx, updated)
}

// Delete removes an election, failing with repository.ErrNotFound when
// it does not exist. Owned rows are removed by the schema's cascades.
func (s *Service) Delete(ctx context.Context, id, actorID string) error {
	s.log.Info("deleting election", "election_id", id)

	deleted, err := s.elections.Delete(ctx, repository.Eq("id", id))
	if err != nil {
		return err
	}
	if !deleted {
		return repository.ErrNotFound
	}

	s.audit.Record(ctx, actorID, "election.delete", "election", id)
	return nil
}

// List returns a page of assembled elections
func (s *Service) List(ctx context.Context, page, pageSize int) ([]View, error) {
	elections, err := s.elections.ReadPaginated(ctx, repository.All(), page, pageSize)
	if err != nil {
		return nil, err
	}

	views := make([]View, 0, len(elections))
	for i := range elections {
		v, err := s.buildView(ctx, &elections[i])
		if err != nil {
			return nil, err
		}
		views = append(views, *v)
	}
	return views, nil
}

func (s *Service) insertCandidates(ctx context.Context, electionID string, candidates []CandidateInput) error {
	for _, c := range candidates {
		candidate := &repository.Candidate{
			ID:          uuid.NewString(),
			ElectionID:  electionID,
			Name:        c.Name,
			Description: s.sanitize.SanitizePtr(c.Description),
		}
		if _, err := s.candidates.Create(ctx, candidate, repository.Condition{}); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) insertAttachments(ctx context.Context, electionID string, attachments []AttachmentInput) error {
	for _, a := range attachments {
		now := time.Now().UTC()
		attachment := &repository.Attachment{
			ID:         uuid.NewString(),
			ElectionID: &electionID,
			FileURL:    a.FileURL,
			UploadedAt: &now,
		}
		if _, err := s.attachments.Create(ctx, attachment, repository.Condition{}); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) replaceCandidates(ctx context.Context, electionID string, candidates []CandidateInput) error {
	existing, err := s.candidates.ReadMany(ctx, repository.Eq("election_id", electionID))
	if err != nil {
		return err
	}
	for i := range existing {
		if _, err := s.candidates.Delete(ctx, repository.Eq("id", existing[i].ID)); err != nil {
			return err
		}
	}
	return s.insertCandidates(ctx, electionID, candidates)
}

func (s *Service) replaceAttachments(ctx context.Context, electionID string, attachments []AttachmentInput) error {
	existing, err := s.attachments.ReadMany(ctx, repository.Eq("election_id", electionID))
	if err != nil {
		return err
	}
	for i := range existing {
		if _, err := s.attachments.Delete(ctx, repository.Eq("id", existing[i].ID)); err != nil {
			return err
		}
	}
	return s.insertAttachments(ctx, electionID, attachments)
}

func (s *Service) upsertSettings(ctx context.Context, electionID string, in SettingsInput) error {
	existing, err := s.settings.ReadOne(ctx, repository.Eq("election_id", electionID))
	if err != nil {
		return err
	}

	if existing != nil {
		patch := map[string]any{
			"allow_revoting": in.AllowRevoting,
			"max_votes":      in.MaxVotes,
			"require_auth":   in.RequireAuth,
		}
		_, err = s.settings.UpdateFields(ctx, patch, repository.Eq("id", existing.ID))
		return err
	}

	setting := &repository.ElectionSetting{
		ID:            uuid.NewString(),
		ElectionID:    electionID,
		AllowRevoting: in.AllowRevoting,
		MaxVotes:      in.MaxVotes,
		RequireAuth:   in.RequireAuth,
	}
	_, err = s.settings.Create(ctx, setting, repository.Condition{})
	return err
}

func (s *Service) buildView(ctx context.Context, e *repository.Election) (*View, error) {
	candidates, err := s.candidates.ReadMany(ctx, repository.Eq("election_id", e.ID))
	if err != nil {
		return nil, err
	}
	settings, err := s.settings.ReadOne(ctx, repository.Eq("election_id", e.ID))
	if err != nil {
		return nil, err
	}
	attachments, err := s.attachments.ReadMany(ctx, repository.Eq("election_id", e.ID))
	if err != nil {
		return nil, err
	}

	if candidates == nil {
		candidates = []repository.Candidate{}
	}
	if attachments == nil {
		attachments = []repository.Attachment{}
	}

	return &View{
		ID:          e.ID,
		Title:       e.Title,
		Description: e.Description,
		StartDate:   e.StartDate,
		EndDate:     e.EndDate,
		IsPublic:    e.IsPublic,
		CreatedAt:   e.CreatedAt,
		Candidates:  candidates,
		Settings:    settings,
		Attachments: attachments,
	}, nil
}
