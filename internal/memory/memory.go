// Package memory provides an in-memory profile repository for examples and
// tests. It mirrors the store semantics the moderation core depends on:
// unique normalized email, atomic single-record writes, deterministic
// paginated listing.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-moderation/pkg/types"
	"github.com/google/uuid"
)

// ProfileRepository is the in-memory types.ProfileRepository.
type ProfileRepository struct {
	mu       sync.Mutex
	profiles map[uuid.UUID]*types.CandidateProfile
}

// NewProfileRepository builds an empty repository.
func NewProfileRepository() *ProfileRepository {
	return &ProfileRepository{profiles: map[uuid.UUID]*types.CandidateProfile{}}
}

var _ types.ProfileRepository = (*ProfileRepository)(nil)

// Seed inserts a profile directly, bypassing validation. Intended for fixture
// setup; returns the assigned id.
func (r *ProfileRepository) Seed(profile types.CandidateProfile) uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()
	if profile.ID == uuid.Nil {
		profile.ID = uuid.New()
	}
	profile.Email = normalizeEmail(profile.Email)
	r.profiles[profile.ID] = &profile
	return profile.ID
}

// GetByID implements types.ProfileRepository.
func (r *ProfileRepository) GetByID(_ context.Context, id uuid.UUID) (*types.CandidateProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if profile, ok := r.profiles[id]; ok {
		return clone(profile), nil
	}
	return nil, types.ErrProfileNotFound
}

// GetByEmail implements types.ProfileRepository.
func (r *ProfileRepository) GetByEmail(_ context.Context, email string) (*types.CandidateProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	email = normalizeEmail(email)
	if email == "" {
		return nil, types.ErrEmailRequired
	}
	for _, profile := range r.profiles {
		if profile.Email == email {
			return clone(profile), nil
		}
	}
	return nil, types.ErrProfileNotFound
}

// Create implements types.ProfileRepository. The unique email check stands in
// for the database constraint.
func (r *ProfileRepository) Create(_ context.Context, input *types.CandidateProfile) (*types.CandidateProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if input == nil {
		return nil, types.ErrProfileIDRequired
	}
	email := normalizeEmail(input.Email)
	if email == "" {
		return nil, types.ErrEmailRequired
	}
	for _, profile := range r.profiles {
		if profile.Email == email {
			return nil, types.ErrDuplicateEmail
		}
	}
	record := *input
	record.Email = email
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	now := time.Now().UTC()
	record.CreatedAt = now
	record.UpdatedAt = now
	r.profiles[record.ID] = &record
	return clone(&record), nil
}

// ApplyPatch implements types.ProfileRepository.
func (r *ProfileRepository) ApplyPatch(_ context.Context, id uuid.UUID, patch types.ProfilePatch) (*types.CandidateProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	profile, ok := r.profiles[id]
	if !ok {
		return nil, types.ErrProfileNotFound
	}
	if patch.SetStatus {
		profile.Status = patch.Status
	}
	if patch.SetApproved {
		profile.Approved = patch.Approved
	}
	if patch.SetVisible {
		profile.Visible = patch.Visible
	}
	if patch.DisplayName != nil {
		profile.DisplayName = *patch.DisplayName
	}
	if patch.Headline != nil {
		profile.Headline = *patch.Headline
	}
	if patch.Bio != nil {
		profile.Bio = *patch.Bio
	}
	if patch.Skills != nil {
		profile.Skills = append([]string(nil), patch.Skills...)
	}
	if patch.Metadata != nil {
		profile.Metadata = patch.Metadata
	}
	profile.UpdatedAt = time.Now().UTC()
	return clone(profile), nil
}

// List implements types.ProfileRepository with deterministic ordering.
func (r *ProfileRepository) List(_ context.Context, filter types.ProfileListFilter) (types.ProfilePage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	matched := make([]types.CandidateProfile, 0, len(r.profiles))
	for _, profile := range r.profiles {
		if !matches(profile, filter) {
			continue
		}
		matched = append(matched, *clone(profile))
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.Before(matched[j].CreatedAt)
		}
		return matched[i].ID.String() < matched[j].ID.String()
	})

	total := len(matched)
	offset := filter.Pagination.Offset
	if offset < 0 {
		offset = 0
	}
	if offset > total {
		offset = total
	}
	end := total
	if filter.Pagination.Limit > 0 && offset+filter.Pagination.Limit < end {
		end = offset + filter.Pagination.Limit
	}
	page := matched[offset:end]
	next := offset + len(page)
	return types.ProfilePage{
		Profiles:   page,
		Total:      total,
		NextOffset: next,
		HasMore:    next < total,
	}, nil
}

// DeleteByID implements types.ProfileRepository.
func (r *ProfileRepository) DeleteByID(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.profiles[id]; !ok {
		return types.ErrProfileNotFound
	}
	delete(r.profiles, id)
	return nil
}

func matches(profile *types.CandidateProfile, filter types.ProfileListFilter) bool {
	if len(filter.IDs) > 0 && !containsID(filter.IDs, profile.ID) {
		return false
	}
	if len(filter.Emails) > 0 && !containsEmail(filter.Emails, profile.Email) {
		return false
	}
	if len(filter.Statuses) > 0 {
		if profile.Status == nil {
			return false
		}
		found := false
		for _, status := range filter.Statuses {
			if *profile.Status == status {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if filter.Keyword != "" {
		keyword := strings.ToLower(strings.TrimSpace(filter.Keyword))
		if !strings.Contains(strings.ToLower(profile.Email), keyword) &&
			!strings.Contains(strings.ToLower(profile.DisplayName), keyword) {
			return false
		}
	}
	return true
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

func containsEmail(emails []string, email string) bool {
	for _, candidate := range emails {
		if normalizeEmail(candidate) == email {
			return true
		}
	}
	return false
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func clone(profile *types.CandidateProfile) *types.CandidateProfile {
	out := *profile
	out.Skills = append([]string(nil), profile.Skills...)
	if len(profile.Metadata) > 0 {
		meta := make(map[string]any, len(profile.Metadata))
		for k, v := range profile.Metadata {
			meta[k] = v
		}
		out.Metadata = meta
	}
	return &out
}
