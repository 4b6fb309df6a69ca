package profile

import (
	"context"
	"errors"
	"strings"

	"github.com/goliatone/go-moderation/pkg/types"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-repository-cache/cache"
	"github.com/goliatone/go-repository-cache/repositorycache"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RepositoryConfig wires the Bun-backed profile repository.
type RepositoryConfig struct {
	DB         *bun.DB
	Repository repository.Repository[*Record]
	Clock      types.Clock
	IDGen      types.IDGenerator
}

type profileStore interface {
	repository.Repository[*Record]
}

// Repository implements types.ProfileRepository using Bun.
type Repository struct {
	profileStore
	clock types.Clock
	idGen types.IDGenerator
}

// NewRepository constructs the default profile repository.
func NewRepository(cfg RepositoryConfig, options ...RepositoryOption) (*Repository, error) {
	if cfg.Repository == nil && cfg.DB == nil {
		return nil, errors.New("profile: db or repository required")
	}
	repo := cfg.Repository
	if repo == nil {
		repo = repository.NewRepository(cfg.DB, repository.ModelHandlers[*Record]{
			NewRecord: func() *Record { return &Record{} },
			GetID: func(rec *Record) uuid.UUID {
				if rec == nil {
					return uuid.Nil
				}
				return rec.ID
			},
			SetID: func(rec *Record, id uuid.UUID) {
				if rec != nil {
					rec.ID = id
				}
			},
		})
	}

	opts := applyRepositoryOptions(options)
	repo, err := decorateWithCache(repo, opts)
	if err != nil {
		return nil, err
	}

	clock := cfg.Clock
	if clock == nil {
		clock = types.SystemClock{}
	}
	idGen := cfg.IDGen
	if idGen == nil {
		idGen = types.UUIDGenerator{}
	}

	return &Repository{
		profileStore: repo,
		clock:        clock,
		idGen:        idGen,
	}, nil
}

var _ types.ProfileRepository = (*Repository)(nil)

// GetByID returns the profile for the supplied id.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*types.CandidateProfile, error) {
	if id == uuid.Nil {
		return nil, types.ErrProfileIDRequired
	}
	rec, err := r.profileStore.GetByID(ctx, id.String())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, types.ErrProfileNotFound
		}
		return nil, err
	}
	return toDomain(rec), nil
}

// GetByEmail returns the profile matching the unique email key.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*types.CandidateProfile, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, types.ErrEmailRequired
	}
	rec, err := r.Get(ctx, repository.SelectBy("email", "=", email))
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, types.ErrProfileNotFound
		}
		return nil, err
	}
	return toDomain(rec), nil
}

// Create inserts a new candidate profile. The unique email constraint is the
// de-duplication guard for concurrent signups; violations surface as
// types.ErrDuplicateEmail so provisioning can collapse them to success.
func (r *Repository) Create(ctx context.Context, input *types.CandidateProfile) (*types.CandidateProfile, error) {
	if input == nil {
		return nil, types.ErrProfileIDRequired
	}
	email := NormalizeEmail(input.Email)
	if email == "" {
		return nil, types.ErrEmailRequired
	}
	rec := fromDomain(*input)
	rec.Email = email
	if rec.ID == uuid.Nil {
		rec.ID = r.idGen.UUID()
	}
	now := r.clock.Now()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now

	created, err := r.profileStore.Create(ctx, rec)
	if err != nil {
		if repository.IsDuplicatedKey(err) {
			return nil, types.ErrDuplicateEmail
		}
		return nil, err
	}
	return toDomain(created), nil
}

// ApplyPatch updates only the fields named by the patch and refreshes
// updated_at. The read-modify-write is not transactional; concurrent writers
// race at the store with last-write-wins semantics, matching the store's
// per-record atomicity guarantee.
func (r *Repository) ApplyPatch(ctx context.Context, id uuid.UUID, patch types.ProfilePatch) (*types.CandidateProfile, error) {
	if id == uuid.Nil {
		return nil, types.ErrProfileIDRequired
	}
	rec, err := r.profileStore.GetByID(ctx, id.String())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, types.ErrProfileNotFound
		}
		return nil, err
	}

	applyPatch(rec, patch)
	rec.UpdatedAt = r.clock.Now()

	updated, err := r.Update(ctx, rec)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, types.ErrProfileNotFound
		}
		return nil, err
	}
	return toDomain(updated), nil
}

// List returns a page of profiles matching the filter, ordered by creation
// time then id so results are deterministic across runs.
func (r *Repository) List(ctx context.Context, filter types.ProfileListFilter) (types.ProfilePage, error) {
	criteria := []repository.SelectCriteria{listCriteria(filter)}
	rows, total, err := r.profileStore.List(ctx, criteria...)
	if err != nil {
		return types.ProfilePage{}, err
	}
	profiles := make([]types.CandidateProfile, 0, len(rows))
	for _, row := range rows {
		profiles = append(profiles, *toDomain(row))
	}
	next := filter.Pagination.Offset + len(profiles)
	return types.ProfilePage{
		Profiles:   profiles,
		Total:      total,
		NextOffset: next,
		HasMore:    next < total,
	}, nil
}

// DeleteByID removes a profile. Unused by the moderation core itself; other
// parts of the application rely on it.
func (r *Repository) DeleteByID(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return types.ErrProfileIDRequired
	}
	rec, err := r.profileStore.GetByID(ctx, id.String())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return types.ErrProfileNotFound
		}
		return err
	}
	return r.Delete(ctx, rec)
}

// NormalizeEmail lower-cases and trims the business key so lookups behave the
// same regardless of transport casing.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func decorateWithCache(base repository.Repository[*Record], opts RepositoryOptions) (repository.Repository[*Record], error) {
	if !opts.CacheEnabled {
		return base, nil
	}
	if _, ok := base.(*repositorycache.CachedRepository[*Record]); ok {
		return base, nil
	}
	cfg := cache.DefaultConfig()
	if opts.CacheConfig != nil {
		cfg = *opts.CacheConfig
	}
	service, err := cache.NewCacheService(cfg)
	if err != nil {
		return nil, err
	}
	return repositorycache.New(base, service, cache.NewDefaultKeySerializer()), nil
}

func listCriteria(filter types.ProfileListFilter) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		if len(filter.IDs) > 0 {
			ids := make([]string, len(filter.IDs))
			for i, id := range filter.IDs {
				ids[i] = id.String()
			}
			q = q.Where("id IN (?)", bun.In(ids))
		}
		if len(filter.Emails) > 0 {
			emails := make([]string, len(filter.Emails))
			for i, email := range filter.Emails {
				emails[i] = NormalizeEmail(email)
			}
			q = q.Where("email IN (?)", bun.In(emails))
		}
		if len(filter.Statuses) > 0 {
			statuses := make([]string, len(filter.Statuses))
			for i, status := range filter.Statuses {
				statuses[i] = string(status)
			}
			q = q.Where("status IN (?)", bun.In(statuses))
		}
		if filter.Keyword != "" {
			keyword := "%" + strings.ToLower(strings.TrimSpace(filter.Keyword)) + "%"
			q = q.Where("(lower(email) LIKE ? OR lower(display_name) LIKE ?)", keyword, keyword)
		}
		q = q.OrderExpr("created_at ASC, id ASC")
		if filter.Pagination.Limit > 0 {
			q = q.Limit(filter.Pagination.Limit)
		}
		if filter.Pagination.Offset > 0 {
			q = q.Offset(filter.Pagination.Offset)
		}
		return q
	}
}

func applyPatch(rec *Record, patch types.ProfilePatch) {
	if patch.SetStatus {
		rec.Status = statusColumn(patch.Status)
	}
	if patch.SetApproved {
		rec.Approved = cloneBool(patch.Approved)
	}
	if patch.SetVisible {
		rec.Visible = cloneBool(patch.Visible)
	}
	if patch.DisplayName != nil {
		rec.DisplayName = *patch.DisplayName
	}
	if patch.Headline != nil {
		rec.Headline = *patch.Headline
	}
	if patch.Bio != nil {
		rec.Bio = *patch.Bio
	}
	if patch.Skills != nil {
		rec.Skills = append([]string(nil), patch.Skills...)
	}
	if patch.Metadata != nil {
		rec.Metadata = cloneMap(patch.Metadata)
	}
}

func fromDomain(profile types.CandidateProfile) *Record {
	return &Record{
		ID:          profile.ID,
		Email:       profile.Email,
		Status:      statusColumn(profile.Status),
		Approved:    cloneBool(profile.Approved),
		Visible:     cloneBool(profile.Visible),
		DisplayName: profile.DisplayName,
		Headline:    profile.Headline,
		Bio:         profile.Bio,
		Skills:      append([]string(nil), profile.Skills...),
		Metadata:    cloneMap(profile.Metadata),
		CreatedAt:   profile.CreatedAt,
		UpdatedAt:   profile.UpdatedAt,
	}
}

func toDomain(rec *Record) *types.CandidateProfile {
	if rec == nil {
		return nil
	}
	return &types.CandidateProfile{
		ID:          rec.ID,
		Email:       rec.Email,
		Status:      statusDomain(rec.Status),
		Approved:    cloneBool(rec.Approved),
		Visible:     cloneBool(rec.Visible),
		DisplayName: rec.DisplayName,
		Headline:    rec.Headline,
		Bio:         rec.Bio,
		Skills:      append([]string(nil), rec.Skills...),
		Metadata:    cloneMap(rec.Metadata),
		CreatedAt:   rec.CreatedAt,
		UpdatedAt:   rec.UpdatedAt,
	}
}

func statusColumn(status *types.ReviewStatus) *string {
	if status == nil {
		return nil
	}
	value := string(*status)
	return &value
}

func statusDomain(status *string) *types.ReviewStatus {
	if status == nil {
		return nil
	}
	value := types.ReviewStatus(*status)
	return &value
}

func cloneBool(v *bool) *bool {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}

func cloneMap(origin map[string]any) map[string]any {
	if len(origin) == 0 {
		return nil
	}
	out := make(map[string]any, len(origin))
	for k, v := range origin {
		out[k] = v
	}
	return out
}
