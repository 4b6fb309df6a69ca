package query

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-moderation/pkg/types"
	"github.com/goliatone/go-moderation/scope"
	"github.com/google/uuid"
)

// ModerationQueueFilter narrows the moderation queue listing. States filter on
// the canonical classification, not the raw status column, so contradictory
// legacy records surface under the state the rest of the system treats them
// as.
type ModerationQueueFilter struct {
	States        []types.CanonicalState
	Contradictory bool
	Keyword       string
	Pagination    types.Pagination
	Actor         types.ActorRef
}

// Type implements gocommand.Message.
func (ModerationQueueFilter) Type() string {
	return "query.profile.moderation_queue"
}

// Validate implements gocommand.Message.
func (ModerationQueueFilter) Validate() error {
	return nil
}

// QueueEntry pairs a profile with its canonical classification.
type QueueEntry struct {
	Profile        types.CandidateProfile
	Classification types.Classification
}

// ModerationQueuePage is one page of queue entries.
type ModerationQueuePage struct {
	Entries    []QueueEntry
	Total      int
	NextOffset int
	HasMore    bool
}

// ModerationQueueQuery lists candidate profiles for admin moderation panels,
// grouped by canonical state.
type ModerationQueueQuery struct {
	repo   types.ProfileRepository
	logger types.Logger
	guard  scope.Guard
}

// NewModerationQueueQuery constructs the queue query.
func NewModerationQueueQuery(repo types.ProfileRepository, logger types.Logger, guard scope.Guard) *ModerationQueueQuery {
	return &ModerationQueueQuery{
		repo:   repo,
		logger: logger,
		guard:  safeScopeGuard(guard),
	}
}

var _ gocommand.Querier[ModerationQueueFilter, ModerationQueuePage] = (*ModerationQueueQuery)(nil)

// Query lists matching profiles. State filtering happens after normalization,
// which means a full scan when states are requested; queue sizes are admin
// panel sized, not analytics sized.
func (q *ModerationQueueQuery) Query(ctx context.Context, filter ModerationQueueFilter) (ModerationQueuePage, error) {
	if q.repo == nil {
		return ModerationQueuePage{}, types.ErrMissingProfileRepository
	}
	if err := filter.Validate(); err != nil {
		return ModerationQueuePage{}, err
	}
	if err := q.guard.Enforce(ctx, filter.Actor, types.PolicyActionProfilesRead, uuid.Nil); err != nil {
		return ModerationQueuePage{}, err
	}
	pagination := clampPagination(filter.Pagination)

	if len(filter.States) == 0 && !filter.Contradictory {
		page, err := q.repo.List(ctx, types.ProfileListFilter{
			Keyword:    filter.Keyword,
			Pagination: pagination,
		})
		if err != nil {
			return ModerationQueuePage{}, err
		}
		return toQueuePage(page.Profiles, page.Total, pagination.Offset), nil
	}

	matched, err := q.scanMatching(ctx, filter)
	if err != nil {
		return ModerationQueuePage{}, err
	}
	total := len(matched)
	start := pagination.Offset
	if start > total {
		start = total
	}
	end := start + pagination.Limit
	if end > total {
		end = total
	}
	return toQueuePage(matched[start:end], total, start), nil
}

func (q *ModerationQueueQuery) scanMatching(ctx context.Context, filter ModerationQueueFilter) ([]types.CandidateProfile, error) {
	wanted := make(map[types.CanonicalState]bool, len(filter.States))
	for _, state := range filter.States {
		wanted[state] = true
	}

	var matched []types.CandidateProfile
	offset := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page, err := q.repo.List(ctx, types.ProfileListFilter{
			Keyword:    filter.Keyword,
			Pagination: types.Pagination{Limit: scanPageSize, Offset: offset},
		})
		if err != nil {
			return nil, err
		}
		for _, profile := range page.Profiles {
			cls := types.Classify(profile)
			if len(wanted) > 0 && !wanted[cls.State] {
				continue
			}
			if filter.Contradictory && !cls.Contradictory {
				continue
			}
			matched = append(matched, profile)
		}
		if !page.HasMore || len(page.Profiles) == 0 {
			break
		}
		offset = page.NextOffset
	}
	return matched, nil
}

func toQueuePage(profiles []types.CandidateProfile, total, offset int) ModerationQueuePage {
	entries := make([]QueueEntry, 0, len(profiles))
	for _, profile := range profiles {
		entries = append(entries, QueueEntry{
			Profile:        profile,
			Classification: types.Classify(profile),
		})
	}
	next := offset + len(entries)
	return ModerationQueuePage{
		Entries:    entries,
		Total:      total,
		NextOffset: next,
		HasMore:    next < total,
	}
}

func clampPagination(p types.Pagination) types.Pagination {
	if p.Limit <= 0 {
		p.Limit = defaultQueueLimit
	}
	if p.Limit > maxQueueLimit {
		p.Limit = maxQueueLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}
