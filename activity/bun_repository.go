package activity

import (
	"context"
	"errors"

	"github.com/goliatone/go-moderation/pkg/types"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const (
	defaultFeedLimit = 50
	maxFeedLimit     = 200
)

// RepositoryConfig wires the Bun-backed activity repository.
type RepositoryConfig struct {
	DB         *bun.DB
	Repository repository.Repository[*LogEntry]
	Clock      types.Clock
	IDGen      types.IDGenerator
}

type activityStore interface {
	repository.Repository[*LogEntry]
}

// Repository persists activity records and exposes the audit feed.
type Repository struct {
	activityStore
	clock types.Clock
	idGen types.IDGenerator
}

// NewRepository constructs a repository that implements types.ActivitySink.
func NewRepository(cfg RepositoryConfig) (*Repository, error) {
	if cfg.Repository == nil && cfg.DB == nil {
		return nil, errors.New("activity: db or repository required")
	}
	repo := cfg.Repository
	if repo == nil {
		repo = repository.NewRepository(cfg.DB, repository.ModelHandlers[*LogEntry]{
			NewRecord: func() *LogEntry { return &LogEntry{} },
			GetID: func(entry *LogEntry) uuid.UUID {
				if entry == nil {
					return uuid.Nil
				}
				return entry.ID
			},
			SetID: func(entry *LogEntry, id uuid.UUID) {
				if entry != nil {
					entry.ID = id
				}
			},
		})
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
		activityStore: repo,
		clock:         clock,
		idGen:         idGen,
	}, nil
}

var _ types.ActivitySink = (*Repository)(nil)

// Log persists an activity record.
func (r *Repository) Log(ctx context.Context, record types.ActivityRecord) error {
	entry := toLogEntry(record)
	if entry.ID == uuid.Nil {
		entry.ID = r.idGen.UUID()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = r.clock.Now()
	}
	_, err := r.Create(ctx, entry)
	return err
}

// Filter narrows the activity feed.
type Filter struct {
	ProfileID  uuid.UUID
	ActorID    uuid.UUID
	Verbs      []string
	Pagination types.Pagination
}

// Page is one page of the audit feed, newest first.
type Page struct {
	Records    []types.ActivityRecord
	Total      int
	NextOffset int
	HasMore    bool
}

// Feed returns a paginated trail filtered by the supplied criteria.
func (r *Repository) Feed(ctx context.Context, filter Filter) (Page, error) {
	pagination := clampPagination(filter.Pagination)
	criteria := []repository.SelectCriteria{
		func(q *bun.SelectQuery) *bun.SelectQuery {
			q = applyFilter(q, filter)
			return q.OrderExpr("created_at DESC, id DESC").
				Limit(pagination.Limit).
				Offset(pagination.Offset)
		},
	}

	rows, total, err := r.List(ctx, criteria...)
	if err != nil {
		return Page{}, err
	}
	records := make([]types.ActivityRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, toActivityRecord(row))
	}
	next := pagination.Offset + len(records)
	return Page{
		Records:    records,
		Total:      total,
		NextOffset: next,
		HasMore:    next < total,
	}, nil
}

func applyFilter(q *bun.SelectQuery, filter Filter) *bun.SelectQuery {
	if filter.ProfileID != uuid.Nil {
		q = q.Where("profile_id = ?", filter.ProfileID.String())
	}
	if filter.ActorID != uuid.Nil {
		q = q.Where("actor_id = ?", filter.ActorID.String())
	}
	if len(filter.Verbs) > 0 {
		q = q.Where("verb IN (?)", bun.In(filter.Verbs))
	}
	return q
}

func clampPagination(p types.Pagination) types.Pagination {
	if p.Limit <= 0 {
		p.Limit = defaultFeedLimit
	}
	if p.Limit > maxFeedLimit {
		p.Limit = maxFeedLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

func toLogEntry(record types.ActivityRecord) *LogEntry {
	return &LogEntry{
		ID:         record.ID,
		ProfileID:  record.ProfileID,
		ActorID:    record.ActorID,
		Verb:       record.Verb,
		ObjectType: record.ObjectType,
		ObjectID:   record.ObjectID,
		Data:       record.Data,
		CreatedAt:  record.OccurredAt,
	}
}

func toActivityRecord(entry *LogEntry) types.ActivityRecord {
	if entry == nil {
		return types.ActivityRecord{}
	}
	return types.ActivityRecord{
		ID:         entry.ID,
		ProfileID:  entry.ProfileID,
		ActorID:    entry.ActorID,
		Verb:       entry.Verb,
		ObjectType: entry.ObjectType,
		ObjectID:   entry.ObjectID,
		Data:       entry.Data,
		OccurredAt: entry.CreatedAt,
	}
}
