package types

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ReviewStatus is the value stored in the legacy status column. The column is
// nullable, so profiles carry a *ReviewStatus; nil means the column is unset.
type ReviewStatus string

const (
	ReviewStatusNew      ReviewStatus = "new"
	ReviewStatusPending  ReviewStatus = "pending"
	ReviewStatusApproved ReviewStatus = "approved"
	ReviewStatusRejected ReviewStatus = "rejected"
)

// CandidateProfile is the storage-agnostic representation of a candidate
// record. The lifecycle is encoded redundantly across Status, Approved, and
// Visible (a legacy-migration artifact); use Classify to collapse the triple
// into a single canonical state instead of reading the fields directly.
type CandidateProfile struct {
	ID          uuid.UUID
	Email       string
	Status      *ReviewStatus
	Approved    *bool
	Visible     *bool
	DisplayName string
	Headline    string
	Bio         string
	Skills      []string
	Metadata    map[string]any
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ProfilePatch describes a partial update. Lifecycle fields carry an explicit
// Set flag so callers can write NULL (pointer nil with Set true) without
// clobbering columns they did not name. Passthrough attributes use plain
// pointers; nil leaves them untouched.
type ProfilePatch struct {
	SetStatus   bool
	Status      *ReviewStatus
	SetApproved bool
	Approved    *bool
	SetVisible  bool
	Visible     *bool

	DisplayName *string
	Headline    *string
	Bio         *string
	Skills      []string
	Metadata    map[string]any
}

// Empty reports whether the patch names no fields at all.
func (p ProfilePatch) Empty() bool {
	return !p.SetStatus && !p.SetApproved && !p.SetVisible &&
		p.DisplayName == nil && p.Headline == nil && p.Bio == nil &&
		p.Skills == nil && p.Metadata == nil
}

// Pagination supports query pagination across admin panels and the
// reconciliation scan.
type Pagination struct {
	Limit  int
	Offset int
}

// ProfileListFilter narrows profile listings.
type ProfileListFilter struct {
	IDs        []uuid.UUID
	Emails     []string
	Statuses   []ReviewStatus
	Keyword    string
	Pagination Pagination
}

// ProfilePage represents a paginated set of candidate profiles.
type ProfilePage struct {
	Profiles   []CandidateProfile
	Total      int
	NextOffset int
	HasMore    bool
}

// ProfileRepository abstracts the profile store. Implementations typically
// wrap a Bun-backed table, but any store honoring these semantics can be
// injected: single-record writes are atomic, email carries a unique
// constraint, and no multi-row transaction is available to callers.
type ProfileRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*CandidateProfile, error)
	GetByEmail(ctx context.Context, email string) (*CandidateProfile, error)
	Create(ctx context.Context, input *CandidateProfile) (*CandidateProfile, error)
	ApplyPatch(ctx context.Context, id uuid.UUID, patch ProfilePatch) (*CandidateProfile, error)
	List(ctx context.Context, filter ProfileListFilter) (ProfilePage, error)
	DeleteByID(ctx context.Context, id uuid.UUID) error
}

// ModerationEvent is emitted after a moderation decision lands.
type ModerationEvent struct {
	ProfileID  uuid.UUID
	ActorID    uuid.UUID
	Decision   string
	FromState  CanonicalState
	ToState    CanonicalState
	Reason     string
	OccurredAt time.Time
	Metadata   map[string]any
}

// ProvisionEvent signals that the auto-provisioning hook ran for an email.
// Created is false when the profile already existed (idempotent re-run).
type ProvisionEvent struct {
	ProfileID  uuid.UUID
	Email      string
	Created    bool
	OccurredAt time.Time
}

// ReconciliationEvent summarizes a reconciliation run so downstream systems
// (listing cache invalidation, dashboards) can react without parsing the
// full report.
type ReconciliationEvent struct {
	TotalScanned       int
	CorrectionsApplied int
	CorrectionsFailed  int
	DryRun             bool
	OccurredAt         time.Time
}

// Hooks groups optional callbacks invoked after key workflows complete. All
// callbacks are nil-safe; moderation state change notifications plug in here
// rather than through ad hoc global broadcasts.
type Hooks struct {
	AfterModeration     func(context.Context, ModerationEvent)
	AfterProvision      func(context.Context, ProvisionEvent)
	AfterReconciliation func(context.Context, ReconciliationEvent)
	AfterActivity       func(context.Context, ActivityRecord)
}

// ActivityRecord describes audit sink inputs.
type ActivityRecord struct {
	ID         uuid.UUID
	ProfileID  uuid.UUID
	ActorID    uuid.UUID
	Verb       string
	ObjectType string
	ObjectID   string
	Data       map[string]any
	OccurredAt time.Time
}

// ActivitySink is the minimal DI contract for emitting audit records. Keep it
// stable and limited to Log so hosts can swap sinks without breaking changes.
type ActivitySink interface {
	Log(context.Context, ActivityRecord) error
}

// Clock abstracts time retrieval for deterministic testing.
type Clock interface {
	Now() time.Time
}

// IDGenerator abstracts UUID creation.
type IDGenerator interface {
	UUID() uuid.UUID
}

// Logger captures basic logging hooks used by the service.
type Logger interface {
	Debug(msg string, fields ...any)
	Info(msg string, fields ...any)
	Error(msg string, err error, fields ...any)
}

// SystemClock defers to time.Now for production usage.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// UUIDGenerator produces UUIDv4 identifiers.
type UUIDGenerator struct{}

// UUID returns a randomly generated UUID.
func (UUIDGenerator) UUID() uuid.UUID { return uuid.New() }

// NopLogger discards all log lines.
type NopLogger struct{}

// Debug implements Logger.
func (NopLogger) Debug(string, ...any) {}

// Info implements Logger.
func (NopLogger) Info(string, ...any) {}

// Error implements Logger.
func (NopLogger) Error(string, error, ...any) {}

// StatusPtr returns a pointer to the supplied review status. Convenience for
// building patches and fixtures.
func StatusPtr(status ReviewStatus) *ReviewStatus { return &status }

// BoolPtr returns a pointer to the supplied bool.
func BoolPtr(v bool) *bool { return &v }

var (
	// ErrActorRequired indicates an actor reference was not supplied.
	ErrActorRequired = errors.New("go-moderation: actor reference required")
	// ErrProfileIDRequired indicates a profile identifier was omitted.
	ErrProfileIDRequired = errors.New("go-moderation: profile id required")
	// ErrEmailRequired indicates an email address was omitted.
	ErrEmailRequired = errors.New("go-moderation: email required")
	// ErrProfileNotFound indicates the requested profile does not exist.
	ErrProfileNotFound = errors.New("go-moderation: profile not found")
	// ErrDuplicateEmail indicates an insert hit the unique email constraint.
	ErrDuplicateEmail = errors.New("go-moderation: email already provisioned")
	// ErrForbidden indicates the caller lacks the capability for the operation.
	ErrForbidden = errors.New("go-moderation: caller not authorized")
	// ErrServiceNotReady indicates the service has not been properly configured.
	ErrServiceNotReady = errors.New("go-moderation: service not ready")
	// ErrMissingProfileRepository occurs when no profile repository was supplied.
	ErrMissingProfileRepository = errors.New("go-moderation: missing profile repository")
)
