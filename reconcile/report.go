package reconcile

import (
	"sort"
	"time"

	"github.com/goliatone/go-moderation/pkg/types"
	"github.com/google/uuid"
)

// Bucket names the partition a scanned record fell into.
type Bucket string

const (
	// BucketVisibleTrueNotApproved holds records publicly listed without an
	// approved canonical state. Correction: force status to approved.
	BucketVisibleTrueNotApproved Bucket = "visibleTrueNotApproved"
	// BucketVisibleFalseButApproved holds hidden records that still classify
	// as approved. Correction: force status to pending, demoting rather than
	// rejecting outright.
	BucketVisibleFalseButApproved Bucket = "visibleFalseButApproved"
)

// FieldSnapshot captures the lifecycle triple of a record at a point in time,
// together with its canonical classification.
type FieldSnapshot struct {
	Status        *types.ReviewStatus
	Approved      *bool
	Visible       *bool
	State         types.CanonicalState
	Contradictory bool
}

// Correction describes one corrective write, proposed or applied.
type Correction struct {
	ProfileID uuid.UUID
	Bucket    Bucket
	Target    types.ReviewStatus
	Before    FieldSnapshot
	After     FieldSnapshot
	// Data carries identifying attributes (email, display name) and is run
	// through the report masker before leaving the engine.
	Data map[string]any
}

// CorrectionFailure pairs a failed correction with its store error.
type CorrectionFailure struct {
	Correction
	Err string
}

// Report is the engine's primary observable output. Given the same store
// snapshot it is deterministic: entries are ordered by profile id.
type Report struct {
	TotalScanned            int
	VisibleTrueNotApproved  int
	VisibleFalseButApproved int
	Consistent              int
	Untouched               int
	DryRun                  bool

	CorrectionsProposed []Correction
	CorrectionsApplied  []Correction
	CorrectionsFailed   []CorrectionFailure

	StartedAt  time.Time
	FinishedAt time.Time
}

// HasFailures reports whether any corrective write failed. The run itself is
// still considered successful; failures are data, not an abort.
func (r Report) HasFailures() bool {
	return len(r.CorrectionsFailed) > 0
}

func snapshotOf(profile types.CandidateProfile) FieldSnapshot {
	cls := types.Classify(profile)
	return FieldSnapshot{
		Status:        profile.Status,
		Approved:      profile.Approved,
		Visible:       profile.Visible,
		State:         cls.State,
		Contradictory: cls.Contradictory,
	}
}

func sortCorrections(corrections []Correction) {
	sort.Slice(corrections, func(i, j int) bool {
		return corrections[i].ProfileID.String() < corrections[j].ProfileID.String()
	})
}

func sortFailures(failures []CorrectionFailure) {
	sort.Slice(failures, func(i, j int) bool {
		return failures[i].ProfileID.String() < failures[j].ProfileID.String()
	})
}
