package types

// CanonicalState is the single source-of-truth lifecycle value derived from
// the three redundant fields.
type CanonicalState string

const (
	StateNew      CanonicalState = "new"
	StatePending  CanonicalState = "pending"
	StateApproved CanonicalState = "approved"
	StateRejected CanonicalState = "rejected"
)

// Classification is the normalizer output: the canonical state plus whether
// the underlying fields disagree with each other.
type Classification struct {
	State         CanonicalState
	Contradictory bool
}

// Classify maps the redundant status/approved/visible triple to one canonical
// lifecycle state. The rules are evaluated in precedence order, first match
// wins, mirroring the grouping the moderation panels have always applied:
//
//  1. approved == true or status == "approved"            -> Approved
//  2. approved == false, visible == false, or "rejected"  -> Rejected
//  3. status == "new"                                     -> New
//  4. anything else                                       -> Pending
//
// Note the precedence makes approved==true win over a simultaneously set
// visible==false. Contradictory is raised whenever an approval signal and a
// rejection signal hold at the same time, so repair paths must check the flag
// before trusting the first-match state. Pure and total over any field
// combination, including all-null.
func Classify(profile CandidateProfile) Classification {
	approval := boolEquals(profile.Approved, true) || statusEquals(profile.Status, ReviewStatusApproved)
	rejection := boolEquals(profile.Approved, false) || boolEquals(profile.Visible, false) ||
		statusEquals(profile.Status, ReviewStatusRejected)

	out := Classification{Contradictory: approval && rejection}
	switch {
	case approval:
		out.State = StateApproved
	case rejection:
		out.State = StateRejected
	case statusEquals(profile.Status, ReviewStatusNew):
		out.State = StateNew
	default:
		out.State = StatePending
	}
	return out
}

// CanonicalStateOf is shorthand for Classify(...).State.
func CanonicalStateOf(profile CandidateProfile) CanonicalState {
	return Classify(profile).State
}

// ApprovalPatch returns the canonical approved field triple: approved and
// visible forced true, the legacy status column cleared. Applying it always
// lands the record in a non-contradictory Approved state.
func ApprovalPatch() ProfilePatch {
	return ProfilePatch{
		SetStatus:   true,
		Status:      nil,
		SetApproved: true,
		Approved:    BoolPtr(true),
		SetVisible:  true,
		Visible:     BoolPtr(true),
	}
}

// RejectionPatch returns the canonical rejected field triple.
func RejectionPatch() ProfilePatch {
	return ProfilePatch{
		SetStatus:   true,
		Status:      nil,
		SetApproved: true,
		Approved:    BoolPtr(false),
		SetVisible:  true,
		Visible:     BoolPtr(false),
	}
}

// ForceStatusPatch returns a patch that rewrites only the status column,
// leaving the boolean pair untouched. The reconciliation engine uses it to
// converge contradictory legacy records.
func ForceStatusPatch(status ReviewStatus) ProfilePatch {
	return ProfilePatch{
		SetStatus: true,
		Status:    StatusPtr(status),
	}
}

func boolEquals(v *bool, expect bool) bool {
	return v != nil && *v == expect
}

func statusEquals(v *ReviewStatus, expect ReviewStatus) bool {
	return v != nil && *v == expect
}
