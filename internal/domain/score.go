package domain

// Verdict is the accept/reject outcome of scoring a candidate.
type Verdict string

const (
	VerdictAccept Verdict = "ACCEPT"
	VerdictReject Verdict = "REJECT"
)

// ScoreResult is the deterministic output of scoring a TokenCandidate.
// Score is always in [0,1]. Reasons is non-empty iff Verdict is reject.
type ScoreResult struct {
	Score   float64
	Verdict Verdict
	Reasons []string
}

// Accepted reports whether the candidate passed scoring.
func (r ScoreResult) Accepted() bool {
	return r.Verdict == VerdictAccept
}
