package scoring

// neutralReputation is assumed for creators with no history.
const neutralReputation = 0.5

// ReputationTable maps creator addresses to a reputation score in [0,1],
// learned offline from past launches. Lookups for unknown creators return
// the neutral score.
type ReputationTable struct {
	scores map[string]float64
}

// NewReputationTable creates a table from known creator scores.
// A nil map yields a table that answers neutral for everyone.
func NewReputationTable(scores map[string]float64) *ReputationTable {
	if scores == nil {
		scores = make(map[string]float64)
	}
	return &ReputationTable{scores: scores}
}

// Lookup returns the creator's reputation, clamped to [0,1].
func (t *ReputationTable) Lookup(creator string) float64 {
	s, ok := t.scores[creator]
	if !ok {
		return neutralReputation
	}
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}
