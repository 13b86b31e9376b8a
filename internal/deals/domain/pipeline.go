package domain

import (
	"slices"
	"time"
)

var transitions = map[Stage][]Stage{
	StageLeadIn:        {StageQualification, StageLost},
	StageQualification: {StageProposal, StageLost},
	StageProposal:      {StageNegotiation, StageLost},
	StageNegotiation:   {StageWon, StageLost, StageProposal},
	StageWon:           {},
	StageLost:          {StageLeadIn},
}

var probabilities = map[Stage]int{
	StageLeadIn:        10,
	StageQualification: 25,
	StageProposal:      50,
	StageNegotiation:   75,
	StageWon:           100,
	StageLost:          0,
}

var scoreDeltas = map[Stage]int{
	StageQualification: 10,
	StageProposal:      20,
	StageNegotiation:   30,
	StageWon:           50,
	StageLost:          -20,
}

// Stages lists every stage in pipeline order.
func Stages() []Stage {
	return []Stage{StageLeadIn, StageQualification, StageProposal, StageNegotiation, StageWon, StageLost}
}

// Valid reports whether s is a known stage.
func (s Stage) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// CanTransition reports whether from -> to is an edge of the pipeline.
func CanTransition(from, to Stage) bool {
	return slices.Contains(transitions[from], to)
}

// NextStages returns the stages reachable from s.
func NextStages(s Stage) []Stage {
	return slices.Clone(transitions[s])
}

// Probability is the win probability of a stage in percent.
func Probability(s Stage) int {
	return probabilities[s]
}

// ExpectedValue weights value by the stage probability.
func ExpectedValue(value float64, s Stage) float64 {
	return value * float64(Probability(s)) / 100
}

// ScoreDelta is the lead score change for the client when a deal enters s.
func ScoreDelta(s Stage) int {
	return scoreDeltas[s]
}

// DaysInStage counts whole days between since and now. It never returns a
// negative number, even if since is after now.
func DaysInStage(since, now time.Time) int {
	if !now.After(since) {
		return 0
	}
	return int(now.Sub(since).Hours() / 24)
}
