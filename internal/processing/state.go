package processing

type State int

const (
	NoData State = iota
	HasResults
	HasAnalysis
)

func (s State) String() string {
	switch s {
	case HasResults:
		return "has_results"
	case HasAnalysis:
		return "has_analysis"
	default:
		return "no_data"
	}
}
