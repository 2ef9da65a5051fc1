package study

// Mode names the six study surfaces a deck session can be in.
type Mode string

const (
	ModeReference Mode = "reference"
	ModeExposure  Mode = "exposure"
	ModeGrid      Mode = "grid"
	ModeRecall    Mode = "recall"
	ModeLoop      Mode = "loop"
	ModeQuiz      Mode = "quiz"
)

// Modes lists every mode in display order.
var Modes = []Mode{ModeReference, ModeExposure, ModeGrid, ModeRecall, ModeLoop, ModeQuiz}

// ValidMode reports whether m is one of the six known modes.
func ValidMode(m Mode) bool {
	switch m {
	case ModeReference, ModeExposure, ModeGrid, ModeRecall, ModeLoop, ModeQuiz:
		return true
	}
	return false
}

func (m Mode) String() string { return string(m) }
