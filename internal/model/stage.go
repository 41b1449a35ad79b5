package model

// Stage is a step of the request pipeline.
type Stage int

const (
	StageIdle Stage = iota
	StageFetching
	StageNormalizing
	StageDebugWriting
	StageRefining
	StageDone
	StageFailed
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageFetching:
		return "fetching"
	case StageNormalizing:
		return "normalizing"
	case StageDebugWriting:
		return "debug_writing"
	case StageRefining:
		return "refining"
	case StageDone:
		return "done"
	case StageFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ParseStage is the inverse of Stage.String. Unknown names map to StageFailed.
func ParseStage(name string) Stage {
	for s := StageIdle; s <= StageFailed; s++ {
		if s.String() == name {
			return s
		}
	}
	return StageFailed
}
