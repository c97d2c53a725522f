package service

// Phase is the process lifecycle as driven by main.
//
//	Starting -> Ready -> Draining -> Stopped
//	Starting -> Failed
type Phase int32

const (
	PhaseStarting Phase = iota
	PhaseReady
	PhaseFailed
	PhaseDraining
	PhaseStopped
)

func (p Phase) String() string {
	switch p {
	case PhaseStarting:
		return "starting"
	case PhaseReady:
		return "ready"
	case PhaseFailed:
		return "failed"
	case PhaseDraining:
		return "draining"
	case PhaseStopped:
		return "stopped"
	default:
		return "unknown"
	}
}
