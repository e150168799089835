package chatsync

// Phase is the single state variable guarding the manager's lifecycle.
// Earlier revisions juggled independent boolean guards (creating, changing,
// loading); collapsing them into one enum removes the impossible
// combinations.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseCreating
	PhaseChanging
	PhaseLoading
	PhasePolling
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseCreating:
		return "creating"
	case PhaseChanging:
		return "changing"
	case PhaseLoading:
		return "loading"
	case PhasePolling:
		return "polling"
	default:
		return "unknown"
	}
}
