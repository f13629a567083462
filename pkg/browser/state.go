package browser

// State is a session lifecycle state.
type State int

const (
	StateUninitialized State = iota
	StateEngineLaunched
	StateContextCreated
	StatePageReady
	StateTracingActive
	StateInTest
	StateTeardownTracing
	StateTeardownContext
	StateTeardownEngine
	StateTeardownVideo
	StateClosed
)

var stateNames = [...]string{
	StateUninitialized:   "UNINITIALIZED",
	StateEngineLaunched:  "ENGINE_LAUNCHED",
	StateContextCreated:  "CONTEXT_CREATED",
	StatePageReady:       "PAGE_READY",
	StateTracingActive:   "TRACING_ACTIVE",
	StateInTest:          "IN_TEST",
	StateTeardownTracing: "TEARDOWN_TRACING",
	StateTeardownContext: "TEARDOWN_CONTEXT",
	StateTeardownEngine:  "TEARDOWN_ENGINE",
	StateTeardownVideo:   "TEARDOWN_VIDEO",
	StateClosed:          "CLOSED",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "UNKNOWN"
	}
	return stateNames[s]
}

// Stage names the setup step that failed.
type Stage string

const (
	StageDescriptor Stage = "descriptor"
	StageLaunch     Stage = "launch"
	StageContext    Stage = "context"
	StagePage       Stage = "page"
	StageTracing    Stage = "tracing"
)

// Step names a teardown step.
type Step string

const (
	StepTracing Step = "tracing"
	StepContext Step = "context"
	StepEngine  Step = "engine"
	StepVideo   Step = "video"
)
