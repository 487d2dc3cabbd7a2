package controller

// Phase is a step of the startup sequence.
type Phase int

// Phases in execution order.
const (
	PhaseCreated Phase = iota
	PhaseTransportReady
	PhaseLoggingReady
	PhaseTimerReady
	PhaseDomainInitialize
	PhaseSettingsLoad
	PhaseTransportStart
	PhaseAPIExpose
	PhaseRun
	PhaseStopped
)

var phaseNames = [...]string{
	PhaseCreated:          "Created",
	PhaseTransportReady:   "TransportReady",
	PhaseLoggingReady:     "LoggingReady",
	PhaseTimerReady:       "TimerReady",
	PhaseDomainInitialize: "DomainInitialize",
	PhaseSettingsLoad:     "SettingsLoad",
	PhaseTransportStart:   "TransportStart",
	PhaseAPIExpose:        "ApiExpose",
	PhaseRun:              "Run",
	PhaseStopped:          "Stopped",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "Unknown"
	}
	return phaseNames[p]
}
