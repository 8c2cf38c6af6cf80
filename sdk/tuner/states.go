package tuner

import "fmt"

// State is a state of the measurement state machine.
type State int

const (
	Stopped State = iota
	PrepReferenceMeasurement
	ReferenceMeasurement
	PrepMeasurement
	Measurement
	Finished
	PrepContinuousMeasurement
	ContinuousMeasurement
	PrepSingleMeasurement
	SingleMeasurement
)

func (s State) String() string {
	if s < 0 || int(s) >= len(stateTable) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateTable[s].name
}

type stateKind int

const (
	kindIdle    stateKind = iota
	kindPrepare           // wait for the detector, send the note, settle, arm
	kindMeasure           // wait for the detector verdict or the timeout
)

type timeoutPolicy int

const (
	timeoutNone timeoutPolicy = iota
	// timeoutFixed uses the reference tick budget.
	timeoutFixed
	// timeoutExpected derives the budget from the frequency the reference predicts.
	timeoutExpected
	// timeoutExpectedOrFixed behaves like timeoutExpected once a reference exists.
	timeoutExpectedOrFixed
)

type stateDef struct {
	name    string
	kind    stateKind
	next    State // prepare states: the measure state entered after arming
	timeout timeoutPolicy
	mode    Mode
	status  string // %d is replaced by the target pitch
}

var stateTable = [...]stateDef{
	Stopped:                   {name: "Stopped", status: "Stopped."},
	PrepReferenceMeasurement:  {name: "PrepReferenceMeasurement", kind: kindPrepare, next: ReferenceMeasurement, mode: ModeSweep, status: "Measuring reference frequency ..."},
	ReferenceMeasurement:      {name: "ReferenceMeasurement", kind: kindMeasure, timeout: timeoutFixed, mode: ModeSweep, status: "Measuring reference frequency ..."},
	PrepMeasurement:           {name: "PrepMeasurement", kind: kindPrepare, next: Measurement, mode: ModeSweep, status: "Measuring frequency for MIDI note %d ..."},
	Measurement:               {name: "Measurement", kind: kindMeasure, timeout: timeoutExpected, mode: ModeSweep, status: "Measuring frequency for MIDI note %d ..."},
	Finished:                  {name: "Finished", status: "Finished."},
	PrepContinuousMeasurement: {name: "PrepContinuousMeasurement", kind: kindPrepare, next: ContinuousMeasurement, mode: ModeContinuous, status: "Continuously measuring frequency..."},
	ContinuousMeasurement:     {name: "ContinuousMeasurement", kind: kindMeasure, timeout: timeoutExpectedOrFixed, mode: ModeContinuous, status: "Continuously measuring frequency..."},
	PrepSingleMeasurement:     {name: "PrepSingleMeasurement", kind: kindPrepare, next: SingleMeasurement, mode: ModeSingle, status: "Measuring frequency for MIDI note %d ..."},
	SingleMeasurement:         {name: "SingleMeasurement", kind: kindMeasure, timeout: timeoutExpectedOrFixed, mode: ModeSingle, status: "Measuring frequency for MIDI note %d ..."},
}

func (s State) def() stateDef { return stateTable[s] }

// Running reports whether s belongs to an active run.
func (s State) Running() bool { return s != Stopped && s != Finished }
