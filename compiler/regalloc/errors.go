package regalloc

import (
	"fmt"
	"strings"
)

type (
	// MissingLiveBeforeError is returned when a jump targets a label
	// liveness knows nothing about.
	MissingLiveBeforeError struct {
		Label string
	}

	// FlowCycleError is returned by a strict topological sort.
	FlowCycleError struct {
		Labels []string
	}

	MissingBlockError struct {
		Label string
	}

	// NoAssignmentError means a variable used in code has no color.
	NoAssignmentError struct {
		Var string
	}
)

func (e MissingLiveBeforeError) Error() string {
	return fmt.Sprintf("missing live-before: %v", e.Label)
}

func (e FlowCycleError) Error() string {
	return fmt.Sprintf("flow graph cycle through: %v", strings.Join(e.Labels, ", "))
}

func (e MissingBlockError) Error() string {
	return fmt.Sprintf("missing block: %v", e.Label)
}

func (e NoAssignmentError) Error() string {
	return fmt.Sprintf("no assignment: %v", e.Var)
}
