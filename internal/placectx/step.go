package placectx

import (
	"fmt"
	"strings"
)

// Step names a single outbound lookup.
type Step string

const (
	StepFindPlace    Step = "find_place"
	StepTextSearch   Step = "text_search"
	StepNearbySearch Step = "nearby_search"
)

// StepStatus is the outcome of a lookup step.
type StepStatus string

const (
	StatusOK      StepStatus = "ok"
	StatusEmpty   StepStatus = "empty"   // call succeeded, nothing returned
	StatusFailed  StepStatus = "failed"  // transport, HTTP, or parse failure
	StatusSkipped StepStatus = "skipped" // precondition missing, call not made
)

// StepResult records what one lookup contributed. Reason is set for every
// status except StatusOK.
type StepResult struct {
	Step   Step       `json:"step"`
	Status StepStatus `json:"status"`
	Reason string     `json:"reason,omitempty"`
	Kind   string     `json:"kind,omitempty"`
}

// Degraded reports whether the step contributed nothing because it failed.
func (r StepResult) Degraded() bool {
	return r.Status == StatusFailed
}

// Steps collects the results of every lookup made for one address.
type Steps struct {
	FindPlace    StepResult `json:"find_place"`
	TextSearch   StepResult `json:"text_search"`
	NearbySearch StepResult `json:"nearby_search"`
}

// lookupError joins the failures that removed evidence from the context.
// Text-search failures are supplementary and are not reported.
func (s Steps) lookupError() string {
	var parts []string
	for _, r := range []StepResult{s.FindPlace, s.NearbySearch} {
		if r.Degraded() {
			parts = append(parts, fmt.Sprintf("%s: %s", r.Step, r.Reason))
		}
	}
	return strings.Join(parts, "; ")
}
