package workflow

import "dealership/internal/model"

// NotOnPath is the step index of statuses that are not on the happy path.
// Display layers render an error state for it instead of a step.
const NotOnPath = -1

var progressSteps = []string{
	"Application Submitted",
	"Under Review",
	"Approved",
	"Payment Pending",
	"Payment Verified",
}

var stepIndex = map[model.Status]int{
	model.StatusSubmitted:              0,
	model.StatusUnderReview:            1,
	model.StatusAdditionalInfoRequired: 1,
	model.StatusApproved:               2,
	model.StatusPaymentPending:         3,
	model.StatusPaymentVerified:        4,
}

// Steps returns the labels of the progress indicator.
func Steps() []string {
	out := make([]string, len(progressSteps))
	copy(out, progressSteps)
	return out
}

// StepIndex maps status to its position on the progress indicator, or
// NotOnPath for Rejected and unknown statuses.
func StepIndex(status model.Status) int {
	if idx, ok := stepIndex[status]; ok {
		return idx
	}
	return NotOnPath
}

// Label is the human readable name of status.
func Label(status model.Status) string {
	switch status {
	case model.StatusSubmitted:
		return "Submitted"
	case model.StatusUnderReview:
		return "Under Review"
	case model.StatusAdditionalInfoRequired:
		return "Additional Information Required"
	case model.StatusApproved:
		return "Approved"
	case model.StatusPaymentPending:
		return "Payment Pending"
	case model.StatusPaymentVerified:
		return "Payment Verified"
	case model.StatusRejected:
		return "Rejected"
	default:
		return string(status)
	}
}

// Progress is the tracker view of an application's position.
type Progress struct {
	Step     int      `json:"step"`
	Steps    []string `json:"steps"`
	Label    string   `json:"label"`
	Terminal bool     `json:"terminal"`
	Rejected bool     `json:"rejected"`
	Actions  []string `json:"actions"`
}

// ProgressOf builds the tracker view for status.
func ProgressOf(status model.Status) Progress {
	actions := []string{}
	for _, t := range Allowed(status) {
		actions = append(actions, string(t))
	}
	return Progress{
		Step:     StepIndex(status),
		Steps:    Steps(),
		Label:    Label(status),
		Terminal: IsTerminal(status),
		Rejected: status == model.StatusRejected,
		Actions:  actions,
	}
}
