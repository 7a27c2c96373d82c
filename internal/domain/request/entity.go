package request

import "time"

// Kind selects which approval workflow a request belongs to.
type Kind string

const (
	KindBreak    Kind = "break"
	KindClockOut Kind = "clock_out"
)

func (k Kind) IsValid() bool {
	return k == KindBreak || k == KindClockOut
}

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

type Decision string

const (
	DecisionApproved Decision = "approved"
	DecisionRejected Decision = "rejected"
)

// Status returns the terminal status a decision moves a request to.
func (d Decision) Status() Status {
	if d == DecisionApproved {
		return StatusApproved
	}
	return StatusRejected
}

// Request is a break or early clock-out request awaiting or past admin review.
type Request struct {
	ID          string     `json:"id"`
	EmployeeID  string     `json:"employeeId"`
	Kind        Kind       `json:"kind"`
	RequestedAt time.Time  `json:"requestedAt"`
	Status      Status     `json:"status"`
	Reason      string     `json:"reason,omitempty"`
	ProcessedAt *time.Time `json:"processedAt,omitempty"`
	ProcessedBy *string    `json:"processedBy,omitempty"`
	AdminNotes  *string    `json:"adminNotes,omitempty"`

	// Break requests only
	BreakName       *string `json:"breakName,omitempty"`
	DurationMinutes *int    `json:"durationMinutes,omitempty"`
}

// Completion is the compare-and-swap payload that moves a pending request to a terminal status.
type Completion struct {
	Status      Status
	ProcessedAt time.Time
	ProcessedBy string
	AdminNotes  *string
}
