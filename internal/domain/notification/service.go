package notification

// Domain notification names emitted by the engine.
const (
	EventClockedIn        = "employee.clocked_in"
	EventClockedOut       = "employee.clocked_out"
	EventRequestSubmitted = "request.submitted"
	EventRequestProcessed = "request.processed"
	EventSettingsUpdated  = "settings.updated"
)

// PayloadEmployeeKey routes a notification to the employee's own subscribers as well.
const PayloadEmployeeKey = "employeeId"

// Broadcaster pushes domain notifications to live subscribers. Fire-and-forget:
// implementations must not block and give no delivery guarantee.
type Broadcaster interface {
	Notify(eventName string, payload map[string]interface{})
}

// Nop discards every notification.
type Nop struct{}

func (Nop) Notify(string, map[string]interface{}) {}
