package core

// PendingLevel classifies the backlog counter for display.
type PendingLevel string

const (
	PendingOK    PendingLevel = "ok"
	PendingWarn  PendingLevel = "warn"
	PendingAlert PendingLevel = "alert"
)

// PendingWarnLimit is the largest backlog still shown as a warning.
const PendingWarnLimit = 10

// LevelFor maps a backlog size to its level: empty, up to PendingWarnLimit, above.
func LevelFor(pendientes int) PendingLevel {
	switch {
	case pendientes <= 0:
		return PendingOK
	case pendientes <= PendingWarnLimit:
		return PendingWarn
	default:
		return PendingAlert
	}
}

// ClampPending turns raw user input into a valid pending counter.
func ClampPending(raw string) AppState {
	return AppState{Pendientes: ParseCount(raw)}
}
