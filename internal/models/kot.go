package models

type KOTStatus string

// KOT statuses
const (
	KOTStatusPending   KOTStatus = "pending"
	KOTStatusPreparing KOTStatus = "preparing"
	KOTStatusReady     KOTStatus = "ready"
	KOTStatusClosed    KOTStatus = "closed"
)

// OpenKOTStatuses are the statuses that still owe money on a table.
var OpenKOTStatuses = []KOTStatus{KOTStatusPreparing, KOTStatusReady}

// Valid reports whether s is a known status.
func (s KOTStatus) Valid() bool {
	switch s {
	case KOTStatusPending, KOTStatusPreparing, KOTStatusReady, KOTStatusClosed:
		return true
	}
	return false
}

// IsOpen reports whether a KOT in this status is billable.
func (s KOTStatus) IsOpen() bool {
	return s == KOTStatusPreparing || s == KOTStatusReady
}

// CanTransitionTo reports whether the kitchen may move a KOT from s to next.
// Closing happens only through bill finalization or an explicit table close.
func (s KOTStatus) CanTransitionTo(next KOTStatus) bool {
	switch s {
	case KOTStatusPending:
		return next == KOTStatusPreparing
	case KOTStatusPreparing:
		return next == KOTStatusReady
	}
	return false
}
