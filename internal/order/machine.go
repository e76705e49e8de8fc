package order

import (
	"strings"

	"pattibytes-backend/internal/apperrors"
)

// Transition is a requested status change plus the context it needs.
type Transition struct {
	To       Status
	Actor    ActorRole
	DriverID string // required when To is assigned
	Reason   string // required when To is cancelled
}

// Effects is what the caller must perform alongside the status write. The
// write itself stays conditional on the current status so racing actors get a
// conflict instead of a silent overwrite.
type Effects struct {
	// StampActualDelivery: set actual_delivery_time = now.
	StampActualDelivery bool
	// ForcePaid: delivery settles payment regardless of method.
	ForcePaid bool
	// BroadcastDrivers: the order went ready with no driver attached.
	BroadcastDrivers bool
	// SetDriverID attaches this driver as part of the same write.
	SetDriverID string
}

// Plan validates a transition against the current state and returns the side
// effects it entails. It never mutates anything; on error the order is to be
// left untouched.
func Plan(current Status, driverAssigned bool, t Transition) (Effects, error) {
	if !Valid(t.To) {
		return Effects{}, apperrors.NewValidation("status", "unknown status "+string(t.To))
	}
	if !CanTransition(current, t.To) {
		return Effects{}, apperrors.NewInvalidTransition(string(current), string(t.To))
	}

	var fx Effects
	switch t.To {
	case StatusConfirmed, StatusRejected, StatusPreparing:
		// merchant actions: status + timestamp only

	case StatusReady:
		if !driverAssigned {
			fx.BroadcastDrivers = true
		}

	case StatusAssigned:
		if strings.TrimSpace(t.DriverID) == "" {
			return Effects{}, apperrors.NewValidation("driver_id", "required to assign an order")
		}
		fx.SetDriverID = t.DriverID

	case StatusPickedUp:
		if !driverAssigned {
			return Effects{}, apperrors.NewValidation("driver_id", "order has no driver to pick it up")
		}

	case StatusDelivered:
		fx.StampActualDelivery = true
		fx.ForcePaid = true

	case StatusCancelled:
		if strings.TrimSpace(t.Reason) == "" {
			return Effects{}, apperrors.NewValidation("reason", "cancellation requires a reason")
		}
		if t.Actor == "" {
			return Effects{}, apperrors.NewValidation("actor", "cancellation must record the cancelling role")
		}
		if t.Actor == ActorCustomer && current != StatusPending {
			return Effects{}, apperrors.NewInvalidTransition(string(current), string(t.To))
		}
	}

	return fx, nil
}

// CanCorrectOperational reports whether payment status and delivery timing
// fields may still be edited. These are operational corrections, not status
// progression, and stay open at every non-terminal state.
func CanCorrectOperational(current Status) bool {
	return !IsTerminal(current)
}

func ValidPaymentStatus(s PaymentStatus) bool {
	switch s {
	case PaymentPending, PaymentPaid, PaymentFailed, PaymentRefunded:
		return true
	}
	return false
}
