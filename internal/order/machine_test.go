package order

import (
	"testing"

	"pattibytes-backend/internal/apperrors"
)

func TestHappyPathTransitions(t *testing.T) {
	path := []Status{StatusConfirmed, StatusPreparing, StatusReady, StatusAssigned, StatusPickedUp, StatusDelivered}
	current := StatusPending
	for _, next := range path {
		if !CanTransition(current, next) {
			t.Fatalf("%s -> %s should be allowed", current, next)
		}
		current = next
	}
}

func TestBackwardTransitionRejected(t *testing.T) {
	_, err := Plan(StatusDelivered, true, Transition{To: StatusPreparing, Actor: ActorMerchant})
	if !apperrors.IsInvalidTransition(err) {
		t.Fatalf("got %v, want invalid transition", err)
	}
}

func TestTerminalStatesAreImmutable(t *testing.T) {
	for _, terminal := range []Status{StatusDelivered, StatusCancelled, StatusRejected} {
		for _, next := range []Status{StatusPending, StatusConfirmed, StatusCancelled, StatusDelivered} {
			if CanTransition(terminal, next) {
				t.Errorf("%s -> %s should be impossible", terminal, next)
			}
		}
	}
}

func TestCancellableFromAnyNonTerminal(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusConfirmed, StatusPreparing, StatusReady, StatusAssigned, StatusPickedUp} {
		if !CanTransition(s, StatusCancelled) {
			t.Errorf("%s should be cancellable", s)
		}
	}
}

func TestPlanDeliveredEffects(t *testing.T) {
	fx, err := Plan(StatusPickedUp, true, Transition{To: StatusDelivered, Actor: ActorDriver})
	if err != nil {
		t.Fatal(err)
	}
	if !fx.StampActualDelivery || !fx.ForcePaid {
		t.Errorf("effects = %+v, want delivery timestamp and payment settlement", fx)
	}
}

func TestPlanReadyWithoutDriverBroadcasts(t *testing.T) {
	fx, err := Plan(StatusPreparing, false, Transition{To: StatusReady, Actor: ActorMerchant})
	if err != nil {
		t.Fatal(err)
	}
	if !fx.BroadcastDrivers {
		t.Error("ready with no driver should trigger a driver broadcast")
	}

	fx, err = Plan(StatusPreparing, true, Transition{To: StatusReady, Actor: ActorMerchant})
	if err != nil {
		t.Fatal(err)
	}
	if fx.BroadcastDrivers {
		t.Error("ready with a driver already attached should not broadcast")
	}
}

func TestPlanAssignRequiresDriver(t *testing.T) {
	if _, err := Plan(StatusReady, false, Transition{To: StatusAssigned, Actor: ActorAdmin}); !apperrors.IsValidation(err) {
		t.Errorf("got %v, want validation error without a driver id", err)
	}
	fx, err := Plan(StatusReady, false, Transition{To: StatusAssigned, Actor: ActorAdmin, DriverID: "drv-1"})
	if err != nil {
		t.Fatal(err)
	}
	if fx.SetDriverID != "drv-1" {
		t.Errorf("effects = %+v, want the driver attached", fx)
	}
}

func TestPlanPickupRequiresDriver(t *testing.T) {
	if _, err := Plan(StatusReady, false, Transition{To: StatusPickedUp, Actor: ActorDriver}); !apperrors.IsValidation(err) {
		t.Errorf("got %v, want validation error for a driverless pickup", err)
	}
}

func TestPlanCancellationRules(t *testing.T) {
	if _, err := Plan(StatusConfirmed, false, Transition{To: StatusCancelled, Actor: ActorMerchant}); !apperrors.IsValidation(err) {
		t.Errorf("got %v, want validation error without a reason", err)
	}
	if _, err := Plan(StatusConfirmed, false, Transition{To: StatusCancelled, Actor: ActorCustomer, Reason: "changed my mind"}); !apperrors.IsInvalidTransition(err) {
		t.Errorf("got %v, customers may only cancel pending orders", err)
	}
	if _, err := Plan(StatusPending, false, Transition{To: StatusCancelled, Actor: ActorCustomer, Reason: "changed my mind"}); err != nil {
		t.Errorf("customer cancel from pending failed: %v", err)
	}
	if _, err := Plan(StatusPreparing, false, Transition{To: StatusCancelled, Actor: ActorMerchant, Reason: "out of stock"}); err != nil {
		t.Errorf("merchant cancel from preparing failed: %v", err)
	}
}

func TestOperationalCorrectionsGate(t *testing.T) {
	if CanCorrectOperational(StatusDelivered) {
		t.Error("terminal orders must not accept operational corrections")
	}
	if !CanCorrectOperational(StatusPreparing) {
		t.Error("in-flight orders should accept operational corrections")
	}
}
