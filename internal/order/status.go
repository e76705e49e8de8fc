package order

// Status represents where an order is in its lifecycle.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusPreparing Status = "preparing"
	StatusReady     Status = "ready"
	StatusAssigned  Status = "assigned"
	StatusPickedUp  Status = "picked_up"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
	StatusRejected  Status = "rejected"
)

// allowed transitions. cancelled is reachable from every non-terminal state
// and is added in CanTransition rather than repeated here.
var allowed = map[Status]map[Status]bool{
	StatusPending:   {StatusConfirmed: true, StatusRejected: true},
	StatusConfirmed: {StatusPreparing: true, StatusAssigned: true},
	StatusPreparing: {StatusReady: true, StatusAssigned: true},
	StatusReady:     {StatusAssigned: true, StatusPickedUp: true},
	StatusAssigned:  {StatusPickedUp: true},
	StatusPickedUp:  {StatusDelivered: true},
	StatusDelivered: {},
	StatusCancelled: {},
	StatusRejected:  {},
}

// CanTransition checks whether from -> to is a legal lifecycle move.
func CanTransition(from, to Status) bool {
	if IsTerminal(from) {
		return false
	}
	if to == StatusCancelled {
		return true
	}
	nexts := allowed[from]
	return nexts != nil && nexts[to]
}

// IsTerminal reports whether no further transition is permitted.
func IsTerminal(s Status) bool {
	return s == StatusDelivered || s == StatusCancelled || s == StatusRejected
}

func Valid(s Status) bool {
	_, ok := allowed[s]
	return ok
}

// PaymentStatus tracks settlement independently of the lifecycle graph.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

// ActorRole identifies who is driving a transition.
type ActorRole string

const (
	ActorCustomer ActorRole = "customer"
	ActorMerchant ActorRole = "merchant"
	ActorDriver   ActorRole = "driver"
	ActorAdmin    ActorRole = "admin"
)
