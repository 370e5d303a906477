package serviceorder

// OrderStatus represents the status of a service order
type OrderStatus string

const (
	OrderStatusReceived         OrderStatus = "RECEIVED"
	OrderStatusDiagnosing       OrderStatus = "DIAGNOSING"
	OrderStatusAwaitingApproval OrderStatus = "AWAITING_APPROVAL"
	OrderStatusInExecution      OrderStatus = "IN_EXECUTION"
	OrderStatusCompleted        OrderStatus = "COMPLETED"
	OrderStatusCancelled        OrderStatus = "CANCELLED"
	OrderStatusBudgetExpired    OrderStatus = "BUDGET_EXPIRED"
)

// AllStatuses lists every status in lifecycle order
var AllStatuses = []OrderStatus{
	OrderStatusReceived,
	OrderStatusDiagnosing,
	OrderStatusAwaitingApproval,
	OrderStatusInExecution,
	OrderStatusCompleted,
	OrderStatusCancelled,
	OrderStatusBudgetExpired,
}

// IsValid checks if the status is a valid OrderStatus
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusReceived, OrderStatusDiagnosing, OrderStatusAwaitingApproval,
		OrderStatusInExecution, OrderStatusCompleted, OrderStatusCancelled, OrderStatusBudgetExpired:
		return true
	}
	return false
}

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// IsTerminal reports whether no further transition is possible
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled || s == OrderStatusBudgetExpired
}

// CanTransitionTo checks if the status can transition to the target status
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	switch s {
	case OrderStatusReceived:
		return target == OrderStatusDiagnosing || target == OrderStatusCancelled
	case OrderStatusDiagnosing:
		return target == OrderStatusAwaitingApproval || target == OrderStatusCancelled
	case OrderStatusAwaitingApproval:
		return target == OrderStatusInExecution || target == OrderStatusCancelled || target == OrderStatusBudgetExpired
	case OrderStatusInExecution:
		return target == OrderStatusCompleted || target == OrderStatusCancelled
	case OrderStatusCompleted, OrderStatusCancelled, OrderStatusBudgetExpired:
		return false // Terminal states
	}
	return false
}
