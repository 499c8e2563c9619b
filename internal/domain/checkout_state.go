package domain

type CheckoutState string

const (
	CheckoutStateIdle            CheckoutState = "IDLE"
	CheckoutStateValidating      CheckoutState = "VALIDATING"
	CheckoutStateCreatingIntent  CheckoutState = "CREATING_INTENT"
	CheckoutStateAwaitingGateway CheckoutState = "AWAITING_GATEWAY"
	CheckoutStateVerifying       CheckoutState = "VERIFYING"
	CheckoutStatePlacingOrder    CheckoutState = "PLACING_ORDER"
	CheckoutStateDone            CheckoutState = "DONE"
	CheckoutStateGatewayFailed   CheckoutState = "GATEWAY_FAILED"
	CheckoutStateHoldCreated     CheckoutState = "HOLD_CREATED"
	CheckoutStateHoldActive      CheckoutState = "HOLD_ACTIVE"
	CheckoutStateCancelling      CheckoutState = "CANCELLING"
	CheckoutStateCancelled       CheckoutState = "CANCELLED"
)

func (s CheckoutState) IsTerminal() bool {
	return s == CheckoutStateDone || s == CheckoutStateCancelled
}

// String representation (for logging)
func (s CheckoutState) String() string {
	return string(s)
}

var checkoutTransitions = map[CheckoutState][]CheckoutState{
	CheckoutStateIdle:            {CheckoutStateValidating},
	CheckoutStateValidating:      {CheckoutStateCreatingIntent, CheckoutStatePlacingOrder, CheckoutStateIdle},
	CheckoutStateCreatingIntent:  {CheckoutStateAwaitingGateway, CheckoutStateIdle},
	CheckoutStateAwaitingGateway: {CheckoutStateVerifying, CheckoutStateGatewayFailed},
	CheckoutStateVerifying:       {CheckoutStatePlacingOrder, CheckoutStateGatewayFailed},
	CheckoutStatePlacingOrder:    {CheckoutStateDone, CheckoutStateIdle},
	CheckoutStateGatewayFailed:   {CheckoutStateHoldCreated, CheckoutStateIdle},
	CheckoutStateHoldCreated:     {CheckoutStateHoldActive, CheckoutStateIdle},
	CheckoutStateHoldActive:      {CheckoutStateAwaitingGateway, CheckoutStateCancelling, CheckoutStateCancelled},
	CheckoutStateCancelling:      {CheckoutStateCancelled, CheckoutStateHoldActive},
	CheckoutStateDone:            {CheckoutStateIdle},
	CheckoutStateCancelled:       {CheckoutStateIdle},
}

// CanTransitionTo reports whether moving from one checkout state to another
// is legal. Every transition in the orchestrator is guarded by this table.
func CanTransitionTo(from, to CheckoutState) bool {
	for _, next := range checkoutTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
