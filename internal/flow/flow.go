// Package flow sequences a price check from welcome to results as a reducer
// over explicit actions.
package flow

// Step is one screen of the flow.
type Step string

// Steps.
const (
	StepWelcome  Step = "welcome"
	StepAuth     Step = "auth"
	StepVerify   Step = "verify"
	StepSetup    Step = "setup"
	StepPrice    Step = "price"
	StepCoolOff  Step = "cooloff"
	StepResults  Step = "results"
	StepProfile  Step = "profile"
	StepInsights Step = "insights"
)

// State is the reducer state.
type State struct {
	Step           Step
	ViewingHistory bool
}

// ActionKind names a reducer action.
type ActionKind string

// Action kinds.
const (
	ActionSyncStep           ActionKind = "SYNC_STEP"
	ActionSetStep            ActionKind = "SET_STEP"
	ActionViewHistoryResults ActionKind = "VIEW_HISTORY_RESULTS"
	ActionStartNewPrice      ActionKind = "START_NEW_PRICE"
	ActionLogoReset          ActionKind = "LOGO_RESET"
)

// Action is one reducer input.
type Action struct {
	Kind            ActionKind
	Step            Step
	HasProfile      bool
	IsAuthenticated bool
}

// SyncStep moves to step and leaves history viewing.
func SyncStep(step Step) Action { return Action{Kind: ActionSyncStep, Step: step} }

// SetStep moves to step and keeps the history flag.
func SetStep(step Step) Action { return Action{Kind: ActionSetStep, Step: step} }

// ViewHistoryResults shows results for a past check.
func ViewHistoryResults() Action { return Action{Kind: ActionViewHistoryResults} }

// StartNewPrice returns to price entry.
func StartNewPrice() Action { return Action{Kind: ActionStartNewPrice} }

// LogoReset returns to the furthest step the user may start from.
func LogoReset(hasProfile, isAuthenticated bool) Action {
	return Action{Kind: ActionLogoReset, HasProfile: hasProfile, IsAuthenticated: isAuthenticated}
}

// Initial is the state before anything is known.
func Initial() State {
	return State{Step: StepWelcome}
}

// Reduce applies a to s. Unknown actions leave s unchanged.
func Reduce(s State, a Action) State {
	switch a.Kind {
	case ActionSyncStep:
		return State{Step: a.Step}
	case ActionSetStep:
		s.Step = a.Step
		return s
	case ActionViewHistoryResults:
		return State{Step: StepResults, ViewingHistory: true}
	case ActionStartNewPrice:
		return State{Step: StepPrice}
	case ActionLogoReset:
		switch {
		case a.HasProfile:
			return State{Step: StepPrice}
		case a.IsAuthenticated:
			return State{Step: StepSetup}
		default:
			return State{Step: StepWelcome}
		}
	default:
		return s
	}
}

// Identity is what Derive needs to know about the session.
type Identity interface {
	HasIdentity() bool
	HasProfile() bool
	NeedsVerification() bool
}

// Derive picks the step the session state calls for.
func Derive(id Identity) Step {
	switch {
	case id.NeedsVerification():
		return StepVerify
	case !id.HasIdentity():
		return StepWelcome
	case id.HasProfile():
		return StepPrice
	default:
		return StepSetup
	}
}
