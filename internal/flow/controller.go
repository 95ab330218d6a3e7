package flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"

	"github.com/Veraticus/mindspend/internal/calculator"
	"github.com/Veraticus/mindspend/internal/model"
	"github.com/Veraticus/mindspend/internal/session"
)

// Controller errors.
var (
	ErrWrongStep = errors.New("action not available at this step")
	ErrNoCheck   = errors.New("no price has been entered")
)

// Check is the price being looked at.
type Check struct {
	Label    string
	Category model.Category
	Price    float64
}

// key identifies a check for create deduplication.
func (c Check) key() string {
	return strconv.FormatFloat(c.Price, 'f', -1, 64) + "-" + c.Label
}

// Outcome is what the results step shows.
type Outcome struct {
	// RecordID is set when this call created the record.
	RecordID string
	Result   calculator.Result
	Saved    bool
}

// Controller drives the flow for one session.
type Controller struct {
	sess     *session.Session
	logger   *slog.Logger
	check    *Check
	savedKey string
	state    State
}

// NewController starts at the step the session calls for.
func NewController(sess *session.Session) *Controller {
	c := &Controller{
		sess:   sess,
		logger: slog.Default().With("component", "flow"),
		state:  Initial(),
	}
	c.Sync()
	return c
}

// State returns the reducer state.
func (c *Controller) State() State {
	return c.state
}

// Step returns the current step.
func (c *Controller) Step() Step {
	return c.state.Step
}

// Check returns the price being looked at, or nil.
func (c *Controller) Check() *Check {
	if c.check == nil {
		return nil
	}
	chk := *c.check
	return &chk
}

func (c *Controller) dispatch(a Action) {
	prev := c.state.Step
	c.state = Reduce(c.state, a)
	if c.state.Step == StepResults && prev != StepResults {
		// A fresh results view may save once.
		c.savedKey = ""
	}
	c.logger.Debug("Flow step", "action", a.Kind, "from", prev, "to", c.state.Step)
}

// Sync re-derives the step after identity or profile changes.
func (c *Controller) Sync() {
	c.dispatch(SyncStep(Derive(c.sess)))
}

// GetStarted opens sign-in from the welcome screen.
func (c *Controller) GetStarted() {
	c.dispatch(SetStep(StepAuth))
}

// AuthSucceeded continues after sign-in or guest selection.
func (c *Controller) AuthSucceeded() {
	if c.sess.NeedsVerification() {
		c.dispatch(SetStep(StepVerify))
		return
	}
	if c.sess.HasProfile() {
		c.dispatch(SetStep(StepPrice))
		return
	}
	c.dispatch(SetStep(StepSetup))
}

// CompleteSetup saves the profile and moves to price entry.
func (c *Controller) CompleteSetup(ctx context.Context, p model.Profile) error {
	if err := c.sess.SaveProfile(ctx, p); err != nil {
		return err
	}
	c.dispatch(SetStep(StepPrice))
	return nil
}

// SubmitPrice records the check and starts the cool-off.
func (c *Controller) SubmitPrice(price float64, label string, category model.Category) error {
	if c.state.Step != StepPrice {
		return fmt.Errorf("%w: submit price at %s", ErrWrongStep, c.state.Step)
	}
	if price <= 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		return model.ErrInvalidPrice
	}
	if category == "" {
		category = model.CategoryOther
	} else if _, err := model.ParseCategory(string(category)); err != nil {
		return err
	}
	c.check = &Check{Price: price, Label: label, Category: category}
	c.dispatch(SetStep(StepCoolOff))
	return nil
}

// CancelCoolOff returns to price entry without showing results.
func (c *Controller) CancelCoolOff() {
	if c.state.Step == StepCoolOff {
		c.dispatch(SetStep(StepPrice))
	}
}

// CompleteCoolOff moves to results.
func (c *Controller) CompleteCoolOff() error {
	if c.state.Step != StepCoolOff {
		return fmt.Errorf("%w: complete cool-off at %s", ErrWrongStep, c.state.Step)
	}
	c.dispatch(SetStep(StepResults))
	return nil
}

// ViewHistory shows results for a past check without saving it again.
func (c *Controller) ViewHistory(r model.PurchaseRecord) {
	category := r.Category
	if category == "" {
		category = model.CategoryOther
	}
	c.check = &Check{Price: r.Price, Label: r.Label, Category: category}
	c.dispatch(ViewHistoryResults())
}

// Results computes the results against the current profile and, for a new
// check, creates its record once per results view. A failed save is logged
// and reported on the Outcome; the results are still shown.
func (c *Controller) Results(ctx context.Context) (Outcome, error) {
	if c.state.Step != StepResults {
		return Outcome{}, fmt.Errorf("%w: results at %s", ErrWrongStep, c.state.Step)
	}
	if c.check == nil {
		return Outcome{}, ErrNoCheck
	}
	profile := c.sess.Profile()
	if profile == nil {
		return Outcome{}, session.ErrNoProfile
	}

	chk := *c.check
	out := Outcome{Result: calculator.Present(chk.Price, chk.Label, chk.Category, *profile)}

	if c.state.ViewingHistory {
		return out, nil
	}
	if c.savedKey == chk.key() {
		c.logger.Debug("Skipping save because purchase already persisted")
		return out, nil
	}
	c.savedKey = chk.key()

	records, err := c.sess.Records()
	if err != nil {
		c.logger.Warn("No record store, cannot save purchase history", "error", err)
		return out, nil
	}

	id, err := records.Create(ctx, model.NewPurchaseRecord{
		Price:        chk.Price,
		Label:        chk.Label,
		Category:     chk.Category,
		Profile:      *profile,
		Calculations: out.Result.Cost,
	})
	if err != nil {
		c.logger.Error("Failed to save purchase history", "error", err)
		return out, fmt.Errorf("failed to save purchase: %w", err)
	}

	out.RecordID = id
	out.Saved = true
	c.logger.Info("Purchase saved", "id", id, "state", c.sess.State())
	return out, nil
}

// NewPrice starts another check.
func (c *Controller) NewPrice() {
	c.check = nil
	c.dispatch(StartNewPrice())
}

// LogoReset returns home.
func (c *Controller) LogoReset() {
	if c.sess.HasProfile() {
		c.check = nil
	}
	c.dispatch(LogoReset(c.sess.HasProfile(), c.sess.HasIdentity()))
}

// OpenProfile shows the profile page.
func (c *Controller) OpenProfile() {
	c.dispatch(SetStep(StepProfile))
}

// OpenInsights shows the insights page.
func (c *Controller) OpenInsights() {
	c.dispatch(SetStep(StepInsights))
}

// Close leaves the profile or insights page for price entry.
func (c *Controller) Close() {
	c.dispatch(SetStep(StepPrice))
}

// ResetSettings forgets the profile and returns to the welcome step.
func (c *Controller) ResetSettings() {
	c.sess.Reset()
	c.check = nil
	c.dispatch(SetStep(StepWelcome))
}
