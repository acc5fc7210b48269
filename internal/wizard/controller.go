package wizard

import (
	"context"
	"errors"
	"sync"
	"time"

	"dealership/pkg/apperror"
)

// DefaultTimeout bounds a single submission round trip.
const DefaultTimeout = 30 * time.Second

const (
	genericFailure = "Error submitting application. Please try again."
	timeoutFailure = "The server took too long to respond. Please try again."
)

var (
	ErrSubmitInProgress = errors.New("wizard: submission already in progress")
	ErrAlreadySubmitted = errors.New("wizard: application already submitted")
	ErrNotOnLastStep    = errors.New("wizard: submit is only allowed on the last step")
	ErrAbandoned        = errors.New("wizard: controller was abandoned")
)

// SubmissionState is the lifecycle of the final submit.
type SubmissionState int

const (
	Idle SubmissionState = iota
	Submitting
	Succeeded
	Failed
)

func (s SubmissionState) String() string {
	switch s {
	case Submitting:
		return "submitting"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "idle"
	}
}

// Submission is the outcome of the last submit. TrackingID is set when
// Succeeded, Message when Failed.
type Submission struct {
	State      SubmissionState
	TrackingID string
	Message    string
	Retryable  bool
}

// Submitter is the collaborator that persists the accumulated values and
// returns the issued tracking token.
type Submitter interface {
	Submit(ctx context.Context, values Values) (string, error)
}

// SubmitterFunc adapts a function to Submitter.
type SubmitterFunc func(ctx context.Context, values Values) (string, error)

func (f SubmitterFunc) Submit(ctx context.Context, values Values) (string, error) {
	return f(ctx, values)
}

// State is a point-in-time copy of the controller.
type State struct {
	Step       int
	Values     Values
	Errors     FieldErrors
	Submission Submission
}

// Controller walks a Form one step at a time. It is safe for concurrent use;
// every method observes and updates the state atomically.
type Controller struct {
	mu        sync.Mutex
	form      Form
	submitter Submitter
	timeout   time.Duration

	step       int
	values     Values
	errors     FieldErrors
	submission Submission
	abandoned  bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Controller) { c.timeout = d }
}

// WithValues pre-fills the form.
func WithValues(values Values) Option {
	return func(c *Controller) { c.values = values.Clone() }
}

func NewController(form Form, submitter Submitter, opts ...Option) *Controller {
	c := &Controller{
		form:      form,
		submitter: submitter,
		timeout:   DefaultTimeout,
		values:    Values{},
		errors:    FieldErrors{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) snapshot() State {
	errs := make(FieldErrors, len(c.errors))
	for k, v := range c.errors {
		errs[k] = v
	}
	return State{
		Step:       c.step,
		Values:     c.values.Clone(),
		Errors:     errs,
		Submission: c.submission,
	}
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

// Set records a field value and clears that field's error.
func (c *Controller) Set(field, value string) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[field] = value
	delete(c.errors, field)
	return c.snapshot()
}

// Advance moves to the next step when the current step validates. Otherwise
// the step stays put and Errors holds the failures. On the last step it is a
// no-op; use Submit.
func (c *Controller) Advance() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	errs := c.form.ValidateStep(c.step, c.values)
	if len(errs) > 0 {
		c.errors = errs
		return c.snapshot()
	}
	c.errors = FieldErrors{}
	if c.step < c.form.Last() {
		c.step++
	}
	return c.snapshot()
}

// Retreat moves back one step without validating. Values are kept.
func (c *Controller) Retreat() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.step > 0 {
		c.step--
	}
	return c.snapshot()
}

// Abandon detaches the controller from its screen: a submission still in
// flight will not update the state when it returns.
func (c *Controller) Abandon() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.abandoned = true
}

// Submit sends the accumulated values to the collaborator. It is only
// allowed on the last step and never issues a second call while one is in
// flight or after one succeeded. A failed submission leaves the step and
// values untouched so the caller can retry.
func (c *Controller) Submit(ctx context.Context) (Submission, error) {
	c.mu.Lock()
	switch {
	case c.abandoned:
		c.mu.Unlock()
		return Submission{}, ErrAbandoned
	case c.submission.State == Submitting:
		sub := c.submission
		c.mu.Unlock()
		return sub, ErrSubmitInProgress
	case c.submission.State == Succeeded:
		sub := c.submission
		c.mu.Unlock()
		return sub, ErrAlreadySubmitted
	case c.step != c.form.Last():
		sub := c.submission
		c.mu.Unlock()
		return sub, ErrNotOnLastStep
	}
	if errs := c.form.ValidateAll(c.values); len(errs) > 0 {
		c.errors = errs
		sub := c.submission
		c.mu.Unlock()
		return sub, apperror.Validation(errs)
	}
	c.submission = Submission{State: Submitting}
	values := c.values.Clone()
	c.mu.Unlock()

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	trackingID, err := c.submitter.Submit(callCtx, values)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.abandoned {
		return Submission{}, ErrAbandoned
	}
	if err != nil {
		retryable := true
		var appErr *apperror.Error
		if errors.As(err, &appErr) && !appErr.Retryable {
			retryable = false
		}
		if fields := apperror.FieldsOf(err); len(fields) > 0 {
			c.errors = fields
		}
		c.submission = Submission{State: Failed, Message: failureMessage(callCtx, err), Retryable: retryable}
		return c.submission, err
	}
	c.submission = Submission{State: Succeeded, TrackingID: trackingID}
	return c.submission, nil
}

func failureMessage(ctx context.Context, err error) string {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return timeoutFailure
	}
	var appErr *apperror.Error
	if errors.As(err, &appErr) && appErr.Message != "" && appErr.Code != apperror.CodeTransport {
		return appErr.Message
	}
	return genericFailure
}
