package form

import (
	"context"
	"fmt"
	"sync"

	"github.com/SantanaDZ/cad-social/internal/intake"
)

// Submitter receives a validated payload.
type Submitter interface {
	Submit(ctx context.Context, payload map[string]any) (intake.Outcome, error)
}

// Controller holds wizard state: the current step, raw field values and the
// latest validation messages.
type Controller struct {
	mu         sync.Mutex
	schema     *Schema
	step       int
	values     map[string]any
	errors     map[string]string
	defaults   map[string]any
	submitting bool
}

// New starts a wizard at step 0. defaults are applied on top of the schema's
// own defaults and again on every Reset.
func New(schema *Schema, defaults map[string]any) *Controller {
	if schema == nil {
		schema = Intake()
	}
	merged := schema.Defaults()
	for k, v := range defaults {
		if _, ok := schema.Field(k); ok {
			merged[k] = v
		}
	}
	c := &Controller{schema: schema, defaults: merged}
	c.reset()
	return c
}

// Schema returns the schema the controller validates against.
func (c *Controller) Schema() *Schema { return c.schema }

// Step returns the zero-based current step.
func (c *Controller) Step() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.step
}

// CurrentStep returns the definition of the current step.
func (c *Controller) CurrentStep() Step {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.schema.Steps[c.step]
}

// IsLastStep reports whether the current step is the final one.
func (c *Controller) IsLastStep() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.step == len(c.schema.Steps)-1
}

// Values returns a copy of the raw field values.
func (c *Controller) Values() map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]any, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}
	return out
}

// Value returns the raw value of one field.
func (c *Controller) Value(name string) any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.values[name]
}

// Set stores a raw value and clears that field's error.
func (c *Controller) Set(name string, value any) error {
	if _, ok := c.schema.Field(name); !ok {
		return fmt.Errorf("unknown field %q", name)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[name] = value
	delete(c.errors, name)
	return nil
}

// Errors returns a copy of the current validation messages.
func (c *Controller) Errors() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.errors) == 0 {
		return nil
	}
	out := make(map[string]string, len(c.errors))
	for k, v := range c.errors {
		out[k] = v
	}
	return out
}

// Advance validates only the current step's fields. On success it moves to
// the next step (staying put on the last one) and returns true; on failure it
// records messages for that step's fields and returns false.
func (c *Controller) Advance() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	names := c.schema.Steps[c.step].Fields
	for _, name := range names {
		delete(c.errors, name)
	}
	_, errs := c.schema.Validate(c.values, names)
	if len(errs) > 0 {
		for name, msg := range errs {
			c.errors[name] = msg
		}
		return false
	}
	if c.step < len(c.schema.Steps)-1 {
		c.step++
	}
	return true
}

// Retreat moves back one step without validating.
func (c *Controller) Retreat() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.step > 0 {
		c.step--
	}
}

// FocusFirstError moves to the earliest step holding a validation message and
// returns that step, or -1 when there are no messages.
func (c *Controller) FocusFirstError() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, step := range c.schema.Steps {
		for _, name := range step.Fields {
			if _, ok := c.errors[name]; ok {
				c.step = i
				return i
			}
		}
	}
	return -1
}

// Validate checks every field and returns the coerced payload.
func (c *Controller) Validate() (map[string]any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.validateLocked()
}

// Submit validates the whole form and hands the payload to sub. Validation
// failures never reach sub.
func (c *Controller) Submit(ctx context.Context, sub Submitter) (intake.Outcome, error) {
	c.mu.Lock()
	if c.submitting {
		c.mu.Unlock()
		return intake.Outcome{}, ErrSubmitting
	}
	payload, err := c.validateLocked()
	if err != nil {
		c.mu.Unlock()
		return intake.Outcome{}, err
	}
	c.submitting = true
	c.mu.Unlock()

	outcome, err := sub.Submit(ctx, payload)

	c.mu.Lock()
	c.submitting = false
	c.mu.Unlock()
	return outcome, err
}

// Reset clears values and errors and returns to step 0.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset()
}

func (c *Controller) reset() {
	c.step = 0
	c.errors = map[string]string{}
	c.values = make(map[string]any, len(c.defaults))
	for k, v := range c.defaults {
		c.values[k] = v
	}
}

func (c *Controller) validateLocked() (map[string]any, error) {
	payload, errs := c.schema.Validate(c.values, c.schema.AllFields())
	c.errors = map[string]string{}
	if len(errs) > 0 {
		for name, msg := range errs {
			c.errors[name] = msg
		}
		fields := make(map[string]string, len(errs))
		for k, v := range errs {
			fields[k] = v
		}
		return nil, &ValidationError{Fields: fields}
	}
	return payload, nil
}
