// Package ui provides the terminal intake form for CadSocial.
//
// The model is a Bubble Tea program. Each wizard step is rendered as a
// column of bubbles text inputs bound to a form.Controller; typing writes the
// raw value straight into the controller so per-field errors clear as soon as
// the operator edits a field.
//
// A status bar shows connectivity, the number of queued submissions and the
// last sync. The bar reads a state.Store snapshot on every tick, so the
// monitor and reconciler goroutines never touch the model directly.
//
// Submitting validates the whole form. On a validation failure the wizard
// jumps to the earliest step holding an error and focuses the first invalid
// input. Successful submissions, sent or queued, reset the form.
package ui
