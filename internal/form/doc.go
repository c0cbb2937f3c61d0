// Package form implements the three-step beneficiary intake wizard: field
// schema with coercion rules, per-step validation and submission of the
// coerced payload.
//
// Advance validates only the fields of the current step, so an operator can
// move through the wizard while later pages are still incomplete. Submit
// validates everything and reports every failing field at once through
// *ValidationError.
package form
