// Package identity resolves the operator that submissions are attributed to.
package identity
