// Package intake routes validated submissions to the remote store or the
// offline queue and builds the record shape both paths share.
package intake
