// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable errors and a catalogue of known problems.
//
// ActionableError carries the failed operation, the resource involved and
// remediation hints. Catalogue entries hold longer Markdown guidance that the
// CLI renders with glamour when an error is linked to one.
package issue
