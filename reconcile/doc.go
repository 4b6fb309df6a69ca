// Package reconcile detects and optionally repairs candidate profile records
// whose legacy status fields disagree with each other. It consolidates the
// one-off repair scripts that used to run against the store into a single
// engine parameterized by the correction rules, with a deterministic report
// as its primary output.
package reconcile
