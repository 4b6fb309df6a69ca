// Package activity persists the moderation audit trail. Every decision,
// provision, and reconciliation run emits a types.ActivityRecord; this package
// provides the Bun-backed sink plus a small feed query for admin panels.
package activity
