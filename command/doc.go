// Package command hosts the go-command handlers mutating candidate profiles:
// moderation decisions (approve, reject, reapprove) and the idempotent signup
// auto-provisioning hook. Handlers validate input, enforce the scope guard,
// write through the profile repository, and emit activity records plus hooks.
package command
