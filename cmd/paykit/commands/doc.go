// Package commands implements the paykit CLI surface: identity setup,
// publishing and discovering payment requests, auto-pay policy management
// and the polling daemon.
package commands
