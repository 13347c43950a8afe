// Package consumer is the pull-side client: it polls a broker for ready
// messages, hands them to a handler, and resolves each delivery by
// acknowledging or retrying.
package consumer
