// Package clock provides the time source used by the queue's readiness gate.
//
// Production code uses System(), backed by time.Now and therefore monotonic.
// Tests use Manual, which advances only on request, so delay-gating behavior
// can be exercised without sleeping.
package clock
