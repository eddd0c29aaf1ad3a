// Package pid runs the PID control loop that drives the device output.
//
// Each iteration reads the shared parameters, computes the proportional,
// integral and differential terms, publishes the result back to the
// parameter store and converts the output percentage into an on/off duty
// cycle within one period: "on" now, "off" after period*output/100.
//
// # Scheduling
//
// The loop re-arms its own timer once an iteration has finished, so a slow
// iteration delays the next one rather than overlapping it. Iterations,
// Start, Stop and Reset are serialised by one mutex; an iteration that was
// already waiting on the lock when Stop ran sees the new generation and
// does nothing.
//
// # Anti-windup
//
// The integral stops accumulating while the previous iteration was clamped.
// An iteration is clamped when its raw output left [0,100] and the integral
// and the error have the same sign.
//
// # Sign convention
//
// The error is setpoint - current. Coefficients are tuned against this sign;
// do not flip it.
package pid
