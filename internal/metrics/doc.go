// Package metrics observes a cloth world while it runs. Metrics fold every
// tick of the current state into one number; probes read one number off the
// render state per frame.
package metrics
