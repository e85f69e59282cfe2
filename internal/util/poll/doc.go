// Package poll drives wait-until-ready loops against remote resources.
//
// [Until] calls a probe at a fixed interval until the probe reports the
// resource ready or failed, or until the deadline passes. The loop is a small
// state machine with three terminal outcomes ([Ready], [Failed], [TimedOut]);
// callers decide whether an outcome is fatal. An error returned by the probe
// itself aborts the loop, since it means the resource could not be observed.
package poll
