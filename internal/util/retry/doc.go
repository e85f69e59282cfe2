// Package retry provides bounded retry logic for transient failures.
//
// The [Do] function runs an operation up to a maximum number of attempts,
// sleeping between attempts according to a [Backoff]. [Linear] spaces
// attempts by attempt × base delay and is what the provider clients use;
// manifest uploads use [Exponential].
// Errors wrapped with [Fatal] stop the loop immediately.
package retry
