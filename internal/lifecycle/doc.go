// Package lifecycle models the per-provider boot state machine:
//
//	Unconfigured -> Configured -> Prepared -> Started -> Completed
//
// Each arrow is one Phase. A provider whose phase fails moves to Failed,
// which is terminal, as is Completed.
package lifecycle
