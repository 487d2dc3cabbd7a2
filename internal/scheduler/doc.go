// Package scheduler runs recurring actions on a single dispatch loop.
//
// A Timer holds recurrences registered with Every. Registration never fires
// an action; the first firing is one period later. Run drives the loop at a
// fixed resolution, so firings are only as precise as that resolution. A
// recurrence that falls behind fires once and is rescheduled a full period
// from now rather than bursting to catch up.
//
// Actions run sequentially on the dispatch goroutine. A panicking action is
// recovered and logged; the other recurrences keep firing.
package scheduler
