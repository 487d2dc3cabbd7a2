// Package automation provides time-driven automations.
//
// A TimeWindow switches its target actuators on inside a daily window and
// off outside it. The window is evaluated on the controller timer every
// period; targets are only commanded when the evaluation differs from the
// previous one, so manual changes inside the window are left alone until
// the next boundary.
//
// Settings:
//   - IsEnabled (boolean, default true)
//   - From, Until (durations since local midnight; Until < From wraps past
//     midnight, From == Until is an empty window)
//
// Thread Safety: all exported methods are safe for concurrent use.
package automation
