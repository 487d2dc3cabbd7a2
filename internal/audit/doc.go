// Package audit keeps a journal of what the controller switched and why.
//
// Every actuator state change (with its command source) and every
// automation firing is appended to the audit_events table. The journal is
// served at GET /api/v1/audit and pruned on a timer.
package audit
