// Package rfsocket drives 433 MHz remote-controlled power sockets.
//
// The sockets are receive-only: the controller sends an on or off code
// sequence and never learns whether it arrived, or whether someone used the
// original remote since. A Controller therefore keeps the last commanded
// state of every port and re-transmits all of them on a fixed interval
// (5 seconds by default). Any missed or overridden command is repaired
// within one interval.
//
// Read returns that last commanded state. It is the controller's intent,
// not an observation of the socket.
//
// All port state of one Controller sits behind a single mutex, and
// transmissions happen while holding it, so every port's code stream
// reaches the Transmitter in command order.
package rfsocket
