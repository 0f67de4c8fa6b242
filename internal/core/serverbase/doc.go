// SPDX-License-Identifier: MPL-2.0

// Package serverbase provides the lifecycle state machine shared by
// long-running servers: Created, Starting, Running, Stopping, then Stopped or
// Failed. It tracks background goroutines, counts client sessions, and
// cancels a server-wide context on shutdown.
package serverbase
