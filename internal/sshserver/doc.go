// SPDX-License-Identifier: MPL-2.0

// Package sshserver exposes the kestrel shell over SSH using the Wish library.
//
// Every SSH session gets its own shell.Session rooted at the server's working
// directory. Sessions never change the process working directory, so
// concurrent clients cannot observe each other's cd. Interactive sessions
// with a PTY read lines through golang.org/x/term; sessions started with a
// command dispatch that single line and exit.
package sshserver
