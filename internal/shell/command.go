// SPDX-License-Identifier: MPL-2.0

package shell

import (
	"strings"
)

// ExitDirective is the exact line that ends the loop.
const ExitDirective = "exit 0"

const (
	// KindEmpty is a line with no tokens; it does nothing.
	KindEmpty Kind = iota
	// KindExit is the exit directive.
	KindExit
	// KindPwd prints the working directory.
	KindPwd
	// KindCd changes the working directory.
	KindCd
	// KindType describes how a name would be interpreted.
	KindType
	// KindEcho prints its operand verbatim.
	KindEcho
	// KindExternal is everything else: a program to resolve and launch.
	KindExternal
)

const (
	cdPrefix   = "cd "
	typePrefix = "type "
	echoWord   = "echo"
	echoPrefix = echoWord + " "
	pwdWord    = "pwd"
)

type (
	// Kind tags the interpretation chosen for an input line.
	Kind int

	// Command is one classified input line.
	Command struct {
		// Kind selects the behavior.
		Kind Kind
		// Line is the trimmed input.
		Line string
		// Operand is the raw remainder after the builtin prefix for cd, type
		// and echo. It is not re-trimmed.
		Operand string
		// Name is the first token of an external command.
		Name string
		// Args are the remaining tokens of an external command.
		Args []string
	}
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindExit:
		return "exit"
	case KindPwd:
		return "pwd"
	case KindCd:
		return "cd"
	case KindType:
		return "type"
	case KindEcho:
		return "echo"
	case KindExternal:
		return "external"
	default:
		return "unknown"
	}
}

// Classify interprets one input line. Rules are tried in a fixed order and
// the first match wins:
//
//  1. the exit directive, exactly
//  2. "pwd", exactly
//  3. a "cd " prefix
//  4. a "type " prefix
//  5. "echo", exactly or with an "echo " prefix
//  6. anything else, split on runs of whitespace
//
// There is no quoting, escaping or expansion.
func Classify(line string) Command {
	line = strings.TrimSpace(line)
	cmd := Command{Line: line}

	switch {
	case line == "":
		cmd.Kind = KindEmpty
	case line == ExitDirective:
		cmd.Kind = KindExit
	case line == pwdWord:
		cmd.Kind = KindPwd
	case strings.HasPrefix(line, cdPrefix):
		cmd.Kind = KindCd
		cmd.Operand = line[len(cdPrefix):]
	case strings.HasPrefix(line, typePrefix):
		cmd.Kind = KindType
		cmd.Operand = line[len(typePrefix):]
	case line == echoWord:
		cmd.Kind = KindEcho
	case strings.HasPrefix(line, echoPrefix):
		cmd.Kind = KindEcho
		cmd.Operand = line[len(echoPrefix):]
	default:
		fields := strings.Fields(line)
		if len(fields) == 0 {
			cmd.Kind = KindEmpty
			break
		}
		cmd.Kind = KindExternal
		cmd.Name = fields[0]
		cmd.Args = fields[1:]
	}

	return cmd
}
