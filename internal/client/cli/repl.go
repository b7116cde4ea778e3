package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface is the command surface the REPL drives. App satisfies it.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context) error
	Confirm(ctx context.Context) error
	Profile(ctx context.Context) error
	Retry(ctx context.Context) error
	Status(ctx context.Context) error
	Logout(ctx context.Context) error
}

// runREPL reads commands from reader and dispatches them to a until EOF,
// "exit" or "quit". Commands that prompt read from the same reader.
//
//	Signed out:
//	  help, login, confirm, profile, retry, status, exit | quit
//
//	Signed in:
//	  help, status, logout, exit | quit
//
// Handler errors are printed and the loop continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("wa %s> ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		err = nil
		switch cmd := parts[0]; cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: status, logout, exit")
			} else {
				printlnFn("Available commands: login, confirm, profile, retry, status, exit")
			}

		case "login":
			err = a.Login(ctx)

		case "confirm":
			err = a.Confirm(ctx)

		case "profile":
			err = a.Profile(ctx)

		case "retry":
			err = a.Retry(ctx)

		case "status":
			err = a.Status(ctx)

		case "logout":
			err = a.Logout(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			printlnFn("Error:", err)
		}
		if ctx.Err() != nil {
			return
		}
	}
}
