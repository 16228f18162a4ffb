package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	AddNote(ctx context.Context) error
	AddLogin(ctx context.Context) error
	AddCreditCard(ctx context.Context) error
	List(ctx context.Context) error
	Show(ctx context.Context) error
	Edit(ctx context.Context) error
	Delete(ctx context.Context) error
	Purge(ctx context.Context) error
	History(ctx context.Context) error
	Conflicts(ctx context.Context) error
	Sync(ctx context.Context) error
	Resolve(ctx context.Context) error
	Status(ctx context.Context) error
}

// runREPL reads a line from the provided scanner, parses the first token as
// the command, and dispatches to methods on 'a'. Unknown commands are
// reported back to the user. The loop exits on scanner EOF or when the user
// types "exit" or "quit".
//
// Errors returned by command handlers are ignored here; handlers report
// their own errors. This keeps the loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("vault %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: (l)ist, show, addnote, addlogin, addcard, edit, rm, purge, history, conflicts, sync, resolve, status, logout, exit")
			} else {
				printlnFn("Available commands: register, login, status, exit")
			}

		case "register":
			_ = a.Register(ctx)

		case "login":
			_ = a.Login(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "addnote":
			_ = a.AddNote(ctx)

		case "addlogin":
			_ = a.AddLogin(ctx)

		case "addcard":
			_ = a.AddCreditCard(ctx)

		case "l", "list":
			_ = a.List(ctx)

		case "show":
			_ = a.Show(ctx)

		case "edit":
			_ = a.Edit(ctx)

		case "rm", "delete":
			_ = a.Delete(ctx)

		case "purge":
			_ = a.Purge(ctx)

		case "history":
			_ = a.History(ctx)

		case "conflicts":
			_ = a.Conflicts(ctx)

		case "sync":
			_ = a.Sync(ctx)

		case "resolve":
			_ = a.Resolve(ctx)

		case "status", "st":
			_ = a.Status(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
