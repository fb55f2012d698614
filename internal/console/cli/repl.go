package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to. App satisfies it;
// tests use a recording stub.
type execIface interface {
	isLoggedIn() bool
	Open(ctx context.Context) error
	Tab(ctx context.Context, args []string) error
	Login(ctx context.Context) error
	Signup(ctx context.Context) error
	OTP(ctx context.Context) error
	Resend(ctx context.Context) error
	Back(ctx context.Context) error
	Forgot(ctx context.Context) error
	Reset(ctx context.Context) error
	Google(ctx context.Context, args []string) error
	CloseDialog(ctx context.Context) error
	Go(ctx context.Context, args []string) error
	WhoAmI(ctx context.Context) error
	Memberships(ctx context.Context) error
	Refetch(ctx context.Context) error
	Logout(ctx context.Context) error
}

const (
	helpSignedOut = "Available commands: open, tab <login|signup>, login, signup, otp, resend, back, forgot, reset, google <credential>, close, go <path>, whoami, exit"
	helpSignedIn  = "Available commands: go <path>, whoami, memberships, refetch, logout, exit"
)

// runREPL reads commands line by line from reader and dispatches them to a.
// Prompts issued by the commands read from the same reader, so no input is
// lost between the two. The loop exits on EOF, on "exit"/"quit" or when ctx
// is cancelled.
//
// Command errors are reported by the handlers themselves; the loop only
// keeps going.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("console %s> ", statusFn()))

		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(helpSignedIn)
			} else {
				printlnFn(helpSignedOut)
			}
		case "open":
			_ = a.Open(ctx)
		case "tab":
			_ = a.Tab(ctx, args)
		case "login":
			_ = a.Login(ctx)
		case "signup":
			_ = a.Signup(ctx)
		case "otp":
			_ = a.OTP(ctx)
		case "resend":
			_ = a.Resend(ctx)
		case "back":
			_ = a.Back(ctx)
		case "forgot":
			_ = a.Forgot(ctx)
		case "reset":
			_ = a.Reset(ctx)
		case "google":
			_ = a.Google(ctx, args)
		case "close":
			_ = a.CloseDialog(ctx)
		case "go":
			_ = a.Go(ctx, args)
		case "whoami":
			_ = a.WhoAmI(ctx)
		case "memberships":
			_ = a.Memberships(ctx)
		case "refetch":
			_ = a.Refetch(ctx)
		case "logout":
			_ = a.Logout(ctx)
		case "exit", "quit":
			printlnFn("Bye!")
			return
		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			return
		}
	}
}
