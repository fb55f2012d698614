// Package cli provides the interactive trade console front end.
//
// It wires configuration, the credential database, the gateway client, the
// session manager and the credential dialog, optionally serves the local web
// surface, and runs a REPL until the user exits. Session hydration starts in
// the background as soon as the App runs; commands typed meanwhile see the
// "restoring" status and guarded paths answer with a loading state.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits or
// ctx is cancelled. See runREPL for the command list.
package cli
