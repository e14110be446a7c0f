// Package cli turns the tracegrid command line into an app.Config plus the
// process-level switches (env file, check mode) that main acts on. Usage
// errors surface as ExitError values carrying exit code 2.
package cli
