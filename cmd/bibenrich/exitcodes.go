package main

// Exit codes. Per-entry match failures never affect the exit code:
// the run completes and produces output for whatever entries remain.
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (I/O, runtime failure)
	ExitConfigError = 2 // Configuration error (bad format, missing tsv-fields)
	ExitDataError   = 3 // Data error (malformed BibTeX input)
)
