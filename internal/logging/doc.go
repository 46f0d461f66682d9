// Package logging sets up structured slog logging for indexprep.
//
// By default logs go to stderr at info level. With --debug, JSON logs are
// also written to ~/.indexprep/logs/indexprep.log with size-based rotation,
// and `indexprep logs` reads them back.
package logging
