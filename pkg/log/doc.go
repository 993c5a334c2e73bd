// Package log provides structured logging using zerolog.
//
// Init configures the package-level Logger; WithComponent and WithWorker
// derive child loggers carrying component and worker fields. Output goes to
// stderr in console format unless JSON output is requested.
package log
