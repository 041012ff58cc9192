/*
Package logging provides the go-kit based logging used throughout this module.
Components accept a log.Logger and default to the nop DefaultLogger, so hosts
that do not care about diagnostics pay nothing.
*/
package logging
