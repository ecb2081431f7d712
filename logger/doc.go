// Package logger provides structured logging for the stream runtime, built
// on zerolog. Operators that trace subscription signals obtain component-
// tagged loggers from here; applications can install their own configured
// instance with SetGlobal.
package logger
