// Package obs wires process-wide logging: logrus formatting and level,
// stdout output and optional size-rotated log files.
package obs
