// Package serverrun wires configuration, runtime, and the HTTP surface into
// a blocking Run entrypoint used by the CLI.
package serverrun
