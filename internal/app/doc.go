// Package app wires the flowgraph core to the outside world: it configures
// logging and metrics, loads the block library, and reads and writes design
// files. It is decoupled from any specific entrypoint like the CLI.
package app
