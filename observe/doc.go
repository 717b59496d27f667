// Package observe provides observability primitives for the client runtime.
//
// It is a pure instrumentation library: no execution, no transport, no I/O
// beyond exporter setup. Consumers wire the observer into the API gateway
// and the stream/chat layers.
package observe
