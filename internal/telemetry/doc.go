// Package telemetry implements the tuner's write-only sinks and its
// operator override channels.
//
// [Table] is an in-memory key/value table in the style of a robot network
// table: the tuner writes to it, dashboards read it, and an [Entry] on it
// serves as an override channel. [LogSink] mirrors writes to slog,
// [PromSink] exports numbers as Prometheus gauges and [Multi] fans out.
// [FileChannel] is an override channel backed by a watched file.
//
// # Thread Safety
//
// Table, PromSink and FileChannel are safe for concurrent use.
package telemetry
