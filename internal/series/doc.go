// Package series provides the time-indexed containers shared by the
// cyclone diagnostics pipeline.
//
//   - [TimeSeries]: a scalar signal such as relative vorticity
//   - [Table]: timestamped rows with named numeric columns (energetics, levels)
//
// Both containers require strictly increasing timestamps. Two of them may
// coexist with different sampling; they are joined by interval membership,
// never by index.
package series
