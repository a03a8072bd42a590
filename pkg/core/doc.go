// Package core defines the shared language of leapchart.
//
// This package contains:
//   - Tabular input (ResultSet, Row, Payload, Flags)
//   - The visualization configuration value (Spec)
//   - Persisted configuration fragments (ChartConfig)
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
