// Package viz renders solver results for the terminal with lipgloss.
//
//   - [RenderSolution]: current references, voltages and limit usage for
//     one operating point
//   - [RenderMetrics]: the metrics of a drive run, sorted by name
//   - [RenderEnvelope]: a torque-speed envelope as a table
//
// Colours come from the active [Theme], switched with [ApplyTheme].
package viz
