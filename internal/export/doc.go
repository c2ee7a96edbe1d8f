// Package export writes simulation results as JSON or CSV and draws worlds
// and sampled series as SVG.
package export
