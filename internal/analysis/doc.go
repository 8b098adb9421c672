// Package analysis inspects closed-loop responses beyond the headline
// step metrics.
//
// The package includes tools for characterizing a tuned loop:
//
//   - [PowerSpectrum], [DominantPeriod]: frequency content of a trace
//   - [ErrorPhasePlane], [PlaneToASCII]: error versus error-rate trajectory
//   - [Crossings]: interpolated level-crossing times
//   - [GainSweep]: step metrics across a range of one gain
//   - [CheckStability]: closed-loop pole margin and damping
//
// # Ringing Detection
//
// A loop that keeps oscillating shows a sharp interior peak in its
// spectrum:
//
//	period := analysis.DominantPeriod(tr)
//	if period > 0 {
//	    // sustained or damped ringing with that period
//	}
package analysis
