// Package viz is the terminal viewer for cloth simulations, built on
// Bubble Tea.
//
// [Model] owns a physics subsystem and advances it with the wall-clock time
// between frames, so the tick rate stays fixed while the terminal redraws
// at its own pace. The braille canvas always shows the interpolated render
// state.
//
// # Key Bindings
//
//	Space - Enable/disable physics
//	R     - Rebuild the initial world
//	F     - Push the bottom row sideways
//	+/-   - Playback speed
//	T     - Cycle color themes
//	?     - Full help
//
// [RunInteractive] adds a preset picker and parameter editor in front of
// the viewer.
package viz
