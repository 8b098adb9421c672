// Package viz renders traces and pole maps for the terminal.
//
//   - [RenderTrace], [RenderSeries]: line charts of step responses
//   - [PoleMap]: braille s-plane map of closed-loop poles and zeros
//
// Charts are plain strings; callers decide where they go.
package viz
