// Package domain implements gale persistence analysis and tier
// classification for tropical cyclone warning events.
//
// An event carries 10-minute mean wind readings from anemometer stations
// together with the officially declared gale (Signal 8) and hurricane
// (Signal 10) windows. The engine aggregates readings into per-interval
// area statistics and coverage counts over the eight-station reference
// network, then grades how well the observed wind field supports the
// declared gale window:
//
//   - verified: a sustained run of intervals with gale coverage at four
//     or more reference stations, at least three consecutive intervals,
//     outside the hurricane escalation window.
//   - pattern_validated: no sustained run, but a meet/lull/re-meet shape
//     consistent with an eyewall passage or a translating wind field.
//   - unverified: a gale window was declared but neither signature is
//     present in the readings.
//   - no_signal: the event has no gale window at all.
//
// Intervals inside the hurricane window are excluded from both detectors
// and are instead accounted for in a separate escalation transparency
// report, so a Signal 10 period can never mask or manufacture a Signal 8
// verification.
//
// Every function in this package is pure: no I/O, no shared state, and
// deterministic output for a given input. Callers own concurrency.
package domain
