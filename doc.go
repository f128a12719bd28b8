// Package timefit streamlines time-bounded events into the free gaps of a
// timeline. It couples an interval fitter, duck-typed start/stop field
// access over heterogeneous event records, timestamp normalization, and an
// amortized ordered-insertion primitive into a single library that can be
// embedded into services.
//
// Typical usage looks like:
//   - Create a TimeFit with configuration naming the start/stop fields
//   - Call StreamlineEvent to shorten a candidate until it fits the
//     timeline, or StreamlineTimes to obtain the fitted range without
//     touching the event
//   - Use Insert to keep a timeline ordered as fitted events are added
//   - Optionally persist fitted ranges through a redis-backed Store and
//     archive cold timelines to bbolt
//
// The examples/ directory contains a runnable booking workflow that
// exercises the API in a small domain.
package timefit
