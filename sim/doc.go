// Package sim implements a discrete-event simulation of patient flow
// through a fleet of coordinated hospital emergency departments.
//
// Synthetic patients arrive per hospital under a non-homogeneous Poisson
// process modulated by a demand factor (weather, local events, calendar),
// pass through registration, triage and consultation against finite
// resource pools, and leave by discharge, observation admission, or
// diversion to the fleet's reference hospital. A cross-hospital coordinator
// monitors saturation, declares emergencies with hysteresis and distributes
// mass-casualty incidents; a metrics aggregator samples live state into
// published snapshots.
//
// The engine is single-threaded and cooperative: events execute in strict
// (timestamp, type-priority, insertion-order) order, so a fixed seed and
// configuration replay to an identical event sequence.
package sim
