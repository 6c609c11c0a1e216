// Package dynamo provides the core data model for the tidal simulations.
//
// The package defines plain data types with no rendering attached:
//
//   - [Body]: a point mass with position, velocity and display colour
//   - [SurfacePoint]: a massless water tracer on a primary's ring
//   - [Ocean]: the fixed ring of surface points belonging to one primary
//   - [World]: the ordered set of bodies and oceans owned by one run
//
// Vector math works on gonum's r2.Vec. Zero separation between two points
// is reported as [ErrCollision] because every force formula downstream
// divides by the distance.
//
// # Thread Safety
//
// A World is owned by a single simulation loop and is NOT thread-safe.
// Use [World.Clone] to hand a snapshot to another goroutine.
package dynamo
