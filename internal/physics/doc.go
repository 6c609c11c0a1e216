// Package physics provides the force models of the tidal simulations.
//
//   - [Gravity]: pairwise Newtonian attraction between point masses
//   - [TidalModel]: differential pull of a secondary on a primary's water ring
//   - [Deformation]: the display transform from tidal force to water height
//
// Every model reports zero separation as a *dynamo.CollisionError. Nothing
// here mutates bodies; only [TidalModel.Accumulate], [Reset] and
// [Deformation.Apply] touch the surface points of an ocean.
//
// # Example
//
//	grav := physics.NewGravity(physics.G)
//	f, err := grav.Attraction(&w.Bodies[0], &w.Bodies[1])
package physics
