// Package physics implements the mass-spring particle world.
//
// A [Simulation] owns two struct-of-arrays stores and the world tuning:
//
//   - [Particles]: position/velocity/force/mass, free particles first,
//     frozen anchors (infinite mass) after FrozenStart
//   - [Springs]: endpoint handles, rest length, stiffness, damping
//   - [Params]: gravity, air resistance, rebound, friction, bounding [Box]
//     and the selected [dynamo.Integrator]
//
// [Simulation.Step] advances the world in place: spring forces, integration
// of the free particles, then collision against the x/y faces of the box.
// It never allocates and never fails; a non-positive dt panics.
//
// # Render snapshots
//
// [Simulation.CopyFrom] and [Simulation.Interpolate] let a world act as one
// slot of a previous/current/render triple:
//
//	render.Interpolate(prev, cur, alpha)
//	for i, p := range render.Particles.Position {
//	    // upload p
//	}
package physics
