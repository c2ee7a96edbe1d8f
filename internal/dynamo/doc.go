// Package dynamo provides the primitives shared by the simulation packages.
//
// The package defines the small vocabulary every other package speaks:
//
//   - [Vec3]: float32 3-vector (an alias of mgl32.Vec3)
//   - [Integrator]: tag selecting the integration scheme of a world
//   - [FrictionMode]: tag selecting how boundary friction is applied
//   - [Lerp], [LerpVec3], [LerpIndex]: interpolation used by render snapshots
//   - [ConfigError], [SimError]: typed errors wrapping the sentinels below
//
// # Example
//
//	integ, err := dynamo.ParseIntegrator("leapfrog")
//	if err != nil {
//	    return err
//	}
//	mid := dynamo.LerpVec3(prev, cur, 0.5)
//
// # Thread Safety
//
// Everything here is either immutable or a plain value type.
package dynamo
