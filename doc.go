// Package urdfcheck checks the URDF model of the RM75-B arm with the RH56DFTP
// dexterous hand and lets you watch it move.
//
// The URDF is always validated first: it must be well-formed XML and every
// package:// mesh it references must exist below the model root. On success the
// model can be loaded into one of two simulators.
//
// # Installation
//
//	go install github.com/gwillem/urdfcheck/cmd/urdfcheck@latest
//
// # Usage
//
// Validate only:
//
//	urdfcheck --mode validate
//
// Animate the controllable joints in the rigid-body simulator (the default):
//
//	urdfcheck --mode rigidbody
//
// Inspect the model in the interactive terminal viewer:
//
//	urdfcheck --mode viewer
//
// # Packages
//
// The module is organized into the following packages:
//
//   - cmd/urdfcheck: CLI entry point, validation report and the two demos
//   - pkg/urdf: URDF parsing and mesh validation
//   - pkg/robot: Joint records, limits and configuration
//   - pkg/kinematics: Poses and forward kinematics
//   - pkg/sim: Mode selection; rigid, scene and dynamics simulators below it
//   - pkg/animate: Sine trajectory controller
package urdfcheck
