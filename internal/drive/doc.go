// Package drive closes a speed loop around the current-reference solver so
// it can be exercised the way a motor controller uses it.
//
// The inner current loop is taken as ideal: the plant sees exactly the
// currents the solver commands. Each control tick:
//
//   - [PI] turns the electrical speed error into a torque request
//   - [SpeedController] solves that request for (id, iq)
//   - [Mechanics] integrates rotor speed from the resulting torque
//
// Speeds are electrical rad/s at the controller boundary and mechanical
// rad/s inside the plant state.
package drive
