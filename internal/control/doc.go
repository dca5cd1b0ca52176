// Package control stores the bioreactor setpoint: target temperature and
// mixing speed. Exactly one control row exists; it is seeded by the schema
// and only ever updated in place. Setpoints are stored, not actuated.
package control
