// Package milp solves small mixed-integer linear programs with binary
// variables. LP relaxations are solved with gonum's simplex implementation and
// integrality is enforced by depth-first branch and bound. Constraint-graph
// components that share no variable are solved independently.
package milp
