// Package bus plans the structural changes that keep a block's materialized
// ports in line with what its definition asks for.
//
// Nothing in here touches a flowgraph. The functions take counts and
// groupings and return what to drop and what to add; the flowgraph package
// applies the plan and owns every port and connection it creates or removes.
// No expression is evaluated here either: callers evaluate multiplicity and
// bus structure parameters first and pass the results in.
package bus
