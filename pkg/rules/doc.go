// Package rules evaluates scaling rules against recent metric windows.
//
// Evaluate is pure and side-effect free: no I/O, no mutation of its inputs.
// Open question carried from the design: "any point breaches" vs "sustained
// breach for the full duration" — the current behavior implements the
// former and is documented as such rather than silently switched to the
// latter. See Evaluate's doc comment.
package rules
