// Package steinberg expresses every wedge generator [l]∧[q] of the S-unit wedge
// square as a rational combination of Steinberg elements [t]∧[1−t].
//
// Candidates come from a cycle-detected recurrence on l^i mod q (a modified form of
// the Dan-Cohen–Wewers algorithm). The builder accepts a candidate only when it raises
// the rank of the current block, and grows the inverse change-of-basis matrix block by
// block without ever refactoring a finished block.
package steinberg
