/*

Process of compilation

Program Text ->
	parse (front) ->
Monadic Program (mon) ->
	check ->
	explicate ->
Basic Blocks (ir) ->
	select instructions (back) ->
Assembly With Variables (asm.VarProgram) ->
	flow graph, uncover live, interference, moves, color, assign homes (regalloc) ->
Assembly (asm.Program) ->
	patch instructions, prelude and conclusion (back) ->
Assembly Text ->
	assemble, link (toolchain) ->
Binary Executable

*/
package compiler
