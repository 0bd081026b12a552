// Package mips names the slice of the MIPS/SPIM instruction set the code
// generator emits, and provides a sectioned text writer for the output
// assembly file.
package mips

// Registers used by generated code.
const (
	SP = "$sp"
	FP = "$fp"
	RA = "$ra"
	T0 = "$t0"
	T1 = "$t1"
	A0 = "$a0"
	V0 = "$v0"
)

// Instruction mnemonics. All of these are plain instructions or SPIM
// pseudo-instructions; nothing outside this set is emitted.
const (
	LI   = "li"
	LA   = "la"
	LW   = "lw"
	SW   = "sw"
	ADD  = "add"
	ADDU = "addu"
	SUB  = "sub"
	MULO = "mulo"
	DIV  = "div"
	AND  = "and"
	OR   = "or"
	XOR  = "xor"
	SEQ  = "seq"
	SNE  = "sne"
	SLT  = "slt"
	SLE  = "sle"
	SGT  = "sgt"
	SGE  = "sge"
	BEQ  = "beq"
	BNE  = "bne"
	BLT  = "blt"
	BLE  = "ble"
	BGT  = "bgt"
	BGE  = "bge"
	B    = "b"
	JAL  = "jal"
	JR   = "jr"
	MOVE = "move"
	SYSC = "syscall"
)

// SPIM system service codes.
const (
	SysPrintInt    = 1
	SysPrintString = 4
	SysReadInt     = 5
	SysExit        = 10
)
