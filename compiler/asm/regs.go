package asm

type (
	Reg     int
	ByteReg int
)

const (
	Rax Reg = iota
	Rbx
	Rcx
	Rdx
	Rsi
	Rdi
	Rsp
	Rbp
	R8
	R9
	R10
	R11
	R12
	R13
	R14
	R15

	NumRegs = iota
)

const (
	Al ByteReg = iota
	Bl
	Cl
	Dl
)

var (
	CallerSaved = []Reg{Rax, Rcx, Rdx, Rsi, Rdi, R8, R9, R10, R11}
	CalleeSaved = []Reg{Rbx, Rbp, R12, R13, R14, R15}

	// ArgRegs are registers used to pass integer arguments.
	ArgRegs = []Reg{Rdi, Rsi, Rdx, Rcx, R8, R9}
)

var regNames = [...]string{
	Rax: "rax",
	Rbx: "rbx",
	Rcx: "rcx",
	Rdx: "rdx",
	Rsi: "rsi",
	Rdi: "rdi",
	Rsp: "rsp",
	Rbp: "rbp",
	R8:  "r8",
	R9:  "r9",
	R10: "r10",
	R11: "r11",
	R12: "r12",
	R13: "r13",
	R14: "r14",
	R15: "r15",
}

var byteNames = [...]string{
	Al: "al",
	Bl: "bl",
	Cl: "cl",
	Dl: "dl",
}

func (r Reg) String() string {
	if r < 0 || int(r) >= len(regNames) {
		return "reg?"
	}

	return regNames[r]
}

func (r Reg) IsCalleeSaved() bool {
	for _, c := range CalleeSaved {
		if r == c {
			return true
		}
	}

	return false
}

func (r ByteReg) String() string {
	if r < 0 || int(r) >= len(byteNames) {
		return "breg?"
	}

	return byteNames[r]
}

// Reg returns the 64-bit register r is the low byte of.
func (r ByteReg) Reg() Reg {
	switch r {
	case Bl:
		return Rbx
	case Cl:
		return Rcx
	case Dl:
		return Rdx
	default:
		return Rax
	}
}
