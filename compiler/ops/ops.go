// Package ops holds operators shared by the monadic and the basic-block IR.
package ops

type (
	Unary  int
	Binary int
	Cmp    int
)

const (
	Neg Unary = iota
	Not
)

const (
	Add Binary = iota
	Sub
	And
	Or
)

const (
	Eq Cmp = iota
	Ne
	Lt
	Le
	Gt
	Ge
)

func (op Unary) String() string {
	switch op {
	case Neg:
		return "-"
	case Not:
		return "not"
	}

	return "unary?"
}

func (op Binary) String() string {
	switch op {
	case Add:
		return "+"
	case Sub:
		return "-"
	case And:
		return "and"
	case Or:
		return "or"
	}

	return "binary?"
}

func (op Cmp) String() string {
	switch op {
	case Eq:
		return "=="
	case Ne:
		return "!="
	case Lt:
		return "<"
	case Le:
		return "<="
	case Gt:
		return ">"
	case Ge:
		return ">="
	}

	return "cmp?"
}

// Logical reports whether op takes and returns Bools.
func (op Binary) Logical() bool { return op == And || op == Or }

// Ordered reports whether op needs ordered (Int) operands.
func (op Cmp) Ordered() bool { return op != Eq && op != Ne }
