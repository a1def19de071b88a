package regalloc

import (
	"fmt"

	"tlog.app/go/tlog/tlwire"

	"github.com/slowlang/ecc/compiler/asm"
	"github.com/slowlang/ecc/compiler/set"
)

type (
	LocKind int

	// Location is a storage identity: a variable, a register or a stack slot.
	Location struct {
		Kind LocKind
		Var  string
		Reg  asm.Reg
		Off  int64
	}

	// Locations interns Locations into dense ids.
	// Registers are pre-interned with id == int(reg).
	Locations struct {
		ids  map[Location]int
		locs []Location
	}

	// LocSet is a set of interned location ids.
	LocSet = set.Bitmap
)

const (
	LocVar LocKind = iota
	LocReg
	LocStack
)

func VarLoc(name string) Location { return Location{Kind: LocVar, Var: name} }
func RegLoc(r asm.Reg) Location { return Location{Kind: LocReg, Reg: r} }
func StackLoc(off int64) Location { return Location{Kind: LocStack, Off: off} }
func (l Location) IsVar() bool { return l.Kind == LocVar }

// LocationOf returns the storage an operand refers to.
// Immediates have none.
func LocationOf(o asm.Operand) (Location, bool) {
	switch o := o.(type) {
	case asm.Var:
		return VarLoc(string(o)), true
	case asm.Reg:
		return RegLoc(o), true
	case asm.ByteReg:
		return RegLoc(o.Reg()), true
	case asm.Deref:
		return StackLoc(o.Off), true
	default:
		return Location{}, false
	}
}

func (l Location) String() string {
	switch l.Kind {
	case LocVar:
		return l.Var
	case LocReg:
		return "%" + l.Reg.String()
	case LocStack:
		return fmt.Sprintf("stack(%d)", l.Off)
	}

	return "loc?"
}

func (l Location) TlogAppend(b []byte) []byte {
	var e tlwire.Encoder

	return e.AppendFormat(b, "%v", l)
}

func NewLocations() *Locations {
	ls := &Locations{
		ids: make(map[Location]int),
	}

	for r := asm.Reg(0); r < asm.NumRegs; r++ {
		ls.ID(RegLoc(r))
	}

	return ls
}

func (ls *Locations) ID(l Location) int {
	if id, ok := ls.ids[l]; ok {
		return id
	}

	id := len(ls.locs)

	ls.ids[l] = id
	ls.locs = append(ls.locs, l)

	return id
}

// Lookup returns id of l if it was interned.
func (ls *Locations) Lookup(l Location) (int, bool) {
	id, ok := ls.ids[l]
	return id, ok
}

func (ls *Locations) Loc(id int) Location { return ls.locs[id] }

func (ls *Locations) Len() int { return len(ls.locs) }

func (ls *Locations) Set(l ...Location) (s LocSet) {
	for _, l := range l {
		s.Set(ls.ID(l))
	}

	return s
}

// Slice returns locations of s ordered by id.
func (ls *Locations) Slice(s LocSet) []Location {
	r := make([]Location, 0, s.Size())

	s.Range(func(id int) bool {
		r = append(r, ls.locs[id])
		return true
	})

	return r
}

func (ls *Locations) Format(s LocSet) string {
	b := []byte{'{'}

	s.Range(func(id int) bool {
		if len(b) > 1 {
			b = append(b, ", "...)
		}

		b = append(b, ls.locs[id].String()...)

		return true
	})

	b = append(b, '}')

	return string(b)
}
