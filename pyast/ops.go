package pyast

type Op uint8

const (
	Add Op = iota + 1
	Sub
	Mult
	MatMult
	Div
	FloorDiv
	Mod
	Pow
	LShift
	RShift
	BitOr
	BitXor
	BitAnd

	UAdd
	USub
	Not
	Invert

	And
	Or
)

var opStrings = map[Op]string{
	Add:      "+",
	Sub:      "-",
	Mult:     "*",
	MatMult:  "@",
	Div:      "/",
	FloorDiv: "//",
	Mod:      "%",
	Pow:      "**",
	LShift:   "<<",
	RShift:   ">>",
	BitOr:    "|",
	BitXor:   "^",
	BitAnd:   "&",
	UAdd:     "+",
	USub:     "-",
	Not:      "not",
	Invert:   "~",
	And:      "and",
	Or:       "or",
}

func (o Op) String() string {
	if s, ok := opStrings[o]; ok {
		return s
	}
	return "?"
}

type CmpOp uint8

const (
	Eq CmpOp = iota + 1
	NotEq
	Lt
	LtE
	Gt
	GtE
	Is
	IsNot
	In
	NotIn
)

var cmpOpStrings = map[CmpOp]string{
	Eq:    "==",
	NotEq: "!=",
	Lt:    "<",
	LtE:   "<=",
	Gt:    ">",
	GtE:   ">=",
	Is:    "is",
	IsNot: "is not",
	In:    "in",
	NotIn: "not in",
}

func (o CmpOp) String() string {
	if s, ok := cmpOpStrings[o]; ok {
		return s
	}
	return "?"
}
