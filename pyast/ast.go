package pyast

import "fmt"

// Pos is a 1-based source position.
type Pos struct {
	Line   int
	Column int
}

func (p Pos) Position() Pos {
	return p
}

func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

type Node interface {
	Position() Pos
}

// Stmt and Expr are closed: only types in this package implement them.
type Stmt interface {
	Node
	stmtNode()
}

type Expr interface {
	Node
	exprNode()
}

type Module struct {
	Pos
	Name   string
	Source string
	Body   []Stmt
}

// statements

type ExprStmt struct {
	Pos
	X Expr
}

type Assign struct {
	Pos
	Targets []Expr // a = b = value
	Value   Expr
}

type AugAssign struct {
	Pos
	Target Expr
	Op     Op
	Value  Expr
}

type If struct {
	Pos
	Test Expr
	Body []Stmt
	Else []Stmt
}

type For struct {
	Pos
	Target Expr
	Iter   Expr
	Body   []Stmt
	Else   []Stmt
}

type While struct {
	Pos
	Test Expr
	Body []Stmt
	Else []Stmt
}

type Try struct {
	Pos
	Body     []Stmt
	Handlers []*ExceptHandler
	Else     []Stmt
	Finally  []Stmt
}

type ExceptHandler struct {
	Pos
	Type Expr // nil for a bare except
	Name string
	Body []Stmt
}

type Param struct {
	Pos
	Name    string
	Default Expr
}

type Params struct {
	Args   []*Param
	Vararg string
	KwOnly []*Param
	Kwarg  string
}

type FunctionDef struct {
	Pos
	Name       string
	Params     *Params
	Body       []Stmt
	Doc        string
	Decorators []Expr
}

type Return struct {
	Pos
	Value Expr
}

type Break struct {
	Pos
}

type Continue struct {
	Pos
}

type Pass struct {
	Pos
}

type Delete struct {
	Pos
	Targets []Expr
}

type Assert struct {
	Pos
	Test Expr
	Msg  Expr
}

type Raise struct {
	Pos
	Exc   Expr
	Cause Expr
}

type Alias struct {
	Name   string
	AsName string
}

type Import struct {
	Pos
	Names []Alias
}

type ImportFrom struct {
	Pos
	Module string
	Names  []Alias
}

type WithItem struct {
	Context Expr
	Target  Expr
}

type With struct {
	Pos
	Items []WithItem
	Body  []Stmt
}

type Global struct {
	Pos
	Names []string
}

// expressions

// Constant values are nil, bool, int64, *big.Int, float64, complex128,
// string or []byte.
type Constant struct {
	Pos
	Value any
}

type Ellipsis struct {
	Pos
}

type Name struct {
	Pos
	Id string
}

type BinOp struct {
	Pos
	X  Expr
	Op Op
	Y  Expr
}

type UnaryOp struct {
	Pos
	Op Op
	X  Expr
}

type BoolOp struct {
	Pos
	Op     Op
	Values []Expr
}

type Compare struct {
	Pos
	Left        Expr
	Ops         []CmpOp
	Comparators []Expr
}

type Keyword struct {
	Pos
	Name  string // empty for **mapping
	Value Expr
}

type Call struct {
	Pos
	Func     Expr
	Args     []Expr
	Keywords []*Keyword
}

type Attribute struct {
	Pos
	X    Expr
	Name string
}

type Subscript struct {
	Pos
	X     Expr
	Index Expr
}

type Slice struct {
	Pos
	Lo   Expr
	Hi   Expr
	Step Expr
}

type Starred struct {
	Pos
	X Expr
}

type List struct {
	Pos
	Elts []Expr
}

type Tuple struct {
	Pos
	Elts []Expr
}

type Set struct {
	Pos
	Elts []Expr
}

type Dict struct {
	Pos
	Keys   []Expr // nil key means **spread of the value
	Values []Expr
}

type IfExp struct {
	Pos
	Test Expr
	Body Expr
	Else Expr
}

type Lambda struct {
	Pos
	Params *Params
	Body   Expr
}

type Comprehension struct {
	Target Expr
	Iter   Expr
	Ifs    []Expr
}

type ListComp struct {
	Pos
	Elt        Expr
	Generators []*Comprehension
}

type SetComp struct {
	Pos
	Elt        Expr
	Generators []*Comprehension
}

type DictComp struct {
	Pos
	Key        Expr
	Value      Expr
	Generators []*Comprehension
}

type GeneratorExp struct {
	Pos
	Elt        Expr
	Generators []*Comprehension
}

// JoinedStr is an f-string; Values are *Constant strings and *FormattedValue.
type JoinedStr struct {
	Pos
	Values []Expr
}

type FormattedValue struct {
	Pos
	Value      Expr
	Conversion rune // 0, 's', 'r' or 'a'
	Spec       Expr // nil or *JoinedStr
}

func (*ExprStmt) stmtNode()    {}
func (*Assign) stmtNode()      {}
func (*AugAssign) stmtNode()   {}
func (*If) stmtNode()          {}
func (*For) stmtNode()         {}
func (*While) stmtNode()       {}
func (*Try) stmtNode()         {}
func (*FunctionDef) stmtNode() {}
func (*Return) stmtNode()      {}
func (*Break) stmtNode()       {}
func (*Continue) stmtNode()    {}
func (*Pass) stmtNode()        {}
func (*Delete) stmtNode()      {}
func (*Assert) stmtNode()      {}
func (*Raise) stmtNode()       {}
func (*Import) stmtNode()      {}
func (*ImportFrom) stmtNode()  {}
func (*With) stmtNode()        {}
func (*Global) stmtNode()      {}

func (*Constant) exprNode()       {}
func (*Ellipsis) exprNode()       {}
func (*Name) exprNode()           {}
func (*BinOp) exprNode()          {}
func (*UnaryOp) exprNode()        {}
func (*BoolOp) exprNode()         {}
func (*Compare) exprNode()        {}
func (*Call) exprNode()           {}
func (*Attribute) exprNode()      {}
func (*Subscript) exprNode()      {}
func (*Slice) exprNode()          {}
func (*Starred) exprNode()        {}
func (*List) exprNode()           {}
func (*Tuple) exprNode()          {}
func (*Set) exprNode()            {}
func (*Dict) exprNode()           {}
func (*IfExp) exprNode()          {}
func (*Lambda) exprNode()         {}
func (*ListComp) exprNode()       {}
func (*SetComp) exprNode()        {}
func (*DictComp) exprNode()       {}
func (*GeneratorExp) exprNode()   {}
func (*JoinedStr) exprNode()      {}
func (*FormattedValue) exprNode() {}
