package pyast

// Construct names are the keys of the node policy. A node with a construct
// name can be switched off; every other node is always evaluated.
const (
	ConstructAssert         = "assert"
	ConstructAugAssign      = "augassign"
	ConstructDelete         = "delete"
	ConstructDictComp       = "dictcomp"
	ConstructFor            = "for"
	ConstructFormattedValue = "formattedvalue"
	ConstructFunctionDef    = "functiondef"
	ConstructGeneratorExp   = "generatorexp"
	ConstructIf             = "if"
	ConstructIfExp          = "ifexp"
	ConstructImport         = "import"
	ConstructImportFrom     = "importfrom"
	ConstructLambda         = "lambda"
	ConstructListComp       = "listcomp"
	ConstructPrint          = "print"
	ConstructRaise          = "raise"
	ConstructSetComp        = "setcomp"
	ConstructTry            = "try"
	ConstructWhile          = "while"
	ConstructWith           = "with"
)

// Constructs lists every construct name in sorted order.
var Constructs = []string{
	ConstructAssert,
	ConstructAugAssign,
	ConstructDelete,
	ConstructDictComp,
	ConstructFor,
	ConstructFormattedValue,
	ConstructFunctionDef,
	ConstructGeneratorExp,
	ConstructIf,
	ConstructIfExp,
	ConstructImport,
	ConstructImportFrom,
	ConstructLambda,
	ConstructListComp,
	ConstructPrint,
	ConstructRaise,
	ConstructSetComp,
	ConstructTry,
	ConstructWhile,
	ConstructWith,
}

// ConstructOf returns the construct name of n, or "" if n is always allowed.
// print has no node of its own: it is gated when the print builtin is called.
func ConstructOf(n Node) string {
	switch n.(type) {
	case *Assert:
		return ConstructAssert
	case *AugAssign:
		return ConstructAugAssign
	case *Delete:
		return ConstructDelete
	case *DictComp:
		return ConstructDictComp
	case *For:
		return ConstructFor
	case *FormattedValue:
		return ConstructFormattedValue
	case *FunctionDef:
		return ConstructFunctionDef
	case *GeneratorExp:
		return ConstructGeneratorExp
	case *If:
		return ConstructIf
	case *IfExp:
		return ConstructIfExp
	case *Import:
		return ConstructImport
	case *ImportFrom:
		return ConstructImportFrom
	case *Lambda:
		return ConstructLambda
	case *ListComp:
		return ConstructListComp
	case *Raise:
		return ConstructRaise
	case *SetComp:
		return ConstructSetComp
	case *Try:
		return ConstructTry
	case *While:
		return ConstructWhile
	case *With:
		return ConstructWith
	}
	return ""
}

// NodeName is the Python-style class name of a node, used in messages.
func NodeName(n Node) string {
	switch n.(type) {
	case *Module:
		return "Module"
	case *ExprStmt:
		return "Expr"
	case *Assign:
		return "Assign"
	case *AugAssign:
		return "AugAssign"
	case *If:
		return "If"
	case *For:
		return "For"
	case *While:
		return "While"
	case *Try:
		return "Try"
	case *FunctionDef:
		return "FunctionDef"
	case *Return:
		return "Return"
	case *Break:
		return "Break"
	case *Continue:
		return "Continue"
	case *Pass:
		return "Pass"
	case *Delete:
		return "Delete"
	case *Assert:
		return "Assert"
	case *Raise:
		return "Raise"
	case *Import:
		return "Import"
	case *ImportFrom:
		return "ImportFrom"
	case *With:
		return "With"
	case *Global:
		return "Global"
	case *Constant:
		return "Constant"
	case *Ellipsis:
		return "Ellipsis"
	case *Name:
		return "Name"
	case *BinOp:
		return "BinOp"
	case *UnaryOp:
		return "UnaryOp"
	case *BoolOp:
		return "BoolOp"
	case *Compare:
		return "Compare"
	case *Call:
		return "Call"
	case *Attribute:
		return "Attribute"
	case *Subscript:
		return "Subscript"
	case *Slice:
		return "Slice"
	case *Starred:
		return "Starred"
	case *List:
		return "List"
	case *Tuple:
		return "Tuple"
	case *Set:
		return "Set"
	case *Dict:
		return "Dict"
	case *IfExp:
		return "IfExp"
	case *Lambda:
		return "Lambda"
	case *ListComp:
		return "ListComp"
	case *SetComp:
		return "SetComp"
	case *DictComp:
		return "DictComp"
	case *GeneratorExp:
		return "GeneratorExp"
	case *JoinedStr:
		return "JoinedStr"
	case *FormattedValue:
		return "FormattedValue"
	}
	return "Node"
}
