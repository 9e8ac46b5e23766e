package evalerr

type Kind uint8

const (
	KindSyntax Kind = iota + 1
	KindNameResolution
	KindAttributeDenied
	KindConstructDisabled
	KindResourceLimit
	KindTypeMismatch
	KindArithmetic
	KindUserRaised
	KindImportDenied
	KindValue
	KindLookup
	KindAttribute
	KindRuntime
)

func (k Kind) String() string {
	switch k {
	case KindSyntax:
		return "Syntax"
	case KindNameResolution:
		return "NameResolution"
	case KindAttributeDenied:
		return "AttributeDenied"
	case KindConstructDisabled:
		return "ConstructDisabled"
	case KindResourceLimit:
		return "ResourceLimitExceeded"
	case KindTypeMismatch:
		return "TypeMismatch"
	case KindArithmetic:
		return "Arithmetic"
	case KindUserRaised:
		return "UserRaised"
	case KindImportDenied:
		return "ImportDenied"
	case KindValue:
		return "Value"
	case KindLookup:
		return "Lookup"
	case KindAttribute:
		return "Attribute"
	case KindRuntime:
		return "Runtime"
	}
	return "Unknown"
}

// ExceptionName is the exception class raised for errors of this kind when
// no more specific class is given.
func (k Kind) ExceptionName() string {
	switch k {
	case KindSyntax:
		return "SyntaxError"
	case KindNameResolution:
		return "NameError"
	case KindAttributeDenied, KindAttribute:
		return "AttributeError"
	case KindConstructDisabled:
		return "NotImplementedError"
	case KindResourceLimit, KindRuntime:
		return "RuntimeError"
	case KindTypeMismatch:
		return "TypeError"
	case KindArithmetic:
		return "ArithmeticError"
	case KindImportDenied:
		return "ImportError"
	case KindValue:
		return "ValueError"
	case KindLookup:
		return "LookupError"
	}
	return "Exception"
}

type kindError Kind

func (k kindError) Error() string {
	return Kind(k).String()
}

// sentinels for errors.Is
var (
	ErrSyntax            error = kindError(KindSyntax)
	ErrNameResolution    error = kindError(KindNameResolution)
	ErrAttributeDenied   error = kindError(KindAttributeDenied)
	ErrConstructDisabled error = kindError(KindConstructDisabled)
	ErrResourceLimit     error = kindError(KindResourceLimit)
	ErrTypeMismatch      error = kindError(KindTypeMismatch)
	ErrArithmetic        error = kindError(KindArithmetic)
	ErrUserRaised        error = kindError(KindUserRaised)
	ErrImportDenied      error = kindError(KindImportDenied)
	ErrValue             error = kindError(KindValue)
	ErrLookup            error = kindError(KindLookup)
	ErrAttribute         error = kindError(KindAttribute)
	ErrRuntime           error = kindError(KindRuntime)
)
