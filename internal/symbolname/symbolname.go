package symbolname

import (
	"strings"
)

const (
	// UnmanagedCode is the sentinel name given to frames the runtime could
	// not attribute to a managed symbol. It propagates as-is through every
	// later stage.
	UnmanagedCode = "Unmanaged Code"

	// UnknownType is the fallback name for allocation or exception types
	// missing from an event payload.
	UnknownType = "Unknown"

	unmanagedSentinel = "UNMANAGED_CODE_TIME"
)

// NormalizeDisplay maps a raw runtime-emitted symbol string to the name
// used for reporting. Generic and array syntax is folded, namespaces are
// collapsed, and compiler-generated constructs (state machines, local
// functions, lambdas) are rendered in a readable form. The function is
// idempotent: normalizing an already-normalized name returns it unchanged.
func NormalizeDisplay(raw string) string {
	return normalize(raw)
}

// NormalizeMatch maps a raw symbol string to the canonical name used for
// filtering and leaf detection. It shares the display pipeline so filters
// and reports always agree on a frame's identity.
func NormalizeMatch(raw string) string {
	return normalize(raw)
}

// NormalizeType folds a bare type expression (no method component), as
// found in allocation and exception event payloads.
func NormalizeType(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return UnknownType
	}
	if i := strings.IndexByte(s, '!'); i >= 0 {
		s = s[i+1:]
	}
	folded := foldTypeExpr(s)
	if folded == "" {
		return UnknownType
	}
	return folded
}

func normalize(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" || s == UnmanagedCode || strings.HasPrefix(s, unmanagedSentinel) {
		return UnmanagedCode
	}
	// Already-normalized lambda names carry no type/method separator, so
	// they must be recognized before the parse below rejects them.
	if strings.HasSuffix(s, " lambda") {
		return s
	}
	if i := strings.IndexByte(s, '!'); i >= 0 {
		s = s[i+1:]
	}
	s = stripParams(s)
	typeName, methodName := splitTypeMethod(s)
	if typeName == "" || methodName == "" {
		return UnmanagedCode
	}

	if methodName == "MoveNext" {
		if original, ok := stateMachineTarget(typeName); ok {
			return "StateMachine." + original + ".MoveNext"
		}
	}
	if owner, ok := lambdaOwner(methodName); ok {
		if outer, ok := declaringTypeOfClosure(typeName); ok {
			return outer + "." + owner + " lambda"
		}
		return owner + " lambda"
	}

	return foldTypeExpr(typeName) + "." + foldTypeExpr(methodName)
}

// stripParams removes the parameter list at the first top-level '(',
// ignoring any '(' nested inside generic or array brackets.
func stripParams(s string) string {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<', '[':
			depth++
		case '>', ']':
			depth--
		case '(':
			if depth == 0 {
				return strings.TrimSpace(s[:i])
			}
		}
	}
	return strings.TrimSpace(s)
}

// splitTypeMethod splits a stripped symbol at the last top-level dot into
// its enclosing type expression and method name.
func splitTypeMethod(s string) (string, string) {
	depth := 0
	for i := len(s) - 1; i >= 0; i-- {
		switch s[i] {
		case '>', ']':
			depth++
		case '<', '[':
			depth--
		case '.':
			if depth == 0 {
				return strings.TrimRight(s[:i], "."), s[i+1:]
			}
		}
	}
	return "", s
}

// stateMachineTarget extracts the original method or local-function name
// from a type carrying an async/iterator state-machine marker, e.g.
// "Ns.Program+<EvaluateAsync>d__3" or a local function inside one,
// "Ns.Program+<<Main>g__Work|0_1>d__5". It also accepts the normalized
// "StateMachine.<name>" form so the rendering is idempotent.
func stateMachineTarget(typeName string) (string, bool) {
	if rest := strings.TrimPrefix(typeName, "StateMachine."); rest != typeName && rest != "" {
		return rest, true
	}
	seg := lastTypeSegment(typeName)
	if !strings.HasPrefix(seg, "<") {
		return "", false
	}
	end := strings.LastIndexByte(seg, '>')
	if end <= 0 || !strings.Contains(seg[end:], "d__") {
		return "", false
	}
	inner := seg[1:end]
	// Local function markers embed the owner: <<Owner>g__Name|x_y>.
	if i := strings.Index(inner, "g__"); i >= 0 {
		name := inner[i+3:]
		if j := strings.IndexByte(name, '|'); j >= 0 {
			name = name[:j]
		}
		if name != "" {
			return name, true
		}
	}
	inner = strings.Trim(inner, "<>")
	if inner == "" {
		return "", false
	}
	return inner, true
}

// lambdaOwner extracts the owning method name from a compiler-generated
// lambda method such as "<AttachStatics>b__18_0".
func lambdaOwner(methodName string) (string, bool) {
	if !strings.HasPrefix(methodName, "<") {
		return "", false
	}
	end := strings.IndexByte(methodName, '>')
	if end <= 1 || !strings.Contains(methodName[end:], "b__") {
		return "", false
	}
	return methodName[1:end], true
}

// declaringTypeOfClosure returns the folded name of the type declaring a
// compiler-generated display/closure class, when the innermost type is one.
func declaringTypeOfClosure(typeName string) (string, bool) {
	seg := lastTypeSegment(typeName)
	if !strings.HasPrefix(seg, "<>") && !strings.Contains(seg, "__DisplayClass") {
		return "", false
	}
	cut := len(typeName) - len(seg) - 1
	if cut < 0 {
		return "", false
	}
	outer := foldTypeExpr(typeName[:cut])
	if outer == "" || strings.HasPrefix(outer, "<>") {
		return "", false
	}
	return outer, true
}

// lastTypeSegment returns the innermost nested-type segment, splitting on
// top-level '+' and '.' separators.
func lastTypeSegment(typeName string) string {
	depth := 0
	for i := len(typeName) - 1; i >= 0; i-- {
		switch typeName[i] {
		case '>', ']':
			depth++
		case '<', '[':
			depth--
		case '+', '.':
			if depth == 0 {
				return typeName[i+1:]
			}
		}
	}
	return typeName
}

// foldTypeExpr folds runtime generic/array syntax in a type expression:
// backtick arity markers are dropped, '[...]' becomes '<...>' with array
// rank commas preserved, and qualified names (namespaces and '+' nested
// types alike) collapse to their trailing simple name wherever they occur.
func foldTypeExpr(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	var ident []byte
	flush := func() {
		if len(ident) == 0 {
			return
		}
		id := string(ident)
		if i := strings.LastIndexAny(id, ".+"); i >= 0 {
			id = id[i+1:]
		}
		b.WriteString(id)
		ident = ident[:0]
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '`':
			for i+1 < len(s) && s[i+1] >= '0' && s[i+1] <= '9' {
				i++
			}
		case '[':
			flush()
			b.WriteByte('<')
		case ']':
			flush()
			b.WriteByte('>')
		case '<':
			flush()
			b.WriteByte('<')
		case '>':
			flush()
			b.WriteByte('>')
		case ',':
			flush()
			b.WriteByte(',')
		default:
			ident = append(ident, c)
		}
	}
	flush()
	return b.String()
}
