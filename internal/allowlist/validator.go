package allowlist

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/animathic/backend/internal/domain"
	"github.com/animathic/backend/pkg/errors"
)

// Structural bounds enforced against synthesized source text (§4.1).
const (
	MaxSourceBytes = 20 * 1024
	MaxNestingDepth = 8
	MaxLoopCount    = 20
)

// bannedNames MUST NOT be relaxed into a denylist substitute for the
// allowlist checks below — it exists only to catch escape-hatch builtins
// that no legitimate synthesized call ever needs (§4.1).
var bannedNames = map[string]struct{}{
	"exec": {}, "eval": {}, "compile": {}, "open": {}, "input": {},
	"__import__": {},
}

var (
	dunderRe     = regexp.MustCompile(`__[A-Za-z0-9_]+__`)
	importRe     = regexp.MustCompile(`(?m)^\s*(import\s+\S+.*|from\s+\S+\s+import\s+.*)$`)
	wildcardFrom = regexp.MustCompile(`^from\s+[A-Za-z_][A-Za-z0-9_.]*\s+import\s+\*$`)
	plainImport  = regexp.MustCompile(`^import\s+[A-Za-z_][A-Za-z0-9_.]*(\s+as\s+[A-Za-z_][A-Za-z0-9_]*)?$`)
	classRe      = regexp.MustCompile(`(?m)^class\s+([A-Za-z_][A-Za-z0-9_]*)\s*\(\s*([A-Za-z_][A-Za-z0-9_]*)\s*\)\s*:`)
	methodRe     = regexp.MustCompile(`(?m)^\s*def\s+([A-Za-z_][A-Za-z0-9_]*)\s*\(\s*self\s*\)\s*:`)
	callRe       = regexp.MustCompile(`([A-Za-z_][A-Za-z0-9_.]*)\s*\(`)
	loopRe       = regexp.MustCompile(`(?m)^\s*(for|while)\s+.*:\s*$`)
)

// allowedCalls are callables the synthesizer emits that are not themselves
// object kinds or actions: scene lifecycle methods and the fixed numeric
// helper's namespace.
var allowedCalls = map[string]struct{}{
	"self.play": {}, "self.wait": {}, "self.add": {}, "np.array": {},
	"GeneratedScene": {}, "construct": {},
}

// styleSetters are the fixed setter methods the synthesizer calls on a
// declared object to apply its style (`<id>.set_color(...)` etc.).
var styleSetters = map[string]struct{}{
	"set_color": {}, "set_stroke": {}, "set_fill": {}, "set_z_index": {},
}

// ValidationError reports the offending token and its source line (§4.1).
type ValidationError struct {
	Kind  errors.Kind
	Token string
	Line  int
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %q at line %d", e.Kind, e.Token, e.Line)
}

func newValidationError(kind errors.Kind, token string, line int) *ValidationError {
	return &ValidationError{Kind: kind, Token: token, Line: line}
}

// Validate parses source (the Code Synthesizer's output) and enforces the
// §4.1 safety surface: a single GeneratedScene class with the expected
// base, a single construct-style method, a fixed import shape, no
// escape-hatch identifiers, and bounded size/nesting/loop count.
//
// String literal contents are never scanned for identifiers (§8 scenario
// 3): a Text object whose string payload is "__import__('os')" is valid
// source, since the identifier scan runs only over code with string
// literals blanked out.
func Validate(source string, sceneKind domain.SceneKind) error {
	if len(source) > MaxSourceBytes {
		return newValidationError(errors.KindTooLarge, fmt.Sprintf("%d bytes", len(source)), 0)
	}

	masked := maskStringLiterals(source)

	if err := checkBackslashContinuations(masked); err != nil {
		return err
	}
	if err := checkImports(masked); err != nil {
		return err
	}
	if err := checkClass(masked, sceneKind); err != nil {
		return err
	}
	if err := checkMethod(masked); err != nil {
		return err
	}
	if err := checkCalls(masked); err != nil {
		return err
	}
	if err := checkDunder(masked); err != nil {
		return err
	}
	if err := checkNesting(masked); err != nil {
		return err
	}
	if err := checkLoopCount(masked); err != nil {
		return err
	}
	return nil
}

// maskStringLiterals replaces the contents of single/double/triple quoted
// string literals with 'x' filler, preserving line structure and quote
// delimiters, so later regex passes never see identifiers inside strings.
func maskStringLiterals(src string) string {
	var b strings.Builder
	b.Grow(len(src))
	runes := []rune(src)
	n := len(runes)
	i := 0
	for i < n {
		c := runes[i]
		if c == '"' || c == '\'' {
			quote := c
			triple := i+2 < n && runes[i+1] == quote && runes[i+2] == quote
			delim := string(quote)
			if triple {
				delim = strings.Repeat(string(quote), 3)
			}
			b.WriteString(delim)
			i += len(delim)
			for i < n {
				if runes[i] == '\\' && i+1 < n {
					b.WriteByte('x')
					b.WriteByte('x')
					i += 2
					continue
				}
				if triple {
					if i+2 < n && runes[i] == quote && runes[i+1] == quote && runes[i+2] == quote {
						b.WriteString(delim)
						i += 3
						break
					}
				} else if runes[i] == quote {
					b.WriteString(delim)
					i++
					break
				}
				if runes[i] == '\n' {
					b.WriteRune('\n')
				} else {
					b.WriteByte('x')
				}
				i++
			}
			continue
		}
		b.WriteRune(c)
		i++
	}
	return b.String()
}

func lineOf(src string, offset int) int {
	return strings.Count(src[:offset], "\n") + 1
}

func checkBackslashContinuations(masked string) error {
	for i, c := range masked {
		if c == '\\' {
			if i+1 >= len(masked) || masked[i+1] != '\n' {
				continue
			}
			return newValidationError(errors.KindBannedSymbol, "\\", lineOf(masked, i))
		}
	}
	return nil
}

func checkImports(masked string) error {
	var wildcards, plains int
	for _, loc := range importRe.FindAllStringIndex(masked, -1) {
		line := strings.TrimSpace(masked[loc[0]:loc[1]])
		switch {
		case wildcardFrom.MatchString(line):
			wildcards++
		case plainImport.MatchString(line):
			plains++
		default:
			return newValidationError(errors.KindSchema, line, lineOf(masked, loc[0]))
		}
	}
	if wildcards != 1 || plains != 1 {
		return newValidationError(errors.KindSchema, "import shape", 1)
	}
	return nil
}

func checkClass(masked string, sceneKind domain.SceneKind) error {
	matches := classRe.FindAllStringSubmatchIndex(masked, -1)
	if len(matches) != 1 {
		return newValidationError(errors.KindSchema, "class GeneratedScene", 1)
	}
	m := matches[0]
	name := masked[m[2]:m[3]]
	base := masked[m[4]:m[5]]
	if name != "GeneratedScene" {
		return newValidationError(errors.KindSchema, name, lineOf(masked, m[0]))
	}
	wantBase, ok := SceneBase(sceneKind)
	if !ok || base != wantBase {
		return newValidationError(errors.KindShape, base, lineOf(masked, m[0]))
	}
	return nil
}

func checkMethod(masked string) error {
	matches := methodRe.FindAllStringSubmatchIndex(masked, -1)
	if len(matches) != 1 {
		return newValidationError(errors.KindSchema, "def construct(self)", 1)
	}
	m := matches[0]
	name := masked[m[2]:m[3]]
	if name != "construct" {
		return newValidationError(errors.KindSchema, name, lineOf(masked, m[0]))
	}
	return nil
}

func checkCalls(masked string) error {
	for _, m := range callRe.FindAllStringSubmatchIndex(masked, -1) {
		name := masked[m[2]:m[3]]
		if isAllowedCallName(name) {
			continue
		}
		return newValidationError(errors.KindBannedSymbol, name, lineOf(masked, m[0]))
	}
	return nil
}

func isAllowedCallName(name string) bool {
	if _, ok := allowedCalls[name]; ok {
		return true
	}
	last := name
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		last = name[idx+1:]
	}
	if _, banned := bannedNames[last]; banned {
		return false
	}
	if _, ok := styleSetters[last]; ok && last != name {
		return true
	}
	if IsObjectKind(domain.ObjectKind(last)) || IsAction(domain.Action(last)) {
		return true
	}
	return false
}

func checkDunder(masked string) error {
	if loc := dunderRe.FindStringIndex(masked); loc != nil {
		return newValidationError(errors.KindBannedSymbol, masked[loc[0]:loc[1]], lineOf(masked, loc[0]))
	}
	return nil
}

func checkNesting(masked string) error {
	for _, line := range strings.Split(masked, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		indent := 0
		for _, c := range line {
			if c == ' ' {
				indent++
				continue
			}
			break
		}
		depth := indent / 4
		if depth > MaxNestingDepth {
			return newValidationError(errors.KindShape, "nesting depth", 0)
		}
	}
	return nil
}

func checkLoopCount(masked string) error {
	if n := len(loopRe.FindAllStringIndex(masked, -1)); n > MaxLoopCount {
		return newValidationError(errors.KindShape, "loop count", 0)
	}
	return nil
}
