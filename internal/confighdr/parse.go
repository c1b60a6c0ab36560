package confighdr

import (
	"fmt"
	"strconv"
	"strings"

	"platcap/internal/capability"
	"platcap/internal/diag"
)

// DirectiveKind classifies a parsed header line.
type DirectiveKind uint8

const (
	// DirDefine is "#define NAME [value]".
	DirDefine DirectiveKind = iota + 1
	// DirAbsent is the commented "/* #undef NAME */" marker.
	DirAbsent
	// DirUndef is an active "#undef NAME".
	DirUndef
)

func (k DirectiveKind) String() string {
	switch k {
	case DirDefine:
		return "define"
	case DirAbsent:
		return "absent"
	case DirUndef:
		return "undef"
	default:
		return "unknown"
	}
}

// Directive is one capability statement found in a header.
type Directive struct {
	Kind  DirectiveKind
	Name  capability.Name
	Value int64
	Line  int
	// Guarded is set when the statement sits directly inside "#ifndef Name".
	Guarded bool
	// Comment is the block comment immediately preceding the statement.
	Comment string
}

// File is a parsed configuration header.
type File struct {
	Path       string
	Directives []Directive
}

type condKind uint8

const (
	condIfndef condKind = iota
	condOther
)

type cond struct {
	kind condKind
	name string
	line int
}

type parser struct {
	path     string
	reporter diag.Reporter
	file     *File

	stack []cond

	inComment    bool
	commentStart int
	comment      strings.Builder
	lastComment  string
}

// Parse reads src as a configuration header. Problems are reported to r; the
// returned File holds every directive that could be understood.
func Parse(path string, src []byte, r diag.Reporter) *File {
	if r == nil {
		r = diag.NopReporter{}
	}
	p := &parser{path: path, reporter: r, file: &File{Path: path}}
	lines := strings.Split(strings.ReplaceAll(string(src), "\r\n", "\n"), "\n")
	for i, line := range lines {
		p.line(i+1, line)
	}
	p.finish()
	return p.file
}

func (p *parser) loc(line int) diag.Location {
	return diag.Location{Path: p.path, Line: line}
}

func (p *parser) line(no int, text string) {
	if p.inComment {
		end := strings.Index(text, "*/")
		if end < 0 {
			p.comment.WriteString("\n")
			p.comment.WriteString(text)
			return
		}
		p.comment.WriteString("\n")
		p.comment.WriteString(text[:end])
		p.inComment = false
		p.closeComment()
		text = text[end+2:]
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return
	}
	if strings.HasPrefix(trimmed, "#") {
		p.directive(no, stripComments(trimmed))
		return
	}
	if strings.HasPrefix(trimmed, "/*") {
		body := trimmed[2:]
		end := strings.Index(body, "*/")
		if end < 0 {
			p.inComment = true
			p.commentStart = no
			p.comment.Reset()
			p.comment.WriteString(body)
			return
		}
		inner := strings.TrimSpace(body[:end])
		if name, ok := commentedUndef(inner); ok {
			p.statement(no, DirAbsent, name, 0)
		} else {
			p.comment.Reset()
			p.comment.WriteString(body[:end])
			p.closeComment()
		}
		if rest := strings.TrimSpace(body[end+2:]); rest != "" {
			p.line(no, rest)
		}
		return
	}
	if strings.HasPrefix(trimmed, "//") {
		return
	}
	diag.ReportWarning(p.reporter, diag.HdrUnsupportedDirective, p.loc(no),
		fmt.Sprintf("ignoring non-directive text %q", truncate(trimmed, 40))).Emit()
}

func (p *parser) closeComment() {
	lines := strings.Split(p.comment.String(), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	p.lastComment = strings.TrimSpace(strings.Join(lines, "\n"))
	p.comment.Reset()
}

func commentedUndef(inner string) (capability.Name, bool) {
	fields := strings.Fields(inner)
	if len(fields) != 2 || fields[0] != "#undef" {
		return "", false
	}
	n := capability.Name(fields[1])
	return n, n.Valid()
}

// stripComments removes trailing block and line comments from a directive.
func stripComments(s string) string {
	for {
		start := strings.Index(s, "/*")
		if start < 0 {
			break
		}
		end := strings.Index(s[start+2:], "*/")
		if end < 0 {
			s = s[:start]
			break
		}
		s = s[:start] + " " + s[start+2+end+2:]
	}
	if i := strings.Index(s, "//"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

func (p *parser) directive(no int, text string) {
	body := strings.TrimSpace(strings.TrimPrefix(text, "#"))
	if body == "" {
		return
	}
	fields := strings.Fields(body)
	switch fields[0] {
	case "ifndef":
		if len(fields) != 2 {
			p.bad(no, "#ifndef expects exactly one name")
			p.stack = append(p.stack, cond{kind: condOther, line: no})
			return
		}
		p.stack = append(p.stack, cond{kind: condIfndef, name: fields[1], line: no})
	case "ifdef", "if":
		diag.ReportWarning(p.reporter, diag.HdrUnsupportedDirective, p.loc(no),
			fmt.Sprintf("#%s blocks are not evaluated; contents are read unguarded", fields[0])).Emit()
		p.stack = append(p.stack, cond{kind: condOther, line: no})
	case "else", "elif", "elifdef", "elifndef":
		diag.ReportWarning(p.reporter, diag.HdrUnsupportedDirective, p.loc(no),
			fmt.Sprintf("#%s is not evaluated", fields[0])).Emit()
		if n := len(p.stack); n > 0 {
			p.stack[n-1].kind = condOther
		}
	case "endif":
		if len(p.stack) == 0 {
			diag.ReportError(p.reporter, diag.HdrStrayEndif, p.loc(no), "#endif without matching conditional").Emit()
			return
		}
		p.stack = p.stack[:len(p.stack)-1]
		p.lastComment = ""
	case "define":
		if len(fields) < 2 {
			p.bad(no, "#define without a name")
			return
		}
		name := capability.Name(fields[1])
		if strings.Contains(fields[1], "(") {
			diag.ReportWarning(p.reporter, diag.HdrUnsupportedDirective, p.loc(no),
				fmt.Sprintf("function-like macro %s is not a capability", fields[1])).Emit()
			return
		}
		value := int64(1)
		if len(fields) > 2 {
			raw := strings.Join(fields[2:], " ")
			v, err := parseValue(raw)
			if err != nil {
				diag.ReportError(p.reporter, diag.CapMalformedValue, p.loc(no),
					fmt.Sprintf("capability %s: value %q is not an integer", name, raw)).Emit()
				return
			}
			value = v
		}
		p.statement(no, DirDefine, name, value)
	case "undef":
		if len(fields) != 2 {
			p.bad(no, "#undef expects exactly one name")
			return
		}
		p.statement(no, DirUndef, capability.Name(fields[1]), 0)
	default:
		diag.ReportWarning(p.reporter, diag.HdrUnsupportedDirective, p.loc(no),
			fmt.Sprintf("ignoring #%s", fields[0])).Emit()
	}
}

func (p *parser) bad(no int, msg string) {
	diag.ReportError(p.reporter, diag.HdrBadDirective, p.loc(no), msg).Emit()
}

func (p *parser) statement(no int, kind DirectiveKind, name capability.Name, value int64) {
	if !name.Valid() {
		diag.ReportError(p.reporter, diag.CapInvalidName, p.loc(no),
			fmt.Sprintf("%q is not a valid capability name", name)).Emit()
		return
	}
	d := Directive{Kind: kind, Name: name, Value: value, Line: no, Comment: p.lastComment}
	p.lastComment = ""
	if n := len(p.stack); n > 0 {
		top := p.stack[n-1]
		switch {
		case top.kind == condIfndef && top.name == string(name):
			d.Guarded = true
		case top.kind == condIfndef:
			diag.ReportWarning(p.reporter, diag.HdrGuardMismatch, p.loc(no),
				fmt.Sprintf("%s is guarded by #ifndef %s", name, top.name)).
				WithNote(p.loc(top.line), "guard opened here").
				Emit()
		}
	}
	p.file.Directives = append(p.file.Directives, d)
}

func (p *parser) finish() {
	if p.inComment {
		diag.ReportError(p.reporter, diag.HdrUnterminatedComment, p.loc(p.commentStart), "unterminated block comment").Emit()
	}
	for i := len(p.stack) - 1; i >= 0; i-- {
		c := p.stack[i]
		msg := "conditional block is never closed"
		if c.kind == condIfndef {
			msg = fmt.Sprintf("#ifndef %s is never closed", c.name)
		}
		diag.ReportError(p.reporter, diag.HdrUnterminatedGuard, p.loc(c.line), msg).Emit()
	}
}

// parseValue accepts decimal, hex and octal literals with optional integer
// suffixes and enclosing parentheses.
func parseValue(raw string) (int64, error) {
	s := strings.TrimSpace(raw)
	for strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	s = strings.TrimRight(s, "uUlL")
	return strconv.ParseInt(s, 0, 64)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
