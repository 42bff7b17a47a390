package rst

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/guides/internal/doctree"
)

// Config controls parsing.
type Config struct {
	InitialHeaderLevel int    // level of the first title adornment seen
	DefaultRole        string // role for `text` without an explicit role
}

func DefaultConfig() Config {
	return Config{InitialHeaderLevel: 1, DefaultRole: "ref"}
}

// StructureError aborts the parse of one document.
type StructureError struct {
	Path string
	Err  error
}

func (e *StructureError) Error() string { return fmt.Sprintf("parse %s: %v", e.Path, e.Err) }
func (e *StructureError) Unwrap() error { return e.Err }

// MissingBodyError is raised for a body directive written without a body.
type MissingBodyError struct {
	Directive string
}

func (e *MissingBodyError) Error() string {
	return fmt.Sprintf("directive %q requires an indented body", e.Directive)
}
func (e *MissingBodyError) Unwrap() error { return doctree.ErrInvalidStructure }

// Parser turns reStructuredText sources into document trees. It is safe
// for concurrent use; each Parse call has its own state.
type Parser struct {
	directives *Registry
	cfg        Config
	files      FileReader
	log        *slog.Logger
}

func New(directives *Registry, cfg Config, files FileReader, log *slog.Logger) *Parser {
	if cfg.InitialHeaderLevel <= 0 {
		cfg.InitialHeaderLevel = 1
	}
	if log == nil {
		log = slog.Default()
	}
	return &Parser{directives: directives, cfg: cfg, files: files, log: log}
}

// Parse parses src as the document at the logical path p.
func (p *Parser) Parse(path string, src []byte) (*doctree.Document, error) {
	doc := &doctree.Document{
		Hash:  doctree.ContentHash(src),
		Path:  path,
		Links: make(map[string]string),
	}
	ctx := newContext(p, doc)
	nodes, err := ctx.parseBlocks(NewLines(string(src)), true)
	if err != nil {
		ctx.log.Error("document has invalid structure", "error", err)
		return nil, &StructureError{Path: path, Err: err}
	}
	doc.Nodes = doctree.NestSections(nodes)
	return doc, nil
}

func (c *Context) parseBlocks(lines *Lines, top bool) ([]doctree.Node, error) {
	bp := &blockParser{ctx: c, lines: lines, top: top}
	if err := bp.run(); err != nil {
		return nil, err
	}
	return bp.nodes, nil
}

type blockParser struct {
	ctx   *Context
	lines *Lines
	top   bool // titles are only recognized at document level
	nodes []doctree.Node
	para  []string

	// literalNext is set when the last paragraph ended with "::".
	literalNext bool
}

func (bp *blockParser) add(n doctree.Node) {
	bp.nodes = append(bp.nodes, n)
}

func (bp *blockParser) last() doctree.Node {
	if len(bp.nodes) == 0 {
		return nil
	}
	return bp.nodes[len(bp.nodes)-1]
}

func (bp *blockParser) run() error {
	for bp.lines.Valid() {
		line := bp.lines.Line()
		if IsBlank(line) {
			bp.flush()
			bp.lines.Next()
			continue
		}
		if len(bp.para) > 0 {
			if Indent(line) == 0 && !startsExplicitMarkup(line) {
				bp.para = append(bp.para, line)
				bp.lines.Next()
				continue
			}
			bp.flush()
		}
		if err := bp.block(line); err != nil {
			return err
		}
	}
	bp.flush()
	return nil
}

func startsExplicitMarkup(line string) bool {
	return strings.HasPrefix(line, ".. ") || line == ".."
}

func (bp *blockParser) block(line string) error {
	lines := bp.lines

	if Indent(line) > 0 {
		block := lines.Indented(1)
		if bp.literalNext {
			bp.literalNext = false
			bp.add(&doctree.Code{Value: strings.Trim(strings.Join(block.lines, "\n"), "\n")})
			return nil
		}
		nodes, err := bp.ctx.parseBlocks(block, false)
		if err != nil {
			return err
		}
		bp.add(&doctree.Quote{Nodes: nodes})
		return nil
	}
	bp.literalNext = false

	if bp.top {
		if title, ok := bp.title(); ok {
			bp.add(title)
			return nil
		}
	}

	if d, ok := parseDirectiveLine(line); ok {
		return bp.directive(d)
	}
	if l, ok := parseLinkLine(line); ok {
		lines.Next()
		if l.anchor {
			bp.ctx.SetLink(l.name, "#"+anchorID(l.name))
			bp.add(&doctree.Anchor{Name: anchorID(l.name)})
		} else {
			bp.ctx.SetLink(l.name, l.url)
		}
		return nil
	}
	if isComment(line) {
		lines.Next()
		lines.Indented(1)
		return nil
	}
	if sep, ok := parseSeparatorLine(line); ok {
		return bp.table(sep)
	}

	next, hasNext := lines.Peek(1)
	if m, ok := parseListMarker(line, next, hasNext); ok {
		return bp.list(m)
	}
	if specialLine(line) != 0 && utf8.RuneCountInString(line) >= 4 && (!hasNext || IsBlank(next)) {
		lines.Next()
		bp.add(&doctree.Separator{})
		return nil
	}

	bp.para = append(bp.para, line)
	lines.Next()
	return nil
}

// flush turns the buffered paragraph lines into a Paragraph.
func (bp *blockParser) flush() {
	if len(bp.para) == 0 {
		return
	}
	for i, l := range bp.para {
		bp.para[i] = strings.TrimSpace(l)
	}
	text := strings.Join(bp.para, "\n")
	bp.para = nil

	if strings.HasSuffix(text, "::") {
		bp.literalNext = true
		switch {
		case text == "::":
			return
		case strings.HasSuffix(text, " ::") || strings.HasSuffix(text, "\n::"):
			text = strings.TrimSpace(strings.TrimSuffix(text, "::"))
		default:
			text = strings.TrimSuffix(text, ":")
		}
	}
	bp.add(&doctree.Paragraph{Value: bp.ctx.ParseSpan(text)})
}

// title recognizes an underlined or over- and underlined section title
// at the cursor.
func (bp *blockParser) title() (*doctree.Title, bool) {
	lines := bp.lines
	line := lines.Line()
	next, ok := lines.Peek(1)
	if !ok {
		return nil, false
	}

	var text string
	var letter byte
	consumed := 0

	if l := specialLine(line); l != 0 && !IsBlank(next) && specialLine(next) == 0 {
		if under, ok := lines.Peek(2); ok && specialLine(under) == l {
			text, letter, consumed = strings.TrimSpace(next), l, 3
		}
	}
	if consumed == 0 {
		l := specialLine(next)
		if l == 0 || specialLine(line) != 0 {
			return nil, false
		}
		text = strings.TrimSpace(line)
		if utf8.RuneCountInString(next) < min(3, utf8.RuneCountInString(text)) {
			return nil, false
		}
		letter, consumed = l, 2
	}

	for range consumed {
		lines.Next()
	}
	return &doctree.Title{
		Value: bp.ctx.ParseSpan(text),
		Level: bp.ctx.titleLevel(letter),
		ID:    bp.ctx.titleID(text),
	}, true
}

func (bp *blockParser) directive(pd parsedDirective) error {
	lines := bp.lines
	lines.Next()

	d := Directive{Name: pd.name, Variable: pd.variable, Data: pd.data, Options: Options{}}
	for lines.Valid() {
		line := lines.Line()
		if key, opt, ok := parseOptionLine(line); ok {
			d.Options[key] = opt
			lines.Next()
			continue
		}
		if IsBlank(line) {
			// blank lines may separate option lines
			j := 1
			for {
				l, ok := lines.Peek(j)
				if !ok || !IsBlank(l) {
					break
				}
				j++
			}
			if l, ok := lines.Peek(j); ok {
				if _, _, isOpt := parseOptionLine(l); isOpt {
					lines.Seek(lines.Pos() + j)
					continue
				}
			}
		}
		break
	}

	body := lines.Indented(1)
	d.Body = strings.Trim(strings.Join(body.lines, "\n"), "\n")

	node, err := bp.ctx.runDirective(bp.last(), d)
	if err != nil {
		return err
	}
	if node != nil {
		bp.add(node)
	}
	return nil
}

func (c *Context) runDirective(prev doctree.Node, d Directive) (doctree.Node, error) {
	log := c.log.With("directive", d.Name)

	h, err := c.parser.directives.Lookup(d.Name)
	if err != nil {
		log.Warn("directive lookup failed", "error", err)
		return placeholder(d, err.Error()), nil
	}
	if h == nil {
		log.Warn("unknown directive", "data", d.Data)
		return placeholder(d, "unknown directive"), nil
	}

	var node doctree.Node
	switch h := h.(type) {
	case BodyHandler:
		body := d.Body
		if ic, ok := h.(InlineContent); ok && ic.InlineContent() && d.Data != "" {
			body = strings.TrimSpace(d.Data + "\n" + d.Body)
		}
		if strings.TrimSpace(body) == "" {
			return nil, &MissingBodyError{Directive: d.Name}
		}
		content, perr := c.ParseFragment(body)
		if perr != nil {
			return nil, perr
		}
		node, err = h.ProcessBody(c, prev, d, content)
	case NodeHandler:
		node, err = h.Process(c, prev, d)
	default:
		log.Error("directive handler has no processing method", "handler", fmt.Sprintf("%T", h))
		return placeholder(d, "handler has no processing method"), nil
	}

	if err != nil {
		if errors.Is(err, doctree.ErrInvalidStructure) {
			return nil, err
		}
		log.Warn("directive failed", "error", err)
		return placeholder(d, err.Error()), nil
	}
	return node, nil
}

func placeholder(d Directive, reason string) *doctree.DirectivePlaceholder {
	return &doctree.DirectivePlaceholder{Name: d.Name, Data: d.Data, Body: d.Body, Reason: reason}
}

func (bp *blockParser) list(first listMarker) error {
	lines := bp.lines
	list := &doctree.List{Ordered: first.ordered()}

	for lines.Valid() {
		line := lines.Line()
		next, hasNext := lines.Peek(1)
		m, ok := parseListMarker(line, next, hasNext)
		if !ok || m.kind != first.kind || Indent(line) != 0 {
			break
		}

		body := []string{runeSlice(line, m.offset)}
		lines.Next()
		body = append(body, lines.Indented(m.offset).lines...)

		nodes, err := bp.ctx.parseBlocks(newLinesFrom(body), false)
		if err != nil {
			return err
		}
		list.Items = append(list.Items, &doctree.ListItem{Marker: m.raw, Nodes: nodes})

		// items may be separated by blank lines
		j := 0
		for {
			l, ok := lines.Peek(j)
			if !ok || !IsBlank(l) {
				break
			}
			j++
		}
		if j == 0 {
			continue
		}
		l, ok := lines.Peek(j)
		if !ok {
			break
		}
		n2, has2 := lines.Peek(j + 1)
		if mm, ok := parseListMarker(l, n2, has2); !ok || mm.kind != first.kind || Indent(l) != 0 {
			break
		}
		lines.Seek(lines.Pos() + j)
	}

	bp.add(list)
	return nil
}

func (bp *blockParser) table(first separatorLine) error {
	lines := bp.lines
	var raw []string
	for lines.Valid() {
		l := lines.Line()
		if IsBlank(l) {
			break
		}
		if first.pretty {
			t := strings.TrimSpace(l)
			if t[0] != '+' && t[0] != '|' {
				break
			}
		}
		raw = append(raw, l)
		lines.Next()
	}

	table, err := parseTable(raw)
	if err != nil {
		bp.ctx.log.Error("invalid table", "error", err, "table", strings.Join(raw, "\n"))
		return err
	}

	for _, row := range table.Rows {
		for _, col := range row.Columns {
			if col.IntentionallyEmpty() || col.Content == "" {
				continue
			}
			firstLine, _, _ := strings.Cut(col.Content, "\n")
			if _, ok := parseListMarker(firstLine, "", false); ok {
				frag, err := bp.ctx.ParseFragment(col.Content)
				if err != nil {
					return err
				}
				col.Node = frag
				continue
			}
			col.Node = bp.ctx.ParseSpan(col.Content)
		}
	}
	bp.add(table)
	return nil
}
