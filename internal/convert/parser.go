package convert

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseCreateTable reads a single Redshift CREATE TABLE statement into a
// SQLTable. A "--" comment documents the definition that follows it: a
// comment ahead of CREATE TABLE becomes the table doc, a comment ahead
// of a column definition becomes that column's doc. Redshift storage
// attributes (ENCODE, DISTKEY, SORTKEY, IDENTITY) are accepted and
// dropped.
func ParseCreateTable(input string) (*SQLTable, error) {
	p := &sqlParser{lex: newSQLLexer(input)}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return p.parseCreateTable()
}

type tokenKind int

const (
	tokenIdent tokenKind = iota
	tokenNumber
	tokenString
	tokenPunct
	tokenEOF
)

type token struct {
	kind   tokenKind
	text   string
	doc    string
	quoted bool
	pos    int
}

type sqlLexer struct {
	input   string
	pos     int
	pending []string
}

func newSQLLexer(input string) *sqlLexer {
	return &sqlLexer{input: input}
}

// next returns the following token with any comment lines seen since
// the previous token attached as its doc.
func (l *sqlLexer) next() (token, error) {
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		switch {
		case ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n':
			l.pos++
		case ch == '-' && l.pos+1 < len(l.input) && l.input[l.pos+1] == '-':
			l.readLineComment()
		case ch == '/' && l.pos+1 < len(l.input) && l.input[l.pos+1] == '*':
			if err := l.skipBlockComment(); err != nil {
				return token{}, err
			}
		default:
			return l.readToken()
		}
	}
	return token{kind: tokenEOF, pos: l.pos}, nil
}

func (l *sqlLexer) readLineComment() {
	start := l.pos + 2
	end := start
	for end < len(l.input) && l.input[end] != '\n' {
		end++
	}
	if text := strings.TrimSpace(l.input[start:end]); text != "" {
		l.pending = append(l.pending, text)
	}
	l.pos = end
}

func (l *sqlLexer) skipBlockComment() error {
	end := strings.Index(l.input[l.pos+2:], "*/")
	if end < 0 {
		return fmt.Errorf("unterminated comment at offset %d", l.pos)
	}
	l.pos += end + 4
	return nil
}

func (l *sqlLexer) takeDoc() string {
	if len(l.pending) == 0 {
		return ""
	}
	doc := strings.Join(l.pending, " ")
	l.pending = nil
	return doc
}

func (l *sqlLexer) readToken() (token, error) {
	pos := l.pos
	doc := l.takeDoc()
	ch := l.input[l.pos]
	switch {
	case isIdentStart(ch):
		end := l.pos + 1
		for end < len(l.input) && isIdentPart(l.input[end]) {
			end++
		}
		text := l.input[l.pos:end]
		l.pos = end
		return token{kind: tokenIdent, text: text, doc: doc, pos: pos}, nil
	case ch == '"':
		text, err := l.readQuoted('"')
		if err != nil {
			return token{}, err
		}
		return token{kind: tokenIdent, text: text, doc: doc, quoted: true, pos: pos}, nil
	case ch == '\'':
		text, err := l.readQuoted('\'')
		if err != nil {
			return token{}, err
		}
		return token{kind: tokenString, text: text, doc: doc, pos: pos}, nil
	case ch >= '0' && ch <= '9':
		end := l.pos + 1
		for end < len(l.input) && (isDigit(l.input[end]) || l.input[end] == '.') {
			end++
		}
		if end < len(l.input) && (l.input[end] == 'e' || l.input[end] == 'E') {
			mark := end + 1
			if mark < len(l.input) && (l.input[mark] == '+' || l.input[mark] == '-') {
				mark++
			}
			for mark < len(l.input) && isDigit(l.input[mark]) {
				mark++
			}
			end = mark
		}
		text := l.input[l.pos:end]
		l.pos = end
		return token{kind: tokenNumber, text: text, doc: doc, pos: pos}, nil
	case ch == '(' || ch == ')' || ch == ',' || ch == ';' || ch == '.' || ch == '-' || ch == '+':
		l.pos++
		return token{kind: tokenPunct, text: string(ch), doc: doc, pos: pos}, nil
	}
	return token{}, fmt.Errorf("unexpected character %q at offset %d", string(ch), pos)
}

// readQuoted consumes a quoted token, unescaping doubled quote
// characters.
func (l *sqlLexer) readQuoted(quote byte) (string, error) {
	var b strings.Builder
	i := l.pos + 1
	for i < len(l.input) {
		if l.input[i] != quote {
			b.WriteByte(l.input[i])
			i++
			continue
		}
		if i+1 < len(l.input) && l.input[i+1] == quote {
			b.WriteByte(quote)
			i += 2
			continue
		}
		l.pos = i + 1
		return b.String(), nil
	}
	return "", fmt.Errorf("unterminated quoted token at offset %d", l.pos)
}

func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

type sqlParser struct {
	lex *sqlLexer
	tok token
}

func (p *sqlParser) advance() error {
	tok, err := p.lex.next()
	if err != nil {
		return err
	}
	p.tok = tok
	return nil
}

func (p *sqlParser) isKeyword(keyword string) bool {
	return p.tok.kind == tokenIdent && !p.tok.quoted && strings.EqualFold(p.tok.text, keyword)
}

func (p *sqlParser) expectKeyword(keyword string) error {
	if !p.isKeyword(keyword) {
		return fmt.Errorf("expected %q at offset %d", keyword, p.tok.pos)
	}
	return p.advance()
}

func (p *sqlParser) isPunct(text string) bool {
	return p.tok.kind == tokenPunct && p.tok.text == text
}

func (p *sqlParser) expectPunct(text string) error {
	if !p.isPunct(text) {
		return fmt.Errorf("expected %q at offset %d", text, p.tok.pos)
	}
	return p.advance()
}

func (p *sqlParser) parseName() (string, error) {
	if p.tok.kind != tokenIdent {
		return "", fmt.Errorf("expected a name at offset %d", p.tok.pos)
	}
	name := p.tok.text
	if err := p.advance(); err != nil {
		return "", err
	}
	return name, nil
}

// parseQualifiedName reads name segments joined by dots and returns the
// last one; schema qualifiers do not survive into the table model.
func (p *sqlParser) parseQualifiedName() (string, error) {
	name, err := p.parseName()
	if err != nil {
		return "", err
	}
	for p.isPunct(".") {
		if err := p.advance(); err != nil {
			return "", err
		}
		if name, err = p.parseName(); err != nil {
			return "", err
		}
	}
	return name, nil
}

func (p *sqlParser) parseCreateTable() (*SQLTable, error) {
	doc := p.tok.doc
	if err := p.expectKeyword("create"); err != nil {
		return nil, err
	}
	if p.isKeyword("temp") || p.isKeyword("temporary") {
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	if err := p.expectKeyword("table"); err != nil {
		return nil, err
	}
	if p.isKeyword("if") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if err := p.expectKeyword("not"); err != nil {
			return nil, err
		}
		if err := p.expectKeyword("exists"); err != nil {
			return nil, err
		}
	}

	name, err := p.parseQualifiedName()
	if err != nil {
		return nil, err
	}
	table := &SQLTable{Name: name, Doc: doc}

	if err := p.expectPunct("("); err != nil {
		return nil, err
	}

	var columnKeys []string
	var tableKeys []string
	tableKeysSeen := false
	seen := make(map[string]bool)
	for {
		if p.isKeyword("primary") || p.isKeyword("constraint") || p.isKeyword("unique") || p.isKeyword("foreign") {
			keys, err := p.parseTableConstraint()
			if err != nil {
				return nil, err
			}
			if keys != nil {
				tableKeys = keys
				tableKeysSeen = true
			}
		} else {
			column, primaryKey, err := p.parseColumn()
			if err != nil {
				return nil, err
			}
			lower := strings.ToLower(column.Name)
			if seen[lower] {
				return nil, fmt.Errorf("duplicate column %q", column.Name)
			}
			seen[lower] = true
			table.Columns = append(table.Columns, column)
			if primaryKey {
				columnKeys = append(columnKeys, column.Name)
			}
		}
		if p.isPunct(",") {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	if err := p.skipTableSuffix(); err != nil {
		return nil, err
	}

	// A table-level PRIMARY KEY clause replaces column-level marks.
	keys := columnKeys
	if tableKeysSeen {
		keys = tableKeys
	}
	for i, keyName := range keys {
		column := table.Column(keyName)
		if column == nil {
			return nil, fmt.Errorf("primary key names unknown column %q", keyName)
		}
		column.PrimaryKeyOrder = i + 1
		column.Nullable = false
	}
	return table, nil
}

func (p *sqlParser) parseColumn() (*SQLColumn, bool, error) {
	nameTok := p.tok
	name, err := p.parseName()
	if err != nil {
		return nil, false, err
	}
	columnType, err := p.parseColumnType()
	if err != nil {
		return nil, false, fmt.Errorf("column %q: %w", name, err)
	}

	column := &SQLColumn{
		Name:     name,
		Doc:      nameTok.doc,
		Type:     columnType,
		Nullable: true,
	}
	primaryKey := false
	for !p.isPunct(",") && !p.isPunct(")") {
		if p.tok.kind == tokenEOF {
			return nil, false, fmt.Errorf("unexpected end of statement in column %q", name)
		}
		if p.tok.kind != tokenIdent {
			return nil, false, fmt.Errorf("unexpected %q in column %q at offset %d", p.tok.text, name, p.tok.pos)
		}
		switch strings.ToLower(p.tok.text) {
		case "not":
			if err := p.advance(); err != nil {
				return nil, false, err
			}
			if err := p.expectKeyword("null"); err != nil {
				return nil, false, err
			}
			column.Nullable = false
		case "null":
			if err := p.advance(); err != nil {
				return nil, false, err
			}
			column.Nullable = true
		case "default":
			if err := p.advance(); err != nil {
				return nil, false, err
			}
			value, err := p.parseDefaultValue()
			if err != nil {
				return nil, false, fmt.Errorf("column %q: %w", name, err)
			}
			column.DefaultValue = value
		case "primary":
			if err := p.advance(); err != nil {
				return nil, false, err
			}
			if err := p.expectKeyword("key"); err != nil {
				return nil, false, err
			}
			primaryKey = true
		case "unique", "distkey", "sortkey":
			if err := p.advance(); err != nil {
				return nil, false, err
			}
		case "identity":
			if err := p.advance(); err != nil {
				return nil, false, err
			}
			if p.isPunct("(") {
				if err := p.skipParens(); err != nil {
					return nil, false, err
				}
			}
		case "encode", "collate":
			if err := p.advance(); err != nil {
				return nil, false, err
			}
			if _, err := p.parseName(); err != nil {
				return nil, false, err
			}
		case "references":
			if err := p.advance(); err != nil {
				return nil, false, err
			}
			if _, err := p.parseQualifiedName(); err != nil {
				return nil, false, err
			}
			if p.isPunct("(") {
				if err := p.skipParens(); err != nil {
					return nil, false, err
				}
			}
		default:
			return nil, false, fmt.Errorf("unexpected %q in column %q at offset %d", p.tok.text, name, p.tok.pos)
		}
	}
	return column, primaryKey, nil
}

func (p *sqlParser) parseColumnType() (SQLType, error) {
	if p.tok.kind != tokenIdent || p.tok.quoted {
		return SQLType{}, fmt.Errorf("expected a column type at offset %d", p.tok.pos)
	}
	name := strings.ToLower(p.tok.text)
	if err := p.advance(); err != nil {
		return SQLType{}, err
	}

	switch name {
	case "double":
		if p.isKeyword("precision") {
			name = "double precision"
			if err := p.advance(); err != nil {
				return SQLType{}, err
			}
		}
	case "character":
		if p.isKeyword("varying") {
			name = "character varying"
			if err := p.advance(); err != nil {
				return SQLType{}, err
			}
		}
	case "timestamp", "time":
		if p.isKeyword("without") || p.isKeyword("with") {
			withZone := p.isKeyword("with")
			if err := p.advance(); err != nil {
				return SQLType{}, err
			}
			if err := p.expectKeyword("time"); err != nil {
				return SQLType{}, err
			}
			if err := p.expectKeyword("zone"); err != nil {
				return SQLType{}, err
			}
			if withZone {
				name += "tz"
			}
		}
	}

	columnType := SQLType{Name: name}
	if p.isPunct("(") {
		if err := p.advance(); err != nil {
			return SQLType{}, err
		}
		first, err := p.parseTypeParam()
		if err != nil {
			return SQLType{}, err
		}
		second := 0
		hasSecond := false
		if p.isPunct(",") {
			if err := p.advance(); err != nil {
				return SQLType{}, err
			}
			if second, err = p.parseTypeParam(); err != nil {
				return SQLType{}, err
			}
			hasSecond = true
		}
		if err := p.expectPunct(")"); err != nil {
			return SQLType{}, err
		}

		switch name {
		case "char", "character", "nchar", "bpchar", "varchar", "character varying", "nvarchar", "text":
			columnType.Length = first
		case "numeric", "decimal":
			columnType.Precision = first
			if hasSecond {
				columnType.Scale = second
			}
		}
	}
	applyTypeDefaults(&columnType)
	return columnType, nil
}

// parseTypeParam reads one type parameter: an integer, or the MAX
// keyword Redshift treats as 65535.
func (p *sqlParser) parseTypeParam() (int, error) {
	if p.isKeyword("max") {
		if err := p.advance(); err != nil {
			return 0, err
		}
		return 65535, nil
	}
	if p.tok.kind != tokenNumber {
		return 0, fmt.Errorf("expected a type parameter at offset %d", p.tok.pos)
	}
	value, err := strconv.Atoi(p.tok.text)
	if err != nil {
		return 0, fmt.Errorf("invalid type parameter %q at offset %d", p.tok.text, p.tok.pos)
	}
	if err := p.advance(); err != nil {
		return 0, err
	}
	return value, nil
}

// applyTypeDefaults fills in the lengths Redshift assigns when DDL
// leaves them out: CHAR defaults to 1, VARCHAR to 256, and BPCHAR and
// TEXT are stored as CHAR(256) and VARCHAR(256). Bare NUMERIC means
// NUMERIC(18,0).
func applyTypeDefaults(t *SQLType) {
	switch t.Name {
	case "char", "character", "nchar":
		if t.Length == 0 {
			t.Length = 1
		}
	case "bpchar", "text":
		if t.Length == 0 {
			t.Length = 256
		}
	case "varchar", "character varying", "nvarchar":
		if t.Length == 0 {
			t.Length = 256
		}
	case "numeric", "decimal":
		if t.Precision == 0 {
			t.Precision = 18
			t.Scale = 0
		}
	}
}

func (p *sqlParser) parseDefaultValue() (interface{}, error) {
	switch p.tok.kind {
	case tokenString:
		value := p.tok.text
		return value, p.advance()
	case tokenNumber:
		text := p.tok.text
		pos := p.tok.pos
		if err := p.advance(); err != nil {
			return nil, err
		}
		return parseNumberLiteral(text, pos)
	case tokenPunct:
		if p.tok.text == "-" || p.tok.text == "+" {
			negative := p.tok.text == "-"
			if err := p.advance(); err != nil {
				return nil, err
			}
			if p.tok.kind != tokenNumber {
				return nil, fmt.Errorf("invalid default value at offset %d", p.tok.pos)
			}
			text := p.tok.text
			pos := p.tok.pos
			if err := p.advance(); err != nil {
				return nil, err
			}
			value, err := parseNumberLiteral(text, pos)
			if err != nil || !negative {
				return value, err
			}
			switch n := value.(type) {
			case int64:
				return -n, nil
			case float64:
				return -n, nil
			}
			return value, nil
		}
	case tokenIdent:
		if p.tok.quoted {
			break
		}
		switch strings.ToLower(p.tok.text) {
		case "null":
			return nil, p.advance()
		case "true":
			return true, p.advance()
		case "false":
			return false, p.advance()
		default:
			// Function defaults such as getdate() have no static value.
			if err := p.advance(); err != nil {
				return nil, err
			}
			if p.isPunct("(") {
				if err := p.skipParens(); err != nil {
					return nil, err
				}
			}
			return nil, nil
		}
	}
	return nil, fmt.Errorf("invalid default value at offset %d", p.tok.pos)
}

func parseNumberLiteral(text string, pos int) (interface{}, error) {
	if !strings.ContainsAny(text, ".eE") {
		if value, err := strconv.ParseInt(text, 10, 64); err == nil {
			return value, nil
		}
	}
	value, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid number %q at offset %d", text, pos)
	}
	return value, nil
}

// parseTableConstraint handles one table-level constraint, returning
// the column names of a PRIMARY KEY clause and nil for the rest.
func (p *sqlParser) parseTableConstraint() ([]string, error) {
	if p.isKeyword("constraint") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if _, err := p.parseName(); err != nil {
			return nil, err
		}
	}
	switch {
	case p.isKeyword("primary"):
		if err := p.advance(); err != nil {
			return nil, err
		}
		if err := p.expectKeyword("key"); err != nil {
			return nil, err
		}
		return p.parseNameList()
	case p.isKeyword("unique"):
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.isPunct("(") {
			if err := p.skipParens(); err != nil {
				return nil, err
			}
		}
		return nil, nil
	case p.isKeyword("foreign"):
		if err := p.advance(); err != nil {
			return nil, err
		}
		if err := p.expectKeyword("key"); err != nil {
			return nil, err
		}
		if err := p.skipParens(); err != nil {
			return nil, err
		}
		if err := p.expectKeyword("references"); err != nil {
			return nil, err
		}
		if _, err := p.parseQualifiedName(); err != nil {
			return nil, err
		}
		if p.isPunct("(") {
			if err := p.skipParens(); err != nil {
				return nil, err
			}
		}
		return nil, nil
	}
	return nil, fmt.Errorf("unsupported table constraint at offset %d", p.tok.pos)
}

func (p *sqlParser) parseNameList() ([]string, error) {
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	var names []string
	for {
		name, err := p.parseName()
		if err != nil {
			return nil, err
		}
		names = append(names, name)
		if p.isPunct(",") {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	return names, nil
}

// skipParens consumes a balanced parenthesized group, including the
// closing parenthesis.
func (p *sqlParser) skipParens() error {
	depth := 0
	for {
		switch {
		case p.tok.kind == tokenEOF:
			return fmt.Errorf("unbalanced parentheses at offset %d", p.tok.pos)
		case p.isPunct("("):
			depth++
		case p.isPunct(")"):
			depth--
			if depth == 0 {
				return p.advance()
			}
		}
		if err := p.advance(); err != nil {
			return err
		}
	}
}

// skipTableSuffix drops the storage attributes that may follow the
// column list: DISTSTYLE, DISTKEY, [COMPOUND|INTERLEAVED] SORTKEY,
// BACKUP and ENCODE. Anything else before the end of the statement is
// an error, as is a second statement after the terminator.
func (p *sqlParser) skipTableSuffix() error {
	for {
		switch {
		case p.tok.kind == tokenEOF:
			return nil
		case p.isPunct(";"):
			if err := p.advance(); err != nil {
				return err
			}
			if p.tok.kind != tokenEOF {
				return fmt.Errorf("expected a single statement, found more input at offset %d", p.tok.pos)
			}
			return nil
		case p.isKeyword("diststyle"), p.isKeyword("backup"), p.isKeyword("encode"):
			if err := p.advance(); err != nil {
				return err
			}
			if _, err := p.parseName(); err != nil {
				return err
			}
		case p.isKeyword("distkey"):
			if err := p.advance(); err != nil {
				return err
			}
			if err := p.skipParens(); err != nil {
				return err
			}
		case p.isKeyword("compound"), p.isKeyword("interleaved"):
			if err := p.advance(); err != nil {
				return err
			}
			if err := p.expectKeyword("sortkey"); err != nil {
				return err
			}
			if err := p.skipParens(); err != nil {
				return err
			}
		case p.isKeyword("sortkey"):
			if err := p.advance(); err != nil {
				return err
			}
			// SORTKEY AUTO has no column list.
			if p.isPunct("(") {
				if err := p.skipParens(); err != nil {
					return err
				}
			} else if _, err := p.parseName(); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unexpected %q after the column list at offset %d", p.tok.text, p.tok.pos)
		}
	}
}
