package lexer

import "fmt"

const (
	// Special
	EOF     = "EOF"
	ILLEGAL = "ILLEGAL"

	// Literals
	IDENT = "IDENT" // identifiers: x, sum, arr, …
	INT   = "INT"   // integer literals: 0, 42, …
	FLOAT = "FLOAT" // float literals: 3.14, 0.5, …

	// Keywords
	IF     = "IF"
	ELSE   = "ELSE"
	WHILE  = "WHILE"
	FOR    = "FOR"
	RETURN = "RETURN"

	// Type keywords
	INT_TYPE   = "INT_TYPE"
	FLOAT_TYPE = "FLOAT_TYPE"
	VOID       = "VOID"

	// Delimiters
	LPAREN    = "LPAREN"    // (
	RPAREN    = "RPAREN"    // )
	LBRACE    = "LBRACE"    // {
	RBRACE    = "RBRACE"    // }
	LBRACKET  = "LBRACKET"  // [
	RBRACKET  = "RBRACKET"  // ]
	SEMICOLON = "SEMICOLON" // ;
	COMMA     = "COMMA"     // ,

	// Operators
	ASSIGN  = "ASSIGN"  // =
	PLUS    = "PLUS"    // +
	MINUS   = "MINUS"   // -
	STAR    = "STAR"    // *
	SLASH   = "SLASH"   // /
	PERCENT = "PERCENT" // %
	BANG    = "BANG"    // !

	// Comparison operators
	EQ  = "EQ"  // ==
	NEQ = "NEQ" // !=
	LT  = "LT"  // <
	GT  = "GT"  // >
	LTE = "LTE" // <=
	GTE = "GTE" // >=

	// Logical operators
	AND = "AND" // &&
	OR  = "OR"  // ||
)

// keywords maps reserved words to their token types.
var keywords = map[string]string{
	"if":     IF,
	"else":   ELSE,
	"while":  WHILE,
	"for":    FOR,
	"return": RETURN,
	"int":    INT_TYPE,
	"float":  FLOAT_TYPE,
	"void":   VOID,
}

// Token represents a single lexical token produced by the lexer.
type Token struct {
	Type   string
	Value  string
	Line   int
	Column int
}

// LexError represents a recoverable error encountered during lexing.
type LexError struct {
	Message string
	Lexeme  string
	Line    int
	Column  int
}

func (e LexError) Error() string {
	return fmt.Sprintf("line %d, col %d: %s (got %q)", e.Line, e.Column, e.Message, e.Lexeme)
}

// Lex tokenizes the given source text. It returns the token stream
// (terminated by an EOF token) and any recoverable errors encountered along
// the way, e.g. stray characters or unterminated block comments.
func Lex(input string) ([]Token, []LexError) {
	var tokens []Token
	var errors []LexError
	line, col, i := 1, 1, 0

	for i < len(input) {
		ch := input[i]
		if isWhitespace(ch) {
			if ch == '\n' {
				line++
				col = 1
			} else if ch != '\r' {
				col++
			}
			i++
			continue
		}

		// Ignore comments
		if ch == '/' && i+1 < len(input) {
			// Single-line comment: // …
			if input[i+1] == '/' {
				i, col = skipLineComment(input, i, col)
				continue
			}
			// Multi-line comment: /* … */
			if input[i+1] == '*' {
				var err *LexError
				i, line, col, err = skipBlockComment(input, i, line, col)
				if err != nil {
					errors = append(errors, *err)
				}
				continue
			}
		}

		// Numbers
		if isDigit(ch) {
			tok, newI, newCol := lexNumber(input, i, line, col)
			tokens = append(tokens, tok)
			i, col = newI, newCol
			continue
		}

		// Keywords and identifiers
		if isIdentStart(ch) {
			tok, newI, newCol := lexIdentifier(input, i, line, col)
			tokens = append(tokens, tok)
			i, col = newI, newCol
			continue
		}

		// Multi-character and single-character operators / delimiters
		if tok, width := lexOperatorOrDelimiter(input, i, line, col); width > 0 {
			tokens = append(tokens, tok)
			i += width
			col += width
			continue
		}

		// Unknown characters
		errors = append(errors, LexError{
			Message: "unexpected character",
			Lexeme:  string(ch),
			Line:    line,
			Column:  col,
		})
		i++
		col++
	}

	tokens = append(tokens, Token{EOF, "", line, col})
	return tokens, errors
}

func skipLineComment(input string, i int, col int) (int, int) {
	for i < len(input) && input[i] != '\n' {
		i++
		col++
	}
	return i, col
}

func skipBlockComment(input string, i int, line int, col int) (int, int, int, *LexError) {
	startLine, startCol := line, col
	// Skip the opening /*
	i += 2
	col += 2

	for i < len(input) {
		if input[i] == '*' && i+1 < len(input) && input[i+1] == '/' {
			i += 2
			col += 2
			return i, line, col, nil
		}
		if input[i] == '\n' {
			line++
			col = 1
		} else if input[i] != '\r' {
			col++
		}
		i++
	}

	return i, line, col, &LexError{
		Message: "unterminated block comment",
		Lexeme:  "/*",
		Line:    startLine,
		Column:  startCol,
	}
}

// lexNumber scans an integer or float literal. A single '.' followed by a
// digit switches the token to FLOAT.
func lexNumber(input string, start int, line int, col int) (Token, int, int) {
	i := start
	typ := INT
	for i < len(input) && isDigit(input[i]) {
		i++
	}
	if i < len(input) && input[i] == '.' && i+1 < len(input) && isDigit(input[i+1]) {
		typ = FLOAT
		i++
		for i < len(input) && isDigit(input[i]) {
			i++
		}
	}
	value := input[start:i]
	return Token{typ, value, line, col}, i, col + len(value)
}

func lexIdentifier(input string, start int, line int, col int) (Token, int, int) {
	i := start
	for i < len(input) && isIdentPart(input[i]) {
		i++
	}
	value := input[start:i]
	typ := IDENT
	if kw, ok := keywords[value]; ok {
		typ = kw
	}
	return Token{typ, value, line, col}, i, col + len(value)
}

// lexOperatorOrDelimiter matches the longest operator or delimiter at the
// current position. It returns a zero width when nothing matches.
func lexOperatorOrDelimiter(input string, i int, line int, col int) (Token, int) {
	two := ""
	if i+1 < len(input) {
		two = input[i : i+2]
	}
	switch two {
	case "==":
		return Token{EQ, two, line, col}, 2
	case "!=":
		return Token{NEQ, two, line, col}, 2
	case "<=":
		return Token{LTE, two, line, col}, 2
	case ">=":
		return Token{GTE, two, line, col}, 2
	case "&&":
		return Token{AND, two, line, col}, 2
	case "||":
		return Token{OR, two, line, col}, 2
	}

	one := string(input[i])
	switch one {
	case "(":
		return Token{LPAREN, one, line, col}, 1
	case ")":
		return Token{RPAREN, one, line, col}, 1
	case "{":
		return Token{LBRACE, one, line, col}, 1
	case "}":
		return Token{RBRACE, one, line, col}, 1
	case "[":
		return Token{LBRACKET, one, line, col}, 1
	case "]":
		return Token{RBRACKET, one, line, col}, 1
	case ";":
		return Token{SEMICOLON, one, line, col}, 1
	case ",":
		return Token{COMMA, one, line, col}, 1
	case "=":
		return Token{ASSIGN, one, line, col}, 1
	case "+":
		return Token{PLUS, one, line, col}, 1
	case "-":
		return Token{MINUS, one, line, col}, 1
	case "*":
		return Token{STAR, one, line, col}, 1
	case "/":
		return Token{SLASH, one, line, col}, 1
	case "%":
		return Token{PERCENT, one, line, col}, 1
	case "!":
		return Token{BANG, one, line, col}, 1
	case "<":
		return Token{LT, one, line, col}, 1
	case ">":
		return Token{GT, one, line, col}, 1
	}
	return Token{}, 0
}

func isWhitespace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r'
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}
