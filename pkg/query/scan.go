package query

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// Prefilters gating the token scan. Both are intentionally loose: they may
// match inside strings or backticked identifiers, in which case the token
// scan makes the final call. Their only job is to keep the common case, a
// statement without either construct, off the tokenizer.
var (
	reCallInTransactions = regexp.MustCompile(`(?is)\bCALL\b.*\bIN\b.*\bTRANSACTIONS\b`)
	rePeriodicCommit     = regexp.MustCompile(`(?i)\bUSING\s+PERIODIC\s+COMMIT\b`)
)

// TransactionModeFor classifies a statement's transaction mode. A
// statement runs implicitly if and only if it contains CALL {..} IN
// TRANSACTIONS or USING PERIODIC COMMIT outside of backticked
// identifiers, string literals, and comments. A statement the scanner
// cannot tokenize defaults to managed; the database will report the real
// error when the statement executes.
func TransactionModeFor(text string) TransactionMode {
	if !reCallInTransactions.MatchString(text) && !rePeriodicCommit.MatchString(text) {
		return ModeManaged
	}
	tokens, err := tokenize(text)
	if err != nil {
		return ModeManaged
	}
	if containsImplicitConstruct(tokens) {
		return ModeImplicit
	}
	return ModeManaged
}

// token is a lexical unit of a Cypher statement. Word tokens are
// uppercased; identifier tokens (backticked) keep kind tokenIdent so the
// construct scan never mistakes them for keywords.
type token struct {
	kind tokenKind
	text string
}

type tokenKind int

const (
	tokenWord tokenKind = iota
	tokenIdent
	tokenSymbol
)

// tokenize splits a Cypher statement into tokens, consuming string
// literals, backticked identifiers, and comments whole. It returns an
// error for unterminated literals or comments.
func tokenize(text string) ([]token, error) {
	var tokens []token
	runes := []rune(text)
	i := 0
	for i < len(runes) {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++

		case r == '\'' || r == '"':
			end, err := consumeString(runes, i)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, token{kind: tokenIdent, text: string(runes[i:end])})
			i = end

		case r == '`':
			end, err := consumeBacktick(runes, i)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, token{kind: tokenIdent, text: string(runes[i:end])})
			i = end

		case r == '/' && i+1 < len(runes) && runes[i+1] == '/':
			for i < len(runes) && runes[i] != '\n' {
				i++
			}

		case r == '/' && i+1 < len(runes) && runes[i+1] == '*':
			end := indexFrom(runes, i+2, "*/")
			if end < 0 {
				return nil, fmt.Errorf("unterminated block comment at offset %d", i)
			}
			i = end + 2

		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '$':
			start := i
			for i < len(runes) && (unicode.IsLetter(runes[i]) || unicode.IsDigit(runes[i]) || runes[i] == '_' || runes[i] == '$' || runes[i] == '.') {
				i++
			}
			tokens = append(tokens, token{kind: tokenWord, text: strings.ToUpper(string(runes[start:i]))})

		default:
			tokens = append(tokens, token{kind: tokenSymbol, text: string(r)})
			i++
		}
	}
	return tokens, nil
}

// consumeString consumes a quoted string literal starting at i, honoring
// backslash escapes. Returns the index just past the closing quote.
func consumeString(runes []rune, i int) (int, error) {
	quote := runes[i]
	j := i + 1
	for j < len(runes) {
		switch runes[j] {
		case '\\':
			j += 2
		case quote:
			return j + 1, nil
		default:
			j++
		}
	}
	return 0, fmt.Errorf("unterminated string literal at offset %d", i)
}

// consumeBacktick consumes a backticked identifier starting at i. A
// doubled backtick inside the identifier escapes a literal backtick.
// Returns the index just past the closing backtick.
func consumeBacktick(runes []rune, i int) (int, error) {
	j := i + 1
	for j < len(runes) {
		if runes[j] == '`' {
			if j+1 < len(runes) && runes[j+1] == '`' {
				j += 2
				continue
			}
			return j + 1, nil
		}
		j++
	}
	return 0, fmt.Errorf("unterminated backticked identifier at offset %d", i)
}

// indexFrom finds the substring sub in runes at or after start, returning
// the rune index or -1.
func indexFrom(runes []rune, start int, sub string) int {
	idx := strings.Index(string(runes[start:]), sub)
	if idx < 0 {
		return -1
	}
	return start + len([]rune(string(runes[start:])[:idx]))
}

// containsImplicitConstruct scans the token stream for either construct
// that forces an implicit transaction.
func containsImplicitConstruct(tokens []token) bool {
	for i := 0; i < len(tokens); i++ {
		t := tokens[i]
		if t.kind != tokenWord {
			continue
		}
		switch t.text {
		case "USING":
			if wordAt(tokens, i+1, "PERIODIC") && wordAt(tokens, i+2, "COMMIT") {
				return true
			}
		case "CALL":
			if end, ok := matchSubqueryBlock(tokens, i+1); ok {
				if wordAt(tokens, end, "IN") && (wordAt(tokens, end+1, "TRANSACTIONS") || isConcurrentTransactions(tokens, end+1)) {
					return true
				}
			}
		}
	}
	return false
}

// matchSubqueryBlock matches a braced subquery starting at index i,
// skipping an optional variable-scope clause "(...)" before the opening
// brace. Returns the index just past the matching close brace.
func matchSubqueryBlock(tokens []token, i int) (int, bool) {
	// CALL (n) { ... } form: skip the scope parens.
	if symbolAt(tokens, i, "(") {
		depth := 0
		for ; i < len(tokens); i++ {
			if symbolAt(tokens, i, "(") {
				depth++
			} else if symbolAt(tokens, i, ")") {
				depth--
				if depth == 0 {
					i++
					break
				}
			}
		}
	}
	if !symbolAt(tokens, i, "{") {
		return 0, false
	}
	depth := 0
	for ; i < len(tokens); i++ {
		if symbolAt(tokens, i, "{") {
			depth++
		} else if symbolAt(tokens, i, "}") {
			depth--
			if depth == 0 {
				return i + 1, true
			}
		}
	}
	return 0, false
}

// isConcurrentTransactions matches the CONCURRENT TRANSACTIONS variant
// at tokens[i], with or without a leading concurrency count.
func isConcurrentTransactions(tokens []token, i int) bool {
	if wordAt(tokens, i, "CONCURRENT") && wordAt(tokens, i+1, "TRANSACTIONS") {
		return true
	}
	return wordAt(tokens, i+1, "CONCURRENT") && wordAt(tokens, i+2, "TRANSACTIONS")
}

func wordAt(tokens []token, i int, text string) bool {
	return i >= 0 && i < len(tokens) && tokens[i].kind == tokenWord && tokens[i].text == text
}

func symbolAt(tokens []token, i int, text string) bool {
	return i >= 0 && i < len(tokens) && tokens[i].kind == tokenSymbol && tokens[i].text == text
}
