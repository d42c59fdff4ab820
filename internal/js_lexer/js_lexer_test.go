package js_lexer

import (
	"testing"

	"github.com/miroslavpokorny/Njsast/internal/logger"
	"github.com/miroslavpokorny/Njsast/internal/test"
)

func lexerForTest(t *testing.T, contents string) Lexer {
	t.Helper()
	log := logger.NewDeferLog()
	return NewLexer(log, test.SourceForTest(contents))
}

func expectLexerError(t *testing.T, contents string, expectedText string) {
	t.Helper()
	t.Run(contents, func(t *testing.T) {
		t.Helper()
		log := logger.NewDeferLog()

		func() {
			defer func() {
				r := recover()
				if _, ok := r.(LexerPanic); r != nil && !ok {
					panic(r)
				}
			}()
			lexer := NewLexer(log, test.SourceForTest(contents))
			for lexer.Token != TEndOfFile {
				lexer.Next()
			}
		}()

		msgs := log.Done()
		if len(msgs) == 0 {
			t.Fatal("expected an error")
		}
		test.AssertEqual(t, msgs[0].Text, expectedText)
	})
}

func expectNumber(t *testing.T, contents string, expected float64) {
	t.Helper()
	t.Run(contents, func(t *testing.T) {
		t.Helper()
		lexer := lexerForTest(t, contents)
		test.AssertEqual(t, lexer.Token, TNumericLiteral)
		test.AssertEqual(t, lexer.Number, expected)
	})
}

func expectString(t *testing.T, contents string, expected string) {
	t.Helper()
	t.Run(contents, func(t *testing.T) {
		t.Helper()
		lexer := lexerForTest(t, contents)
		test.AssertEqual(t, lexer.Token, TStringLiteral)
		test.AssertEqual(t, lexer.StringLiteral, expected)
	})
}

func TestTokens(t *testing.T) {
	expected := []struct {
		contents string
		token    T
	}{
		{"", TEndOfFile},
		{"\x00", TSyntaxError},

		// Punctuation
		{"(", TOpenParen},
		{")", TCloseParen},
		{"[", TOpenBracket},
		{"]", TCloseBracket},
		{"{", TOpenBrace},
		{"}", TCloseBrace},
		{"...", TDotDotDot},
		{"=>", TEqualsGreaterThan},
		{"**", TAsteriskAsterisk},
		{"**=", TAsteriskAsteriskEquals},
		{">>>", TGreaterThanGreaterThanGreaterThan},
		{">>>=", TGreaterThanGreaterThanGreaterThanEquals},

		// Identifiers and keywords
		{"name", TIdentifier},
		{"if", TIf},
		{"instanceof", TInstanceof},
		{"\\u0069f", TIdentifier}, // an escaped keyword stays an identifier
	}

	for _, it := range expected {
		t.Run(it.contents, func(t *testing.T) {
			log := logger.NewDeferLog()
			func() {
				defer func() {
					recover()
				}()
				lexer := NewLexer(log, test.SourceForTest(it.contents))
				test.AssertEqual(t, lexer.Token, it.token)
			}()
		})
	}
}

func TestNumericLiterals(t *testing.T) {
	expectNumber(t, "0", 0)
	expectNumber(t, "123", 123)
	expectNumber(t, "123.456", 123.456)
	expectNumber(t, ".5", 0.5)
	expectNumber(t, "1e3", 1000)
	expectNumber(t, "1E3", 1000)
	expectNumber(t, "1e-2", 0.01)
	expectNumber(t, "1e+2", 100)
	expectNumber(t, "0x10", 16)
	expectNumber(t, "0XFF", 255)
	expectNumber(t, "0o17", 15)
	expectNumber(t, "0b101", 5)

	expectLexerError(t, "01", "Legacy octal literals are not supported")
	expectLexerError(t, "08", "Invalid number")
}

func TestStringLiterals(t *testing.T) {
	expectString(t, "'abc'", "abc")
	expectString(t, "\"abc\"", "abc")
	expectString(t, "'a\\nb'", "a\nb")
	expectString(t, "'a\\tb'", "a\tb")
	expectString(t, "'\\x41'", "A")
	expectString(t, "'\\u0041'", "A")
	expectString(t, "'\\u{1F600}'", "\U0001F600")
	expectString(t, "'quote \\''", "quote '")
	expectString(t, "'line \\\ncontinues'", "line continues")

	expectLexerError(t, "'unterminated", "Unterminated string literal")
	expectLexerError(t, "'newline\n'", "Unterminated string literal")
}

func TestTemplateLiterals(t *testing.T) {
	t.Run("no substitution", func(t *testing.T) {
		lexer := lexerForTest(t, "`abc`")
		test.AssertEqual(t, lexer.Token, TNoSubstitutionTemplateLiteral)
		test.AssertEqual(t, lexer.StringLiteral, "abc")
	})
	t.Run("head", func(t *testing.T) {
		lexer := lexerForTest(t, "`a${b}c`")
		test.AssertEqual(t, lexer.Token, TTemplateHead)
		test.AssertEqual(t, lexer.StringLiteral, "a")
	})
	t.Run("cr normalization", func(t *testing.T) {
		lexer := lexerForTest(t, "`a\r\nb`")
		test.AssertEqual(t, lexer.StringLiteral, "a\nb")
	})
}

func TestRegExpScan(t *testing.T) {
	lexer := lexerForTest(t, "/ab[/]c/gi")
	// The lexer first reports a plain slash; the parser requests the rescan
	test.AssertEqual(t, lexer.Token, TSlash)
	lexer.ScanRegExp()
	test.AssertEqual(t, lexer.Token, TRegExpLiteral)
	test.AssertEqual(t, lexer.RegExpPattern, "ab[/]c")
	test.AssertEqual(t, lexer.RegExpFlags, "gi")
}

func TestSemicolonInsertion(t *testing.T) {
	lexer := lexerForTest(t, "a\nb")
	test.AssertEqual(t, lexer.Token, TIdentifier)
	lexer.Next()
	test.AssertEqual(t, lexer.HasNewlineBefore, true)
	test.AssertEqual(t, lexer.CanInsertSemicolon(), true)

	lexer = lexerForTest(t, "a b")
	lexer.Next()
	test.AssertEqual(t, lexer.HasNewlineBefore, false)
	test.AssertEqual(t, lexer.CanInsertSemicolon(), false)

	lexer = lexerForTest(t, "a")
	lexer.Next()
	test.AssertEqual(t, lexer.Token, TEndOfFile)
	test.AssertEqual(t, lexer.CanInsertSemicolon(), true)
}

func TestIsIdentifier(t *testing.T) {
	test.AssertEqual(t, IsIdentifier("abc"), true)
	test.AssertEqual(t, IsIdentifier("$dollar"), true)
	test.AssertEqual(t, IsIdentifier("_under"), true)
	test.AssertEqual(t, IsIdentifier("a1"), true)
	test.AssertEqual(t, IsIdentifier("1a"), false)
	test.AssertEqual(t, IsIdentifier(""), false)
	test.AssertEqual(t, IsIdentifier("a-b"), false)
	test.AssertEqual(t, IsIdentifier("日本語"), true)
}
