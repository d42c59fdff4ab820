package js_lexer

import (
	"strconv"
)

// parseNumericLiteralOrDot scans a numeric literal. The current code point is
// either a digit or a "." followed by a digit. Supports 0x/0o/0b prefixes,
// legacy octal detection, and scientific notation.
func (lexer *Lexer) parseNumericLiteralOrDot() {
	// Number or dot
	first := lexer.codePoint
	lexer.step()

	// Dot without a digit after it
	if first == '.' && (lexer.codePoint < '0' || lexer.codePoint > '9') {
		lexer.Token = TDot
		return
	}

	base := float64(0)

	// Every numeric literal lexes as a number; there is no bigint token
	lexer.Token = TNumericLiteral

	// Check for binary, octal, or hexadecimal literal
	if first == '0' {
		switch lexer.codePoint {
		case 'b', 'B':
			base = 2

		case 'o', 'O':
			base = 8

		case 'x', 'X':
			base = 16

		case '0', '1', '2', '3', '4', '5', '6', '7':
			// Legacy octal literals are disallowed; they're an ES5 leftover
			// that contradicts strict mode
			lexer.addRangeError(lexer.Range(), "Legacy octal literals are not supported")
			panic(LexerPanic{})

		case '8', '9':
			lexer.addRangeError(lexer.Range(), "Invalid number")
			panic(LexerPanic{})
		}
	}

	if base != 0 {
		lexer.Number = 0
		lexer.step()

		sawDigit := false
		for {
			digit := hexDigit(lexer.codePoint)
			if digit < 0 || float64(digit) >= base {
				break
			}
			sawDigit = true
			lexer.Number = lexer.Number*base + float64(digit)
			lexer.step()
		}
		if !sawDigit {
			lexer.SyntaxError()
		}
	} else {
		// Scan over the integer part
		for lexer.codePoint >= '0' && lexer.codePoint <= '9' {
			lexer.step()
		}

		// Scan over the fractional part
		if lexer.codePoint == '.' {
			lexer.step()
			for lexer.codePoint >= '0' && lexer.codePoint <= '9' {
				lexer.step()
			}
		}

		// Scan over the exponent part
		if lexer.codePoint == 'e' || lexer.codePoint == 'E' {
			lexer.step()
			if lexer.codePoint == '+' || lexer.codePoint == '-' {
				lexer.step()
			}
			if lexer.codePoint < '0' || lexer.codePoint > '9' {
				lexer.SyntaxError()
			}
			for lexer.codePoint >= '0' && lexer.codePoint <= '9' {
				lexer.step()
			}
		}

		text := lexer.source.Contents[lexer.start:lexer.end]
		value, err := strconv.ParseFloat(text, 64)
		if err != nil {
			// Overflow rounds to +/-Infinity, which is fine
			if numErr, ok := err.(*strconv.NumError); !ok || numErr.Err != strconv.ErrRange {
				lexer.addRangeError(lexer.Range(), "Invalid number")
				panic(LexerPanic{})
			}
		}
		lexer.Number = value
	}

	lexer.NumberRaw = lexer.source.Contents[lexer.start:lexer.end]

	// An identifier can't occur immediately after a number
	if IsIdentifierStart(lexer.codePoint) {
		lexer.SyntaxError()
	}
}
