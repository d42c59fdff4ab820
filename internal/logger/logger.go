package logger

// Diagnostics are formatted to look and feel like clang's error output. Each
// message carries the contents of the offending line, and StderrOptions.ErrorLimit
// (zero means no limit) can cap the error count so a bad input file doesn't
// flood the terminal.

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
)

type Log struct {
	AddMsg    func(Msg)
	HasErrors func() bool
	Done      func() []Msg
}

type LogLevel int8

const (
	LevelNone LogLevel = iota
	LevelInfo
	LevelWarning
	LevelError
	LevelSilent
)

type MsgKind uint8

const (
	Error MsgKind = iota
	Warning
)

type Msg struct {
	Kind     MsgKind
	Text     string
	Location *MsgLocation
}

type MsgLocation struct {
	File     string
	Line     int // 1-based
	Column   int // 0-based, in bytes
	Length   int // in bytes
	LineText string
}

// Loc is the 0-based byte offset of a location from the start of the file.
type Loc struct {
	Start int32
}

type Range struct {
	Loc Loc
	Len int32
}

func (r Range) End() int32 {
	return r.Loc.Start + r.Len
}

// Position is the expanded form of a Loc. Line is 1-based and Column is
// 0-based. The zero value (Line == 0) means "unset", which IsSet reports.
type Position struct {
	Line   int
	Column int
	Index  int
}

func (p Position) IsSet() bool {
	return p.Line != 0
}

// Less orders positions lexicographically by (line, column).
func (p Position) Less(other Position) bool {
	return p.Line < other.Line || (p.Line == other.Line && p.Column < other.Column)
}

type Source struct {
	Index        uint32
	AbsolutePath string
	PrettyPath   string
	Contents     string

	// An identifier that is mixed in to automatically-generated symbol names
	// created for this file. It should be a valid JavaScript identifier.
	IdentifierName string
}

func (s *Source) TextForRange(r Range) string {
	return s.Contents[r.Loc.Start:r.End()]
}

// PositionFor expands a byte offset into a line/column pair.
func (s *Source) PositionFor(loc Loc) Position {
	line, column, _, _ := computeLineAndColumn(s.Contents, int(loc.Start))
	return Position{Line: line + 1, Column: column, Index: int(loc.Start)}
}

func (s *Source) RangeOfString(loc Loc) Range {
	text := s.Contents[loc.Start:]
	if len(text) == 0 {
		return Range{Loc: loc, Len: 0}
	}

	quote := text[0]
	if quote == '"' || quote == '\'' {
		// Search for the matching quote character
		for i := 1; i < len(text); i++ {
			c := text[i]
			if c == quote {
				return Range{Loc: loc, Len: int32(i + 1)}
			} else if c == '\\' {
				i += 1
			}
		}
	}

	return Range{Loc: loc, Len: 0}
}

// This type is just so we can use Go's native sort function
type msgsArray []Msg

func (a msgsArray) Len() int          { return len(a) }
func (a msgsArray) Swap(i int, j int) { a[i], a[j] = a[j], a[i] }

func (a msgsArray) Less(i int, j int) bool {
	ai := a[i]
	aj := a[j]

	li := ai.Location
	lj := aj.Location

	// Location
	if li == nil && lj != nil {
		return true
	}
	if li != nil && lj == nil {
		return false
	}

	if li != nil && lj != nil {
		// File
		if li.File < lj.File {
			return true
		}
		if li.File > lj.File {
			return false
		}

		// Line
		if li.Line < lj.Line {
			return true
		}
		if li.Line > lj.Line {
			return false
		}

		// Column
		if li.Column < lj.Column {
			return true
		}
		if li.Column > lj.Column {
			return false
		}
	}

	// Text
	return ai.Text < aj.Text
}

func plural(prefix string, count int) string {
	if count == 1 {
		return fmt.Sprintf("%d %s", count, prefix)
	}
	return fmt.Sprintf("%d %ss", count, prefix)
}

func errorAndWarningSummary(errors int, warnings int) string {
	switch {
	case errors == 0:
		return plural("warning", warnings)
	case warnings == 0:
		return plural("error", errors)
	default:
		return fmt.Sprintf("%s and %s", plural("warning", warnings), plural("error", errors))
	}
}

type TerminalInfo struct {
	IsTTY           bool
	UseColorEscapes bool
	Width           int
}

type StderrColor uint8

const (
	ColorIfTerminal StderrColor = iota
	ColorNever
	ColorAlways
)

type StderrOptions struct {
	IncludeSource bool
	ErrorLimit    int
	Color         StderrColor
	LogLevel      LogLevel
}

func NewStderrLog(options StderrOptions) Log {
	var mutex sync.Mutex
	var msgs msgsArray
	terminalInfo := GetTerminalInfo(os.Stderr)
	errors := 0
	warnings := 0
	errorLimitWasHit := false

	switch options.Color {
	case ColorNever:
		terminalInfo.UseColorEscapes = false
	case ColorAlways:
		terminalInfo.UseColorEscapes = SupportsColorEscapes
	}

	return Log{
		AddMsg: func(msg Msg) {
			mutex.Lock()
			defer mutex.Unlock()
			msgs = append(msgs, msg)

			// Be silent if we're past the limit so we don't flood the terminal
			if errorLimitWasHit {
				return
			}

			switch msg.Kind {
			case Error:
				errors++
				if options.LogLevel <= LevelError {
					writeStringWithColor(os.Stderr, msg.String(options, terminalInfo))
				}
			case Warning:
				warnings++
				if options.LogLevel <= LevelWarning {
					writeStringWithColor(os.Stderr, msg.String(options, terminalInfo))
				}
			}

			// Silence further output once the error limit is reached
			if options.ErrorLimit != 0 && errors >= options.ErrorLimit {
				errorLimitWasHit = true
				if options.LogLevel <= LevelError {
					writeStringWithColor(os.Stderr, fmt.Sprintf(
						"%s reached (disable the error limit by setting ErrorLimit to 0)\n", errorAndWarningSummary(errors, warnings)))
				}
			}
		},
		HasErrors: func() bool {
			mutex.Lock()
			defer mutex.Unlock()
			return errors > 0
		},
		Done: func() []Msg {
			mutex.Lock()
			defer mutex.Unlock()

			if !errorLimitWasHit && options.LogLevel <= LevelInfo && (warnings != 0 || errors != 0) {
				writeStringWithColor(os.Stderr, fmt.Sprintf("%s\n", errorAndWarningSummary(errors, warnings)))
			}

			sort.Stable(msgs)
			return msgs
		},
	}
}

func PrintErrorToStderr(osArgs []string, text string) {
	options := StderrOptions{IncludeSource: true}
	for _, arg := range osArgs {
		switch arg {
		case "--color=false":
			options.Color = ColorNever
		case "--color=true":
			options.Color = ColorAlways
		}
	}
	log := NewStderrLog(options)
	log.AddMsg(Msg{Kind: Error, Text: text})
	log.Done()
}

func NewDeferLog() Log {
	var msgs msgsArray
	var mutex sync.Mutex
	var hasErrors bool

	return Log{
		AddMsg: func(msg Msg) {
			mutex.Lock()
			defer mutex.Unlock()
			if msg.Kind == Error {
				hasErrors = true
			}
			msgs = append(msgs, msg)
		},
		HasErrors: func() bool {
			mutex.Lock()
			defer mutex.Unlock()
			return hasErrors
		},
		Done: func() []Msg {
			mutex.Lock()
			defer mutex.Unlock()
			sort.Stable(msgs)
			return msgs
		},
	}
}

const colorReset = "\033[0m"
const colorRed = "\033[31m"
const colorMagenta = "\033[35m"
const colorBold = "\033[1m"
const colorResetBold = "\033[0;1m"

func (msg Msg) String(options StderrOptions, terminalInfo TerminalInfo) string {
	kind := "error"
	kindColor := colorRed
	if msg.Kind == Warning {
		kind = "warning"
		kindColor = colorMagenta
	}

	var location string
	if msg.Location != nil {
		loc := msg.Location
		if options.IncludeSource {
			indent := strings.Repeat(" ", loc.Column)
			marker := "^"
			if loc.Length > 1 {
				marker = strings.Repeat("~", loc.Length)
			}
			if terminalInfo.UseColorEscapes {
				location = fmt.Sprintf("%s%s:%d:%d: ", colorBold, loc.File, loc.Line, loc.Column)
				return fmt.Sprintf("%s%s%s: %s%s%s\n%s\n%s%s%s%s\n",
					location, kindColor, kind, colorResetBold, msg.Text, colorReset,
					loc.LineText, indent, colorMagenta, marker, colorReset)
			}
			location = fmt.Sprintf("%s:%d:%d: ", loc.File, loc.Line, loc.Column)
			return fmt.Sprintf("%s%s: %s\n%s\n%s%s\n", location, kind, msg.Text, loc.LineText, indent, marker)
		}
		location = fmt.Sprintf("%s:%d:%d: ", loc.File, loc.Line, loc.Column)
	}

	if terminalInfo.UseColorEscapes {
		return fmt.Sprintf("%s%s%s%s: %s%s%s\n", colorBold, location, kindColor, kind, colorResetBold, msg.Text, colorReset)
	}
	return fmt.Sprintf("%s%s: %s\n", location, kind, msg.Text)
}

func computeLineAndColumn(contents string, offset int) (lineCount int, columnCount int, lineStart int, lineEnd int) {
	var prevCodePoint rune
	if offset > len(contents) {
		offset = len(contents)
	}

	// Scan up to the offset and count lines
	for i, codePoint := range contents[:offset] {
		switch codePoint {
		case '\n':
			lineStart = i + 1
			if prevCodePoint != '\r' {
				lineCount++
			}
		case '\r':
			lineStart = i + 1
			lineCount++
		case '\u2028', '\u2029':
			lineStart = i + 3 // These take three bytes to encode in UTF-8
			lineCount++
		}
		prevCodePoint = codePoint
	}

	// Scan to the end of the line (or end of file if this is the last line)
	lineEnd = len(contents)
loop:
	for i, codePoint := range contents[offset:] {
		switch codePoint {
		case '\r', '\n', ' ', ' ':
			lineEnd = offset + i
			break loop
		}
	}

	columnCount = offset - lineStart
	return
}

func locationOrNil(source *Source, r Range) *MsgLocation {
	if source == nil {
		return nil
	}

	lineCount, columnCount, lineStart, lineEnd := computeLineAndColumn(source.Contents, int(r.Loc.Start))

	return &MsgLocation{
		File:     source.PrettyPath,
		Line:     lineCount + 1, // 0-based to 1-based
		Column:   columnCount,
		Length:   int(r.Len),
		LineText: source.Contents[lineStart:lineEnd],
	}
}

func (log Log) AddError(source *Source, loc Loc, text string) {
	log.AddMsg(Msg{
		Kind:     Error,
		Text:     text,
		Location: locationOrNil(source, Range{Loc: loc}),
	})
}

func (log Log) AddWarning(source *Source, loc Loc, text string) {
	log.AddMsg(Msg{
		Kind:     Warning,
		Text:     text,
		Location: locationOrNil(source, Range{Loc: loc}),
	})
}

func (log Log) AddRangeError(source *Source, r Range, text string) {
	log.AddMsg(Msg{
		Kind:     Error,
		Text:     text,
		Location: locationOrNil(source, r),
	})
}

func (log Log) AddRangeWarning(source *Source, r Range, text string) {
	log.AddMsg(Msg{
		Kind:     Warning,
		Text:     text,
		Location: locationOrNil(source, r),
	})
}
