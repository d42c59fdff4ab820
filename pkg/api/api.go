// Package api is the public programmatic surface: single-file transforms
// and whole-graph bundling.
package api

type Message struct {
	Text   string
	File   string
	Line   int // 1-based
	Column int // 0-based
}

type TransformOptions struct {
	// A name for the input, used in error messages
	SourceName string

	Compress bool
	Mangle   bool
	Beautify bool

	// Report recoverable parse errors as warnings instead of failing
	RecoverableErrorsAsWarnings bool
}

type TransformResult struct {
	Code     string
	Errors   []Message
	Warnings []Message
}

// BundlerHost provides file content and require resolution to Bundle.
type BundlerHost interface {
	ReadContent(name string) (content string, ok bool)
	GetPlainJsDependencies(name string) []string
	ResolveRequire(spec string, from string) string
	GenerateBundleName(logicalName string) string
	JsHeaders(splitName string, needsImport bool) string
	WriteBundle(name string, content string)
}

type BundleOptions struct {
	// Bundle short name to entry files; the split named "bundle" is the
	// eager main split
	PartToMainFilesMap map[string][]string

	// Identifier reads replaced with constants before compression. Values
	// are JavaScript literals: true, false, null, a number, or a quoted
	// string.
	GlobalDefines map[string]string

	Compress bool
	Mangle   bool
	Beautify bool
}
