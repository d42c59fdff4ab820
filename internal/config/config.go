package config

import (
	"github.com/miroslavpokorny/Njsast/internal/js_ast"
)

// CompressOptions enumerates the individual compressor passes. The zero
// value disables everything; use DefaultCompressOptions for the normal set.
type CompressOptions struct {
	EnableUnreachableCodeElimination bool
	EnableEmptyStatementElimination  bool
	EnableBlockElimination           bool
	EnableBooleanCompress            bool
	EnableFunctionReturnCompress     bool
	EnableVariableHoisting           bool

	// The fixed-point driver stops after this many passes even if the tree
	// is still changing
	MaxPasses uint32
}

func DefaultCompressOptions() CompressOptions {
	return CompressOptions{
		EnableUnreachableCodeElimination: true,
		EnableEmptyStatementElimination:  true,
		EnableBlockElimination:           true,
		EnableBooleanCompress:            true,
		EnableFunctionReturnCompress:     true,
		EnableVariableHoisting:           true,
		MaxPasses:                        10,
	}
}

type OutputOptions struct {
	Beautify bool
}

// Options configures one bundler or transform run.
type Options struct {
	Mangle          bool
	CompressOptions *CompressOptions
	OutputOptions   OutputOptions

	// Identifier reads replaced with constants everywhere before compression
	GlobalDefines map[string]js_ast.E

	// Bundle short name to the list of entry files for that bundle. The
	// bundle named "bundle" is the main split.
	PartToMainFilesMap map[string][]string
}

// MainSplitName is the short name of the eagerly-loaded split.
const MainSplitName = "bundle"
