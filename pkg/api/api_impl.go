package api

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/miroslavpokorny/Njsast/internal/bundler"
	"github.com/miroslavpokorny/Njsast/internal/compressor"
	"github.com/miroslavpokorny/Njsast/internal/config"
	"github.com/miroslavpokorny/Njsast/internal/js_ast"
	"github.com/miroslavpokorny/Njsast/internal/js_parser"
	"github.com/miroslavpokorny/Njsast/internal/js_printer"
	"github.com/miroslavpokorny/Njsast/internal/logger"
	"github.com/miroslavpokorny/Njsast/internal/renamer"
)

func convertMessages(msgs []logger.Msg) (errors []Message, warnings []Message) {
	for _, msg := range msgs {
		out := Message{Text: msg.Text}
		if msg.Location != nil {
			out.File = msg.Location.File
			out.Line = msg.Location.Line
			out.Column = msg.Location.Column
		}
		if msg.Kind == logger.Error {
			errors = append(errors, out)
		} else {
			warnings = append(warnings, out)
		}
	}
	return
}

// Transform parses, optionally compresses and mangles, and reprints a
// single source file.
func Transform(input string, options TransformOptions) TransformResult {
	log := logger.NewDeferLog()
	name := options.SourceName
	if name == "" {
		name = "<stdin>"
	}
	source := logger.Source{
		AbsolutePath:   name,
		PrettyPath:     name,
		Contents:       input,
		IdentifierName: "stdin",
	}

	tree, ok := js_parser.Parse(log, source, js_parser.Options{
		RecoverableErrorsAsWarnings: options.RecoverableErrorsAsWarnings,
	})
	if !ok {
		errors, warnings := convertMessages(log.Done())
		return TransformResult{Errors: errors, Warnings: warnings}
	}

	js_ast.AnalyzeScopes(log, &tree)
	if log.HasErrors() {
		errors, warnings := convertMessages(log.Done())
		return TransformResult{Errors: errors, Warnings: warnings}
	}

	if options.Compress {
		if err := compressor.Compress(&tree, config.DefaultCompressOptions()); err != nil {
			return TransformResult{Errors: []Message{{Text: err.Error(), File: name}}}
		}
	}
	if options.Mangle {
		renamer.Mangle(&tree, nil)
	}

	code := js_printer.Print(&tree, js_printer.Options{Beautify: options.Beautify})
	errors, warnings := convertMessages(log.Done())
	return TransformResult{Code: string(code), Errors: errors, Warnings: warnings}
}

// parseDefineValue accepts the JavaScript literals allowed as global
// defines.
func parseDefineValue(text string) (js_ast.E, error) {
	switch text {
	case "true":
		return &js_ast.EBoolean{Value: true}, nil
	case "false":
		return &js_ast.EBoolean{Value: false}, nil
	case "null":
		return &js_ast.ENull{}, nil
	case "undefined":
		return &js_ast.EUndefined{}, nil
	}
	if len(text) >= 2 && (text[0] == '"' || text[0] == '\'') {
		if text[len(text)-1] == text[0] {
			return &js_ast.EString{Value: text[1 : len(text)-1]}, nil
		}
		return nil, fmt.Errorf("unterminated string in define: %s", text)
	}
	if value, err := strconv.ParseFloat(strings.TrimSpace(text), 64); err == nil {
		return &js_ast.ENumber{Value: value}, nil
	}
	return nil, fmt.Errorf("invalid define value: %s", text)
}

// Bundle links the module graph reachable from the configured entries and
// writes every split through the host.
func Bundle(host BundlerHost, options BundleOptions) error {
	defines := map[string]js_ast.E{}
	for name, text := range options.GlobalDefines {
		value, err := parseDefineValue(text)
		if err != nil {
			return err
		}
		defines[name] = value
	}

	var compress *config.CompressOptions
	if options.Compress {
		c := config.DefaultCompressOptions()
		compress = &c
	}

	log := logger.NewStderrLog(logger.StderrOptions{IncludeSource: true})
	return bundler.Bundle(log, host, config.Options{
		Mangle:             options.Mangle,
		CompressOptions:    compress,
		OutputOptions:      config.OutputOptions{Beautify: options.Beautify},
		GlobalDefines:      defines,
		PartToMainFilesMap: options.PartToMainFilesMap,
	})
}
