package main

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
	"gopkg.in/yaml.v3"

	"github.com/miroslavpokorny/Njsast/pkg/api"
)

const helpText = `
Usage:
  njsast bundle [options]       Bundle per the project config
  njsast transform [options]    Read stdin, write transformed JS to stdout

Options:
  --config=...   Project config file (default njsast.yaml)
  --watch        Rebuild when a source file changes (bundle only)
  --verbose      Operational logging to stderr
  --minify       Enable compression and identifier mangling
  --beautify     Indented output
`

var log = commonlog.GetLogger("njsast.cli")

// projectConfig is the njsast.yaml schema.
type projectConfig struct {
	Splits   map[string][]string `yaml:"splits"`
	Defines  map[string]string   `yaml:"defines"`
	Compress bool                `yaml:"compress"`
	Mangle   bool                `yaml:"mangle"`
	Beautify bool                `yaml:"beautify"`
	OutDir   string              `yaml:"outdir"`
	SrcDir   string              `yaml:"srcdir"`
}

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, helpText)
		os.Exit(1)
	}

	command := args[0]
	configPath := "njsast.yaml"
	watch := false
	verbose := false
	minify := false
	beautify := false

	for _, arg := range args[1:] {
		switch {
		case strings.HasPrefix(arg, "--config="):
			configPath = arg[len("--config="):]
		case arg == "--watch":
			watch = true
		case arg == "--verbose":
			verbose = true
		case arg == "--minify":
			minify = true
		case arg == "--beautify":
			beautify = true
		default:
			fmt.Fprintf(os.Stderr, "Unknown flag %q\n%s", arg, helpText)
			os.Exit(1)
		}
	}

	verbosity := 0
	if verbose {
		verbosity = 2
	}
	commonlog.Configure(verbosity, nil)

	switch command {
	case "transform":
		runTransform(minify, beautify)

	case "bundle":
		project, err := loadConfig(configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "njsast: %v\n", err)
			os.Exit(1)
		}
		if minify {
			project.Compress = true
			project.Mangle = true
		}
		if beautify {
			project.Beautify = true
		}

		if err := runBundle(project); err != nil {
			fmt.Fprintf(os.Stderr, "njsast: %v\n", err)
			os.Exit(1)
		}
		if watch {
			if err := watchAndRebuild(project); err != nil {
				fmt.Fprintf(os.Stderr, "njsast: %v\n", err)
				os.Exit(1)
			}
		}

	default:
		fmt.Fprint(os.Stderr, helpText)
		os.Exit(1)
	}
}

func loadConfig(configPath string) (*projectConfig, error) {
	content, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("cannot read config: %w", err)
	}
	project := &projectConfig{}
	if err := yaml.Unmarshal(content, project); err != nil {
		return nil, fmt.Errorf("cannot parse %s: %w", configPath, err)
	}
	if len(project.Splits) == 0 {
		return nil, fmt.Errorf("%s: no splits configured", configPath)
	}
	if project.OutDir == "" {
		project.OutDir = "dist"
	}
	if project.SrcDir == "" {
		project.SrcDir = "."
	}
	return project, nil
}

func runTransform(minify bool, beautify bool) {
	input, err := readAll(os.Stdin)
	if err != nil {
		fmt.Fprintf(os.Stderr, "njsast: %v\n", err)
		os.Exit(1)
	}

	result := api.Transform(input, api.TransformOptions{
		Compress: minify,
		Mangle:   minify,
		Beautify: beautify,
	})
	for _, msg := range result.Errors {
		fmt.Fprintf(os.Stderr, "%s:%d:%d: error: %s\n", msg.File, msg.Line, msg.Column, msg.Text)
	}
	if len(result.Errors) > 0 {
		os.Exit(1)
	}
	os.Stdout.WriteString(result.Code)
}

func readAll(f *os.File) (string, error) {
	content, err := io.ReadAll(f)
	return string(content), err
}

func runBundle(project *projectConfig) error {
	host := &fsHost{project: project}
	err := api.Bundle(host, api.BundleOptions{
		PartToMainFilesMap: project.Splits,
		GlobalDefines:      project.Defines,
		Compress:           project.Compress,
		Mangle:             project.Mangle,
		Beautify:           project.Beautify,
	})
	if err == nil {
		log.Infof("wrote %d bundle(s) to %s", len(host.written), project.OutDir)
	}
	return err
}

func watchAndRebuild(project *projectConfig) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	err = filepath.WalkDir(project.SrcDir, func(walkPath string, entry os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			name := entry.Name()
			if name == "node_modules" || name == ".git" || walkPath == project.OutDir {
				return filepath.SkipDir
			}
			return watcher.Add(walkPath)
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Info("watching for changes")
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if !strings.HasSuffix(event.Name, ".js") && !strings.HasSuffix(event.Name, ".json") {
				continue
			}
			log.Infof("%s changed, rebuilding", event.Name)
			if err := runBundle(project); err != nil {
				log.Errorf("rebuild failed: %v", err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Errorf("watch error: %v", err)
		}
	}
}

// fsHost is the file-system bundler host used by the CLI.
type fsHost struct {
	project *projectConfig
	written []string
}

func (h *fsHost) ReadContent(name string) (string, bool) {
	content, err := os.ReadFile(filepath.Join(h.project.SrcDir, filepath.FromSlash(name)))
	if err != nil {
		return "", false
	}
	return string(content), true
}

func (h *fsHost) GetPlainJsDependencies(name string) []string {
	return nil
}

func (h *fsHost) ResolveRequire(spec string, from string) string {
	resolved := spec
	if strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../") {
		resolved = path.Join(path.Dir(from), spec)
	}
	if path.Ext(resolved) == "" {
		resolved += ".js"
	}
	return resolved
}

func (h *fsHost) GenerateBundleName(logicalName string) string {
	return logicalName + ".js"
}

func (h *fsHost) JsHeaders(splitName string, needsImport bool) string {
	if !needsImport && splitName == "bundle" {
		return ""
	}
	// The real runtime is host-specific; this standalone loader resolves
	// intra-bundle lazy imports and fetches other splits via dynamic
	// script loading in the browser
	return "var __splitExports=__splitExports||{},__splitLoads=__splitLoads||{};" +
		"function __export(prop,value){__splitExports[prop]=value}" +
		"function __loadSplit(split){if(split===void 0)return Promise.resolve();" +
		"return __splitLoads[split]||(__splitLoads[split]=new Promise(function(resolve,reject){" +
		"var s=document.createElement(\"script\");s.src=split+\".js\";s.onload=resolve;s.onerror=reject;" +
		"document.head.appendChild(s)}))}" +
		"function __import(split,prop){return __loadSplit(split).then(function(){return __splitExports[prop]})}\n"
}

func (h *fsHost) WriteBundle(name string, content string) {
	outPath := filepath.Join(h.project.OutDir, name)
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		log.Errorf("cannot create %s: %v", filepath.Dir(outPath), err)
		return
	}
	if err := os.WriteFile(outPath, []byte(content), 0o644); err != nil {
		log.Errorf("cannot write %s: %v", outPath, err)
		return
	}
	h.written = append(h.written, outPath)
}
