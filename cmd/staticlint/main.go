// The application provides a custom Go static analysis tool that combines
// standard analyzers from the Go toolchain, third-party analyzers, and a
// project-specific analyzer into a single `multichecker.Main` invocation.
//
// The staticcheck analyzer list can be extended via an optional config file
// (config.json) placed next to the binary; when the file is absent, a default
// set of "SA" analyzers is enabled.
package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/multichecker"
	"golang.org/x/tools/go/analysis/passes/copylock"
	"golang.org/x/tools/go/analysis/passes/loopclosure"
	"golang.org/x/tools/go/analysis/passes/lostcancel"
	"golang.org/x/tools/go/analysis/passes/printf"
	"golang.org/x/tools/go/analysis/passes/structtag"
	"golang.org/x/tools/go/analysis/passes/unmarshal"
	"golang.org/x/tools/go/analysis/passes/unreachable"

	"github.com/gordonklaus/ineffassign/pkg/ineffassign"
	"github.com/gostaticanalysis/nilerr"
	"honnef.co/go/tools/staticcheck"

	"github.com/patric-chuzhbe/placeshare/cmd/staticlint/nodirectexit"
)

// configName is the JSON configuration file listing enabled staticcheck analyzers.
const configName = `config.json`

type configData struct {
	Staticcheck []string
}

func loadStaticcheckSelection() map[string]bool {
	selection := map[string]bool{}

	appfile, err := os.Executable()
	if err != nil {
		return selection
	}
	data, err := os.ReadFile(filepath.Join(filepath.Dir(appfile), configName))
	if err != nil {
		return selection
	}

	var cfg configData
	if err = json.Unmarshal(data, &cfg); err != nil {
		return selection
	}

	for _, name := range cfg.Staticcheck {
		selection[name] = true
	}

	return selection
}

func main() {
	checks := []*analysis.Analyzer{
		copylock.Analyzer,    // Checks for copying of locks by value.
		loopclosure.Analyzer, // Detects references to loop variables inside closures.
		lostcancel.Analyzer,  // Finds contexts that are not canceled.
		printf.Analyzer,      // Verifies format strings.
		structtag.Analyzer,   // Checks for incorrect struct field tags.
		unmarshal.Analyzer,   // Detects unused fields in JSON unmarshal targets.
		unreachable.Analyzer, // Detects unreachable code.

		ineffassign.Analyzer, // Detects ineffective assignments.
		nilerr.Analyzer,      // Flags returning nil after an error was created.

		nodirectexit.Analyzer, // Project-specific: forbids os.Exit in main.main.
	}

	selection := loadStaticcheckSelection()
	for _, v := range staticcheck.Analyzers {
		name := v.Analyzer.Name
		if selection[name] || (len(selection) == 0 && strings.HasPrefix(name, "SA")) {
			checks = append(checks, v.Analyzer)
		}
	}

	multichecker.Main(checks...)
}
