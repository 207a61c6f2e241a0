// Command pathmatch loads http rules from a service configuration and prints the method and bindings
// a request resolves to.
//
//	pathmatch -config library.yaml GET '/v1/shelves/s1/books/b1?view=FULL'
//
// The exit status is 0 on match, 1 if nothing matches and 2 on usage or configuration errors.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	pathmatcher "github.com/istio/proxy-sub034"
	"github.com/istio/proxy-sub034/httprule"
	"github.com/istio/proxy-sub034/internal/slogpretty"
	"github.com/mattn/go-isatty"
)

const (
	exitMatch = iota
	exitNoMatch
	exitUsage
)

func main() {
	color := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr, color))
}

func run(args []string, stdout, stderr io.Writer, color bool) int {
	fs := flag.NewFlagSet("pathmatch", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configFile := fs.String("config", "", "Path to the service configuration")
	verbose := fs.Bool("v", false, "Log every registered template")
	failOnDuplicate := fs.Bool("fail-on-duplicate", false, "Reject configurations with duplicate templates")
	matchUnregistered := fs.Bool("match-unregistered-verbs", false, "Split custom verbs not used by any template")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: pathmatch -config FILE [flags] METHOD URL")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitMatch
		}
		return exitUsage
	}
	if *configFile == "" || fs.NArg() != 2 {
		fs.Usage()
		return exitUsage
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slogpretty.New(stderr, level, color))

	cfg, err := httprule.LoadFile(*configFile)
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		return exitUsage
	}

	pm, err := httprule.NewMatcher(cfg, resolveSelector,
		pathmatcher.WithLogger(logger),
		pathmatcher.WithFailOnDuplicate(*failOnDuplicate),
		pathmatcher.WithMatchUnregisteredCustomVerbs(*matchUnregistered),
	)
	if err != nil {
		logger.Error("failed to build matcher", "error", err)
		return exitUsage
	}

	httpMethod, target := fs.Arg(0), fs.Arg(1)
	path, query, _ := strings.Cut(target, "?")
	m, ok := pm.Lookup(httpMethod, path, query)
	if !ok {
		logger.Warn("no match", "method", httpMethod, "path", path)
		return exitNoMatch
	}

	fmt.Fprintf(stdout, "selector: %s\n", m.Method)
	if m.BodyFieldPath != "" {
		fmt.Fprintf(stdout, "body: %s\n", m.BodyFieldPath)
	}
	for _, b := range m.Bindings {
		fmt.Fprintf(stdout, "%s=%s\n", b.Path(), b.Value)
	}
	return exitMatch
}

// resolveSelector uses the rule selector as the method handle.
func resolveSelector(selector string) (string, bool) {
	return selector, true
}
