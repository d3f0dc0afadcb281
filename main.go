// Command zeo evaluates a molecule script, draws it on a software device
// and optionally exports it.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chazu/zeo/pkg/config"
	"github.com/chazu/zeo/pkg/logging"
)

func main() {
	var (
		configPath = flag.String("config", "", "settings file (default: "+config.Filename+" next to the script)")
		povPath    = flag.String("pov", "", "write the model as POV-Ray text to this file")
		meshPath   = flag.String("meshes", "", "write the tessellated meshes as JSON to this file")
		pick       = flag.String("pick", "", "report the node at pixel x,y")
		verbose    = flag.Bool("v", false, "log at debug level")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: zeo [flags] script.zeo\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	script := flag.Arg(0)

	if *configPath == "" {
		*configPath = filepath.Join(filepath.Dir(script), config.Filename)
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	level := logging.ParseLevel(cfg.LogLevel)
	if *verbose {
		level = slog.LevelDebug
	}
	logging.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	source, err := os.ReadFile(script)
	if err != nil {
		log.Fatal(err)
	}

	app := NewHeadlessApp(cfg)
	defer app.Close()

	result := app.Evaluate(string(source))
	for _, w := range result.Warnings {
		fmt.Fprintf(os.Stderr, "%s: warning: %s\n", script, describe(w))
	}
	if len(result.Errors) > 0 {
		for _, e := range result.Errors {
			fmt.Fprintf(os.Stderr, "%s: %s\n", script, describe(e))
		}
		os.Exit(1)
	}
	fmt.Printf("%d atoms, %d bonds, %d meshes\n", result.Atoms, result.Bonds, len(result.Meshes))

	if *pick != "" {
		x, y, err := parsePixel(*pick)
		if err != nil {
			log.Fatal(err)
		}
		res, ok, err := app.Pick(x, y)
		if err != nil {
			log.Fatal(err)
		}
		if ok {
			fmt.Printf("pick %d,%d: %s (%s)\n", x, y, res.Name, res.ID.Short())
		} else {
			fmt.Printf("pick %d,%d: nothing\n", x, y)
		}
	}

	if *povPath != "" {
		if err := writeFile(*povPath, app.ExportPOV); err != nil {
			log.Fatal(err)
		}
	}
	if *meshPath != "" {
		err := writeFile(*meshPath, func(w io.Writer) error {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(result.Meshes)
		})
		if err != nil {
			log.Fatal(err)
		}
	}
}

func describe(e EvalErrorData) string {
	msg := e.Message
	if e.Node != "" {
		msg = e.Node + ": " + msg
	}
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, msg)
	}
	return msg
}

func parsePixel(s string) (x, y int, err error) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return 0, 0, fmt.Errorf("pixel %q: want x,y", s)
	}
	if x, err = strconv.Atoi(strings.TrimSpace(xs)); err != nil {
		return 0, 0, fmt.Errorf("pixel %q: %w", s, err)
	}
	if y, err = strconv.Atoi(strings.TrimSpace(ys)); err != nil {
		return 0, 0, fmt.Errorf("pixel %q: %w", s, err)
	}
	return x, y, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	return f.Close()
}
