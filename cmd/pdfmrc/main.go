// Package main provides the command line for running MRC compression
// jobs end to end: load a job file and settings, render and composite
// every selected page, assemble and optimise the output PDF, and
// (optionally) linearise it.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mrcpdf/mrcpdf/pkg/cache"
	"github.com/mrcpdf/mrcpdf/pkg/config"
	"github.com/mrcpdf/mrcpdf/pkg/font"
	"github.com/mrcpdf/mrcpdf/pkg/linearize"
	"github.com/mrcpdf/mrcpdf/pkg/log"
	"github.com/mrcpdf/mrcpdf/pkg/mrc"
	"github.com/mrcpdf/mrcpdf/pkg/pipeline"
)

var (
	jobPath       string
	settingsPath  string
	logJSON       bool
	rasterizerBin string
	jbig2Bin      string
	linearizerBin string
)

func init() {
	flag.StringVar(&jobPath, "job", "", "path to the job file (required)")
	flag.StringVar(&settingsPath, "settings", "", "path to settings.yaml (default: settings.yaml next to -job)")
	flag.BoolVar(&logJSON, "log-json", false, "emit JSON-encoded log lines instead of console-encoded")
	flag.StringVar(&rasterizerBin, "rasterizer-cmd", "", "path to the external page-rasterising binary")
	flag.StringVar(&jbig2Bin, "jbig2-cmd", "", "path to the external JBIG2 generic-region encoder binary")
	flag.StringVar(&linearizerBin, "linearizer-cmd", "", "path to the external PDF linearising binary (empty disables linearisation even when settings request it)")
}

func main() {
	flag.Parse()

	log.SetCLILogger(log.NewZapLogger(os.Stderr, logJSON, "cli"))
	log.SetPipelineLogger(log.NewZapLogger(os.Stderr, logJSON, "pipeline"))
	log.SetCacheLogger(log.NewZapLogger(os.Stderr, logJSON, "cache"))
	log.SetMRCLogger(log.NewZapLogger(os.Stderr, logJSON, "mrc"))
	log.SetParseLogger(log.NewZapLogger(os.Stderr, logJSON, "parse"))

	if jobPath == "" {
		fmt.Fprintln(os.Stderr, "pdfmrc: -job is required")
		os.Exit(1)
	}
	if settingsPath == "" {
		settingsPath = filepath.Join(filepath.Dir(jobPath), "settings.yaml")
	}

	os.Exit(run())
}

func run() int {
	settings := config.DefaultSettings()
	if b, err := os.ReadFile(settingsPath); err == nil {
		s, err := config.SettingsFromYAML(b)
		if err != nil {
			fmt.Fprintf(os.Stderr, "pdfmrc: %v\n", err)
			return 1
		}
		settings = s
	}

	jobFile, err := config.LoadJobFile(jobPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pdfmrc: %v\n", err)
		return 1
	}

	runner := &pipeline.Runner{
		Rasterizer: subprocessRasterizer{bin: rasterizerBin},
		Store:      cache.NewStore(settings.CacheDir),
		Encoder:    subprocessJbig2Encoder{bin: jbig2Bin},
		Redaction:  mrc.NoopRedaction{},
	}

	jobs := make([]pipeline.Job, 0, len(jobFile.Jobs))
	cfgs := make([]config.MergedConfig, 0, len(jobFile.Jobs))
	for _, j := range jobFile.Jobs {
		cfg := config.NewMergedConfig(settings, j)

		modes, err := j.ResolvePageModes()
		if err != nil {
			fmt.Fprintf(os.Stderr, "pdfmrc: %v\n", err)
			return 1
		}
		override := make(map[uint32]config.ColorMode, len(modes))
		for page1based, mode := range modes {
			override[page1based-1] = mode
		}

		var fontsByPage map[uint32]map[string]*font.ParsedFont
		if cfg.PreserveImages && cfg.TextToOutlines {
			fontsByPage = loadFontsByPage(j.Input)
		}

		jobs = append(jobs, pipeline.Job{
			Input:            j.Input,
			Output:           j.Output,
			Cfg:              cfg,
			PageModeOverride: override,
			FontsByPage:      fontsByPage,
		})
		cfgs = append(cfgs, cfg)
	}

	results := runner.RunAll(context.Background(), jobs)

	exit := 0
	for i, res := range results {
		if res.Err != nil {
			exit = 1
			continue
		}
		if !cfgs[i].Linearize {
			continue
		}
		if err := linearize.Run(linearizerBin, res.Output); err != nil {
			fmt.Fprintf(os.Stderr, "pdfmrc: %v\n", err)
			exit = 1
		}
	}

	return exit
}
