package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/wasm-spectest/engine"
	"github.com/wippyai/wasm-spectest/harness"
	"github.com/wippyai/wasm-spectest/script"
)

var (
	passStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	failStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	skipStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	detailStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#CCCCCC")).
			PaddingLeft(4)
)

func main() {
	var (
		dir         = flag.String("dir", "", "Directory with wast2json script files")
		configPath  = flag.String("config", "", "YAML run configuration")
		soft        = flag.Bool("soft", false, "Enable assert_soft_invalid checking")
		verbose     = flag.Bool("v", false, "Verbose logging")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	cfg, err := buildConfig(*dir, *configPath, *soft)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Usage: spectest -dir <suite/json> [-config run.yaml] [-soft] [-v]")
		fmt.Fprintln(os.Stderr, "       spectest -dir <suite/json> -i  (interactive mode)")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *verbose {
		setupLogging()
	}

	if *interactive {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: interactive mode needs a terminal")
			os.Exit(1)
		}
		if err := runInteractive(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func buildConfig(dir, configPath string, soft bool) (*script.RunConfig, error) {
	cfg := &script.RunConfig{}
	if configPath != "" {
		loaded, err := script.LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if dir != "" {
		cfg.Dir = dir
	}
	if soft {
		cfg.SoftValidate = true
	}
	if cfg.Dir == "" {
		return nil, fmt.Errorf("no suite directory given")
	}
	return cfg, nil
}

func setupLogging() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	engine.SetLogger(logger.Named("engine"))
	harness.SetLogger(logger.Named("harness"))
	script.SetLogger(logger.Named("script"))
}

func run(cfg *script.RunConfig) error {
	ctx := context.Background()

	reports, err := script.NewRunner(cfg).RunDir(ctx)
	if err != nil {
		return err
	}
	if len(reports) == 0 {
		return fmt.Errorf("no script files under %s", cfg.Dir)
	}

	var totalPass, totalFail, totalSkip int
	for _, rep := range reports {
		pass, fail, skip := rep.Counts()
		totalPass += pass
		totalFail += fail
		totalSkip += skip

		line := fmt.Sprintf("%-40s %4d passed %4d failed %4d skipped", rep.File, pass, fail, skip)
		switch {
		case fail > 0:
			fmt.Println(failStyle.Render(line))
			for _, res := range rep.Results {
				if res.Status == script.StatusFail {
					fmt.Println(detailStyle.Render(fmt.Sprintf("%s (line %d): %s", res.Name, res.Line, res.Detail)))
				}
			}
		case pass == 0 && skip > 0:
			fmt.Println(skipStyle.Render(line))
		default:
			fmt.Println(passStyle.Render(line))
		}
	}

	fmt.Printf("\n%d files: %d passed, %d failed, %d skipped\n",
		len(reports), totalPass, totalFail, totalSkip)
	if totalFail > 0 {
		return fmt.Errorf("%d directives failed", totalFail)
	}
	return nil
}
