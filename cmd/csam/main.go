// Package main provides the csam command-line toolchain: compile
// translates a source program into a machine image, run executes one.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/csa-toolchain/csam/config"
	"github.com/csa-toolchain/csam/journal"
	"github.com/csa-toolchain/csam/lexer"
	"github.com/csa-toolchain/csam/machine/driver"
	"github.com/csa-toolchain/csam/parser"
	"github.com/csa-toolchain/csam/translator"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "csam",
		Short: "CSA-32 translator and machine simulator",
	}

	rootCmd.AddCommand(newCompileCmd(), newRunCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newCompileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compile SOURCE OUTPUT",
		Short: "Translate a source program into a machine image",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(args[0], args[1])
		},
	}
}

func runCompile(sourcePath, outputPath string) error {
	src, err := os.ReadFile(sourcePath)
	if err != nil {
		return fmt.Errorf("reading source: %w", err)
	}

	toks, err := lexer.Lex(string(src))
	if err != nil {
		return fmt.Errorf("lexing %s: %w", sourcePath, err)
	}

	prog, err := parser.Parse(toks)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", sourcePath, err)
	}

	image, err := translator.Translate(prog)
	if err != nil {
		return fmt.Errorf("translating %s: %w", sourcePath, err)
	}

	if err := os.WriteFile(outputPath, image, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", outputPath, err)
	}

	fmt.Printf("Compiled %s -> %s (%d bytes)\n", sourcePath, outputPath, len(image))
	return nil
}

func newRunCmd() *cobra.Command {
	var icache bool
	var logDir string

	cmd := &cobra.Command{
		Use:   "run MEMORY CONFIG",
		Short: "Run a machine image under the given configuration",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulate(args[0], args[1], icache, logDir)
		},
	}
	cmd.Flags().BoolVar(&icache, "icache", false, "Enable the L1 instruction-cache sidecar")
	cmd.Flags().StringVar(&logDir, "logdir", "", "Directory to write memory.txt/execution.txt/output.txt into")
	return cmd
}

func runSimulate(imagePath, configPath string, icache bool, logDir string) error {
	image, err := os.ReadFile(imagePath)
	if err != nil {
		return fmt.Errorf("reading memory image: %w", err)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	opts := driver.Options{ICache: icache}
	var closers []*os.File
	defer func() {
		for _, f := range closers {
			f.Close()
		}
	}()

	if logDir != "" {
		if err := os.MkdirAll(logDir, 0755); err != nil {
			return fmt.Errorf("creating log directory: %w", err)
		}
		execFile, err := os.Create(logDir + "/execution.txt")
		if err != nil {
			return fmt.Errorf("creating execution.txt: %w", err)
		}
		closers = append(closers, execFile)
		memFile, err := os.Create(logDir + "/memory.txt")
		if err != nil {
			return fmt.Errorf("creating memory.txt: %w", err)
		}
		closers = append(closers, memFile)
		outFile, err := os.Create(logDir + "/output.txt")
		if err != nil {
			return fmt.Errorf("creating output.txt: %w", err)
		}
		closers = append(closers, outFile)

		j, err := journal.New(execFile, memFile, outFile, cfg.JournalFmt)
		if err != nil {
			return fmt.Errorf("building journal: %w", err)
		}
		opts.Journal = j
	}

	result, err := driver.RunImage(image, cfg, opts)
	if err != nil {
		return err
	}

	if icache {
		fmt.Printf("I-cache: %d hits, %d misses\n", result.CacheStats.Hits, result.CacheStats.Misses)
	}

	if result.Halted {
		fmt.Printf("Halted after %d ticks\n", result.Ticks)
		return nil
	}

	return fmt.Errorf("tick limit reached after %d ticks", result.Ticks)
}
