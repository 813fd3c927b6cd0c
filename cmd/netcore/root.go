/*
 * MIT License
 *
 * Copyright (c) 2024 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ashforge/netcore/console"
	"github.com/ashforge/netcore/errors/pool"
	"github.com/ashforge/netcore/logger"
	loglvl "github.com/ashforge/netcore/logger/level"
)

// colorFail is the console.ColorType the shutdown banner prints the
// FAILED line in; console.ColorPrint carries the OK line.
var colorFail = console.GetColorType(2)

func init() {
	console.SetColor(console.ColorPrint, int(color.FgGreen))
	console.SetColor(colorFail, int(color.FgRed), int(color.Bold))
}

// flags recognized by the launcher surface (spec.md §6). Most are
// platform/driver options the messaging core itself never reads; they
// are parsed so the CLI surface matches, and ignored beyond that.
var (
	cfgPath        string
	noErrorCapture bool
	dumpConfig     bool
	noApp          bool
	silentMode     bool
	consoleMode    bool
	ttyMode        bool
	verbose        bool
	profile        int
)

// capture is the process-wide captured-error pool the §7 shutdown
// banner reports from, unless -noErrorCapture is set.
var capture = pool.New()

// log is the process-wide logger every subcommand logs through.
var log logger.Logger

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "netcore",
		Short:         "network messaging core launcher",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			log = logger.New(cmd.Context())
			if verbose {
				log.SetLevel(loglvl.DebugLevel)
			}
			if dumpConfig {
				dumpViperConfig()
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			printBanner()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&cfgPath, "config", "", "path to the ini-like config store (spec.md §6)")
	flags.BoolVar(&noErrorCapture, "noErrorCapture", false, "disable capturing error log entries into the shutdown summary")
	flags.BoolVar(&dumpConfig, "dumpConfig", false, "print the resolved configuration and exit")
	flags.BoolVar(&noApp, "noapp", false, "skip application-layer startup (driver option, not read by the core)")
	flags.BoolVar(&silentMode, "silent", false, "suppress non-error console output")
	flags.BoolVar(&consoleMode, "console", false, "force console output even when not attached to a tty")
	flags.BoolVar(&ttyMode, "tty", false, "force interactive tty behavior")
	flags.BoolVar(&verbose, "verbose", false, "enable debug-level logging")
	flags.IntVar(&profile, "profile", 0, "sampling profile interval in seconds (driver option, not read by the core)")

	_ = viper.BindPFlag("config", flags.Lookup("config"))

	root.AddCommand(newServeCommand())
	root.AddCommand(newRunCommand())

	return root
}

func dumpViperConfig() {
	for _, k := range viper.AllKeys() {
		fmt.Printf("%s = %v\n", k, viper.Get(k))
	}
}

// printBanner prints the §7 success/failure summary: a banner, the
// captured error count, and (if capture is on) every captured
// message. -console and -tty both force colored output even when
// stdout isn't a tty; -silent suppresses the banner entirely.
func printBanner() {
	if silentMode {
		return
	}
	if consoleMode || ttyMode {
		color.NoColor = false
	}

	const width = 40

	n := capture.Len()
	if n == 0 {
		console.ColorPrint.Println(console.PadCenter(" netcore: OK (0 errors) ", width, "="))
		return
	}

	colorFail.Println(console.PadCenter(fmt.Sprintf(" netcore: FAILED (%d errors) ", n), width, "="))
	if noErrorCapture {
		return
	}
	for _, e := range capture.Slice() {
		console.PrintTabf(1, "- %v\n", e)
	}
}

// exitCode implements spec.md §6's exit-code contract: 0 on clean
// completion with zero captured errors, non-zero otherwise.
func exitCode() int {
	if capture.Len() > 0 {
		return 1
	}
	return 0
}

func captureError(err error) {
	if err == nil || noErrorCapture {
		return
	}
	capture.Add(err)
}
