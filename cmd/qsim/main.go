package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"
	"github.com/theapemachine/qsim"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "qsim:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flags := pflag.NewFlagSet("qsim", pflag.ContinueOnError)
	flags.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: qsim [flags] program.qasm")
		flags.PrintDefaults()
	}

	configPath := flags.String("config", "", "configuration file (yaml, json or toml)")
	flags.Uint64("seed", 1, "measurement seed")
	flags.String("precision", "double", "amplitude precision: single or double")
	flags.String("kernel", qsim.KernelScalar, "kernel backend: scalar or simd")
	flags.Int("workers", 0, "worker goroutines, 0 for one per CPU")
	flags.String("log-level", "warn", "log level")
	noFusion := flags.Bool("no-fusion", false, "apply every gate on arrival")
	plain := flags.Bool("plain", false, "run to the end and print the histogram without the interface")

	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() != 1 {
		flags.Usage()
		return fmt.Errorf("expected one program file")
	}

	config, err := loadConfig(*configPath, flags)
	if err != nil {
		return err
	}
	if *noFusion {
		config.Fusion = false
	}

	src, err := os.ReadFile(flags.Arg(0))
	if err != nil {
		return err
	}

	program, err := ParseProgram(string(src))
	if err != nil {
		return err
	}

	runner, err := newStepper(config, program)
	if err != nil {
		return err
	}
	defer runner.Close()

	if *plain {
		return runPlain(runner)
	}

	_, err = tea.NewProgram(newModel(runner), tea.WithAltScreen()).Run()
	return err
}

// defaultStateBytes caps the amplitude buffer unless a config file or QSIM_MAX_STATE_BYTES says otherwise.
const defaultStateBytes = 4 << 30

/*
loadConfig layers the flags that were set on the command line over the
optional file and QSIM_* environment variables.
*/
func loadConfig(path string, flags *pflag.FlagSet) (*qsim.Config, error) {
	v := qsim.NewViper()
	v.SetDefault("max_state_bytes", defaultStateBytes)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	for key, flag := range map[string]string{
		"seed":      "seed",
		"precision": "precision",
		"kernel":    "kernel",
		"workers":   "workers",
		"log_level": "log-level",
	} {
		if f := flags.Lookup(flag); f != nil && f.Changed {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, err
			}
		}
	}

	return qsim.ConfigFromViper(v)
}

// newStepper picks the amplitude type from the configured precision.
func newStepper(config *qsim.Config, program *Program) (stepper, error) {
	if config.Precision == "single" {
		if config.Tolerance < 1e-6 {
			config.Tolerance = 1e-6
		}
		return NewRunner[complex64](config, program)
	}
	return NewRunner[complex128](config, program)
}

func runPlain(runner stepper) error {
	if err := runner.Run(); err != nil {
		return err
	}

	fmt.Println(renderHistogram(runner.Histogram(), runner.Program().Qubits, false))
	fmt.Println(renderCbits(runner.Cbits()))
	return nil
}
