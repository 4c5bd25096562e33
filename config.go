package qsim

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/viper"
)

const (
	// KernelScalar applies fused matrices with plain complex arithmetic.
	KernelScalar = "scalar"
	// KernelSIMD applies fused matrices through the vectorized mat-vec routines.
	KernelSIMD = "simd"

	// MaxKernelArity is the largest number of qubits one kernel pass touches.
	MaxKernelArity = 5

	// MaxWidth is the widest register whose amplitude count still fits an int.
	MaxWidth = 62
)

/*
Config holds every tunable of the simulation engine. The zero value is not
useful; start from NewConfig or LoadConfig.
*/
type Config struct {
	// Seed for the measurement sampler. Equal seeds give equal outcomes.
	Seed uint64 `mapstructure:"seed"`

	// Fusion enables gate fusion. When disabled every gate is applied on arrival.
	Fusion          bool `mapstructure:"fusion"`
	FusionMinQubits int  `mapstructure:"fusion_min_qubits"`
	FusionMaxQubits int  `mapstructure:"fusion_max_qubits"`

	// Tolerance is the probability below which a branch counts as empty. It
	// is shared by the classical-value check and the zero-probability check.
	Tolerance float64 `mapstructure:"tolerance"`

	Workers           int    `mapstructure:"workers"`
	ParallelThreshold int    `mapstructure:"parallel_threshold"`
	Kernel            string `mapstructure:"kernel"`

	// MaxQubits and MaxStateBytes bound allocation. Zero means unbounded.
	MaxQubits     int    `mapstructure:"max_qubits"`
	MaxStateBytes uint64 `mapstructure:"max_state_bytes"`

	LogLevel  string `mapstructure:"log_level"`
	Precision string `mapstructure:"precision"`
}

func NewConfig() *Config {
	return &Config{
		Seed:              1,
		Fusion:            true,
		FusionMinQubits:   4,
		FusionMaxQubits:   MaxKernelArity,
		Tolerance:         1e-12,
		Workers:           runtime.NumCPU(),
		ParallelThreshold: 1 << 14,
		Kernel:            KernelScalar,
		LogLevel:          "warn",
		Precision:         "double",
	}
}

/*
LoadConfig reads the engine configuration from the optional file at path and
from QSIM_* environment variables, on top of the defaults of NewConfig.
An empty path skips the file.
*/
func LoadConfig(path string) (*Config, error) {
	v := NewViper()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	return ConfigFromViper(v)
}

// NewViper returns a viper instance seeded with the engine defaults.
func NewViper() *viper.Viper {
	defaults := NewConfig()
	v := viper.New()

	v.SetEnvPrefix("QSIM")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	v.SetDefault("seed", defaults.Seed)
	v.SetDefault("fusion", defaults.Fusion)
	v.SetDefault("fusion_min_qubits", defaults.FusionMinQubits)
	v.SetDefault("fusion_max_qubits", defaults.FusionMaxQubits)
	v.SetDefault("tolerance", defaults.Tolerance)
	v.SetDefault("workers", defaults.Workers)
	v.SetDefault("parallel_threshold", defaults.ParallelThreshold)
	v.SetDefault("kernel", defaults.Kernel)
	v.SetDefault("max_qubits", defaults.MaxQubits)
	v.SetDefault("max_state_bytes", defaults.MaxStateBytes)
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("precision", defaults.Precision)

	return v
}

// ConfigFromViper decodes and validates a configuration held by v.
func ConfigFromViper(v *viper.Viper) (*Config, error) {
	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate rejects settings the engine cannot run with.
func (config *Config) Validate() error {
	switch {
	case config.FusionMaxQubits < 1 || config.FusionMaxQubits > MaxKernelArity:
		return fmt.Errorf("fusion_max_qubits must be in [1, %d], got %d", MaxKernelArity, config.FusionMaxQubits)
	case config.FusionMinQubits < 1 || config.FusionMinQubits > config.FusionMaxQubits:
		return fmt.Errorf("fusion_min_qubits must be in [1, %d], got %d", config.FusionMaxQubits, config.FusionMinQubits)
	case config.Tolerance < 0:
		return fmt.Errorf("tolerance must not be negative, got %g", config.Tolerance)
	case config.Kernel != KernelScalar && config.Kernel != KernelSIMD:
		return fmt.Errorf("kernel must be %q or %q, got %q", KernelScalar, KernelSIMD, config.Kernel)
	case config.Precision != "single" && config.Precision != "double":
		return fmt.Errorf("precision must be \"single\" or \"double\", got %q", config.Precision)
	}

	return nil
}

// getWorkers falls back to the CPU count when the configuration leaves it unset.
func (config *Config) getWorkers() int {
	if config.Workers > 0 {
		return config.Workers
	}
	return runtime.NumCPU()
}
