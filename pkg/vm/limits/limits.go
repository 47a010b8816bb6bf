// Package limits contains the VM's resource ceilings: the values bound the
// evaluation stack, the invocation stack, individual item sizes and the
// shift opcodes' operand range. All four are configurable at engine
// construction time but default to the protocol's hardcoded values.
package limits

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Default ceilings, fixed independently of any configuration file.
const (
	// DefaultMaxShift bounds the right-hand operand of SHL/SHR.
	DefaultMaxShift = 256
	// DefaultMaxStackSize bounds the reference counter's count of live
	// items and the size of new or appended-to arrays.
	DefaultMaxStackSize = 2048
	// DefaultMaxItemSize bounds the serialized size, in bytes, of any
	// single stack item.
	DefaultMaxItemSize = 1024 * 1024
	// DefaultMaxInvocationStackSize bounds the depth of nested call frames.
	DefaultMaxInvocationStackSize = 1024
)

// Config holds the VM's resource ceilings.
type Config struct {
	MaxShift               int `yaml:"MaxShift"`
	MaxStackSize           int `yaml:"MaxStackSize"`
	MaxItemSize            int `yaml:"MaxItemSize"`
	MaxInvocationStackSize int `yaml:"MaxInvocationStackSize"`
}

// Default returns the protocol's hardcoded resource ceilings.
func Default() Config {
	return Config{
		MaxShift:               DefaultMaxShift,
		MaxStackSize:           DefaultMaxStackSize,
		MaxItemSize:            DefaultMaxItemSize,
		MaxInvocationStackSize: DefaultMaxInvocationStackSize,
	}
}

// Load reads a Config from a YAML file at path, starting from Default and
// letting the file override any subset of fields.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("unable to read limits config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("unable to parse limits config: %w", err)
	}
	return cfg, nil
}

// Validate reports whether every ceiling is strictly positive.
func (c Config) Validate() error {
	if c.MaxShift <= 0 || c.MaxStackSize <= 0 || c.MaxItemSize <= 0 || c.MaxInvocationStackSize <= 0 {
		return fmt.Errorf("limits: all ceilings must be positive, got %+v", c)
	}
	return nil
}
