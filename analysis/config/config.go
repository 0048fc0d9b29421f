// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"fmt"
	"os"
	"path"
	"regexp"
	"strings"

	"github.com/mchalupa/dg/internal/funcutil"
	"gopkg.in/yaml.v3"
)

var (
	// configFile is the global config filename.
	configFile string
)

// SetGlobalConfig sets the global config filename.
func SetGlobalConfig(filename string) {
	configFile = filename
}

// LoadGlobal loads the config file that has been set by SetGlobalConfig.
func LoadGlobal() (*Config, error) {
	return Load(configFile)
}

// Config holds everything a reaching-definitions / value-relations analysis needs to know about the
// program it is going to build a graph for: the entry point, how to resolve external functions, and the
// naming conventions the client program uses for allocation and threading primitives.
// To add elements to a config file, add fields to this struct. Fields that are not set in the config file
// keep the value NewDefault gives them. Private fields are never populated from yaml; they are computed after load.
type Config struct {
	Options `yaml:",inline"`

	sourceFile string

	// pkgFilterRegex caches the compiled form of PkgFilter.
	pkgFilterRegex *regexp.Regexp

	// AllocationFunctions lists the code identifiers that should be treated as heap allocation sites, together
	// with which argument(s) determine the size of the allocated region.
	AllocationFunctions []AllocationSpec `yaml:"allocation-functions"`

	// FunctionModels lists the code identifiers of functions whose effect on memory is known without looking
	// at their body (because they are external, or because modeling their body would be wasteful).
	FunctionModels []FunctionModelSpec `yaml:"function-models"`

	// ThreadCreateNames lists the code identifiers recognized as thread/goroutine-spawning primitives, in the
	// style of pthread_create: the entry function of the new thread is one of the call's arguments.
	ThreadCreateNames []CodeIdentifier `yaml:"thread-create-names"`

	// ThreadJoinNames lists the code identifiers recognized as thread-join primitives.
	ThreadJoinNames []CodeIdentifier `yaml:"thread-join-names"`
}

// AllocationSpec identifies a function that allocates memory, and tells the builder which argument index (if
// any) holds the number of elements and which holds the element size, so the size of the allocated region can
// be computed the way calloc's can. ElemSizeArg < 0 means the function has a single size argument, CountArg.
type AllocationSpec struct {
	CodeIdentifier `yaml:",inline"`
	// CountArg is the index of the argument that holds the element count, or the total size when ElemSizeArg < 0.
	CountArg int `yaml:"count-arg"`
	// ElemSizeArg is the index of the argument that holds the element size, or -1 if there is none.
	ElemSizeArg int `yaml:"elem-size-arg"`
	// Zeroed indicates the allocated memory is guaranteed to be zero-initialized, like calloc.
	Zeroed bool `yaml:"zeroed"`
}

// FunctionModelSpec identifies a function whose effect on reaching definitions is known a priori: which
// argument(s) it reads from, and which argument (if any) it overwrites, mirroring memcpy/memmove/memset.
type FunctionModelSpec struct {
	CodeIdentifier `yaml:",inline"`
	// ReadArgs lists the indices of arguments read through (their pointees are used).
	ReadArgs []int `yaml:"read-args"`
	// WriteArg is the index of the argument written through, or -1 if none.
	WriteArg int `yaml:"write-arg"`
	// SizeArg is the index of the argument holding the number of bytes affected, or -1 if unknown.
	SizeArg int `yaml:"size-arg"`
}

// Options contains the settings that control how the graph is built, independently of which functions are
// recognized as sources, sinks or models.
type Options struct {
	// EntryFunction identifies the function at which reaching-definitions graph construction starts. If empty,
	// the builder falls back to the program's main function.
	EntryFunction CodeIdentifier `yaml:"entry-function"`

	// UndefinedArePure tells the builder to treat calls to functions with no body (and no matching function
	// model) as having no effect on memory, instead of conservatively invalidating everything reachable
	// through their arguments.
	UndefinedArePure bool `yaml:"undefined-are-pure"`

	// PkgFilter restricts graph construction to functions whose package path matches this filter. Empty means
	// no restriction.
	PkgFilter string `yaml:"pkg-filter"`

	// ReportsDir is the directory where diagnostic reports are written. Load creates it if it does not exist.
	ReportsDir string `yaml:"reports-dir"`

	// MaxCallDepth sets a limit on the call-stack depth explored when building per-function subgraphs
	// recursively. Default is -1, meaning unlimited.
	MaxCallDepth int `yaml:"max-call-depth"`

	// LogLevel controls the verbosity of the tool.
	LogLevel int `yaml:"log-level"`

	// SilenceWarn suppresses warning-level diagnostics.
	SilenceWarn bool `yaml:"silence-warn"`
}

// NewDefault returns an empty default config.
func NewDefault() *Config {
	return &Config{
		sourceFile:          "",
		AllocationFunctions: nil,
		FunctionModels:      nil,
		ThreadCreateNames:   nil,
		ThreadJoinNames:     nil,
		Options: Options{
			EntryFunction:    CodeIdentifier{},
			UndefinedArePure: false,
			PkgFilter:        "",
			ReportsDir:       "",
			MaxCallDepth:     DefaultMaxCallDepth,
			LogLevel:         int(InfoLevel),
			SilenceWarn:      false,
		},
	}
}

// Load reads a configuration from a file.
func Load(filename string) (*Config, error) {
	cfg := NewDefault()
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("could not read config file: %w", err)
	}
	if errYaml := yaml.Unmarshal(b, cfg); errYaml != nil {
		return nil, fmt.Errorf("could not unmarshal config file: %w", errYaml)
	}

	cfg.sourceFile = filename

	if cfg.ReportsDir != "" {
		if err := setReportsDir(cfg); err != nil {
			return nil, err
		}
	}

	// If logLevel has not been specified (i.e. it is 0) set the default to Info.
	if cfg.LogLevel == 0 {
		cfg.LogLevel = int(InfoLevel)
	}

	// Set the MaxCallDepth default if it is 0 (unset); negative means unlimited explicitly.
	if cfg.MaxCallDepth == 0 {
		cfg.MaxCallDepth = DefaultMaxCallDepth
	}

	if cfg.PkgFilter != "" {
		if r, err := regexp.Compile(cfg.PkgFilter); err == nil {
			cfg.pkgFilterRegex = r
		}
	}

	funcutil.MapInPlace(cfg.AllocationFunctions, func(a AllocationSpec) AllocationSpec {
		a.CodeIdentifier = CompileRegexes(a.CodeIdentifier)
		return a
	})
	funcutil.MapInPlace(cfg.FunctionModels, func(m FunctionModelSpec) FunctionModelSpec {
		m.CodeIdentifier = CompileRegexes(m.CodeIdentifier)
		return m
	})
	funcutil.MapInPlace(cfg.ThreadCreateNames, CompileRegexes)
	funcutil.MapInPlace(cfg.ThreadJoinNames, CompileRegexes)

	return cfg, nil
}

func setReportsDir(c *Config) error {
	if err := os.Mkdir(c.ReportsDir, 0750); err != nil {
		if !os.IsExist(err) {
			return fmt.Errorf("could not create directory %s: %w", c.ReportsDir, err)
		}
	}
	return nil
}

// RelPath returns filename path relative to the config source file.
func (c Config) RelPath(filename string) string {
	return path.Join(path.Dir(c.sourceFile), filename)
}

// MatchPkgFilter returns true if the package name pkgname matches the package filter set in the config file. If
// no package filter has been set, the filter matches anything. If a filter was given but failed to compile as a
// regex, the safe fallback is to check whether the filter string is a prefix of pkgname.
func (c Config) MatchPkgFilter(pkgname string) bool {
	if c.pkgFilterRegex != nil {
		return c.pkgFilterRegex.MatchString(pkgname)
	} else if c.PkgFilter != "" {
		return strings.HasPrefix(pkgname, c.PkgFilter)
	}
	return true
}

// GetAllocationFunction returns the allocation spec matching the given code identifier, if any.
func (c Config) GetAllocationFunction(cid CodeIdentifier) (AllocationSpec, bool) {
	for _, a := range c.AllocationFunctions {
		if cid.equalOnNonEmptyFields(a.CodeIdentifier) {
			return a, true
		}
	}
	return AllocationSpec{}, false
}

// GetFunctionModel returns the function model matching the given code identifier, if any.
func (c Config) GetFunctionModel(cid CodeIdentifier) (FunctionModelSpec, bool) {
	for _, m := range c.FunctionModels {
		if cid.equalOnNonEmptyFields(m.CodeIdentifier) {
			return m, true
		}
	}
	return FunctionModelSpec{}, false
}

// IsThreadCreate returns true if cid matches one of the configured thread-create primitives.
func (c Config) IsThreadCreate(cid CodeIdentifier) bool {
	return ExistsCid(c.ThreadCreateNames, cid.equalOnNonEmptyFields)
}

// IsThreadJoin returns true if cid matches one of the configured thread-join primitives.
func (c Config) IsThreadJoin(cid CodeIdentifier) bool {
	return ExistsCid(c.ThreadJoinNames, cid.equalOnNonEmptyFields)
}

// Verbose returns true if the configuration verbosity setting is larger than Info (i.e. Debug or Trace).
func (c Config) Verbose() bool {
	return c.LogLevel >= int(DebugLevel)
}

// ExceedsMaxCallDepth returns true if d exceeds the configured maximum call depth. A MaxCallDepth <= 0 means
// the depth limit is ignored.
func (c Config) ExceedsMaxCallDepth(d int) bool {
	if c.MaxCallDepth <= 0 {
		return false
	}
	return d > c.MaxCallDepth
}
