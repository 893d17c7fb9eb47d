package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes the environment variable of every flag.
const EnvPrefix = "DEVCLEANER"

var (
	ErrNotDirectory   = errors.New("root is not a directory")
	ErrInvalidWorkers = errors.New("workers must be at least 1")
	ErrMissingConfig  = errors.New("denylist path is required")
	ErrMissingRoot    = errors.New("root directory is required")
)

// Options holds the settings of one run.
type Options struct {
	DenylistPath string `mapstructure:"config"`
	Root         string `mapstructure:"root"`
	Workers      int    `mapstructure:"workers"`
	DryRun       bool   `mapstructure:"dry-run"`
	Prune        bool   `mapstructure:"prune"`
	Plain        bool   `mapstructure:"plain"`
	LogLevel     string `mapstructure:"log-level"`
	LogFile      string `mapstructure:"log-file"`
	MetricsFile  string `mapstructure:"metrics-file"`
	TrashDir     string `mapstructure:"trash-dir"`
}

// RegisterFlags adds the run flags to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.StringP("config", "c", "", "path to the denylist file (one directory name per line)")
	fs.StringP("root", "r", "", "directory to clean")
	fs.IntP("workers", "w", runtime.NumCPU(), "number of deletion workers")
	fs.BoolP("dry-run", "n", false, "list matching directories with their sizes, delete nothing")
	fs.Bool("prune", false, "do not descend into matched directories")
	fs.Bool("plain", false, "log progress lines instead of the interactive display")
	fs.String("log-level", "info", "log level: debug, info, warn, error")
	fs.String("log-file", "", "append JSON logs to this file")
	fs.String("metrics-file", "", "write Prometheus metrics to this file when the run ends")
	fs.String("trash-dir", "", "move directories into this FreeDesktop-layout trash instead of the system trash")
}

// Bind wires flags and DEVCLEANER_* environment variables into v. An
// explicitly set flag wins over the environment.
func Bind(v *viper.Viper, fs *pflag.FlagSet) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return fmt.Errorf("bind flags: %w", err)
	}
	return nil
}

// Load reads the bound settings out of v.
func Load(v *viper.Viper) (Options, error) {
	var opts Options
	if err := v.Unmarshal(&opts); err != nil {
		return opts, fmt.Errorf("decode options: %w", err)
	}
	return opts, nil
}

// Validate checks the options against fsys and normalises the paths.
func (o *Options) Validate(fsys afero.Fs) error {
	if o.DenylistPath == "" {
		return ErrMissingConfig
	}
	if o.Root == "" {
		return ErrMissingRoot
	}
	if o.Workers < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidWorkers, o.Workers)
	}

	root := filepath.Clean(o.Root)
	info, err := fsys.Stat(root)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrNotDirectory, root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrNotDirectory, root)
	}
	o.Root = root
	if o.LogLevel == "" {
		o.LogLevel = "info"
	}
	return nil
}
