package get

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/viper"
)

// EnvOptions configures an [EnvSource].
type EnvOptions struct {
	// File is an optional dotenv file. A missing file is not an error.
	// Process environment variables take precedence over file entries.
	File string
	// Prefix is prepended to every key with an underscore separator.
	Prefix string
}

// EnvSource is an explicit view over the process environment and an optional dotenv file.
type EnvSource struct {
	v      *viper.Viper
	prefix string
}

// NewEnvSource builds a source from opts. The dotenv file, if any, is read once.
func NewEnvSource(opts EnvOptions) (*EnvSource, error) {
	v := viper.New()
	v.AutomaticEnv()

	if opts.File != "" {
		v.SetConfigFile(opts.File)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("get: read env file %s: %w", opts.File, err)
			}
		}
	}

	return &EnvSource{
		v:      v,
		prefix: strings.ToUpper(strings.TrimSuffix(opts.Prefix, "_")),
	}, nil
}

// Name returns the variable name key resolves to.
func (s *EnvSource) Name(key string) string {
	key = strings.ToUpper(key)
	if s.prefix == "" {
		return key
	}
	return s.prefix + "_" + key
}

// Lookup returns the raw value of key and whether it is set.
func (s *EnvSource) Lookup(key string) (string, bool) {
	name := s.Name(key)
	if !s.v.IsSet(name) {
		return "", false
	}
	return s.v.GetString(name), true
}

// EnvParam loads one typed variable from an [EnvSource].
type EnvParam[T any] struct {
	src *EnvSource
	key string
}

// Env returns a Loader for key in src.
func Env[T any](src *EnvSource, key string) *EnvParam[T] {
	return &EnvParam[T]{src: src, key: key}
}

// Load reads and converts the variable. A missing variable is [ErrNotSet].
func (p *EnvParam[T]) Load(context.Context) (T, error) {
	var zero T
	raw, ok := p.src.Lookup(p.key)
	if !ok {
		return zero, fmt.Errorf("%w: %s", ErrNotSet, p.src.Name(p.key))
	}

	v, err := convert[T](raw)
	if err != nil {
		return zero, fmt.Errorf("%s: %w", p.src.Name(p.key), err)
	}
	return v, nil
}
