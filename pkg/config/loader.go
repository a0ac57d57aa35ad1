package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	gwerr "github.com/StricklySoft/bolt-gateway/pkg/errors"
)

// Validator is implemented by config structs that carry their own
// validation rules. [Loader.Load] calls Validate after all layers have
// been applied.
type Validator interface {
	Validate() error
}

// Loader builds and executes configuration loading with a layered
// resolution strategy. Use [New] to create a Loader and configure it with
// [Loader.WithEnvPrefix] and [Loader.WithFile] before calling
// [Loader.Load].
//
// Loader is not safe for concurrent use. Create a new Loader for each
// Load call, or synchronize access externally.
type Loader struct {
	envPrefix string
	filePath  string
}

// New creates a new [Loader] with default settings: environment variables
// only, no file, no prefix.
func New() *Loader {
	return &Loader{}
}

// WithEnvPrefix sets a prefix that is prepended (with an underscore
// separator) to all environment variable names derived from the "env"
// struct tag. For example, WithEnvPrefix("BOLTGW") causes a field tagged
// `env:"DRIVER_URI"` to read from BOLTGW_DRIVER_URI.
//
// The prefix is automatically uppercased. An empty prefix disables
// prefixing. WithEnvPrefix returns the Loader for fluent chaining.
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = strings.ToUpper(prefix)
	return l
}

// WithFile sets the path to a YAML or JSON configuration file, detected by
// extension (.yaml/.yml/.json). A missing file is not an error: file
// configuration is optional. WithFile returns the Loader for fluent
// chaining.
func (l *Loader) WithFile(path string) *Loader {
	l.filePath = path
	return l
}

// Load populates the given struct pointer with configuration values
// resolved in priority order (highest wins):
//
//  1. envDefault struct tags (lowest priority)
//  2. YAML/JSON file values (if configured with [Loader.WithFile])
//  3. Environment variables from "env" struct tags (highest priority)
//
// After loading, fields tagged `required:"true"` must hold non-zero
// values, and if the struct implements [Validator] its Validate method is
// called. Returns a [*gwerr.Error] with [gwerr.CodeInternalConfiguration]
// on failure.
func (l *Loader) Load(cfg any) error {
	rv := reflect.ValueOf(cfg)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return gwerr.New(gwerr.CodeInternalConfiguration,
			"config: Load requires a non-nil pointer to a struct")
	}
	rv = rv.Elem()
	if rv.Kind() != reflect.Struct {
		return gwerr.New(gwerr.CodeInternalConfiguration,
			"config: Load requires a pointer to a struct")
	}

	// Layer 1: envDefault tags for zero-valued fields.
	if err := walkFields(rv, func(field reflect.Value, sf reflect.StructField) error {
		def := sf.Tag.Get("envDefault")
		if def == "" || !field.IsZero() {
			return nil
		}
		if err := setField(field, def); err != nil {
			return fmt.Errorf("field %q: %w", sf.Name, err)
		}
		return nil
	}); err != nil {
		return gwerr.Wrap(err, gwerr.CodeInternalConfiguration,
			"config: failed to apply defaults")
	}

	// Layer 2: optional config file.
	if l.filePath != "" {
		if err := l.loadFile(cfg); err != nil {
			return err
		}
	}

	// Layer 3: environment variables override everything.
	if err := walkFields(rv, func(field reflect.Value, sf reflect.StructField) error {
		envTag := sf.Tag.Get("env")
		if envTag == "" {
			return nil
		}
		key := envTag
		if l.envPrefix != "" {
			key = l.envPrefix + "_" + envTag
		}
		val, ok := os.LookupEnv(key)
		if !ok {
			return nil
		}
		if err := setField(field, val); err != nil {
			return fmt.Errorf("field %q from env var %q: %w", sf.Name, key, err)
		}
		return nil
	}); err != nil {
		return gwerr.Wrap(err, gwerr.CodeInternalConfiguration,
			"config: failed to apply environment variables")
	}

	// Required fields, then struct-level validation.
	if err := walkFields(rv, func(field reflect.Value, sf reflect.StructField) error {
		if sf.Tag.Get("required") == "true" && field.IsZero() {
			return fmt.Errorf("field %q is required but not set", sf.Name)
		}
		return nil
	}); err != nil {
		return gwerr.Wrap(err, gwerr.CodeInternalConfiguration,
			"config: validation failed")
	}
	if v, ok := cfg.(Validator); ok {
		if err := v.Validate(); err != nil {
			return gwerr.Wrap(err, gwerr.CodeInternalConfiguration,
				"config: validation failed")
		}
	}
	return nil
}

// MustLoad is a generic convenience function that creates a zero-valued
// instance of T, loads configuration into it, and returns the populated
// value. It panics if loading or validation fails.
//
// Use MustLoad in application startup (func main) where a missing or
// invalid configuration should prevent the gateway from starting.
//
// Example:
//
//	cfg := config.MustLoad[config.Config](config.New().WithEnvPrefix("BOLTGW"))
func MustLoad[T any](loader *Loader) T {
	var cfg T
	if err := loader.Load(&cfg); err != nil {
		panic(fmt.Sprintf("config: MustLoad failed: %v", err))
	}
	return cfg
}

// loadFile reads a YAML or JSON file and unmarshals it into the config
// struct. Missing files are silently ignored. The path is rejected when it
// contains directory traversal sequences.
func (l *Loader) loadFile(cfg any) error {
	if strings.Contains(l.filePath, "..") {
		return gwerr.New(gwerr.CodeInternalConfiguration,
			"config: file path must not contain directory traversal (..) sequences")
	}

	data, err := os.ReadFile(l.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return gwerr.Wrapf(err, gwerr.CodeInternalConfiguration,
			"config: failed to read file %q", l.filePath)
	}

	switch ext := strings.ToLower(filepath.Ext(l.filePath)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return gwerr.Wrapf(err, gwerr.CodeInternalConfiguration,
				"config: failed to parse YAML file %q", l.filePath)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return gwerr.Wrapf(err, gwerr.CodeInternalConfiguration,
				"config: failed to parse JSON file %q", l.filePath)
		}
	default:
		return gwerr.Newf(gwerr.CodeInternalConfiguration,
			"config: unsupported file extension %q (use .yaml, .yml, or .json)", ext)
	}
	return nil
}

// walkFields applies fn to every settable leaf field of the struct,
// recursing into nested (non-leaf) structs.
func walkFields(rv reflect.Value, fn func(reflect.Value, reflect.StructField) error) error {
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		field := rv.Field(i)
		sf := rt.Field(i)
		if !field.CanSet() {
			continue
		}
		if field.Kind() == reflect.Struct {
			if err := walkFields(field, fn); err != nil {
				return err
			}
			continue
		}
		if err := fn(field, sf); err != nil {
			return err
		}
	}
	return nil
}

// setField parses the string value and sets the reflect.Value according to
// its kind. Supported kinds: string (including named types such as
// [Secret]), bool, and integers.
func setField(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("cannot parse bool %q: %w", value, err)
		}
		field.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(value, 10, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("cannot parse integer %q: %w", value, err)
		}
		field.SetInt(n)
	default:
		return fmt.Errorf("unsupported field type %s", field.Kind())
	}
	return nil
}
