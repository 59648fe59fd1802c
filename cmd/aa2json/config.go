package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joeshaw/envdecode"

	"github.com/Neumenon/aa/aa"
	"github.com/Neumenon/aa/source"
)

// Config is the effective aa2json configuration.
type Config struct {
	Pretty        bool
	IndentSpaces  int
	IndentTabs    bool
	MaxDepth      int
	Charset       string
	Strict        bool
	MaxInputBytes int64
	LogLevel      string
}

func defaultConfig() Config {
	return Config{
		IndentSpaces:  4,
		MaxDepth:      aa.DefaultMaxDepth,
		Charset:       "utf-8",
		MaxInputBytes: source.DefaultMaxSize,
		LogLevel:      "warn",
	}
}

type fileConfig struct {
	Pretty        bool   `toml:"pretty"`
	IndentSpaces  int    `toml:"indent_spaces"`
	IndentTabs    bool   `toml:"indent_tabs"`
	MaxDepth      int    `toml:"max_depth"`
	Charset       string `toml:"charset"`
	Strict        bool   `toml:"strict"`
	MaxInputBytes int64  `toml:"max_input_bytes"`
	LogLevel      string `toml:"log_level"`
}

// envConfig is read with envdecode. Fields are strings so that unset
// variables can be told apart from false or zero.
type envConfig struct {
	Config        string `env:"AA2JSON_CONFIG"`
	Pretty        string `env:"AA2JSON_PRETTY"`
	IndentSpaces  string `env:"AA2JSON_INDENT_SPACES"`
	IndentTabs    string `env:"AA2JSON_INDENT_TABS"`
	MaxDepth      string `env:"AA2JSON_MAX_DEPTH"`
	Charset       string `env:"AA2JSON_CHARSET"`
	Strict        string `env:"AA2JSON_STRICT"`
	MaxInputBytes string `env:"AA2JSON_MAX_INPUT_BYTES"`
	LogLevel      string `env:"AA2JSON_LOG_LEVEL"`
}

// loadConfig merges defaults, the config file, the environment and the
// command line, in that order.
func loadConfig(fl *cliFlags) (Config, error) {
	cfg := defaultConfig()

	var env envConfig
	if err := envdecode.Decode(&env); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return Config{}, fmt.Errorf("read environment: %w", err)
	}

	path := env.Config
	if fl.changed("config") {
		path = fl.configPath
	}
	if path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg, env); err != nil {
		return Config{}, err
	}
	applyFlags(&cfg, fl)

	if err := cfg.validate(fl); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("load config %s: unknown key %q", path, undecoded[0].String())
	}

	if meta.IsDefined("pretty") {
		cfg.Pretty = raw.Pretty
	}
	if meta.IsDefined("indent_spaces") {
		cfg.IndentSpaces = raw.IndentSpaces
		cfg.IndentTabs = false
	}
	if meta.IsDefined("indent_tabs") {
		cfg.IndentTabs = raw.IndentTabs
	}
	if meta.IsDefined("max_depth") {
		cfg.MaxDepth = raw.MaxDepth
	}
	if meta.IsDefined("charset") {
		cfg.Charset = strings.TrimSpace(raw.Charset)
	}
	if meta.IsDefined("strict") {
		cfg.Strict = raw.Strict
	}
	if meta.IsDefined("max_input_bytes") {
		cfg.MaxInputBytes = raw.MaxInputBytes
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}
	return nil
}

func applyEnv(cfg *Config, env envConfig) error {
	var err error
	setBool := func(name, s string, dst *bool) {
		if s == "" || err != nil {
			return
		}
		b, perr := strconv.ParseBool(strings.TrimSpace(s))
		if perr != nil {
			err = fmt.Errorf("parse %s: %w", name, perr)
			return
		}
		*dst = b
	}
	setInt := func(name, s string, dst *int64) {
		if s == "" || err != nil {
			return
		}
		n, perr := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if perr != nil {
			err = fmt.Errorf("parse %s: %w", name, perr)
			return
		}
		*dst = n
	}

	setBool("AA2JSON_PRETTY", env.Pretty, &cfg.Pretty)
	if env.IndentSpaces != "" {
		n := int64(cfg.IndentSpaces)
		setInt("AA2JSON_INDENT_SPACES", env.IndentSpaces, &n)
		cfg.IndentSpaces = int(n)
		cfg.IndentTabs = false
	}
	setBool("AA2JSON_INDENT_TABS", env.IndentTabs, &cfg.IndentTabs)
	if env.MaxDepth != "" {
		n := int64(cfg.MaxDepth)
		setInt("AA2JSON_MAX_DEPTH", env.MaxDepth, &n)
		cfg.MaxDepth = int(n)
	}
	if env.Charset != "" {
		cfg.Charset = strings.TrimSpace(env.Charset)
	}
	setBool("AA2JSON_STRICT", env.Strict, &cfg.Strict)
	setInt("AA2JSON_MAX_INPUT_BYTES", env.MaxInputBytes, &cfg.MaxInputBytes)
	if env.LogLevel != "" {
		cfg.LogLevel = strings.TrimSpace(env.LogLevel)
	}
	return err
}

func applyFlags(cfg *Config, fl *cliFlags) {
	if fl.changed("pretty") {
		cfg.Pretty = fl.pretty
	}
	if fl.changed("indent-spaces") {
		cfg.IndentSpaces = fl.indentSpaces
		cfg.IndentTabs = false
	}
	if fl.changed("indent-tabs") {
		cfg.IndentTabs = fl.indentTabs
	}
	if fl.changed("max-depth") {
		cfg.MaxDepth = fl.maxDepth
	}
	if fl.changed("charset") {
		cfg.Charset = fl.charset
	}
	if fl.changed("strict") {
		cfg.Strict = fl.strict
	}
	if fl.changed("max-input-bytes") {
		cfg.MaxInputBytes = fl.maxInputBytes
	}
	if fl.changed("log-level") {
		cfg.LogLevel = fl.logLevel
	}
	if fl.verbose {
		cfg.LogLevel = "debug"
	}
}

func (c Config) validate(fl *cliFlags) error {
	if (fl.changed("indent-spaces") || fl.changed("indent-tabs")) && !c.Pretty {
		return errors.New("--indent-spaces and --indent-tabs require --pretty")
	}
	if c.IndentSpaces < 1 || c.IndentSpaces > 255 {
		return fmt.Errorf("indent spaces must be between 1 and 255, got %d", c.IndentSpaces)
	}
	if c.MaxDepth < 1 || c.MaxDepth > aa.MaxDepthLimit {
		return fmt.Errorf("max depth must be between 1 and %d, got %d", aa.MaxDepthLimit, c.MaxDepth)
	}
	if c.MaxInputBytes < 1 {
		return fmt.Errorf("max input bytes must be positive, got %d", c.MaxInputBytes)
	}
	if _, err := aa.ParseCharset(c.Charset); err != nil {
		return err
	}
	return nil
}

// indent returns the JSON indent unit, empty for compact output.
func (c Config) indent() string {
	switch {
	case !c.Pretty:
		return ""
	case c.IndentTabs:
		return "\t"
	default:
		return strings.Repeat(" ", c.IndentSpaces)
	}
}
