package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config holds the parsed command-line configuration
type Config struct {
	// CapturePath is the pcap or pcapng file to analyze
	CapturePath string
	// Filter is an expression selecting the events to include (empty keeps all)
	Filter string
	// CustomAttributes are extra span attributes for exported transactions
	CustomAttributes []CustomAttribute
	// OTELExport enables OTLP span export of request/response transactions
	OTELExport bool
	// MaxValue is the value display limit in the flow view (0 disables the limit)
	MaxValue int
	// ShowVersion prints version information and exits
	ShowVersion bool
}

// CustomAttribute is one NAME=EXPR attribute definition.
type CustomAttribute struct {
	Name       string
	Expression string
}

// EnvConfig holds configuration from GATTSCOPE_* environment variables.
// Flags override these.
type EnvConfig struct {
	Filter     string `env:"GATTSCOPE_FILTER" envDefault:""`
	Attributes string `env:"GATTSCOPE_ATTRIBUTES" envDefault:""`
	MaxValue   int    `env:"GATTSCOPE_MAX_VALUE" envDefault:"30"`
}

// ParseEnvConfig parses GATTSCOPE_* configuration from environment variables
func ParseEnvConfig() (*EnvConfig, error) {
	var cfg EnvConfig
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment config: %w", err)
	}
	return &cfg, nil
}

// parseAttribute parses a single NAME=EXPR definition. The expression may
// itself contain '=' characters; only the first one separates name from
// expression.
func parseAttribute(s string) (CustomAttribute, error) {
	idx := strings.Index(s, "=")
	if idx < 0 {
		return CustomAttribute{}, fmt.Errorf("invalid attribute format %q: expected NAME=EXPR", s)
	}
	name := strings.TrimSpace(s[:idx])
	expression := strings.TrimSpace(s[idx+1:])
	if name == "" {
		return CustomAttribute{}, fmt.Errorf("attribute name cannot be empty in %q", s)
	}
	if expression == "" {
		return CustomAttribute{}, fmt.Errorf("attribute expression cannot be empty in %q", s)
	}
	return CustomAttribute{Name: name, Expression: expression}, nil
}

// ParseAttributeString parses a semicolon-separated list of NAME=EXPR
// definitions, as carried by GATTSCOPE_ATTRIBUTES. Empty sections are skipped.
func ParseAttributeString(s string) ([]CustomAttribute, error) {
	if s == "" {
		return nil, nil
	}
	var attrs []CustomAttribute
	for _, part := range strings.Split(s, ";") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		attr, err := parseAttribute(part)
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, attr)
	}
	return attrs, nil
}

// ParseArgs parses command-line arguments and returns a Config.
// Environment variables seed the defaults; flags win. Attributes merge, with
// environment-provided ones first.
func ParseArgs(args []string) (*Config, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("no arguments provided")
	}
	prog := args[0]

	envCfg, err := ParseEnvConfig()
	if err != nil {
		return nil, err
	}
	envAttrs, err := ParseAttributeString(envCfg.Attributes)
	if err != nil {
		return nil, fmt.Errorf("GATTSCOPE_ATTRIBUTES: %w", err)
	}

	cfg := &Config{
		Filter:           envCfg.Filter,
		CustomAttributes: envAttrs,
		MaxValue:         envCfg.MaxValue,
	}

	for i := 1; i < len(args); i++ {
		arg := args[i]
		switch arg {
		case "-f", "--filter":
			if i+1 >= len(args) {
				return nil, fmt.Errorf("%s requires a value", arg)
			}
			i++
			cfg.Filter = args[i]
		case "-a", "--attribute":
			if i+1 >= len(args) {
				return nil, fmt.Errorf("%s requires a value", arg)
			}
			i++
			attr, err := parseAttribute(args[i])
			if err != nil {
				return nil, err
			}
			cfg.CustomAttributes = append(cfg.CustomAttributes, attr)
		case "--otel":
			cfg.OTELExport = true
		case "--max-value":
			if i+1 >= len(args) {
				return nil, fmt.Errorf("%s requires a value", arg)
			}
			i++
			n, err := strconv.Atoi(args[i])
			if err != nil || n < 0 {
				return nil, fmt.Errorf("--max-value must be a non-negative integer, got %q", args[i])
			}
			cfg.MaxValue = n
		case "--version":
			cfg.ShowVersion = true
		default:
			if strings.HasPrefix(arg, "-") {
				return nil, fmt.Errorf("unknown flag %q", arg)
			}
			if cfg.CapturePath != "" {
				return nil, fmt.Errorf("unexpected argument %q (capture file already given: %s)", arg, cfg.CapturePath)
			}
			cfg.CapturePath = arg
		}
	}

	if cfg.ShowVersion {
		return cfg, nil
	}
	if cfg.CapturePath == "" {
		return nil, fmt.Errorf("Usage: %s [-f EXPR] [-a NAME=EXPR] [--otel] [--max-value N] <capture-file>\nExample: %s -f 'op == \"Write Request\"' capture.pcapng",
			prog, prog)
	}
	return cfg, nil
}
