// Package config holds the serve-time configuration: where to listen, how
// fragments are produced, and how seed mutation is bounded. Values come
// from built-in defaults, optionally a TOML file, then flag overrides;
// validation runs once at startup so the delivery loop never sees a bad
// parameter.
package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"browserfuzz/internal/mutator"
)

// Fragment production modes.
const (
	ModeGenerate = "generate" // fresh random fragment per request
	ModeMutate   = "mutate"   // freshly mutated copy of the seed per request
)

type Server struct {
	Addr        string `toml:"addr"`
	MetricsAddr string `toml:"metrics_addr"`
	ContentType string `toml:"content_type"`
}

type Payload struct {
	Mode      string `toml:"mode"`
	LengthMin int    `toml:"length_min"`
	LengthMax int    `toml:"length_max"`
	Alphabet  string `toml:"alphabet"`
}

type Mutate struct {
	SeedFile string `toml:"seed_file"`
	CountMin int    `toml:"count_min"`
	CountMax int    `toml:"count_max"`
}

type Config struct {
	Server  Server  `toml:"server"`
	Payload Payload `toml:"payload"`
	Mutate  Mutate  `toml:"mutate"`
}

// Default mirrors the classic browser-fuzzing setup: printable fragments of
// 10-500 bytes on port 8080.
func Default() Config {
	return Config{
		Server: Server{
			Addr:        "127.0.0.1:8080",
			ContentType: "text/html",
		},
		Payload: Payload{
			Mode:      ModeGenerate,
			LengthMin: 10,
			LengthMax: 500,
			Alphabet:  mutator.AlphabetPrintable,
		},
	}
}

// Load decodes a TOML file over the defaults; absent keys keep their
// default values.
func Load(path string) (Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	return cfg, nil
}

// Validate fails fast on anything the serve loop could choke on later.
func (c Config) Validate() error {
	if err := validateAddr(c.Server.Addr); err != nil {
		return fmt.Errorf("server.addr: %w", err)
	}
	if c.Server.MetricsAddr != "" {
		if err := validateAddr(c.Server.MetricsAddr); err != nil {
			return fmt.Errorf("server.metrics_addr: %w", err)
		}
	}
	if strings.TrimSpace(c.Server.ContentType) == "" {
		return fmt.Errorf("server.content_type: must not be empty")
	}

	switch c.Payload.Mode {
	case ModeGenerate, ModeMutate:
	default:
		return fmt.Errorf("payload.mode: unknown mode %q (want %q or %q)", c.Payload.Mode, ModeGenerate, ModeMutate)
	}
	if c.Payload.LengthMin < 1 {
		return fmt.Errorf("payload.length_min: must be at least 1, got %d", c.Payload.LengthMin)
	}
	if c.Payload.LengthMin > c.Payload.LengthMax {
		return fmt.Errorf("payload: inverted length range [%d, %d]", c.Payload.LengthMin, c.Payload.LengthMax)
	}
	if _, err := mutator.ParseAlphabet(c.Payload.Alphabet); err != nil {
		return fmt.Errorf("payload.alphabet: %w", err)
	}

	if c.Mutate.CountMin < 0 || c.Mutate.CountMax < 0 {
		return fmt.Errorf("mutate: negative count bounds [%d, %d]", c.Mutate.CountMin, c.Mutate.CountMax)
	}
	if c.Mutate.CountMax > 0 && c.Mutate.CountMin > c.Mutate.CountMax {
		return fmt.Errorf("mutate: inverted count bounds [%d, %d]", c.Mutate.CountMin, c.Mutate.CountMax)
	}
	return nil
}

func validateAddr(addr string) error {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("invalid listen address %q: %w", addr, err)
	}
	_ = host // empty host binds all interfaces
	p, err := strconv.Atoi(port)
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("invalid port %q in listen address %q", port, addr)
	}
	return nil
}
