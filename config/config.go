package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ardnew/softgadget/gadget"
	"github.com/ardnew/softgadget/pkg"
)

// EnvPrefix prefixes every environment variable the loader reads.
const EnvPrefix = "SOFTGADGET"

// Config is the gadget's runtime configuration.
type Config struct {
	USBClass    uint `mapstructure:"usb_class" validate:"lte=255"`
	USBSubClass uint `mapstructure:"usb_subclass" validate:"lte=255"`
	USBProtocol uint `mapstructure:"usb_protocol" validate:"lte=255"`
	USBVendor   uint `mapstructure:"usb_vendor" validate:"lte=65535"`
	USBProduct  uint `mapstructure:"usb_product" validate:"lte=65535"`

	// HostAddr is the host-side MAC of network configurations. Empty
	// selects a random address.
	HostAddr string `mapstructure:"host_addr" validate:"omitempty,mac"`

	// Configs lists the enabled configurations. At most one of rndis and
	// ecm may be listed.
	Configs []string `mapstructure:"configs" validate:"min=1,one_network,dive,oneof=rndis ecm generic"`

	// UDC names the gadget controller. Empty selects the first one found.
	UDC string `mapstructure:"udc"`

	// Device is the FunctionFS device name to mount.
	Device string `mapstructure:"device" validate:"required"`

	// Descriptors is the path of the function's YAML descriptor file.
	Descriptors string `mapstructure:"descriptors"`

	Log LogConfig `mapstructure:"log"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn warning error"`
	Format string `mapstructure:"format" validate:"oneof=text json"`

	// File sends logs to a rotating file instead of stderr.
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" validate:"gte=0"`
	MaxBackups int    `mapstructure:"max_backups" validate:"gte=0"`
	MaxAgeDays int    `mapstructure:"max_age_days" validate:"gte=0"`
}

// defaults lists every key with its default value. Keys must be known to
// viper for environment variables to reach Unmarshal.
var defaults = map[string]any{
	"usb_class":        0,
	"usb_subclass":     0,
	"usb_protocol":     0,
	"usb_vendor":       gadget.DefaultVendorID,
	"usb_product":      gadget.DefaultProductID,
	"host_addr":        "",
	"configs":          []string{"rndis", "generic"},
	"udc":              "",
	"device":           "ffs0",
	"descriptors":      "",
	"log.level":        "warn",
	"log.format":       "text",
	"log.file":         "",
	"log.max_size_mb":  10,
	"log.max_backups":  3,
	"log.max_age_days": 28,
}

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"usb-class":    "usb_class",
	"usb-subclass": "usb_subclass",
	"usb-protocol": "usb_protocol",
	"usb-vendor":   "usb_vendor",
	"usb-product":  "usb_product",
	"host-addr":    "host_addr",
	"configs":      "configs",
	"udc":          "udc",
	"device":       "device",
	"descriptors":  "descriptors",
	"log-level":    "log.level",
	"log-format":   "log.format",
	"log-file":     "log.file",
}

// RegisterFlags defines the configuration flags on flags.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.Uint("usb-class", 0, "device class")
	flags.Uint("usb-subclass", 0, "device subclass")
	flags.Uint("usb-protocol", 0, "device protocol")
	flags.Uint("usb-vendor", gadget.DefaultVendorID, "vendor ID")
	flags.Uint("usb-product", gadget.DefaultProductID, "product ID")
	flags.String("host-addr", "", "host-side MAC address of network configurations")
	flags.StringSlice("configs", []string{"rndis", "generic"}, "enabled configurations (rndis or ecm, generic)")
	flags.String("udc", "", "gadget controller name")
	flags.String("device", "ffs0", "FunctionFS device name")
	flags.String("descriptors", "", "function descriptor file (YAML)")
	flags.String("log-level", "warn", "log level (debug, info, warn, error)")
	flags.String("log-format", "text", "log format (text, json)")
	flags.String("log-file", "", "write logs to a rotating file")
}

type loader struct {
	configFile string
	envFile    string
	flags      *pflag.FlagSet
}

// Option configures Load.
type Option func(*loader)

// WithConfigFile reads path as the YAML configuration file.
func WithConfigFile(path string) Option {
	return func(l *loader) { l.configFile = path }
}

// WithEnvFile loads path as a .env file before reading the environment.
// A missing file is ignored.
func WithEnvFile(path string) Option {
	return func(l *loader) { l.envFile = path }
}

// WithFlags binds flags defined by RegisterFlags. Flags set on the command
// line take precedence over every other source.
func WithFlags(flags *pflag.FlagSet) Option {
	return func(l *loader) { l.flags = flags }
}

// Load reads the configuration from defaults, the configuration file, the
// environment, and flags, in increasing order of precedence, and validates
// it.
func Load(opts ...Option) (*Config, error) {
	var l loader
	for _, opt := range opts {
		opt(&l)
	}

	if l.envFile != "" {
		if err := godotenv.Load(l.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load env file %s: %w", l.envFile, err)
		}
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if l.configFile != "" {
		v.SetConfigFile(l.configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", l.configFile, err)
		}
	}

	if l.flags != nil {
		for name, key := range flagKeys {
			if f := l.flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, err
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", pkg.ErrInvalidParameter, err)
	}
	for i, name := range cfg.Configs {
		cfg.Configs[i] = strings.ToLower(strings.TrimSpace(name))
	}
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	cfg.Log.Format = strings.ToLower(cfg.Log.Format)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	pkg.LogDebug(pkg.ComponentConfig, "configuration loaded",
		"file", v.ConfigFileUsed(),
		"configs", cfg.Configs,
		"vendor", cfg.USBVendor,
		"product", cfg.USBProduct)
	return &cfg, nil
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			return fld.Tag.Get("mapstructure")
		})
		if err := validate.RegisterValidation("one_network", oneNetwork); err != nil {
			panic(err)
		}
	})
	return validate
}

// oneNetwork reports whether a configuration list names at most one
// network transport. Duplicates are allowed.
func oneNetwork(fl validator.FieldLevel) bool {
	names, ok := fl.Field().Interface().([]string)
	if !ok {
		return false
	}
	var rndis, ecm bool
	for _, name := range names {
		rndis = rndis || name == "rndis"
		ecm = ecm || name == "ecm"
	}
	return !(rndis && ecm)
}

// Validate checks field ranges and enumerations.
func (c *Config) Validate() error {
	err := getValidator().Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %w", pkg.ErrInvalidParameter, err)
	}
	messages := make([]string, 0, len(fieldErrs))
	for _, e := range fieldErrs {
		messages = append(messages, fieldPath(e)+": "+describe(e))
	}
	return fmt.Errorf("%w: %s", pkg.ErrInvalidParameter, strings.Join(messages, "; "))
}

// fieldPath returns the configuration key of e, e.g. "log.level".
func fieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		ns = ns[i+1:]
	}
	return ns
}

func describe(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "lte":
		return "must be at most " + e.Param()
	case "gte":
		return "must be at least " + e.Param()
	case "min":
		return "must list at least " + e.Param()
	case "oneof":
		return fmt.Sprintf("%v is not one of %s", e.Value(), e.Param())
	case "one_network":
		return "rndis and ecm are mutually exclusive"
	case "mac":
		return fmt.Sprintf("%q is not a MAC address", e.Value())
	default:
		return "failed " + e.Tag()
	}
}

// Params converts the descriptor fields to gadget parameters.
func (c *Config) Params() (gadget.Params, error) {
	p := gadget.Params{
		Class:     uint8(c.USBClass),
		SubClass:  uint8(c.USBSubClass),
		Protocol:  uint8(c.USBProtocol),
		VendorID:  uint16(c.USBVendor),
		ProductID: uint16(c.USBProduct),
	}
	if c.HostAddr != "" {
		addr, err := net.ParseMAC(c.HostAddr)
		if err != nil {
			return gadget.Params{}, fmt.Errorf("%w: host_addr: %w", pkg.ErrInvalidParameter, err)
		}
		if len(addr) != 6 {
			return gadget.Params{}, fmt.Errorf("%w: host_addr %s is not an EUI-48 address",
				pkg.ErrInvalidParameter, c.HostAddr)
		}
		p.HostAddr = addr
	}
	return p, nil
}

// Enabled converts the configuration names to an enabled set.
func (c *Config) Enabled() (gadget.Enabled, error) {
	return gadget.ParseEnabled(c.Configs)
}

// LogLevel returns the configured log level.
func (c *Config) LogLevel() (slog.Level, error) {
	return pkg.ParseLogLevel(c.Log.Level)
}

// LogFormat returns the configured log format.
func (c *Config) LogFormat() (pkg.LogFormat, error) {
	return pkg.ParseLogFormat(c.Log.Format)
}
