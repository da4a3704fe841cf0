package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/fx"
)

// RulesConfig carries the business tables behind the compliance evaluator and
// the consultation price list. The bracket boundaries and the VAT cutoff are
// kept out of code because they track Portuguese tax figures that change by
// fiscal year.
type RulesConfig struct {
	VATThresholdEUR int64           `mapstructure:"vatThresholdEur"`
	IncomeBrackets  []IncomeBracket `mapstructure:"incomeBrackets"`
	ConsultServices []ConsultRate   `mapstructure:"consultServices"`
	PlatformFeePct  int64           `mapstructure:"platformFeePct"`
}

// IncomeBracket is one selectable annual-income range. UpperEUR == 0 means
// the bracket is open-ended.
type IncomeBracket struct {
	Code     string `mapstructure:"code"`
	LowerEUR int64  `mapstructure:"lowerEur"`
	UpperEUR int64  `mapstructure:"upperEur"`
}

// ConsultRate maps a consultation service type to its duration and price.
type ConsultRate struct {
	ServiceType     string `mapstructure:"serviceType"`
	DurationMinutes int    `mapstructure:"durationMinutes"`
	TotalCents      int64  `mapstructure:"totalCents"`
}

// ConsultRateFor resolves a service type against the price list.
func (c RulesConfig) ConsultRateFor(serviceType string) (ConsultRate, bool) {
	for _, rate := range c.ConsultServices {
		if rate.ServiceType == serviceType {
			return rate, true
		}
	}
	return ConsultRate{}, false
}

func DefaultRulesConfig() RulesConfig {
	return RulesConfig{
		VATThresholdEUR: 15_000,
		IncomeBrackets: []IncomeBracket{
			{Code: "under_10k", LowerEUR: 0, UpperEUR: 9_999},
			{Code: "10k_15k", LowerEUR: 10_000, UpperEUR: 14_999},
			{Code: "15k_30k", LowerEUR: 15_000, UpperEUR: 29_999},
			{Code: "30k_60k", LowerEUR: 30_000, UpperEUR: 59_999},
			{Code: "over_60k", LowerEUR: 60_000, UpperEUR: 0},
		},
		ConsultServices: []ConsultRate{
			{ServiceType: "triage", DurationMinutes: 30, TotalCents: 5_900},
			{ServiceType: "full_review", DurationMinutes: 60, TotalCents: 12_900},
			{ServiceType: "activity_setup", DurationMinutes: 45, TotalCents: 9_900},
		},
		PlatformFeePct: 30,
	}
}

// RulesHolder provides lock-free reads of the current rules table with
// hot reload on config file changes.
type RulesHolder struct {
	current atomic.Value
}

var RulesModule = fx.Provide(NewRulesHolder)

func NewRulesHolder() (*RulesHolder, error) {
	v := viper.New()
	v.SetConfigName("rules")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/worktugal")
	v.AddConfigPath(".")

	v.SetEnvPrefix("WORKTUGAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultRulesConfig()
	v.SetDefault("rules.vatThresholdEur", defaults.VATThresholdEUR)
	v.SetDefault("rules.incomeBrackets", defaults.IncomeBrackets)
	v.SetDefault("rules.consultServices", defaults.ConsultServices)
	v.SetDefault("rules.platformFeePct", defaults.PlatformFeePct)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg RulesConfig
	if err := v.UnmarshalKey("rules", &cfg); err != nil {
		return nil, err
	}
	if err := validateRulesConfig(cfg); err != nil {
		return nil, err
	}

	holder := &RulesHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated RulesConfig
		if err := v.UnmarshalKey("rules", &updated); err != nil {
			log.Printf("[rules-config] reload failed: %v", err)
			return
		}
		if err := validateRulesConfig(updated); err != nil {
			log.Printf("[rules-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
	})

	return holder, nil
}

func (h *RulesHolder) Current() RulesConfig {
	return h.current.Load().(RulesConfig)
}

// NewStaticRulesHolder wraps a fixed table, for tests.
func NewStaticRulesHolder(cfg RulesConfig) *RulesHolder {
	holder := &RulesHolder{}
	holder.current.Store(cfg)
	return holder
}

func validateRulesConfig(cfg RulesConfig) error {
	if cfg.VATThresholdEUR <= 0 {
		return errors.New("vat threshold must be positive")
	}
	if len(cfg.IncomeBrackets) == 0 {
		return errors.New("at least one income bracket is required")
	}
	seen := map[string]struct{}{}
	for _, b := range cfg.IncomeBrackets {
		code := strings.TrimSpace(b.Code)
		if code == "" {
			return errors.New("income bracket code is required")
		}
		if _, dup := seen[code]; dup {
			return errors.New("duplicate income bracket code: " + code)
		}
		seen[code] = struct{}{}
		if b.UpperEUR != 0 && b.UpperEUR < b.LowerEUR {
			return errors.New("income bracket upper bound below lower bound: " + code)
		}
	}
	if cfg.PlatformFeePct < 0 || cfg.PlatformFeePct > 100 {
		return errors.New("platform fee percent out of range")
	}
	for _, rate := range cfg.ConsultServices {
		if strings.TrimSpace(rate.ServiceType) == "" {
			return errors.New("consult service type is required")
		}
		if rate.TotalCents <= 0 {
			return errors.New("consult service price must be positive: " + rate.ServiceType)
		}
	}
	return nil
}
