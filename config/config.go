package config

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Aashish23092/ocr-document-validity/dto"
	"github.com/Aashish23092/ocr-document-validity/utils/dateparser"
	"github.com/spf13/viper"
)

// Config groups the service settings. Values come from environment variables
// (SERVER_PORT, LOG_LEVEL, ...) layered over an optional config.yaml.
type Config struct {
	ServerPort        string
	AppEnv            string // development, production
	LogLevel          string
	TesseractDataPath string
	OCRLanguages      string
	OutputDir         string
	DefaultSchema     string
	BatchConcurrency  int
	MaxFileSize       int64

	// MonthAliases are extra OCR misreadings appended to the built-in month table.
	MonthAliases      []dateparser.MonthAlias
	MonthTableVersion string
}

// LoadConfig reads config.yaml from the working directory or ./config when present.
func LoadConfig() (*Config, error) {
	return LoadConfigFrom("")
}

// LoadConfigFrom reads the given config file, or searches the default
// locations when path is empty. A missing default file is not an error.
func LoadConfigFrom(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	aliases, err := parseMonthAliases(v.Get("month_aliases"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		ServerPort:        v.GetString("server_port"),
		AppEnv:            v.GetString("app_env"),
		LogLevel:          v.GetString("log_level"),
		TesseractDataPath: v.GetString("tessdata_prefix"),
		OCRLanguages:      v.GetString("ocr_languages"),
		OutputDir:         v.GetString("output_dir"),
		DefaultSchema:     v.GetString("default_schema"),
		BatchConcurrency:  v.GetInt("batch_concurrency"),
		MaxFileSize:       v.GetInt64("max_upload_mb") << 20,
		MonthAliases:      aliases,
		MonthTableVersion: v.GetString("month_table_version"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server_port", "8080")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("tessdata_prefix", "/usr/share/tesseract-ocr/5/tessdata/")
	v.SetDefault("ocr_languages", "spa+eng")
	v.SetDefault("output_dir", "./dataResults")
	v.SetDefault("default_schema", dto.SchemaRACDA.Name)
	v.SetDefault("batch_concurrency", 4)
	v.SetDefault("max_upload_mb", 10)
	v.SetDefault("month_table_version", dateparser.DefaultTableVersion+"+config")
}

// Validate checks values that would otherwise fail later at request time.
func (c *Config) Validate() error {
	if _, err := dto.LookupSchema(c.DefaultSchema); err != nil {
		return fmt.Errorf("default_schema: %w", err)
	}
	if c.BatchConcurrency < 1 {
		return fmt.Errorf("batch_concurrency must be at least 1, got %d", c.BatchConcurrency)
	}
	if c.MaxFileSize <= 0 {
		return fmt.Errorf("max_upload_mb must be positive")
	}
	if _, err := c.MonthTable(); err != nil {
		return fmt.Errorf("month_aliases: %w", err)
	}
	return nil
}

// MonthTable returns the built-in month table extended with the configured aliases.
func (c *Config) MonthTable() (*dateparser.MonthTable, error) {
	if len(c.MonthAliases) == 0 {
		return dateparser.DefaultMonthTable(), nil
	}
	return dateparser.DefaultMonthTable().Extend(c.MonthTableVersion, c.MonthAliases)
}

// parseMonthAliases accepts a YAML map (MAIO: 5) or an env string
// ("MAIO=5,NQV=11"). Tokens are sorted so table order is stable.
func parseMonthAliases(raw any) ([]dateparser.MonthAlias, error) {
	pairs := map[string]string{}
	switch val := raw.(type) {
	case nil:
		return nil, nil
	case string:
		for _, item := range strings.Split(val, ",") {
			item = strings.TrimSpace(item)
			if item == "" {
				continue
			}
			token, month, ok := strings.Cut(item, "=")
			if !ok {
				return nil, fmt.Errorf("month_aliases: expected TOKEN=MONTH, got %q", item)
			}
			pairs[strings.TrimSpace(token)] = strings.TrimSpace(month)
		}
	case map[string]any:
		for token, month := range val {
			pairs[token] = fmt.Sprint(month)
		}
	case map[string]string:
		for token, month := range val {
			pairs[token] = month
		}
	default:
		return nil, fmt.Errorf("month_aliases: unsupported value of type %T", raw)
	}

	tokens := make([]string, 0, len(pairs))
	for token := range pairs {
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)

	aliases := make([]dateparser.MonthAlias, 0, len(tokens))
	for _, token := range tokens {
		n, err := strconv.Atoi(pairs[token])
		if err != nil {
			return nil, fmt.Errorf("month_aliases: month for %q is not a number: %w", token, err)
		}
		aliases = append(aliases, dateparser.MonthAlias{Token: token, Month: time.Month(n)})
	}
	return aliases, nil
}
