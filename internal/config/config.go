package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/gmcortes/docufind/pkg/utils"
)

// Config holds all application configuration
type Config struct {
	Email      EmailConfig      `mapstructure:"email"`
	Search     SearchConfig     `mapstructure:"search"`
	Extraction ExtractionConfig `mapstructure:"extraction"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Database   DatabaseConfig   `mapstructure:"database"`
	OpenAI     OpenAIConfig     `mapstructure:"openai"`
	Report     ReportConfig     `mapstructure:"report"`
	Processing ProcessingConfig `mapstructure:"processing"`
	Logger     LoggerConfig     `mapstructure:"logger"`
}

// EmailConfig holds IMAP mailbox configuration
type EmailConfig struct {
	Server   string        `mapstructure:"server"`
	Port     int           `mapstructure:"port"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	Mailbox  string        `mapstructure:"mailbox"`
	Timeout  time.Duration `mapstructure:"timeout"`

	// MaxAttachmentSize caps each downloaded attachment, in bytes.
	MaxAttachmentSize int64 `mapstructure:"max_attachment_size"`
}

// SearchConfig holds the default email search window and filters
type SearchConfig struct {
	DaysBack int      `mapstructure:"days_back"`
	Keywords []string `mapstructure:"keywords"`
	Limit    int      `mapstructure:"limit"`
}

// ExtractionConfig holds extraction pipeline tuning
type ExtractionConfig struct {
	MaxTextLength int `mapstructure:"max_text_length"`

	// EnhanceBelowConfidence triggers the AI enhancer for records scoring
	// under this value. Zero disables enhancement entirely.
	EnhanceBelowConfidence float64 `mapstructure:"enhance_below_confidence"`
}

// StorageConfig holds the local document archive configuration
type StorageConfig struct {
	RootDir    string `mapstructure:"root_dir"`
	FolderName string `mapstructure:"folder_name"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// OpenAIConfig holds OpenAI API configuration
type OpenAIConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	Temperature float32       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// ReportConfig holds tracking sheet and run summary configuration
type ReportConfig struct {
	SheetPath   string `mapstructure:"sheet_path"`
	SummaryDir  string `mapstructure:"summary_dir"`
	SheetName   string `mapstructure:"sheet_name"`
	CompanyName string `mapstructure:"company_name"`
}

// ProcessingConfig holds orchestrator tuning
type ProcessingConfig struct {
	Workers int  `mapstructure:"workers"`
	DryRun  bool `mapstructure:"dry_run"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// LoadDefaults builds a configuration without a config file, from defaults
// and environment variables only.
func LoadDefaults() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	setDefaults(v)
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Email defaults
	v.SetDefault("email.server", "imap.gmail.com")
	v.SetDefault("email.port", 993)
	v.SetDefault("email.mailbox", "INBOX")
	v.SetDefault("email.timeout", 60*time.Second)
	v.SetDefault("email.max_attachment_size", int64(50*1024*1024))

	// Search defaults
	v.SetDefault("search.days_back", 30)
	v.SetDefault("search.keywords", []string{
		"factura", "invoice", "recibo", "cobro", "pago", "bill",
	})
	v.SetDefault("search.limit", 200)

	// Extraction defaults
	v.SetDefault("extraction.max_text_length", 10000)
	v.SetDefault("extraction.enhance_below_confidence", 0.0)

	// Storage defaults
	v.SetDefault("storage.root_dir", "data/archive")
	v.SetDefault("storage.folder_name", "DOCUFIND")

	// Database defaults
	v.SetDefault("database.path", "data/docufind.db")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	// OpenAI defaults
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.temperature", 0.1)
	v.SetDefault("openai.max_tokens", 500)
	v.SetDefault("openai.timeout", 60*time.Second)

	// Report defaults
	v.SetDefault("report.sheet_path", "data/facturas.xlsx")
	v.SetDefault("report.summary_dir", "data/summaries")
	v.SetDefault("report.sheet_name", "Facturas")

	// Processing defaults
	v.SetDefault("processing.workers", 4)
	v.SetDefault("processing.dry_run", false)

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars(v *viper.Viper) {
	// Sensitive credentials from environment
	v.BindEnv("email.username", "EMAIL_USERNAME")
	v.BindEnv("email.password", "EMAIL_PASSWORD")
	v.BindEnv("email.server", "EMAIL_SERVER")
	v.BindEnv("openai.api_key", "OPENAI_API_KEY")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Email.Username == "" {
		return fmt.Errorf("email.username is required")
	}
	if err := utils.ValidateEmail(c.Email.Username); err != nil {
		return fmt.Errorf("email.username: %w", err)
	}
	if c.Email.Password == "" {
		return fmt.Errorf("email.password is required")
	}
	if c.Email.Server == "" {
		return fmt.Errorf("email.server is required")
	}
	if c.Email.MaxAttachmentSize <= 0 {
		return fmt.Errorf("email.max_attachment_size must be positive")
	}

	if c.Search.DaysBack <= 0 {
		return fmt.Errorf("search.days_back must be positive")
	}

	if c.Extraction.EnhanceBelowConfidence < 0 || c.Extraction.EnhanceBelowConfidence > 1 {
		return fmt.Errorf("extraction.enhance_below_confidence must be within [0, 1]")
	}
	if c.Extraction.EnhanceBelowConfidence > 0 && c.OpenAI.APIKey == "" {
		return fmt.Errorf("openai.api_key is required when enhancement is enabled")
	}

	if c.Processing.Workers <= 0 {
		return fmt.Errorf("processing.workers must be positive")
	}

	return nil
}
