package config

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	defaultDatabaseDSN   = "host=localhost port=5432 dbname=retail_bank user=postgres password=postgres sslmode=disable"
	defaultMigrationsDir = "migrations"
)

// Error marks an operational/deployment defect, distinct from business-rule
// failures.
type Error struct {
	Name   string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("configuration error: %s %s", e.Name, e.Reason)
}

type Config struct {
	DatabaseDSN   string `env:"DATABASE_DSN"`
	MigrationsDir string `env:"MIGRATIONS_DIR"`

	BankName   string `env:"BANK_NAME"`
	BankKey    string `env:"BANK_KEY"`
	NotaryName string `env:"NOTARY_NAME"`

	OracleAddress string `env:"ORACLE_ADDRESS"`
	OracleName    string `env:"ORACLE_NAME"`
	// Hex-encoded ed25519 public key of the rating oracle.
	OracleKey string `env:"ORACLE_KEY"`

	CreditRatingThreshold int           `env:"CREDIT_RATING_THRESHOLD"`
	CreditRatingValidity  time.Duration `env:"CREDIT_RATING_VALIDITY"`
	LoanRepaymentPeriod   time.Duration `env:"LOAN_REPAYMENT_PERIOD"`

	SchedulerInterval time.Duration `env:"SCHEDULER_INTERVAL"`
}

func Load() (Config, error) {
	cfg := Config{
		DatabaseDSN:           defaultDatabaseDSN,
		MigrationsDir:         defaultMigrationsDir,
		BankName:              "RetailBank",
		BankKey:               "retail-bank-key",
		NotaryName:            "Notary",
		OracleName:            "CreditRatingOracle",
		CreditRatingThreshold: 5,
		CreditRatingValidity:  10 * time.Minute,
		LoanRepaymentPeriod:   30 * 24 * time.Hour,
		SchedulerInterval:     time.Second,
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("configuration error: %w", err)
	}

	if cfg.CreditRatingThreshold <= 0 {
		return Config{}, &Error{Name: "CREDIT_RATING_THRESHOLD", Reason: "must be greater than 0"}
	}
	if cfg.CreditRatingValidity <= 0 {
		return Config{}, &Error{Name: "CREDIT_RATING_VALIDITY", Reason: "must be a positive duration"}
	}
	if cfg.LoanRepaymentPeriod <= 0 {
		return Config{}, &Error{Name: "LOAN_REPAYMENT_PERIOD", Reason: "must be a positive duration"}
	}
	if cfg.SchedulerInterval <= 0 {
		return Config{}, &Error{Name: "SCHEDULER_INTERVAL", Reason: "must be a positive duration"}
	}
	if cfg.BankKey == "" {
		return Config{}, &Error{Name: "BANK_KEY", Reason: "is required"}
	}
	if cfg.OracleKey != "" {
		if _, err := cfg.OraclePublicKey(); err != nil {
			return Config{}, err
		}
	}

	return cfg, nil
}

// OraclePublicKey decodes the configured credit-rating oracle key.
func (c Config) OraclePublicKey() (ed25519.PublicKey, error) {
	raw, err := hex.DecodeString(c.OracleKey)
	if err != nil || len(raw) != ed25519.PublicKeySize {
		return nil, &Error{Name: "ORACLE_KEY", Reason: "must be a hex-encoded ed25519 public key"}
	}
	return ed25519.PublicKey(raw), nil
}
