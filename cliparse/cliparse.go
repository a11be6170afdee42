package cliparse

import (
	"errors"
	"flag"
	"os"
	"strconv"
)

// SMTP holds outbound mail settings. An empty Host disables real delivery;
// invitations are logged instead.
type SMTP struct {
	Host        string
	Port        int
	Username    string
	Password    string
	SenderName  string
	SenderEmail string
	UseTLS      bool
}

type Config struct {
	Port          int
	DataDir       string
	BaseURL       string
	AdminPassword string
	JWTSecret     string
	CertFile      string
	KeyFile       string
	Mail          SMTP
}

// ParseFlags validates flags, falling back to environment variables.
func ParseFlags(args []string) (Config, error) {
	var cfg Config

	fs := flag.NewFlagSet("vote-for-me", flag.ContinueOnError)

	// Network and storage config (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DataDir, "data", "", "Data directory for session records")
	fs.StringVar(&cfg.BaseURL, "base-url", "", "Public base URL used in voting links")

	// Optional TLS (certificate generation is external)
	fs.StringVar(&cfg.CertFile, "cert", "", "TLS certificate file")
	fs.StringVar(&cfg.KeyFile, "key", "", "TLS private key file")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.AdminPassword, "admin-password", "", "Admin password (prefer env)")
	fs.StringVar(&cfg.JWTSecret, "jwt-secret", "", "Admin token signing secret (prefer env)")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	// Fall back to environment variables
	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = 8443 // default
		}
	}
	if cfg.DataDir == "" {
		cfg.DataDir = os.Getenv("DATA_DIR")
	}
	if cfg.DataDir == "" {
		cfg.DataDir = "data"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = os.Getenv("BASE_URL")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:" + strconv.Itoa(cfg.Port)
	}
	if cfg.CertFile == "" {
		cfg.CertFile = os.Getenv("TLS_CERT_FILE")
	}
	if cfg.KeyFile == "" {
		cfg.KeyFile = os.Getenv("TLS_KEY_FILE")
	}

	// Secrets - MUST be provided
	if cfg.AdminPassword == "" {
		cfg.AdminPassword = os.Getenv("ADMIN_PASSWORD")
	}
	if cfg.AdminPassword == "" {
		return Config{}, errors.New("ADMIN_PASSWORD required")
	}

	if cfg.JWTSecret == "" {
		cfg.JWTSecret = os.Getenv("JWT_SECRET")
	}
	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET required")
	}

	cfg.Mail = parseMailEnv()

	return cfg, nil
}

func parseMailEnv() SMTP {
	m := SMTP{
		Host:        os.Getenv("SMTP_HOST"),
		Port:        587,
		Username:    os.Getenv("SMTP_USERNAME"),
		Password:    os.Getenv("SMTP_PASSWORD"),
		SenderName:  os.Getenv("SMTP_SENDER_NAME"),
		SenderEmail: os.Getenv("SMTP_SENDER_EMAIL"),
		UseTLS:      os.Getenv("SMTP_USE_TLS") != "false",
	}
	if portStr := os.Getenv("SMTP_PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil {
			m.Port = port
		}
	}
	if m.SenderName == "" {
		m.SenderName = "Vote For Me"
	}
	if m.SenderEmail == "" {
		m.SenderEmail = "noreply@vote-for-me.app"
	}
	return m
}
