package config

import (
	"log"
	"os"
	"strconv"
)

type Config struct {
	Port            string
	DBDSN           string
	NATSURL         string // empty = in-process bus
	LogFile         string
	BaseURL         string // public URL printed in table QR links
	TaxRate         float64
	StaffPassphrase string // shared passphrase gating item cancellation
}

func Load() Config {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		dsn = "mesero.db"
	} // sqlite file in project root
	baseURL := os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:" + port
	}
	logFile := os.Getenv("LOG_FILE")
	if logFile == "" {
		logFile = "./mesero.log" // default log sink in project root
	}
	tax := 0.08
	if s := os.Getenv("TAX_RATE"); s != "" {
		if v, err := strconv.ParseFloat(s, 64); err == nil && v >= 0 && v < 1 {
			tax = v
		}
	}
	pass := os.Getenv("STAFF_PASSPHRASE")
	if pass == "" {
		pass = "mesero2024"
	}

	cfg := Config{
		Port:            port,
		DBDSN:           dsn,
		NATSURL:         os.Getenv("NATS_URL"),
		LogFile:         logFile,
		BaseURL:         baseURL,
		TaxRate:         tax,
		StaffPassphrase: pass,
	}
	log.Printf("[config] PORT=%s DB_DSN=%s NATS_URL=%s BASE_URL=%s LOG_FILE=%s TAX_RATE=%.2f",
		cfg.Port, cfg.DBDSN, cfg.NATSURL, cfg.BaseURL, cfg.LogFile, cfg.TaxRate)
	return cfg
}
