package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/alumnikeeper/internal/flagx"
	"github.com/joho/godotenv"
)

// parseEnv overlays values from environment variables. A dotenv file
// (".env" or the -env-file flag) is loaded first when it exists; variables
// already set in the process environment take precedence over it.
//
// Recognized variables:
//
//	HTTP_ADDR, DATABASE_DSN, JWT_SECRET, TOKEN_VALIDITY (duration),
//	BCRYPT_COST, REDIS_ADDR, KAFKA_BROKERS (comma separated), KAFKA_TOPIC,
//	COOKIE_SECURE, RATE_LIMIT, RATE_BURST, LOG_FORMAT, SHUTDOWN_TIMEOUT
//
// Malformed numeric, boolean or duration values panic.
func parseEnv(config *Config) {
	if err := godotenv.Load(flagx.EnvFile()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(err)
	}

	envString(&config.EndpointAddrHTTP, "HTTP_ADDR")
	envString(&config.DatabaseDSN, "DATABASE_DSN")
	envString(&config.SecretKey, "JWT_SECRET")
	envString(&config.RedisAddr, "REDIS_ADDR")
	envString(&config.KafkaTopic, "KAFKA_TOPIC")
	envString(&config.LogFormat, "LOG_FORMAT")

	if v, ok := os.LookupEnv("KAFKA_BROKERS"); ok {
		config.KafkaBrokers = splitList(v)
	}
	if v, ok := os.LookupEnv("TOKEN_VALIDITY"); ok {
		config.TokenValidityDuration = mustDuration(v)
	}
	if v, ok := os.LookupEnv("SHUTDOWN_TIMEOUT"); ok {
		config.ShutdownTimeout = mustDuration(v)
	}
	if v, ok := os.LookupEnv("BCRYPT_COST"); ok {
		config.BcryptCost = mustInt(v)
	}
	if v, ok := os.LookupEnv("RATE_BURST"); ok {
		config.RateBurst = mustInt(v)
	}
	if v, ok := os.LookupEnv("RATE_LIMIT"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			panic(err)
		}
		config.RateLimit = f
	}
	if v, ok := os.LookupEnv("COOKIE_SECURE"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			panic(err)
		}
		config.CookieSecure = b
	}
}

func envString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func mustDuration(v string) time.Duration {
	d, err := time.ParseDuration(v)
	if err != nil {
		panic(err)
	}
	return d
}

func mustInt(v string) int {
	n, err := strconv.Atoi(v)
	if err != nil {
		panic(err)
	}
	return n
}

// splitList splits a comma separated list, dropping blanks.
func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
