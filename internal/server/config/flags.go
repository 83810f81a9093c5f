package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/alumnikeeper/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   store DSN
//	-s string   JWT HMAC secret key
//	-t int      session token validity, minutes
//	-r string   Redis address for sessions
//	-k string   Kafka brokers, comma separated
//	-l string   log format (json, zerolog, console)
//
// The arguments are filtered with flagx.FilterArgs first so flags meant for
// other components (-c, -env-file) do not break parsing.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-s", "-t", "-r", "-k", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	tokenValidity := fs.Int("t", int(config.TokenValidityDuration.Minutes()), "token validity duration (in minutes)")
	fs.StringVar(&config.RedisAddr, "r", config.RedisAddr, "redis address for sessions")
	brokers := fs.String("k", "", "kafka brokers, comma separated")
	fs.StringVar(&config.LogFormat, "l", config.LogFormat, "log format: json, zerolog or console")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			config.TokenValidityDuration = time.Duration(*tokenValidity) * time.Minute
		case "k":
			config.KafkaBrokers = splitList(*brokers)
		}
	})
}
