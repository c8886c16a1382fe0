package config

import (
	"flag"
	"os"
	"time"

	"github.com/tbellec/flashdeck/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   base URL of the hosted data API
//	-r string   websocket URL of the realtime change feed
//	-k string   project API key
//	-d string   path to the local database file
//	-i int      periodic sync interval in seconds
//
// The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-r", "-k", "-d", "-i"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "base URL of the hosted data API")
	fs.StringVar(&cfg.RealtimeEndpointAddr, "r", cfg.RealtimeEndpointAddr, "websocket URL of the realtime change feed")
	fs.StringVar(&cfg.APIKey, "k", cfg.APIKey, "project API key")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "path to the local database file")
	syncInterval := fs.Int("i", int(cfg.SyncInterval.Seconds()), "sync interval (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.SyncInterval = time.Duration(*syncInterval) * time.Second
}
