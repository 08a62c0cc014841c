package config

import (
	"flag"
	"os"
	"strings"

	"github.com/dmitrijs2005/clipcards/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN (empty selects the in-memory store)
//	-u string   upload staging directory
//	-m int      max upload size, bytes
//	-t string   comma-separated allowed MIME types
//	-l string   transcription language hint (e.g., "en")
//	-f string   ffmpeg binary path
//	-y string   yt-dlp binary path
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-u", "-m", "-t", "-l", "-f", "-y"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.UploadDir, "u", config.UploadDir, "upload staging directory")
	fs.Int64Var(&config.MaxUploadBytes, "m", config.MaxUploadBytes, "max upload size in bytes")
	mimeTypes := fs.String("t", strings.Join(config.AllowedMimeTypes, ","), "comma-separated allowed MIME types")
	fs.StringVar(&config.Language, "l", config.Language, "transcription language hint")
	fs.StringVar(&config.FFmpegPath, "f", config.FFmpegPath, "ffmpeg binary path")
	fs.StringVar(&config.YtDlpPath, "y", config.YtDlpPath, "yt-dlp binary path")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	if *mimeTypes != "" {
		parts := strings.Split(*mimeTypes, ",")
		types := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				types = append(types, p)
			}
		}
		config.AllowedMimeTypes = types
	}
}
