// Command duplexchat is a two-party full-duplex line chat. One side
// listens (serve), the other connects (dial); after that the two programs
// are symmetric — type lines, see the peer's lines, and say "bye" to end.
package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/risa-org/duplex/lineio"
	"github.com/risa-org/duplex/session"
	transcriptfile "github.com/risa-org/duplex/transcript/file"
	"github.com/risa-org/duplex/transport"
)

var rootCmd = &cobra.Command{
	Use:   "duplexchat",
	Short: "Full-duplex line chat over TCP or WebSocket",
}

var (
	flagTransport  string
	flagTranscript string
	flagVerbose    bool
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&flagTransport, "transport", "tcp", "transport to use: tcp or ws")
	flags.StringVar(&flagTranscript, "transcript", "", "path to a JSON transcript file (disabled when empty)")
	flags.BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(serveCmd, dialCmd)
}

func main() {
	// chat lines go to stdout; diagnostics stay on stderr
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cobra.OnInitialize(func() {
		if flagVerbose {
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		}
	})

	// a missing or malformed address is a usage problem: usage text plus
	// exit status 2. Runtime failures exit through log.Fatal instead.
	if err := rootCmd.Execute(); err != nil {
		os.Exit(2)
	}
}

// runSession hosts one chat session over an established transport.
// peerLabel names the remote role in echoed lines ("server>" / "client>").
func runSession(conn transport.Conn, peerLabel string) {
	opts := []session.Option{session.WithLogger(log.Logger)}

	if flagTranscript != "" {
		rec, err := transcriptfile.New(flagTranscript)
		if err != nil {
			log.Fatal().Err(err).Str("path", flagTranscript).Msg("failed to open transcript")
		}
		opts = append(opts, session.WithRecorder(rec))
	}

	sess := session.New(
		conn,
		lineio.NewSource(os.Stdin),
		lineio.NewWriter(os.Stdout, peerLabel),
		opts...,
	)

	reason := sess.Run()
	log.Info().Stringer("reason", reason).Msg("chat ended")
}
