package main

import (
	"context"
	"net"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"nhooyr.io/websocket"

	"github.com/risa-org/duplex/transport"
	"github.com/risa-org/duplex/transport/tcp"
	wstransport "github.com/risa-org/duplex/transport/websocket"
)

var serveCmd = &cobra.Command{
	Use:   "serve <listen-address>",
	Short: "Listen for one peer and chat with it",
	Long: `Listen on the given address, accept exactly one peer, and run a chat
session with it. The listener is closed as soon as a peer connects —
one peer per session, no multiplexing.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		addr := args[0]

		var conn transport.Conn
		switch flagTransport {
		case "tcp":
			conn = acceptTCP(addr)
		case "ws":
			conn = acceptWebSocket(addr)
		default:
			log.Fatal().Str("transport", flagTransport).Msg("unknown transport, want tcp or ws")
		}

		runSession(conn, "client>")
	},
}

// acceptTCP listens, accepts exactly one peer, and stops listening.
// Setup failures are fatal — they happen before the session starts.
func acceptTCP(addr string) transport.Conn {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatal().Err(err).Str("addr", addr).Msg("listen failed")
	}
	log.Info().Str("addr", ln.Addr().String()).Msg("waiting for a peer")

	raw, err := ln.Accept()
	if err != nil {
		log.Fatal().Err(err).Msg("accept failed")
	}
	ln.Close() // one peer per session

	log.Info().Str("peer", raw.RemoteAddr().String()).Msg("peer connected")
	return tcp.New(raw)
}

// acceptWebSocket serves HTTP on addr until the first successful upgrade,
// then stops accepting and hands the connection to the session. Later
// upgrade attempts are turned away — one peer per session here too.
func acceptWebSocket(addr string) transport.Conn {
	connCh := make(chan *websocket.Conn, 1)

	srv := &http.Server{
		Addr: addr,
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, err := websocket.Accept(w, r, nil)
			if err != nil {
				log.Error().Err(err).Msg("websocket upgrade failed")
				return
			}
			select {
			case connCh <- c:
				log.Info().Str("peer", r.RemoteAddr).Msg("peer connected")
			default:
				c.Close(websocket.StatusTryAgainLater, "session already in progress")
			}
		}),
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Str("addr", addr).Msg("websocket listen failed")
		}
	}()
	log.Info().Str("addr", addr).Msg("waiting for a websocket peer")

	c := <-connCh
	// stop accepting; the upgraded connection is hijacked and unaffected
	go srv.Shutdown(context.Background())

	return wstransport.New(c)
}
