package main

import (
	"context"
	"net"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"nhooyr.io/websocket"

	"github.com/risa-org/duplex/transport"
	"github.com/risa-org/duplex/transport/tcp"
	wstransport "github.com/risa-org/duplex/transport/websocket"
)

var dialCmd = &cobra.Command{
	Use:   "dial <peer-address>",
	Short: "Connect to a listening peer and chat with it",
	Long: `Connect to a peer started with "duplexchat serve" and run a chat
session. For the tcp transport the address is host:port; for ws it is a
full URL such as ws://host:port.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		addr := args[0]

		var conn transport.Conn
		switch flagTransport {
		case "tcp":
			conn = dialTCP(addr)
		case "ws":
			conn = dialWebSocket(addr)
		default:
			log.Fatal().Str("transport", flagTransport).Msg("unknown transport, want tcp or ws")
		}

		runSession(conn, "server>")
	},
}

// dialTCP connects to the peer. Setup failures are fatal — they happen
// before the session starts, so there is nothing to unwind.
func dialTCP(addr string) transport.Conn {
	raw, err := net.Dial("tcp", addr)
	if err != nil {
		log.Fatal().Err(err).Str("addr", addr).Msg("dial failed")
	}
	log.Info().Str("peer", raw.RemoteAddr().String()).Msg("connected")
	return tcp.New(raw)
}

// dialWebSocket connects and upgrades in one step.
func dialWebSocket(addr string) transport.Conn {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	c, _, err := websocket.Dial(ctx, addr, nil)
	if err != nil {
		log.Fatal().Err(err).Str("addr", addr).Msg("websocket dial failed")
	}
	log.Info().Str("peer", addr).Msg("connected")
	return wstransport.New(c)
}
