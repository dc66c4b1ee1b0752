package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/openvcu/someip/internal/logging"
	"github.com/openvcu/someip/internal/monitor"
	"github.com/openvcu/someip/internal/someip"
	"github.com/openvcu/someip/internal/someip/sd"
)

var decodeCmd = &cobra.Command{
	Use:   "decode [hex]",
	Short: "Decode a SOME/IP datagram from hex",
	Long: `Decode a raw SOME/IP datagram and print an annotated header dump.

The datagram is given as a hex string argument, or piped on stdin.
Service discovery messages additionally get their SD entries decoded.`,
	Example: `  # Decode an SD Offer datagram from the command line
  someip-cli decode ffff8100000000240000000101010200c000000000000010010000001234000101000bb80000000000000000

  # Decode a datagram captured with tcpdump
  echo "ffff8100..." | someip-cli decode`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDecode,
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch discovery state live",
	Long: `Open a terminal dashboard following a running daemon's discovery
state: the tracked services, their current states, and transition
events as they happen.`,
	Example: `  # Watch the local daemon
  someip-cli watch

  # Watch a daemon on another host
  someip-cli watch --server http://10.0.0.7:8730`,
	RunE: runWatch,
}

var serverURL string

func init() {
	watchCmd.Flags().StringVar(&serverURL, "server", "http://127.0.0.1:8730",
		"Base URL of the daemon's monitoring server")
}

func runDecode(cmd *cobra.Command, args []string) error {
	if err := logging.InitializeFromEnv(); err != nil {
		return err
	}

	var input string
	if len(args) == 1 {
		input = args[0]
	} else {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		input = string(data)
	}

	cleaner := strings.NewReplacer(" ", "", "\n", "", "\r", "", "\t", "", ":", "")
	raw, err := hex.DecodeString(cleaner.Replace(input))
	if err != nil {
		return fmt.Errorf("invalid hex input: %w", err)
	}

	msg, err := someip.Unmarshal(raw)
	if err != nil {
		return fmt.Errorf("not a valid SOME/IP datagram: %w", err)
	}

	printHeader(cmd.OutOrStdout(), msg)

	if msg.MessageID == sd.SdMessageID {
		body, err := sd.ParseMessage(msg)
		if err != nil {
			return fmt.Errorf("malformed SD payload: %w", err)
		}
		printSdBody(cmd.OutOrStdout(), body)
	}
	return nil
}

func printHeader(w io.Writer, msg *someip.Message) {
	fmt.Fprintf(w, "SOME/IP header\n")
	fmt.Fprintf(w, "  MessageID:        0x%08x (service 0x%04x, method 0x%04x)\n",
		msg.MessageID, msg.ServiceID(), msg.MethodID())
	fmt.Fprintf(w, "  Length:           %d\n", msg.Length())
	fmt.Fprintf(w, "  ClientID:         0x%04x\n", msg.ClientID)
	fmt.Fprintf(w, "  SessionID:        0x%04x\n", msg.SessionID)
	fmt.Fprintf(w, "  ProtocolVersion:  0x%02x\n", msg.ProtocolVersion)
	fmt.Fprintf(w, "  InterfaceVersion: 0x%02x\n", msg.InterfaceVersion)
	fmt.Fprintf(w, "  MessageType:      %s (0x%02x)\n", msg.Type, uint8(msg.Type))
	fmt.Fprintf(w, "  ReturnCode:       %s (0x%02x)\n", msg.ReturnCode, uint8(msg.ReturnCode))
	fmt.Fprintf(w, "  Payload:          %d bytes\n", len(msg.Payload))
}

func printSdBody(w io.Writer, body *sd.Message) {
	fmt.Fprintf(w, "Service discovery\n")
	fmt.Fprintf(w, "  Flags:            0x%02x (reboot=%t, unicast=%t)\n",
		body.Flags, body.Flags&sd.FlagReboot != 0, body.Flags&sd.FlagUnicast != 0)
	fmt.Fprintf(w, "  Entries:          %d\n", len(body.Entries))
	for i, entry := range body.Entries {
		kind := entry.Type.String()
		if entry.IsStopOffer() {
			kind = "stop-offer"
		}
		fmt.Fprintf(w, "  [%d] %-10s service 0x%04x instance 0x%04x ttl %d\n",
			i, kind, entry.ServiceID, entry.InstanceID, entry.TTL)
	}
}

func runWatch(cmd *cobra.Command, args []string) error {
	if err := logging.InitializeFromEnv(); err != nil {
		return err
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("watch requires an interactive terminal; use 'curl %s/api/services' in scripts", serverURL)
	}

	return monitor.Run(cmd.Context(), monitor.NewClient(serverURL))
}
