// Command authprovider stands up one authenticated-transport-wrapping
// provider instance over a WebSocket base adapter, for manual two-process
// testing of the handshake, routing and persistence layers this module
// implements.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "authprovider",
	Short: "Authenticated transport-wrapping provider for document-sync peers",
	Long: `authprovider runs the encrypted handshake-and-routing layer that sits
between a peer-to-peer document-sync repository and its network adapters.

This tool supports:
- Generating a device identity key pair
- Running a provider instance over a demo WebSocket base adapter
- Loading configuration from YAML with environment overrides`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	// Note: commands are registered in their own files.
	// - keygen.go: keygenCmd
	// - serve.go:  serveCmd
}
