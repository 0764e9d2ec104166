package main

import (
	"crypto/rand"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	sagecrypto "github.com/sage-x-project/authnet/crypto"
	"github.com/sage-x-project/authnet/crypto/formats"
	"github.com/sage-x-project/authnet/crypto/keys"
)

var (
	keygenFormat string
	keygenOut    string
	keygenDevice string
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a device identity key pair",
	Long: `Generate a new Ed25519 device identity key pair and write it to disk.

Alongside the key file, keygen writes a <output>.secret file holding 32
random bytes: the device secret key used to encrypt the at-rest keyring
(this is independent of the Ed25519 signing key, and never leaves disk).`,
	Example: `  # Generate a device key as JWK
  authprovider keygen --output device.jwk

  # Generate a device key as PEM
  authprovider keygen --format pem --output device.pem`,
	RunE: runKeygen,
}

func init() {
	rootCmd.AddCommand(keygenCmd)

	keygenCmd.Flags().StringVarP(&keygenFormat, "format", "f", "jwk", "Key file format (jwk, pem)")
	keygenCmd.Flags().StringVarP(&keygenOut, "output", "o", "device.jwk", "Output key file path")
	keygenCmd.Flags().StringVar(&keygenDevice, "device-id", "", "Device id to print for config.device.id (default: a generated uuid)")
}

func runKeygen(cmd *cobra.Command, args []string) error {
	if keygenDevice == "" {
		keygenDevice = uuid.NewString()
	}

	keyPair, err := keys.GenerateEd25519KeyPair()
	if err != nil {
		return fmt.Errorf("failed to generate device key: %w", err)
	}

	var exported []byte
	var format sagecrypto.KeyFormat

	switch keygenFormat {
	case "jwk":
		format = sagecrypto.KeyFormatJWK
		exported, err = formats.NewJWKExporter().Export(keyPair, format)
	case "pem":
		format = sagecrypto.KeyFormatPEM
		exported, err = formats.NewPEMExporter().Export(keyPair, format)
	default:
		return fmt.Errorf("unsupported key format: %s", keygenFormat)
	}
	if err != nil {
		return fmt.Errorf("failed to export device key: %w", err)
	}

	if err := os.WriteFile(keygenOut, exported, 0o600); err != nil {
		return fmt.Errorf("failed to write key file: %w", err)
	}

	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return fmt.Errorf("failed to generate device secret: %w", err)
	}
	secretPath := keygenOut + ".secret"
	if err := os.WriteFile(secretPath, secret, 0o600); err != nil {
		return fmt.Errorf("failed to write device secret file: %w", err)
	}

	fmt.Printf("Device key generated:\n")
	fmt.Printf("  Key ID:      %s\n", keyPair.ID())
	fmt.Printf("  Device ID:   %s  (put this in config.device.id)\n", keygenDevice)
	fmt.Printf("  Key file:    %s\n", keygenOut)
	fmt.Printf("  Secret file: %s\n", secretPath)
	return nil
}
