package formats

import (
	"crypto"
	"crypto/ed25519"
	"crypto/x509"
	"encoding/pem"
	"errors"

	sagecrypto "github.com/sage-x-project/authnet/crypto"
	"github.com/sage-x-project/authnet/crypto/keys"
)

// pemExporter implements KeyExporter for PEM format.
type pemExporter struct{}

// NewPEMExporter creates a new PEM exporter.
func NewPEMExporter() sagecrypto.KeyExporter {
	return &pemExporter{}
}

// Export exports the key pair in PEM format, using the standard PKCS8 encoding.
func (e *pemExporter) Export(keyPair sagecrypto.KeyPair, format sagecrypto.KeyFormat) ([]byte, error) {
	if format != sagecrypto.KeyFormatPEM {
		return nil, sagecrypto.ErrInvalidKeyFormat
	}

	switch keyPair.Type() {
	case sagecrypto.KeyTypeEd25519:
		privateKey, ok := keyPair.PrivateKey().(ed25519.PrivateKey)
		if !ok {
			return nil, errors.New("invalid Ed25519 private key type")
		}
		der, err := x509.MarshalPKCS8PrivateKey(privateKey)
		if err != nil {
			return nil, err
		}
		return pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}), nil

	default:
		return nil, sagecrypto.ErrInvalidKeyType
	}
}

// ExportPublic exports only the public key in PEM format.
func (e *pemExporter) ExportPublic(keyPair sagecrypto.KeyPair, format sagecrypto.KeyFormat) ([]byte, error) {
	if format != sagecrypto.KeyFormatPEM {
		return nil, sagecrypto.ErrInvalidKeyFormat
	}

	switch keyPair.Type() {
	case sagecrypto.KeyTypeEd25519:
		privateKey, ok := keyPair.PrivateKey().(ed25519.PrivateKey)
		if !ok {
			return nil, errors.New("invalid Ed25519 private key type")
		}
		der, err := x509.MarshalPKIXPublicKey(privateKey.Public().(ed25519.PublicKey))
		if err != nil {
			return nil, err
		}
		return pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}), nil

	default:
		return nil, sagecrypto.ErrInvalidKeyType
	}
}

// pemImporter implements KeyImporter for PEM format.
type pemImporter struct{}

// NewPEMImporter creates a new PEM importer.
func NewPEMImporter() sagecrypto.KeyImporter {
	return &pemImporter{}
}

// Import imports a key pair from PEM data, reading only the first block.
func (i *pemImporter) Import(data []byte, format sagecrypto.KeyFormat) (sagecrypto.KeyPair, error) {
	if format != sagecrypto.KeyFormatPEM {
		return nil, sagecrypto.ErrInvalidKeyFormat
	}

	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errors.New("pem: no PEM block found")
	}
	if block.Type != "PRIVATE KEY" {
		return nil, errors.New("pem: unsupported block type " + block.Type)
	}

	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	privateKey, ok := key.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("pem: unsupported PKCS8 private key type")
	}
	return keys.NewEd25519KeyPair(privateKey, "")
}

// ImportPublic imports only a public key from PEM data.
func (i *pemImporter) ImportPublic(data []byte, format sagecrypto.KeyFormat) (crypto.PublicKey, error) {
	if format != sagecrypto.KeyFormatPEM {
		return nil, sagecrypto.ErrInvalidKeyFormat
	}

	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errors.New("pem: no PEM block found")
	}
	if block.Type != "PUBLIC KEY" {
		return nil, errors.New("pem: unsupported block type " + block.Type)
	}

	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	if _, ok := pub.(ed25519.PublicKey); !ok {
		return nil, errors.New("pem: unsupported public key type")
	}
	return pub, nil
}
