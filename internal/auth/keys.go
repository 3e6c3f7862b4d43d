package auth

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
)

// loadKeys 解析签名用的 RSA 密钥对。私钥支持 PKCS#1 与 PKCS#8；
// 公钥 PEM 为空时由私钥推导。
func loadKeys(privatePEM, publicPEM []byte) (*rsa.PrivateKey, *rsa.PublicKey, error) {
	if len(privatePEM) == 0 {
		return nil, nil, errors.New("private key pem is required")
	}

	block, _ := pem.Decode(privatePEM)
	if block == nil {
		return nil, nil, errors.New("private key: no PEM block found")
	}
	private, err := parsePrivateKey(block.Bytes)
	if err != nil {
		return nil, nil, fmt.Errorf("parse rsa private key: %w", err)
	}

	if len(publicPEM) == 0 {
		return private, &private.PublicKey, nil
	}
	block, _ = pem.Decode(publicPEM)
	if block == nil {
		return nil, nil, errors.New("public key: no PEM block found")
	}
	public, err := parsePublicKey(block.Bytes)
	if err != nil {
		return nil, nil, fmt.Errorf("parse rsa public key: %w", err)
	}
	if !public.Equal(&private.PublicKey) {
		return nil, nil, errors.New("public key does not match private key")
	}
	return private, public, nil
}

func parsePrivateKey(der []byte) (*rsa.PrivateKey, error) {
	if key, err := x509.ParsePKCS1PrivateKey(der); err == nil {
		return key, nil
	}
	parsed, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, err
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("private key is %T, want RSA", parsed)
	}
	return key, nil
}

func parsePublicKey(der []byte) (*rsa.PublicKey, error) {
	if key, err := x509.ParsePKCS1PublicKey(der); err == nil {
		return key, nil
	}
	parsed, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, err
	}
	key, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("public key is %T, want RSA", parsed)
	}
	return key, nil
}
