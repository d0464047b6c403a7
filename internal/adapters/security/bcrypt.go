package security

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// BcryptPassphrase hashes and verifies the operator passphrase.
type BcryptPassphrase struct {
	cost int
}

func NewBcryptPassphrase(cost int) *BcryptPassphrase {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptPassphrase{cost: cost}
}

func (h *BcryptPassphrase) Hash(passphrase string) (string, error) {
	if passphrase == "" {
		return "", errors.New("passphrase is empty")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(passphrase), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func (h *BcryptPassphrase) Compare(hash, passphrase string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(passphrase))
}
