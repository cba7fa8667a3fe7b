package session

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"

	"github.com/google/uuid"
)

// Generator produces identifiers for new sessions and participants.
type Generator interface {
	SessionID() (string, error)
	ParticipantID() (string, error)
	JoinCode() (string, error)
}

const (
	minJoinCode = 100000
	maxJoinCode = 999999
)

// RandomGenerator issues UUIDv7 ids and random 6-digit join codes.
type RandomGenerator struct{}

func (RandomGenerator) SessionID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate session ID: %w", err)
	}
	return id.String(), nil
}

func (RandomGenerator) ParticipantID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate participant ID: %w", err)
	}
	return id.String(), nil
}

func (RandomGenerator) JoinCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(maxJoinCode-minJoinCode+1))
	if err != nil {
		return "", fmt.Errorf("generate join code: %w", err)
	}
	return strconv.FormatInt(n.Int64()+minJoinCode, 10), nil
}
