package service

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/sllynn/airport-stand-allocation/internal/domain/models"
)

type fingerprintTurn struct {
	FlightID  string    `json:"f"`
	Category  string    `json:"c"`
	Arrival   time.Time `json:"a"`
	Departure time.Time `json:"d"`
}

type fingerprintInput struct {
	Turns     []fingerprintTurn      `json:"turns"`
	Stands    []models.Stand         `json:"stands"`
	Rules     []models.AdjacencyRule `json:"rules"`
	AllowList map[string][]string    `json:"allow,omitempty"`
}

// Fingerprint identifies a snapshot's content independently of its ID, so
// identical problems share cached results.
func Fingerprint(snap models.Snapshot) (string, error) {
	in := fingerprintInput{
		Turns:  make([]fingerprintTurn, len(snap.Turns)),
		Stands: snap.Stands,
		Rules:  models.NormalizeRules(snap.Rules),
	}
	for i, t := range snap.Turns {
		in.Turns[i] = fingerprintTurn{
			FlightID:  t.FlightID,
			Category:  t.Category,
			Arrival:   t.Arrival.UTC(),
			Departure: t.Departure.UTC(),
		}
	}
	if snap.AllowList != nil {
		in.AllowList = make(map[string][]string, len(snap.AllowList))
		for flight, stands := range snap.AllowList {
			sorted := append([]string(nil), stands...)
			sort.Strings(sorted)
			in.AllowList[flight] = sorted
		}
	}

	data, err := json.Marshal(in)
	if err != nil {
		return "", fmt.Errorf("marshal snapshot fingerprint: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
