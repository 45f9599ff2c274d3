package snapshotfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	derr "github.com/sllynn/airport-stand-allocation/internal/domain/errors"
	"github.com/sllynn/airport-stand-allocation/internal/domain/models"
	"gopkg.in/yaml.v3"
)

// Document is the wire form of a snapshot in files and HTTP bodies.
type Document struct {
	ID        string              `yaml:"id" json:"id"`
	Stands    []StandDoc          `yaml:"stands" json:"stands"`
	Turns     []TurnDoc           `yaml:"turns" json:"turns"`
	Rules     []RuleDoc           `yaml:"adjacency_rules" json:"adjacency_rules"`
	AllowList map[string][]string `yaml:"allow_list,omitempty" json:"allow_list,omitempty"`
}

type StandDoc struct {
	ID          string `yaml:"id" json:"id"`
	MaxCategory string `yaml:"max_category,omitempty" json:"max_category,omitempty"`
}

type TurnDoc struct {
	FlightID  string    `yaml:"flight_id" json:"flight_id"`
	Category  string    `yaml:"category,omitempty" json:"category,omitempty"`
	Arrival   time.Time `yaml:"arrival" json:"arrival"`
	Departure time.Time `yaml:"departure" json:"departure"`
}

type RuleDoc struct {
	ID          string    `yaml:"id,omitempty" json:"id,omitempty"`
	Name        string    `yaml:"name,omitempty" json:"name,omitempty"`
	Description string    `yaml:"description,omitempty" json:"description,omitempty"`
	StandA      string    `yaml:"stand_a" json:"stand_a"`
	StandB      string    `yaml:"stand_b" json:"stand_b"`
	ShadowA     ShadowDoc `yaml:"shadow_a" json:"shadow_a"`
	ShadowB     ShadowDoc `yaml:"shadow_b" json:"shadow_b"`
}

// ShadowDoc offsets are Go duration strings such as "-15m" or "1h30m".
type ShadowDoc struct {
	StartAnchor string `yaml:"start_anchor,omitempty" json:"start_anchor,omitempty"`
	StartOffset string `yaml:"start_offset,omitempty" json:"start_offset,omitempty"`
	EndAnchor   string `yaml:"end_anchor,omitempty" json:"end_anchor,omitempty"`
	EndOffset   string `yaml:"end_offset,omitempty" json:"end_offset,omitempty"`
}

// Load reads a snapshot from a .json, .yaml or .yml file.
func Load(path string) (models.Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("open snapshot file: %w", err)
	}
	defer f.Close()

	format := "yaml"
	if strings.EqualFold(filepath.Ext(path), ".json") {
		format = "json"
	}

	doc, err := Decode(f, format)
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return doc.ToSnapshot()
}

func Decode(r io.Reader, format string) (Document, error) {
	var doc Document
	switch format {
	case "json":
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&doc); err != nil {
			return Document{}, fmt.Errorf("%w: %w", derr.ErrConfiguration, err)
		}
	case "yaml":
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
			return Document{}, fmt.Errorf("%w: %w", derr.ErrConfiguration, err)
		}
	default:
		return Document{}, fmt.Errorf("unsupported snapshot format %q", format)
	}
	return doc, nil
}

// ToSnapshot converts the document. Malformed anchors or offsets wrap ErrConfiguration;
// semantic checks are left to models.Snapshot.Validate.
func (d Document) ToSnapshot() (models.Snapshot, error) {
	snap := models.Snapshot{
		ID:        d.ID,
		Turns:     make([]models.Turn, 0, len(d.Turns)),
		Stands:    make([]models.Stand, 0, len(d.Stands)),
		Rules:     make([]models.AdjacencyRule, 0, len(d.Rules)),
		AllowList: d.AllowList,
	}

	for _, s := range d.Stands {
		snap.Stands = append(snap.Stands, models.Stand{ID: s.ID, MaxCategory: s.MaxCategory})
	}
	for _, t := range d.Turns {
		snap.Turns = append(snap.Turns, models.Turn{
			FlightID:  t.FlightID,
			Category:  t.Category,
			Arrival:   t.Arrival.UTC(),
			Departure: t.Departure.UTC(),
		})
	}

	var errs []error
	for i, r := range d.Rules {
		shadowA, errA := r.ShadowA.toSpec()
		shadowB, errB := r.ShadowB.toSpec()
		if err := errors.Join(errA, errB); err != nil {
			errs = append(errs, fmt.Errorf("%w: adjacency rule %d: %v", derr.ErrConfiguration, i+1, err))
			continue
		}
		snap.Rules = append(snap.Rules, models.AdjacencyRule{
			ID:          r.ID,
			Name:        r.Name,
			Description: r.Description,
			StandA:      r.StandA,
			StandB:      r.StandB,
			ShadowA:     shadowA,
			ShadowB:     shadowB,
		})
	}
	if len(errs) > 0 {
		return models.Snapshot{}, errors.Join(errs...)
	}

	return snap, nil
}

func (s ShadowDoc) toSpec() (models.ShadowSpec, error) {
	startAnchor, err := models.ParseAnchor(s.StartAnchor)
	if err != nil {
		return models.ShadowSpec{}, err
	}
	endAnchor, err := models.ParseAnchor(s.EndAnchor)
	if err != nil {
		return models.ShadowSpec{}, err
	}
	startOffset, err := parseOffset(s.StartOffset)
	if err != nil {
		return models.ShadowSpec{}, fmt.Errorf("start_offset: %w", err)
	}
	endOffset, err := parseOffset(s.EndOffset)
	if err != nil {
		return models.ShadowSpec{}, fmt.Errorf("end_offset: %w", err)
	}
	return models.ShadowSpec{
		StartAnchor: startAnchor,
		StartOffset: startOffset,
		EndAnchor:   endAnchor,
		EndOffset:   endOffset,
	}, nil
}

func parseOffset(value string) (time.Duration, error) {
	v := strings.TrimSpace(value)
	if v == "" || v == "0" {
		return 0, nil
	}
	return time.ParseDuration(v)
}
