package datastores

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var defaultSeed string

// SeedContact is the YAML form of a contact to load at startup.
type SeedContact struct {
	First    string `yaml:"first"`
	Last     string `yaml:"last"`
	Avatar   string `yaml:"avatar"`
	Twitter  string `yaml:"twitter"`
	Notes    string `yaml:"notes"`
	Favorite bool   `yaml:"favorite"`
}

// LoadSeed decodes a YAML sequence of contacts.
func LoadSeed(r io.Reader) ([]SeedContact, error) {
	var contacts []SeedContact
	err := yaml.NewDecoder(r).Decode(&contacts)
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("seed: %w", err)
	}
	return contacts, nil
}

// DefaultSeed returns the contacts shipped with the binary.
func DefaultSeed() []SeedContact {
	contacts, err := LoadSeed(strings.NewReader(defaultSeed))
	if err != nil {
		panic(err)
	}
	return contacts
}

// Seed creates contacts in s unless it already holds some.
// It returns the number of contacts created.
func Seed(ctx context.Context, s ContactsStore, contacts []SeedContact) (int, error) {
	existing, err := s.List(ctx, "")
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}
	for i, sc := range contacts {
		_, err := s.Create(ctx, &Contact{
			First:    sc.First,
			Last:     sc.Last,
			Avatar:   sc.Avatar,
			Twitter:  sc.Twitter,
			Notes:    sc.Notes,
			Favorite: sc.Favorite,
		})
		if err != nil {
			return i, err
		}
	}
	return len(contacts), nil
}
