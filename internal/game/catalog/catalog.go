package catalog

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Catalog holds all loaded content definitions keyed by ID.
// It is immutable after loading; lookups are safe for concurrent use.
type Catalog struct {
	cards   map[string]*CardDef
	tokens  map[string]*TokenDef
	enemies map[string]*EnemyDef
}

// New creates an empty Catalog.
func New() *Catalog {
	return &Catalog{
		cards:   make(map[string]*CardDef),
		tokens:  make(map[string]*TokenDef),
		enemies: make(map[string]*EnemyDef),
	}
}

// RegisterCard adds def, overwriting any existing entry with the same ID.
//
// Precondition: def must not be nil and must pass Validate.
func (c *Catalog) RegisterCard(def *CardDef) error {
	if err := def.Validate(); err != nil {
		return err
	}
	c.cards[def.ID] = def
	return nil
}

// RegisterToken adds def, overwriting any existing entry with the same ID.
//
// Precondition: def must not be nil and must pass Validate.
func (c *Catalog) RegisterToken(def *TokenDef) error {
	if err := def.Validate(); err != nil {
		return err
	}
	c.tokens[def.ID] = def
	return nil
}

// RegisterEnemy adds def, overwriting any existing entry with the same ID.
//
// Precondition: def must not be nil and must pass Validate.
func (c *Catalog) RegisterEnemy(def *EnemyDef) error {
	if err := def.Validate(); err != nil {
		return err
	}
	c.enemies[def.ID] = def
	return nil
}

// Card returns the CardDef for id, or (nil, false) if not found.
func (c *Catalog) Card(id string) (*CardDef, bool) {
	d, ok := c.cards[id]
	return d, ok
}

// Token returns the TokenDef for id, or (nil, false) if not found.
func (c *Catalog) Token(id string) (*TokenDef, bool) {
	d, ok := c.tokens[id]
	return d, ok
}

// Enemy returns the EnemyDef for id, or (nil, false) if not found.
func (c *Catalog) Enemy(id string) (*EnemyDef, bool) {
	d, ok := c.enemies[id]
	return d, ok
}

// Cards returns a snapshot slice of all registered card definitions.
func (c *Catalog) Cards() []*CardDef {
	out := make([]*CardDef, 0, len(c.cards))
	for _, d := range c.cards {
		out = append(out, d)
	}
	return out
}

// LoadCards reads every *.yaml file in dir, parses each as a sequence of
// CardDefs, and registers them.
//
// Precondition: dir must be a readable directory.
// Postcondition: returns an error if any file fails to parse or any def
// fails validation; on success every parsed def is registered.
func (c *Catalog) LoadCards(dir string) error {
	return loadDefs(dir, func(data []byte, path string) error {
		var defs []*CardDef
		if err := strictDecode(data, &defs); err != nil {
			return fmt.Errorf("parsing %q: %w", path, err)
		}
		for _, d := range defs {
			if err := c.RegisterCard(d); err != nil {
				return fmt.Errorf("%q: %w", path, err)
			}
		}
		return nil
	})
}

// LoadTokens reads every *.yaml file in dir, parses each as a sequence
// of TokenDefs, and registers them.
//
// Precondition: dir must be a readable directory.
func (c *Catalog) LoadTokens(dir string) error {
	return loadDefs(dir, func(data []byte, path string) error {
		var defs []*TokenDef
		if err := strictDecode(data, &defs); err != nil {
			return fmt.Errorf("parsing %q: %w", path, err)
		}
		for _, d := range defs {
			if err := c.RegisterToken(d); err != nil {
				return fmt.Errorf("%q: %w", path, err)
			}
		}
		return nil
	})
}

// LoadEnemies reads every *.yaml file in dir, parses each as a single
// EnemyDef, and registers it.
//
// Precondition: dir must be a readable directory.
func (c *Catalog) LoadEnemies(dir string) error {
	return loadDefs(dir, func(data []byte, path string) error {
		var def EnemyDef
		if err := strictDecode(data, &def); err != nil {
			return fmt.Errorf("parsing %q: %w", path, err)
		}
		return c.RegisterEnemy(&def)
	})
}

// loadDefs walks every *.yaml file in dir in directory order and hands
// its contents to parse.
func loadDefs(dir string, parse func(data []byte, path string) error) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading catalog dir %q: %w", dir, err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %q: %w", path, err)
		}
		if err := parse(data, path); err != nil {
			return err
		}
	}
	return nil
}

// strictDecode decodes YAML with unknown-field rejection, matching the
// loader discipline used for all content files.
func strictDecode(data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	return dec.Decode(out)
}
