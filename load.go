package solconfig

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Load reads and validates the configuration file at path
func Load(path string, opts ...Option) (*Descriptor, error) {
	cfg := newConfig(opts)

	format := cfg.Format
	if format == "" {
		var err error
		if format, err = FormatFromPath(path); err != nil {
			return nil, &ParseError{Path: path, Err: err}
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParseError{Path: path, Format: format, Err: err}
	}

	cfg.Logger.WithField("path", path).Debug("loading config")
	return parse(data, path, format, cfg)
}

// Parse validates a configuration held in memory
func Parse(data []byte, format Format, opts ...Option) (*Descriptor, error) {
	return parse(data, "", format, newConfig(opts))
}

func parse(data []byte, path string, format Format, cfg *Config) (*Descriptor, error) {
	tree, err := decodeTree(data, format)
	if err != nil {
		return nil, &ParseError{Path: path, Format: format, Err: err}
	}

	b := &builder{cfg: cfg}
	d := b.descriptor(tree)

	if b.malformed != nil {
		return nil, &ParseError{Path: path, Format: format, Err: b.malformed}
	}
	if b.invalid != nil {
		return nil, &ValidationError{Path: path, Err: b.invalid}
	}
	return d, nil
}

// decodeTree decodes any supported format into nested maps so that all of
// them go through the same validation
func decodeTree(data []byte, format Format) (map[string]interface{}, error) {
	tree := map[string]interface{}{}

	switch format {
	case FormatJSON:
		data = jsonc.ToJSON(data)

		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&tree); err != nil {
			return nil, err
		}
		if _, err := dec.Token(); err != io.EOF {
			return nil, fmt.Errorf("unexpected data after the top-level object")
		}

		// encoding/json keeps the last of repeated keys, yaml and toml reject them
		if err := checkDuplicateKeys(json.NewDecoder(bytes.NewReader(data)), ""); err != nil {
			return nil, err
		}

	case FormatYAML:
		if err := yaml.Unmarshal(data, &tree); err != nil {
			return nil, err
		}

	case FormatTOML:
		if err := toml.Unmarshal(data, &tree); err != nil {
			return nil, err
		}

	default:
		return nil, fmt.Errorf("unsupported config format '%s'", format)
	}

	if tree == nil {
		// empty yaml document
		tree = map[string]interface{}{}
	}
	return tree, nil
}

// checkDuplicateKeys walks the next json value and fails on an object that
// defines the same key twice
func checkDuplicateKeys(dec *json.Decoder, path string) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return nil
	}

	switch delim {
	case '{':
		keys := map[string]struct{}{}
		for dec.More() {
			tok, err := dec.Token()
			if err != nil {
				return err
			}
			key, ok := tok.(string)
			if !ok {
				return fmt.Errorf("%s: unexpected object key %v", path, tok)
			}
			if _, ok := keys[key]; ok {
				return fmt.Errorf("key '%s' already defined", join(path, key))
			}
			keys[key] = struct{}{}

			if err := checkDuplicateKeys(dec, join(path, key)); err != nil {
				return err
			}
		}
	case '[':
		for dec.More() {
			if err := checkDuplicateKeys(dec, path); err != nil {
				return err
			}
		}
	}

	// closing delimiter
	_, err = dec.Token()
	return err
}
