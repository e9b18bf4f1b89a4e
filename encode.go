package solconfig

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/google/renameio/v2"
	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// fileConfig is the on-disk layout shared by every format
type fileConfig struct {
	Compilers fileCompilers          `json:"compilers" yaml:"compilers" toml:"compilers"`
	Networks  map[string]fileNetwork `json:"networks" yaml:"networks" toml:"networks"`
}

type fileCompilers struct {
	Solc fileSolc `json:"solc" yaml:"solc" toml:"solc"`
}

type fileSolc struct {
	Version  string        `json:"version" yaml:"version" toml:"version"`
	Parser   string        `json:"parser,omitempty" yaml:"parser,omitempty" toml:"parser,omitempty"`
	Settings *fileSettings `json:"settings,omitempty" yaml:"settings,omitempty" toml:"settings,omitempty"`
}

type fileSettings struct {
	Optimizer  *fileOptimizer `json:"optimizer,omitempty" yaml:"optimizer,omitempty" toml:"optimizer,omitempty"`
	EVMVersion string         `json:"evmVersion,omitempty" yaml:"evmVersion,omitempty" toml:"evmVersion,omitempty"`
}

type fileOptimizer struct {
	Enabled bool   `json:"enabled" yaml:"enabled" toml:"enabled"`
	Runs    uint64 `json:"runs" yaml:"runs" toml:"runs"`
}

type fileNetwork struct {
	Host       string `json:"host" yaml:"host" toml:"host"`
	Port       int    `json:"port" yaml:"port" toml:"port"`
	NetworkID  string `json:"network_id" yaml:"network_id" toml:"network_id"`
	Gas        uint64 `json:"gas,omitempty" yaml:"gas,omitempty" toml:"gas,omitempty"`
	GasPrice   uint64 `json:"gasPrice,omitempty" yaml:"gasPrice,omitempty" toml:"gasPrice,omitempty"`
	From       string `json:"from,omitempty" yaml:"from,omitempty" toml:"from,omitempty"`
	Websockets bool   `json:"websockets,omitempty" yaml:"websockets,omitempty" toml:"websockets,omitempty"`
}

func (d *Descriptor) toFile() *fileConfig {
	f := &fileConfig{
		Compilers: fileCompilers{
			Solc: fileSolc{
				Version: d.compiler.Version,
				Parser:  string(d.compiler.Parser),
			},
		},
		Networks: map[string]fileNetwork{},
	}

	if s := d.compiler.Settings; !s.IsZero() {
		settings := &fileSettings{
			EVMVersion: s.EVMVersion,
		}
		if s.Optimizer != (Optimizer{}) {
			settings.Optimizer = &fileOptimizer{
				Enabled: s.Optimizer.Enabled,
				Runs:    s.Optimizer.Runs,
			}
		}
		f.Compilers.Solc.Settings = settings
	}

	for label, n := range d.networks {
		f.Networks[label] = fileNetwork{
			Host:       n.Host,
			Port:       n.Port,
			NetworkID:  string(n.NetworkID),
			Gas:        n.Gas,
			GasPrice:   n.GasPrice,
			From:       n.From,
			Websockets: n.Websockets,
		}
	}
	return f
}

// Marshal encodes the descriptor in the given format
func (d *Descriptor) Marshal(format Format) ([]byte, error) {
	f := d.toFile()

	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(f, "", "    ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil

	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(f); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil

	case FormatTOML:
		return toml.Marshal(f)
	}
	return nil, fmt.Errorf("unsupported config format '%s'", format)
}

// Save writes the descriptor to path atomically, the format is taken
// from the extension
func (d *Descriptor) Save(path string) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	data, err := d.Marshal(format)
	if err != nil {
		return err
	}
	return renameio.WriteFile(path, data, 0644)
}
