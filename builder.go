package solconfig

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/hashicorp/go-multierror"
	"github.com/umbracle/solconfig/semrange"
)

// builder converts a decoded tree into a Descriptor. Type mismatches are
// collected in malformed, bad values in invalid.
type builder struct {
	cfg *Config

	malformed *multierror.Error
	invalid   *multierror.Error
}

func (b *builder) typeErr(field string, expected string, v interface{}) {
	b.malformed = multierror.Append(b.malformed, fmt.Errorf("%s: expected %s, got %T", field, expected, v))
}

func (b *builder) fieldErr(field string, v interface{}, reason string, args ...interface{}) {
	b.invalid = multierror.Append(b.invalid, &FieldError{
		Field:  field,
		Value:  v,
		Reason: fmt.Sprintf(reason, args...),
	})
}

// unknown reports keys outside of known
func (b *builder) unknown(prefix string, m map[string]interface{}, known ...string) {
	keys := []string{}
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		found := false
		for _, j := range known {
			if k == j {
				found = true
			}
		}
		if found {
			continue
		}
		field := join(prefix, k)
		if b.cfg.Strict {
			b.fieldErr(field, nil, "unknown key")
		} else {
			b.cfg.Logger.WithField("key", field).Debug("ignoring unknown config key")
		}
	}
}

func join(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

// table accepts a null value as an empty table. yaml decodes mappings with
// non-string keys (networks: {1: ...}) as map[interface{}]interface{}, their
// scalar keys are turned into strings.
func (b *builder) table(field string, v interface{}) (map[string]interface{}, bool) {
	switch m := v.(type) {
	case nil:
		return map[string]interface{}{}, true
	case map[string]interface{}:
		return m, true
	case map[interface{}]interface{}:
		res := make(map[string]interface{}, len(m))
		for k, v := range m {
			switch k.(type) {
			case string, int, int64, uint64, float64, bool:
				key := fmt.Sprint(k)
				if _, ok := res[key]; ok {
					b.malformed = multierror.Append(b.malformed, fmt.Errorf("%s: key '%s' already defined", field, key))
					return nil, false
				}
				res[key] = v
			default:
				b.malformed = multierror.Append(b.malformed, fmt.Errorf("%s: keys must be strings, got %T", field, k))
				return nil, false
			}
		}
		return res, true
	}
	b.typeErr(field, "table", v)
	return nil, false
}

func (b *builder) str(field string, v interface{}) (string, bool) {
	s, ok := v.(string)
	if !ok {
		b.typeErr(field, "string", v)
	}
	return s, ok
}

func (b *builder) boolean(field string, v interface{}) (bool, bool) {
	s, ok := v.(bool)
	if !ok {
		b.typeErr(field, "boolean", v)
	}
	return s, ok
}

// integer accepts the integer representations of every decoder
func (b *builder) integer(field string, v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case uint64:
		if n > math.MaxInt64 {
			b.fieldErr(field, n, "out of range")
			return 0, false
		}
		return int64(n), true
	case float64:
		if n == math.Trunc(n) && math.Abs(n) < math.MaxInt64 {
			return int64(n), true
		}
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		if _, err := strconv.ParseUint(n.String(), 10, 64); err == nil {
			b.fieldErr(field, n, "out of range")
			return 0, false
		}
	}
	b.typeErr(field, "integer", v)
	return 0, false
}

// unsigned shares the int64 ceiling of integer in every format, toml cannot
// encode anything above it
func (b *builder) unsigned(field string, v interface{}) (uint64, bool) {
	i, ok := b.integer(field, v)
	if !ok {
		return 0, false
	}
	if i < 0 {
		b.fieldErr(field, i, "must not be negative")
		return 0, false
	}
	return uint64(i), true
}

func (b *builder) descriptor(tree map[string]interface{}) *Descriptor {
	b.unknown("", tree, "compilers", "networks")

	d := &Descriptor{
		compiler: CompilerSpec{
			Name:    "solc",
			Version: b.cfg.SolidityVersion,
		},
		networks: map[string]NetworkProfile{},
	}

	if raw, ok := tree["compilers"]; ok {
		if compilers, ok := b.table("compilers", raw); ok {
			for name := range compilers {
				if name != "solc" {
					b.cfg.Logger.WithField("compiler", name).Debug("ignoring compiler")
				}
			}
			if raw, ok := compilers["solc"]; ok {
				b.solc(&d.compiler, raw)
			}
		}
	}

	if raw, ok := tree["networks"]; ok {
		if networks, ok := b.table("networks", raw); ok {
			for label, raw := range networks {
				if n, ok := b.network(label, raw); ok {
					d.networks[label] = n
				}
			}
		}
	}
	return d
}

func (b *builder) solc(c *CompilerSpec, raw interface{}) {
	solc, ok := b.table("compilers.solc", raw)
	if !ok {
		return
	}
	b.unknown("compilers.solc", solc, "version", "parser", "settings")

	if raw, ok := solc["version"]; ok {
		if v, ok := b.str("compilers.solc.version", raw); ok {
			c.Version = strings.TrimSpace(v)
			if c.Version == "" {
				b.fieldErr("compilers.solc.version", nil, "must not be empty")
			} else if !c.IsNative() {
				if _, err := semrange.Parse(c.Version); err != nil {
					b.fieldErr("compilers.solc.version", v, "must be '%s' or a semver range", NativeVersion)
				}
			}
		}
	}

	if raw, ok := solc["parser"]; ok {
		if p, ok := b.str("compilers.solc.parser", raw); ok {
			c.Parser = ParserMode(p)
			if !c.Parser.valid() {
				b.fieldErr("compilers.solc.parser", p, "unrecognized parser mode, expected '%s' or '%s'", ParserSolcJS, ParserNative)
			}
		}
	}

	if raw, ok := solc["settings"]; ok {
		b.settings(&c.Settings, raw)
	}
}

func (b *builder) settings(s *Settings, raw interface{}) {
	const prefix = "compilers.solc.settings"

	settings, ok := b.table(prefix, raw)
	if !ok {
		return
	}
	b.unknown(prefix, settings, "optimizer", "evmVersion")

	if raw, ok := settings["optimizer"]; ok {
		if optimizer, ok := b.table(prefix+".optimizer", raw); ok {
			b.unknown(prefix+".optimizer", optimizer, "enabled", "runs")

			if raw, ok := optimizer["enabled"]; ok {
				s.Optimizer.Enabled, _ = b.boolean(prefix+".optimizer.enabled", raw)
			}
			if raw, ok := optimizer["runs"]; ok {
				s.Optimizer.Runs, _ = b.unsigned(prefix+".optimizer.runs", raw)
			}
		}
	}

	if raw, ok := settings["evmVersion"]; ok {
		if v, ok := b.str(prefix+".evmVersion", raw); ok {
			if _, ok := evmVersions[v]; !ok {
				b.fieldErr(prefix+".evmVersion", v, "unknown evm version")
			}
			s.EVMVersion = v
		}
	}
}

var networkIDRegexp = regexp.MustCompile(`^[1-9][0-9]*$`)

func (b *builder) network(label string, raw interface{}) (NetworkProfile, bool) {
	prefix := "networks." + label

	n := NetworkProfile{Label: label}
	if strings.TrimSpace(label) == "" {
		b.fieldErr("networks", label, "network label must not be empty")
		return n, false
	}

	network, ok := b.table(prefix, raw)
	if !ok {
		return n, false
	}
	b.unknown(prefix, network, "host", "port", "network_id", "gas", "gasPrice", "from", "websockets")

	// host
	if raw, ok := network["host"]; !ok {
		b.fieldErr(prefix+".host", nil, "required")
	} else if host, ok := b.str(prefix+".host", raw); ok {
		if host == "" {
			b.fieldErr(prefix+".host", nil, "must not be empty")
		}
		n.Host = host
	}

	// port
	if raw, ok := network["port"]; !ok {
		b.fieldErr(prefix+".port", nil, "required")
	} else if port, ok := b.integer(prefix+".port", raw); ok {
		if port < 0 || port > 65535 {
			b.fieldErr(prefix+".port", port, "must be a valid tcp port (0-65535)")
		}
		n.Port = int(port)
	}

	// network_id is either the wildcard or a positive integer, written as
	// a string or as a number
	if raw, ok := network["network_id"]; !ok {
		b.fieldErr(prefix+".network_id", nil, "required")
	} else if id, ok := b.networkID(prefix+".network_id", raw); ok {
		n.NetworkID = id
		if !id.IsWildcard() && !validNetworkID(string(id)) {
			b.fieldErr(prefix+".network_id", string(id), "must be '%s' or a positive integer", AnyNetwork)
		}
	}

	if raw, ok := network["gas"]; ok {
		n.Gas, _ = b.unsigned(prefix+".gas", raw)
	}
	if raw, ok := network["gasPrice"]; ok {
		n.GasPrice, _ = b.unsigned(prefix+".gasPrice", raw)
	}
	if raw, ok := network["from"]; ok {
		if from, ok := b.str(prefix+".from", raw); ok {
			if !common.IsHexAddress(from) {
				b.fieldErr(prefix+".from", from, "not a hex address")
			} else if checksummed := common.HexToAddress(from).Hex(); mixedCase(from) && checksummed[2:] != trimHexPrefix(from) {
				b.fieldErr(prefix+".from", from, "invalid EIP-55 checksum, expected %s", checksummed)
			} else {
				n.From = checksummed
			}
		}
	}
	if raw, ok := network["websockets"]; ok {
		n.Websockets, _ = b.boolean(prefix+".websockets", raw)
	}

	return n, true
}

func (b *builder) networkID(field string, v interface{}) (NetworkID, bool) {
	if s, ok := v.(string); ok {
		return NetworkID(s), true
	}
	i, ok := b.unsigned(field, v)
	if !ok {
		return "", false
	}
	return NetworkID(strconv.FormatUint(i, 10)), true
}

func validNetworkID(id string) bool {
	if !networkIDRegexp.MatchString(id) {
		return false
	}
	_, err := strconv.ParseUint(id, 10, 64)
	return err == nil
}

func trimHexPrefix(s string) string {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return s[2:]
	}
	return s
}

// mixedCase reports whether the address carries an EIP-55 checksum
func mixedCase(addr string) bool {
	hex := trimHexPrefix(addr)
	return strings.ToLower(hex) != hex && strings.ToUpper(hex) != hex
}
