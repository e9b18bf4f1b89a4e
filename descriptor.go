package solconfig

import (
	"fmt"
	"net"
	"sort"
	"strconv"

	"github.com/umbracle/solconfig/semrange"
)

// NativeVersion is the version sentinel that selects the solc installed on the host
const NativeVersion = "native"

// ParserMode selects how sources are parsed before compilation
type ParserMode string

const (
	// ParserDefault lets the compiler parse the sources itself
	ParserDefault ParserMode = ""
	ParserSolcJS  ParserMode = "solcjs"
	ParserNative  ParserMode = "native"
)

func (p ParserMode) valid() bool {
	switch p {
	case ParserDefault, ParserSolcJS, ParserNative:
		return true
	}
	return false
}

// evmVersions are the hard forks solc accepts as evmVersion
var evmVersions = map[string]struct{}{
	"homestead":        {},
	"tangerineWhistle": {},
	"spuriousDragon":   {},
	"byzantium":        {},
	"constantinople":   {},
	"petersburg":       {},
	"istanbul":         {},
	"berlin":           {},
	"london":           {},
	"paris":            {},
	"shanghai":         {},
	"cancun":           {},
	"prague":           {},
}

type Optimizer struct {
	Enabled bool
	Runs    uint64
}

// Settings are the optional solc settings
type Settings struct {
	Optimizer Optimizer

	EVMVersion string
}

func (s Settings) IsZero() bool {
	return s == Settings{}
}

// CompilerSpec is the solc section of the configuration
type CompilerSpec struct {
	// Name is the compiler name, always solc
	Name string

	// Version is either NativeVersion or a semver range
	Version string

	Parser ParserMode

	Settings Settings
}

// IsNative returns true if the host compiler should be used
func (c CompilerSpec) IsNative() bool {
	return c.Version == NativeVersion
}

// Constraint returns the version range of the compiler
func (c CompilerSpec) Constraint() (*semrange.Range, error) {
	if c.IsNative() {
		return nil, fmt.Errorf("native compiler has no version constraint")
	}
	return semrange.Parse(c.Version)
}

// NetworkID identifies a deployment target. AnyNetwork matches every id.
type NetworkID string

const AnyNetwork NetworkID = "*"

func (n NetworkID) IsWildcard() bool {
	return n == AnyNetwork
}

// Matches reports whether a chain with the given id is an acceptable target
func (n NetworkID) Matches(id uint64) bool {
	if n.IsWildcard() {
		return true
	}
	num, err := strconv.ParseUint(string(n), 10, 64)
	if err != nil {
		return false
	}
	return num == id
}

// NetworkProfile is the connection profile of a network
type NetworkProfile struct {
	Label     string    `json:"label"`
	Host      string    `json:"host"`
	Port      int       `json:"port"`
	NetworkID NetworkID `json:"network_id"`

	// Gas is the gas limit for deployments, 0 if unset
	Gas uint64 `json:"gas,omitempty"`

	// GasPrice in wei, 0 if unset
	GasPrice uint64 `json:"gasPrice,omitempty"`

	// From is the checksummed sender address, empty if unset
	From string `json:"from,omitempty"`

	Websockets bool `json:"websockets,omitempty"`
}

// Addr returns the host:port address of the network
func (n NetworkProfile) Addr() string {
	return net.JoinHostPort(n.Host, strconv.Itoa(n.Port))
}

// URL returns the RPC endpoint of the network
func (n NetworkProfile) URL() string {
	scheme := "http"
	if n.Websockets {
		scheme = "ws"
	}
	return scheme + "://" + n.Addr()
}

// Descriptor is a loaded and validated project configuration.
// It is immutable, accessors return copies.
type Descriptor struct {
	compiler CompilerSpec
	networks map[string]NetworkProfile
}

// Compiler returns the solc compiler spec
func (d *Descriptor) Compiler() CompilerSpec {
	return d.compiler
}

// GetNetwork returns the profile for the label or a *NotFoundError
func (d *Descriptor) GetNetwork(label string) (NetworkProfile, error) {
	n, ok := d.networks[label]
	if !ok {
		return NetworkProfile{}, &NotFoundError{Label: label, Defined: d.Labels()}
	}
	return n, nil
}

// Labels returns the sorted network labels
func (d *Descriptor) Labels() []string {
	labels := make([]string, 0, len(d.networks))
	for label := range d.networks {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// Networks returns all the profiles sorted by label
func (d *Descriptor) Networks() []NetworkProfile {
	res := make([]NetworkProfile, 0, len(d.networks))
	for _, label := range d.Labels() {
		res = append(res, d.networks[label])
	}
	return res
}
