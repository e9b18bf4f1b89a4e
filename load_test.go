package solconfig

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestLoad_Fixtures(t *testing.T) {
	for _, name := range []string{"truffle-config.json", "truffle-config.yaml", "truffle-config.toml"} {
		t.Run(name, func(t *testing.T) {
			d, err := Load(filepath.Join("fixtures", name))
			require.NoError(t, err)

			c := d.Compiler()
			require.Equal(t, "solc", c.Name)
			require.Equal(t, "^0.4.4", c.Version)
			require.Equal(t, ParserSolcJS, c.Parser)
			require.True(t, c.Settings.IsZero())

			n, err := d.GetNetwork("development")
			require.NoError(t, err)
			require.Equal(t, "development", n.Label)
			require.Equal(t, "localhost", n.Host)
			require.Equal(t, 8545, n.Port)
			require.Equal(t, AnyNetwork, n.NetworkID)

			require.Equal(t, []string{"development"}, d.Labels())
		})
	}
}

func TestLoad_Full(t *testing.T) {
	d, err := Load("fixtures/full.yaml")
	require.NoError(t, err)

	c := d.Compiler()
	require.Equal(t, ">=0.5.0 <0.7.0", c.Version)
	require.Equal(t, ParserDefault, c.Parser)
	require.Equal(t, Settings{Optimizer: Optimizer{Enabled: true, Runs: 200}, EVMVersion: "istanbul"}, c.Settings)

	dev, err := d.GetNetwork("development")
	require.NoError(t, err)
	require.Equal(t, NetworkID("5777"), dev.NetworkID)
	require.Equal(t, "http://127.0.0.1:7545", dev.URL())

	ropsten, err := d.GetNetwork("ropsten")
	require.NoError(t, err)
	require.Equal(t, uint64(5500000), ropsten.Gas)
	require.Equal(t, uint64(10000000000), ropsten.GasPrice)
	require.Equal(t, "0x8ba1f109551bD432803012645Ac136ddd64DBA72", ropsten.From)
	require.Equal(t, "ws://ropsten.example.org:8546", ropsten.URL())

	networks := d.Networks()
	require.Len(t, networks, 2)
	require.Equal(t, "development", networks[0].Label)
	require.Equal(t, "ropsten", networks[1].Label)
}

func TestLoad_Defaults(t *testing.T) {
	d, err := Parse([]byte(`{}`), FormatJSON)
	require.NoError(t, err)
	require.Equal(t, defaultSolidityVersion, d.Compiler().Version)
	require.Empty(t, d.Networks())

	d, err = Parse([]byte(``), FormatYAML, WithSolidityVersion("0.8.4"))
	require.NoError(t, err)
	require.Equal(t, "0.8.4", d.Compiler().Version)
}

func TestLoad_InvalidPort(t *testing.T) {
	data := []byte(`{"networks": {"development": {"host": "localhost", "port": 70000, "network_id": "*"}}}`)

	_, err := Parse(data, FormatJSON)
	require.Error(t, err)

	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))

	fields := validationErr.Fields()
	require.Len(t, fields, 1)
	require.Equal(t, "networks.development.port", fields[0].Field)
	require.Equal(t, int64(70000), fields[0].Value)
}

func TestLoad_ValidationErrors(t *testing.T) {
	cases := []struct {
		name   string
		config string
		fields []string
	}{
		{
			"negative port",
			`networks: {dev: {host: h, port: -1, network_id: "*"}}`,
			[]string{"networks.dev.port"},
		},
		{
			"parser",
			`compilers: {solc: {version: "0.8.4", parser: "acorn"}}`,
			[]string{"compilers.solc.parser"},
		},
		{
			"version",
			`compilers: {solc: {version: "latest"}}`,
			[]string{"compilers.solc.version"},
		},
		{
			"empty version",
			`compilers: {solc: {version: ""}}`,
			[]string{"compilers.solc.version"},
		},
		{
			"network id zero",
			`networks: {dev: {host: h, port: 1, network_id: "0"}}`,
			[]string{"networks.dev.network_id"},
		},
		{
			"network id text",
			`networks: {dev: {host: h, port: 1, network_id: "mainnet"}}`,
			[]string{"networks.dev.network_id"},
		},
		{
			"missing fields",
			`networks: {dev: {}}`,
			[]string{"networks.dev.host", "networks.dev.port", "networks.dev.network_id"},
		},
		{
			"evm version",
			`compilers: {solc: {version: "0.8.4", settings: {evmVersion: "frontier2"}}}`,
			[]string{"compilers.solc.settings.evmVersion"},
		},
		{
			"from",
			`networks: {dev: {host: h, port: 1, network_id: "*", from: "0x1234"}}`,
			[]string{"networks.dev.from"},
		},
		{
			"port above range",
			`networks: {dev: {host: h, port: 65536, network_id: "*"}}`,
			[]string{"networks.dev.port"},
		},
		{
			"gas above int64",
			`networks: {dev: {host: h, port: 1, network_id: "*", gas: 9223372036854775808}}`,
			[]string{"networks.dev.gas"},
		},
		{
			"from checksum",
			`networks: {dev: {host: h, port: 1, network_id: "*", from: "0x8Ba1f109551bD432803012645Ac136ddd64DBA72"}}`,
			[]string{"networks.dev.from"},
		},
		{
			"several",
			`{compilers: {solc: {parser: "x"}}, networks: {dev: {host: h, port: 70000, network_id: "*"}}}`,
			[]string{"compilers.solc.parser", "networks.dev.port"},
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := Parse([]byte(c.config), FormatYAML)

			var validationErr *ValidationError
			require.True(t, errors.As(err, &validationErr), "%v", err)

			fields := []string{}
			for _, f := range validationErr.Fields() {
				fields = append(fields, f.Field)
			}
			require.ElementsMatch(t, c.fields, fields)
		})
	}
}

func TestLoad_ParseErrors(t *testing.T) {
	cases := []struct {
		name   string
		format Format
		config string
	}{
		{"json syntax", FormatJSON, `{"networks": `},
		{"json trailing data", FormatJSON, `{} {}`},
		{"yaml syntax", FormatYAML, "networks: [\n"},
		{"toml syntax", FormatTOML, "[networks\n"},
		{"not a table", FormatYAML, `networks: 3`},
		{"port type", FormatJSON, `{"networks": {"dev": {"host": "h", "port": "8545", "network_id": "*"}}}`},
		{"host type", FormatTOML, "[networks.dev]\nhost = 1\nport = 1\nnetwork_id = \"*\"\n"},
		{"unknown format", Format("xml"), `<config/>`},
		{"json duplicate label", FormatJSON, `{"networks": {
			"dev": {"host": "a", "port": 1, "network_id": "*"},
			"dev": {"host": "b", "port": 2, "network_id": "*"}}}`},
		{"json duplicate field", FormatJSON, `{"networks": {"dev": {"host": "a", "port": 70000, "port": 1, "network_id": "*"}}}`},
		{"yaml duplicate label", FormatYAML, "networks:\n  dev: {host: a, port: 1, network_id: \"*\"}\n  dev: {host: b, port: 2, network_id: \"*\"}\n"},
		{"yaml label collision", FormatYAML, `networks: {1: {host: a, port: 1, network_id: "*"}, "1": {host: b, port: 1, network_id: "*"}}`},
		{"yaml list key", FormatYAML, `networks: {[a, b]: {host: a, port: 1, network_id: "*"}}`},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := Parse([]byte(c.config), c.format)

			var parseErr *ParseError
			require.True(t, errors.As(err, &parseErr), "%v", err)
		})
	}
}

func TestLoad_FileErrors(t *testing.T) {
	_, err := Load("fixtures/missing.json")
	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr))
	require.True(t, errors.Is(err, os.ErrNotExist))

	_, err = Load("fixtures/truffle-config.js")
	require.True(t, errors.As(err, &parseErr))
}

func TestLoad_Strict(t *testing.T) {
	data := []byte(`
contracts_directory: ./contracts
networks:
  dev: {host: h, port: 1, network_id: "*", provider: x}
`)

	_, err := Parse(data, FormatYAML)
	require.NoError(t, err)

	_, err = Parse(data, FormatYAML, WithStrict())

	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))

	fields := []string{}
	for _, f := range validationErr.Fields() {
		fields = append(fields, f.Field)
	}
	require.Equal(t, []string{"contracts_directory", "networks.dev.provider"}, fields)
}

func TestGetNetwork_NotFound(t *testing.T) {
	d, err := Load("fixtures/truffle-config.json")
	require.NoError(t, err)

	_, err = d.GetNetwork("production")

	var notFound *NotFoundError
	require.True(t, errors.As(err, &notFound))
	require.Equal(t, "production", notFound.Label)
	require.Equal(t, []string{"development"}, notFound.Defined)
}

func TestRoundTrip(t *testing.T) {
	for _, fixture := range []string{"fixtures/truffle-config.json", "fixtures/full.yaml"} {
		d, err := Load(fixture)
		require.NoError(t, err)

		for _, format := range []Format{FormatJSON, FormatYAML, FormatTOML} {
			t.Run(filepath.Base(fixture)+"/"+string(format), func(t *testing.T) {
				path := filepath.Join(t.TempDir(), "truffle-config."+string(format))
				require.NoError(t, d.Save(path))

				reloaded, err := Load(path)
				require.NoError(t, err)

				if diff := cmp.Diff(d, reloaded, cmp.AllowUnexported(Descriptor{})); diff != "" {
					t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
				}
			})
		}
	}
}

func TestLoad_PortBounds(t *testing.T) {
	for _, port := range []int{0, 65535} {
		data := []byte(fmt.Sprintf(`{"networks": {"dev": {"host": "h", "port": %d, "network_id": "*"}}}`, port))

		d, err := Parse(data, FormatJSON)
		require.NoError(t, err)

		n, err := d.GetNetwork("dev")
		require.NoError(t, err)
		require.Equal(t, port, n.Port)
	}
}

func TestLoad_IntegerCeiling(t *testing.T) {
	const above = "9223372036854775808"

	// every format rejects values toml could not write back
	for format, config := range map[Format]string{
		FormatJSON: `{"networks": {"dev": {"host": "h", "port": 1, "network_id": "*", "gas": ` + above + `}}}`,
		FormatYAML: `networks: {dev: {host: h, port: 1, network_id: "*", gas: ` + above + `}}`,
	} {
		_, err := Parse([]byte(config), format)

		var validationErr *ValidationError
		require.True(t, errors.As(err, &validationErr), "%s: %v", format, err)
	}

	d, err := Parse([]byte(`networks: {dev: {host: h, port: 1, network_id: "*", gas: 9223372036854775807}}`), FormatYAML)
	require.NoError(t, err)

	data, err := d.Marshal(FormatTOML)
	require.NoError(t, err)

	reloaded, err := Parse(data, FormatTOML)
	require.NoError(t, err)

	n, err := reloaded.GetNetwork("dev")
	require.NoError(t, err)
	require.Equal(t, uint64(math.MaxInt64), n.Gas)
}

func TestLoad_YAMLSections(t *testing.T) {
	d, err := Parse([]byte(`networks: {1: {host: h, port: 1, network_id: "*"}}`), FormatYAML)
	require.NoError(t, err)
	require.Equal(t, []string{"1"}, d.Labels())

	d, err = Parse([]byte("compilers:\nnetworks:\n"), FormatYAML)
	require.NoError(t, err)
	require.Empty(t, d.Labels())
	require.Equal(t, defaultSolidityVersion, d.Compiler().Version)

	_, err = Parse([]byte(`{"networks": null}`), FormatJSON)
	require.NoError(t, err)
}

func TestLoad_FromChecksum(t *testing.T) {
	for _, from := range []string{
		"0x8ba1f109551bD432803012645Ac136ddd64DBA72",
		"0x8ba1f109551bd432803012645ac136ddd64dba72",
		"0x8BA1F109551BD432803012645AC136DDD64DBA72",
	} {
		data := []byte(`networks: {dev: {host: h, port: 1, network_id: "*", from: "` + from + `"}}`)

		d, err := Parse(data, FormatYAML)
		require.NoError(t, err, from)

		n, err := d.GetNetwork("dev")
		require.NoError(t, err)
		require.Equal(t, "0x8ba1f109551bD432803012645Ac136ddd64DBA72", n.From)
	}
}

func TestLoad_WithFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "solidity.txt")
	require.NoError(t, os.WriteFile(path, []byte("networks: {dev: {host: h, port: 1, network_id: 3}}\n"), 0644))

	// the extension alone is not enough
	_, err := Load(path)
	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr))

	d, err := Load(path, WithFormat(FormatYAML))
	require.NoError(t, err)

	n, err := d.GetNetwork("dev")
	require.NoError(t, err)
	require.Equal(t, NetworkID("3"), n.NetworkID)
}
