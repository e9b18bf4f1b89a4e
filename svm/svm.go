package svm

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/google/renameio/v2"
	version "github.com/hashicorp/go-version"
	"github.com/sirupsen/logrus"
)

const defaultBaseURL = "https://binaries.soliditylang.org"

type config struct {
	logger   logrus.FieldLogger
	dir      string
	baseURL  string
	platform string
	client   *http.Client
}

type Option func(*config)

func WithLogger(logger logrus.FieldLogger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

func WithDir(dir string) Option {
	return func(c *config) {
		c.dir = dir
	}
}

// WithBaseURL sets the root of the binaries mirror (defaults to binaries.soliditylang.org)
func WithBaseURL(url string) Option {
	return func(c *config) {
		c.baseURL = strings.TrimSuffix(url, "/")
	}
}

// WithPlatform overrides the platform directory of the mirror (i.e. linux-amd64)
func WithPlatform(platform string) Option {
	return func(c *config) {
		c.platform = platform
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(c *config) {
		c.client = client
	}
}

// SolidityVersionManager is a service to manage solidity compiler versions
type SolidityVersionManager struct {
	config *config
}

// NewSolidityVersionManager creates a new Solidity Version Manager
func NewSolidityVersionManager(opts ...Option) (*SolidityVersionManager, error) {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	cfg := &config{
		logger:   discard,
		baseURL:  defaultBaseURL,
		platform: defaultPlatform(),
		client:   &http.Client{Timeout: 5 * time.Minute},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.dir == "" {
		// use the default $HOME/.solc-svm dir
		dirname, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %v", err)
		}
		cfg.dir = filepath.Join(dirname, ".solc-svm")
	}

	s := &SolidityVersionManager{
		config: cfg,
	}
	return s, nil
}

func defaultPlatform() string {
	switch runtime.GOOS {
	case "darwin":
		return "macosx-amd64"
	case "windows":
		return "windows-amd64"
	}
	return "linux-amd64"
}

// Release is a published compiler build
type Release struct {
	Version *version.Version

	// Path is the file name of the binary inside the platform directory
	Path string

	// SHA256 is the hex digest of the binary, empty if the mirror does not publish one
	SHA256 string
}

type listJSON struct {
	Builds []struct {
		Path    string `json:"path"`
		Version string `json:"version"`
		SHA256  string `json:"sha256"`
	} `json:"builds"`
	Releases map[string]string `json:"releases"`
}

// Releases returns the published (non nightly) releases sorted by version
func (s *SolidityVersionManager) Releases() ([]*Release, error) {
	url := s.config.baseURL + "/" + s.config.platform + "/list.json"

	resp, err := s.config.client.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch release list '%s': %s", url, resp.Status)
	}

	var list listJSON
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("failed to decode release list: %v", err)
	}

	digests := map[string]string{}
	for _, b := range list.Builds {
		digests[b.Path] = strings.TrimPrefix(b.SHA256, "0x")
	}

	res := []*Release{}
	for raw, path := range list.Releases {
		v, err := version.NewVersion(raw)
		if err != nil {
			s.config.logger.WithField("version", raw).Debug("skipping unparseable release")
			continue
		}
		res = append(res, &Release{
			Version: v,
			Path:    path,
			SHA256:  digests[path],
		})
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].Version.LessThan(res[j].Version)
	})
	return res, nil
}

// Path returns the location of the cached compiler binary for the version
func (s *SolidityVersionManager) Path(version string) string {
	return filepath.Join(s.config.dir, "solidity-"+version)
}

// Resolve returns the path for the compiler and downloads it if necessary
func (s *SolidityVersionManager) Resolve(version string) (string, error) {
	path := s.Path(version)

	if _, err := os.Stat(path); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			// unexpected error
			return "", err
		}

		release, err := s.findRelease(version)
		if err != nil {
			return "", err
		}

		s.config.logger.WithField("version", version).Info("Downloading solc compiler...")

		// download the compiler
		if err := s.download(release, path); err != nil {
			return "", err
		}
	}

	return path, nil
}

func (s *SolidityVersionManager) findRelease(v string) (*Release, error) {
	releases, err := s.Releases()
	if err != nil {
		return nil, err
	}
	for _, r := range releases {
		if r.Version.Original() == v || r.Version.String() == v {
			return r, nil
		}
	}
	return nil, fmt.Errorf("solc version '%s' not found for platform %s", v, s.config.platform)
}

func (s *SolidityVersionManager) download(release *Release, path string) error {
	dst := s.config.dir

	// check if the dst is correct
	fi, err := os.Stat(dst)
	if err == nil {
		if fi.Mode().IsRegular() {
			return fmt.Errorf("dst is a file")
		}
	} else {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat dst '%s': %v", dst, err)
		}
		// create the destiny path if does not exists
		if err := os.MkdirAll(dst, 0755); err != nil {
			return fmt.Errorf("cannot create dst path: %v", err)
		}
	}

	url := s.config.baseURL + "/" + s.config.platform + "/" + release.Path

	// Get the data
	resp, err := s.config.client.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to download '%s': %s", url, resp.Status)
	}

	// the binary is staged next to its final location and only renamed
	// into place once fully written and verified
	out, err := renameio.NewPendingFile(path, renameio.WithPermissions(0755))
	if err != nil {
		return err
	}
	defer out.Cleanup()

	hash := sha256.New()
	if _, err := io.Copy(io.MultiWriter(out, hash), resp.Body); err != nil {
		return err
	}

	if release.SHA256 != "" {
		if digest := hex.EncodeToString(hash.Sum(nil)); !strings.EqualFold(digest, release.SHA256) {
			return fmt.Errorf("checksum mismatch for solc %s: expected %s, got %s", release.Version, release.SHA256, digest)
		}
	}

	return out.CloseAtomicallyReplace()
}
