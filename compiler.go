package solconfig

import (
	"fmt"
	"os/exec"

	version "github.com/hashicorp/go-version"
	"github.com/umbracle/solconfig/svm"
)

// CompilerManager provides compiler binaries, it is implemented
// by svm.SolidityVersionManager
type CompilerManager interface {
	Releases() ([]*svm.Release, error)
	Resolve(version string) (string, error)
}

var lookPath = exec.LookPath

// SelectCompilerVersion returns the highest release that satisfies the
// configured version range
func (d *Descriptor) SelectCompilerVersion(releases []*svm.Release) (*version.Version, error) {
	rng, err := d.compiler.Constraint()
	if err != nil {
		return nil, err
	}

	versions := []*version.Version{}
	for _, r := range releases {
		versions = append(versions, r.Version)
	}

	selected := rng.Select(versions)
	if selected == nil {
		return nil, fmt.Errorf("no solc release satisfies '%s'", rng)
	}
	return selected, nil
}

// ResolveCompiler returns the path of the solc binary the configuration
// asks for. The native version resolves to the solc found in $PATH.
func (d *Descriptor) ResolveCompiler(m CompilerManager) (string, error) {
	if d.compiler.IsNative() {
		path, err := lookPath("solc")
		if err != nil {
			return "", fmt.Errorf("native solc not found: %v", err)
		}
		return path, nil
	}

	releases, err := m.Releases()
	if err != nil {
		return "", err
	}
	selected, err := d.SelectCompilerVersion(releases)
	if err != nil {
		return "", err
	}
	return m.Resolve(selected.String())
}
