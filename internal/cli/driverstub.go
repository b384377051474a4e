package cli

import (
	"fmt"

	"github.com/keboola/osiris/pkg/exec"
)

// unregisteredDriverFactory is the DriverFactory "osiris run" wires
// into pkg/exec. Concrete database, filesystem, and API drivers are
// an explicit Non-goal (§1, carried through SPEC_FULL.md §D): this
// binary ships the orchestration core only, never a driver
// implementation. Driver returns exec.ErrDriverNotFound for every
// component, the same way pkg/exec's own tests stand in a fakeFactory
// rather than reaching for a real one — except here the factory is
// never meant to resolve anything; it exists so Execute's fail-fast
// path reports a clear "no driver registered" error instead of a nil
// pointer the moment a step actually runs.
type unregisteredDriverFactory struct{}

func (unregisteredDriverFactory) Driver(component string) (exec.Driver, error) {
	return nil, fmt.Errorf("%w: %s (osiris ships no concrete drivers; register one out of process)", exec.ErrDriverNotFound, component)
}
