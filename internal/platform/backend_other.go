//go:build !linux && !(darwin && cgo)

package platform

import (
	"fmt"
	"runtime"

	"github.com/1broseidon/displix/internal/display"
)

func open(Options) (Backend, error) {
	return nil, fmt.Errorf("%w: no display backend for %s", display.NotImplemented, runtime.GOOS)
}
