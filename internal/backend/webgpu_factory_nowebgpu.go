//go:build !webgpu

package backend

import (
	"fmt"

	"github.com/samcharles93/prefixscan/internal/compute"
	"github.com/samcharles93/prefixscan/internal/logger"
)

func newWebGPU(logger.Logger) (compute.Queue, error) {
	return nil, fmt.Errorf("webgpu backend is not available in this build")
}
