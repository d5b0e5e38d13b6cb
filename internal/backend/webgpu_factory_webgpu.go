//go:build webgpu

package backend

import (
	"github.com/samcharles93/prefixscan/internal/backend/webgpu"
	"github.com/samcharles93/prefixscan/internal/compute"
	"github.com/samcharles93/prefixscan/internal/logger"
)

func newWebGPU(log logger.Logger) (compute.Queue, error) {
	return webgpu.New(log)
}
