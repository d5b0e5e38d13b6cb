//go:build webgpu

package backend

func Has(name string) bool {
	switch name {
	case WebGPU:
		return true
	default:
		return name == Sim
	}
}
