//go:build !webgpu

package backend

func Has(name string) bool {
	return name == Sim
}
