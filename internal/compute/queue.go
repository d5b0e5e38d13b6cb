package compute

import "fmt"

// LaunchConfig is the shape of one scan launch: GroupSize workers per
// group, each owning ElementsPerWorker elements of the group's chunk.
type LaunchConfig struct {
	GroupSize         int
	ElementsPerWorker int
}

// DefaultLaunchConfig is 64 workers x 8 elements (512 elements per group).
var DefaultLaunchConfig = LaunchConfig{GroupSize: 64, ElementsPerWorker: 8}

// ScaleAccumulateGroupSize is the group width used for y = a*x + y.
const ScaleAccumulateGroupSize = 128

// BlockCapacity is the number of elements one group scans.
func (c LaunchConfig) BlockCapacity() int {
	return c.GroupSize * c.ElementsPerWorker
}

// LocalSize is the number of int32 slots of workgroup memory a scan group
// needs: two ping-pong halves.
func (c LaunchConfig) LocalSize() int {
	return 2 * c.BlockCapacity()
}

// Groups returns ceil(n / BlockCapacity).
func (c LaunchConfig) Groups(n int) int {
	return CeilDiv(n, c.BlockCapacity())
}

func (c LaunchConfig) Validate() error {
	if c.GroupSize < 1 {
		return fmt.Errorf("group size must be >= 1, got %d", c.GroupSize)
	}
	if c.ElementsPerWorker < 1 {
		return fmt.Errorf("elements per worker must be >= 1, got %d", c.ElementsPerWorker)
	}
	if c.BlockCapacity() < 2 {
		return fmt.Errorf("block capacity must be >= 2, got %d", c.BlockCapacity())
	}
	return nil
}

func (c LaunchConfig) String() string {
	return fmt.Sprintf("%dx%d", c.GroupSize, c.ElementsPerWorker)
}

// CeilDiv returns ceil(num / denom) for non-negative num and positive denom.
func CeilDiv(num, denom int) int {
	return num/denom + boolInt(num%denom != 0)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// BlockScanArgs describes one launch of the block scan primitive.
// Sums is empty when the launch covers a single group. When In and Out
// address the same elements the scan runs in place.
type BlockScanArgs struct {
	Mode Mode
	N    int
	In   View
	Out  View
	Sums View
}

// AddOffsetsArgs describes one launch of the propagation kernel: group g
// adds Offsets[g] to its chunk of Data.
type AddOffsetsArgs struct {
	N       int
	Data    View
	Offsets View
}

// Status word layout of a stream scan status buffer.
const (
	StatusStarted  = 0
	StatusFinished = 1
	StatusPartials = 2
)

// StreamStatusLen is the status buffer length for numGroups groups: two
// counters followed by numGroups+1 partial sums.
func StreamStatusLen(numGroups int) int {
	return StatusPartials + numGroups + 1
}

// StreamScanArgs describes the single launch of a decoupled look-back scan.
// Status must be zero-filled.
type StreamScanArgs struct {
	Mode   Mode
	N      int
	In     View
	Out    View
	Status View
}

// ScaleAccumulateArgs describes y = Alpha*x + y over N elements.
type ScaleAccumulateArgs struct {
	N     int
	Alpha float32
	X     View
	Y     View
}

// Queue is a command queue on one device. Every launch is asynchronous and
// returns the event that signals its completion; the launch does not start
// before all of deps have signalled successfully. A dependency failure
// fails the launch with the same error.
type Queue interface {
	Name() string

	// AllocInt32 returns a zero-filled int32 buffer.
	AllocInt32(n int) (Buffer, error)
	AllocFloat32(n int) (Buffer, error)

	WriteInt32(dst View, src []int32, deps []*Event) (*Event, error)
	ReadInt32(dst []int32, src View, deps []*Event) (*Event, error)
	WriteFloat32(dst View, src []float32, deps []*Event) (*Event, error)
	ReadFloat32(dst []float32, src View, deps []*Event) (*Event, error)

	BlockScan(cfg LaunchConfig, args BlockScanArgs, deps []*Event) (*Event, error)
	AddOffsets(cfg LaunchConfig, args AddOffsetsArgs, deps []*Event) (*Event, error)
	StreamScan(cfg LaunchConfig, args StreamScanArgs, deps []*Event) (*Event, error)
	ScaleAccumulate(args ScaleAccumulateArgs, deps []*Event) (*Event, error)

	// Close waits for submitted work and rejects further submissions.
	Close() error
}
