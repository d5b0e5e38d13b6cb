//go:build webgpu

package webgpu

import (
	"fmt"
	"math"

	"github.com/openfluke/webgpu/wgpu"

	"github.com/samcharles93/prefixscan/internal/compute"
)

const (
	maxWorkgroups   = 65535
	maxSharedBytes  = 16384
	maxWorkgroupLen = 256
)

type params struct {
	n           int
	shift       int
	subtractOwn bool
	alpha       float32
	off         [4]int
}

func (p params) words() []uint32 {
	w := make([]uint32, 8)
	w[0] = uint32(p.n)
	w[1] = uint32(p.shift)
	if p.subtractOwn {
		w[2] = 1
	}
	w[3] = math.Float32bits(p.alpha)
	for i, o := range p.off {
		w[4+i] = uint32(o)
	}
	return w
}

type dispatch struct {
	name   string
	key    string
	source func() string
	bd     *binder
	params params
	groups int
}

func checkLaunch(name string, cfg compute.LaunchConfig, groups int) error {
	if err := cfg.Validate(); err != nil {
		return compute.SubmissionError(name, "%v", err)
	}
	if cfg.GroupSize > maxWorkgroupLen {
		return compute.SubmissionError(name, "group size %d exceeds %d", cfg.GroupSize, maxWorkgroupLen)
	}
	if (cfg.LocalSize()+2)*4 > maxSharedBytes {
		return compute.SubmissionError(name, "%s needs more than %d bytes of workgroup memory", cfg, maxSharedBytes)
	}
	if groups > maxWorkgroups {
		return compute.SubmissionError(name, "%d workgroups exceed %d", groups, maxWorkgroups)
	}
	return nil
}

func (d *Device) pipeline(key string, source func() string) (*wgpu.ComputePipeline, error) {
	if p, ok := d.pipelines[key]; ok {
		return p, nil
	}
	module, err := d.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          key,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: source()},
	})
	if err != nil {
		return nil, fmt.Errorf("shader compile: %v", err)
	}
	defer module.Release()
	p, err := d.device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label: key,
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     module,
			EntryPoint: "main",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("pipeline create: %v", err)
	}
	d.pipelines[key] = p
	d.log.Debug("compiled pipeline", "key", key)
	return p, nil
}

func (d *Device) launch(k dispatch, deps []*compute.Event) (*compute.Event, error) {
	d.kernels.Add(1)
	d.log.Debug("launch", "kernel", k.name, "groups", k.groups)
	return d.submit(k.name, deps, func() error {
		if k.groups == 0 {
			return nil
		}
		return d.run(k)
	})
}

// run encodes one compute pass and blocks until the GPU has finished it.
// Callers hold d.gpu.
func (d *Device) run(k dispatch) error {
	pipe, err := d.pipeline(k.key, k.source)
	if err != nil {
		return compute.ExecutionError(k.name, err)
	}
	uniform, err := d.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    k.name + "_params",
		Contents: wgpu.ToBytes(k.params.words()),
		Usage:    wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("%w: %s params: %v", compute.ErrAllocation, k.name, err)
	}
	defer uniform.Release()
	defer uniform.Destroy()

	entries := []wgpu.BindGroupEntry{{Binding: 0, Buffer: uniform, Size: uniform.GetSize()}}
	for i, s := range k.bd.slots {
		entries = append(entries, wgpu.BindGroupEntry{Binding: uint32(i + 1), Buffer: s.buf.raw, Size: s.buf.raw.GetSize()})
	}
	bg, err := d.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   k.name,
		Layout:  pipe.GetBindGroupLayout(0),
		Entries: entries,
	})
	if err != nil {
		return compute.ExecutionError(k.name, err)
	}
	defer bg.Release()

	enc, err := d.device.CreateCommandEncoder(nil)
	if err != nil {
		return compute.ExecutionError(k.name, err)
	}
	pass := enc.BeginComputePass(nil)
	pass.SetPipeline(pipe)
	pass.SetBindGroup(0, bg, nil)
	pass.DispatchWorkgroups(uint32(k.groups), 1, 1)
	pass.End()
	cmd, err := enc.Finish(nil)
	if err != nil {
		return compute.ExecutionError(k.name, err)
	}
	d.queue.Submit(cmd)
	d.device.Poll(true, nil)
	return nil
}

func (d *Device) BlockScan(cfg compute.LaunchConfig, a compute.BlockScanArgs, deps []*compute.Event) (*compute.Event, error) {
	const name = "block_scan"
	groups := cfg.Groups(a.N)
	if err := checkLaunch(name, cfg, groups); err != nil {
		return nil, err
	}
	in, err := d.resolve(a.In, compute.Int32)
	if err != nil {
		return nil, compute.SubmissionError(name, "input: %v", err)
	}
	out, err := d.resolve(a.Out, compute.Int32)
	if err != nil {
		return nil, compute.SubmissionError(name, "output: %v", err)
	}
	if a.N > a.In.Length || a.N > a.Out.Length {
		return nil, compute.SubmissionError(name, "n=%d exceeds views (%d in, %d out)", a.N, a.In.Length, a.Out.Length)
	}
	inPlace := a.In.Same(a.Out)
	if !inPlace && a.In.Overlaps(a.Out) {
		return nil, compute.SubmissionError(name, "partially overlapping input and output")
	}

	bd := &binder{}
	inSlot, outSlot, sumsSlot := bd.bind(in, "i32"), bd.bind(out, "i32"), 0
	p := params{n: a.N, shift: a.Mode.Shift(), off: [4]int{a.In.Offset, a.Out.Offset}}
	// in place, each group reads only its own chunk
	if inPlace && a.Mode == compute.Exclusive {
		p.shift, p.subtractOwn = 0, true
	}
	if !a.Sums.Empty() {
		sums, err := d.resolve(a.Sums, compute.Int32)
		if err != nil {
			return nil, compute.SubmissionError(name, "sums: %v", err)
		}
		if a.Sums.Length < groups {
			return nil, compute.SubmissionError(name, "sums holds %d slots, launch has %d groups", a.Sums.Length, groups)
		}
		sumsSlot = bd.bind(sums, "i32")
		p.off[2] = a.Sums.Offset
	}
	return d.launch(dispatch{
		name:   name,
		key:    fmt.Sprintf("%s/%s/%d%d%d/%s", name, cfg, inSlot, outSlot, sumsSlot, bd.signature()),
		source: func() string { return blockScanWGSL(cfg, bd, inSlot, outSlot, sumsSlot) },
		bd:     bd,
		params: p,
		groups: groups,
	}, deps)
}

func (d *Device) AddOffsets(cfg compute.LaunchConfig, a compute.AddOffsetsArgs, deps []*compute.Event) (*compute.Event, error) {
	const name = "add_block_offsets"
	groups := cfg.Groups(a.N)
	if err := checkLaunch(name, cfg, groups); err != nil {
		return nil, err
	}
	data, err := d.resolve(a.Data, compute.Int32)
	if err != nil {
		return nil, compute.SubmissionError(name, "data: %v", err)
	}
	offsets, err := d.resolve(a.Offsets, compute.Int32)
	if err != nil {
		return nil, compute.SubmissionError(name, "offsets: %v", err)
	}
	if a.Offsets.Length < groups || a.N > a.Data.Length {
		return nil, compute.SubmissionError(name, "%d offsets and %d elements for %d groups over n=%d", a.Offsets.Length, a.Data.Length, groups, a.N)
	}
	bd := &binder{}
	dataSlot, offSlot := bd.bind(data, "i32"), bd.bind(offsets, "i32")
	return d.launch(dispatch{
		name:   name,
		key:    fmt.Sprintf("%s/%s/%d%d/%s", name, cfg, dataSlot, offSlot, bd.signature()),
		source: func() string { return addOffsetsWGSL(cfg, bd, dataSlot, offSlot) },
		bd:     bd,
		params: params{n: a.N, off: [4]int{a.Data.Offset, a.Offsets.Offset}},
		groups: groups,
	}, deps)
}

func (d *Device) StreamScan(cfg compute.LaunchConfig, a compute.StreamScanArgs, deps []*compute.Event) (*compute.Event, error) {
	const name = "stream_scan"
	groups := cfg.Groups(a.N)
	if err := checkLaunch(name, cfg, groups); err != nil {
		return nil, err
	}
	in, err := d.resolve(a.In, compute.Int32)
	if err != nil {
		return nil, compute.SubmissionError(name, "input: %v", err)
	}
	out, err := d.resolve(a.Out, compute.Int32)
	if err != nil {
		return nil, compute.SubmissionError(name, "output: %v", err)
	}
	status, err := d.resolve(a.Status, compute.Int32)
	if err != nil {
		return nil, compute.SubmissionError(name, "status: %v", err)
	}
	if a.Status.Length < compute.StreamStatusLen(groups) {
		return nil, compute.SubmissionError(name, "status holds %d words, need %d", a.Status.Length, compute.StreamStatusLen(groups))
	}
	if status == in || status == out {
		return nil, compute.SubmissionError(name, "status must live in its own buffer")
	}
	if a.N > a.In.Length || a.N > a.Out.Length {
		return nil, compute.SubmissionError(name, "n=%d exceeds views (%d in, %d out)", a.N, a.In.Length, a.Out.Length)
	}
	if a.In.Overlaps(a.Out) {
		return nil, compute.SubmissionError(name, "overlapping input and output")
	}
	bd := &binder{}
	inSlot, outSlot, stSlot := bd.bind(in, "i32"), bd.bind(out, "i32"), bd.bind(status, "atomic<i32>")
	return d.launch(dispatch{
		name:   name,
		key:    fmt.Sprintf("%s/%s/%d%d%d/%s", name, cfg, inSlot, outSlot, stSlot, bd.signature()),
		source: func() string { return streamScanWGSL(cfg, bd, inSlot, outSlot, stSlot) },
		bd:     bd,
		params: params{n: a.N, shift: a.Mode.Shift(), off: [4]int{a.In.Offset, a.Out.Offset, a.Status.Offset}},
		groups: groups,
	}, deps)
}

func (d *Device) ScaleAccumulate(a compute.ScaleAccumulateArgs, deps []*compute.Event) (*compute.Event, error) {
	const name = "scale_accumulate"
	x, err := d.resolve(a.X, compute.Float32)
	if err != nil {
		return nil, compute.SubmissionError(name, "x: %v", err)
	}
	y, err := d.resolve(a.Y, compute.Float32)
	if err != nil {
		return nil, compute.SubmissionError(name, "y: %v", err)
	}
	if a.N > a.X.Length || a.N > a.Y.Length {
		return nil, compute.SubmissionError(name, "n=%d exceeds views (%d x, %d y)", a.N, a.X.Length, a.Y.Length)
	}
	groups := compute.CeilDiv(a.N, compute.ScaleAccumulateGroupSize)
	if groups > maxWorkgroups {
		return nil, compute.SubmissionError(name, "%d workgroups exceed %d", groups, maxWorkgroups)
	}
	bd := &binder{}
	xSlot, ySlot := bd.bind(x, "f32"), bd.bind(y, "f32")
	return d.launch(dispatch{
		name:   name,
		key:    fmt.Sprintf("%s/%d%d", name, xSlot, ySlot),
		source: func() string { return scaleAccumulateWGSL(bd, xSlot, ySlot) },
		bd:     bd,
		params: params{n: a.N, alpha: a.Alpha, off: [4]int{a.X.Offset, a.Y.Offset}},
		groups: groups,
	}, deps)
}
