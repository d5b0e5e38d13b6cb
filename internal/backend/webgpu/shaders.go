//go:build webgpu

package webgpu

import (
	"fmt"
	"strings"

	"github.com/samcharles93/prefixscan/internal/compute"
)

// Every kernel reads its scalars from one uniform block. off holds the
// element offsets of the kernel's views in the order the kernel binds them.
const paramsWGSL = `
struct Params {
	n: u32,
	shift: u32,
	subtract_own: u32,
	alpha: f32,
	off: vec4<u32>,
}
@group(0) @binding(0) var<uniform> p: Params;
`

// binding is one storage array of a kernel. Views that share a buffer share
// a binding, since WebGPU rejects a writable buffer bound twice.
type binding struct {
	buf  *buffer
	elem string
}

type binder struct {
	slots []binding
}

// bind returns the binding index of b, adding it if needed. Index 0 is the
// uniform block.
func (bd *binder) bind(b *buffer, elem string) int {
	for i, s := range bd.slots {
		if s.buf == b {
			return i + 1
		}
	}
	bd.slots = append(bd.slots, binding{buf: b, elem: elem})
	return len(bd.slots)
}

func (bd *binder) declarations() string {
	var sb strings.Builder
	for i, s := range bd.slots {
		fmt.Fprintf(&sb, "@group(0) @binding(%d) var<storage, read_write> b%d: array<%s>;\n", i+1, i+1, s.elem)
	}
	return sb.String()
}

// signature identifies the binding layout for the pipeline cache.
func (bd *binder) signature() string {
	parts := make([]string, len(bd.slots))
	for i, s := range bd.slots {
		parts[i] = s.elem
	}
	return strings.Join(parts, ",")
}

func launchConsts(cfg compute.LaunchConfig) string {
	return fmt.Sprintf("const G: u32 = %du;\nconst E: u32 = %du;\nconst CAP: u32 = %du;\nvar<workgroup> shm: array<i32, %d>;\n",
		cfg.GroupSize, cfg.ElementsPerWorker, cfg.BlockCapacity(), cfg.LocalSize())
}

// scanLocalWGSL runs the reversed-addressing passes over shm[0:CAP] and
// returns the offset of the half holding the inclusive result.
const scanLocalWGSL = `
fn scan_local(lid: u32) -> u32 {
	var src = 0u;
	var dst = CAP;
	for (var stride = 1u; stride < CAP; stride = stride * 2u) {
		for (var i = 0u; i < E; i = i + 1u) {
			let d = CAP - (i * G + lid) - 1u;
			var v = shm[src + d];
			if (d >= stride) {
				v = v + shm[src + d - stride];
			}
			shm[dst + d] = v;
		}
		workgroupBarrier();
		let t = src;
		src = dst;
		dst = t;
	}
	return src;
}

fn load_chunk(base: u32, lid: u32) {
	for (var i = 0u; i < E; i = i + 1u) {
		let l = i * G + lid;
		let g = i32(base + l) - i32(p.shift);
		var v = 0;
		if (g >= 0 && u32(g) < p.n) {
			v = IN[p.off.x + u32(g)];
		}
		shm[l] = v;
	}
}
`

func blockScanWGSL(cfg compute.LaunchConfig, bd *binder, in, out, sums int) string {
	var sb strings.Builder
	sb.WriteString(paramsWGSL)
	sb.WriteString(bd.declarations())
	sb.WriteString(launchConsts(cfg))
	sb.WriteString(strings.ReplaceAll(scanLocalWGSL, "IN[", fmt.Sprintf("b%d[", in)))
	fmt.Fprintf(&sb, `
@compute @workgroup_size(%d)
fn main(@builtin(workgroup_id) wid: vec3<u32>, @builtin(local_invocation_id) lid3: vec3<u32>) {
	let lid = lid3.x;
	let base = wid.x * CAP;
	load_chunk(base, lid);
	var own: array<i32, %d>;
	for (var i = 0u; i < E; i = i + 1u) {
		own[i] = shm[i * G + lid];
	}
	workgroupBarrier();
	let r = scan_local(lid);
	for (var i = 0u; i < E; i = i + 1u) {
		let l = i * G + lid;
		let g = base + l;
		if (g < p.n) {
			var v = shm[r + l];
			if (p.subtract_own == 1u) {
				v = v - own[i];
			}
			b%d[p.off.y + g] = v;
		}
	}
`, cfg.GroupSize, cfg.ElementsPerWorker, out)
	if sums > 0 {
		fmt.Fprintf(&sb, `	if (lid == 0u) {
		b%d[p.off.z + wid.x] = shm[r + CAP - 1u];
	}
`, sums)
	}
	sb.WriteString("}\n")
	return sb.String()
}

func addOffsetsWGSL(cfg compute.LaunchConfig, bd *binder, data, offsets int) string {
	var sb strings.Builder
	sb.WriteString(paramsWGSL)
	sb.WriteString(bd.declarations())
	fmt.Fprintf(&sb, "const G: u32 = %du;\nconst E: u32 = %du;\nconst CAP: u32 = %du;\n", cfg.GroupSize, cfg.ElementsPerWorker, cfg.BlockCapacity())
	fmt.Fprintf(&sb, `
@compute @workgroup_size(%d)
fn main(@builtin(workgroup_id) wid: vec3<u32>, @builtin(local_invocation_id) lid3: vec3<u32>) {
	let offset = b%d[p.off.y + wid.x];
	for (var i = 0u; i < E; i = i + 1u) {
		let g = wid.x * CAP + i * G + lid3.x;
		if (g < p.n) {
			b%d[p.off.x + g] = b%d[p.off.x + g] + offset;
		}
	}
}
`, cfg.GroupSize, offsets, data, data)
	return sb.String()
}

// streamScanWGSL claims a block id, scans the block, waits for the
// predecessor's running total and publishes its own. The status words are
// started, finished, then the partial sums.
func streamScanWGSL(cfg compute.LaunchConfig, bd *binder, in, out, status int) string {
	var sb strings.Builder
	sb.WriteString(paramsWGSL)
	sb.WriteString(bd.declarations())
	sb.WriteString(launchConsts(cfg))
	sb.WriteString("var<workgroup> wg_bid: u32;\nvar<workgroup> wg_prefix: i32;\n")
	sb.WriteString(strings.ReplaceAll(scanLocalWGSL, "IN[", fmt.Sprintf("b%d[", in)))
	st := fmt.Sprintf("b%d", status)
	fmt.Fprintf(&sb, `
@compute @workgroup_size(%d)
fn main(@builtin(local_invocation_id) lid3: vec3<u32>) {
	let lid = lid3.x;
	if (lid == 0u) {
		wg_bid = u32(atomicAdd(&%[2]s[p.off.z], 1));
	}
	let bid = workgroupUniformLoad(&wg_bid);
	let base = bid * CAP;
	load_chunk(base, lid);
	workgroupBarrier();
	let r = scan_local(lid);
	if (lid == 0u) {
		let total = shm[r + CAP - 1u];
		loop {
			if (atomicLoad(&%[2]s[p.off.z + 1u]) == i32(bid)) {
				break;
			}
		}
		let prefix = atomicLoad(&%[2]s[p.off.z + 2u + bid]);
		atomicStore(&%[2]s[p.off.z + 3u + bid], prefix + total);
		atomicStore(&%[2]s[p.off.z + 1u], i32(bid + 1u));
		wg_prefix = prefix;
	}
	let prefix = workgroupUniformLoad(&wg_prefix);
	for (var i = 0u; i < E; i = i + 1u) {
		let l = i * G + lid;
		let g = base + l;
		if (g < p.n) {
			b%[3]d[p.off.y + g] = shm[r + l] + prefix;
		}
	}
}
`, cfg.GroupSize, st, out)
	return sb.String()
}

func scaleAccumulateWGSL(bd *binder, x, y int) string {
	var sb strings.Builder
	sb.WriteString(paramsWGSL)
	sb.WriteString(bd.declarations())
	fmt.Fprintf(&sb, `
@compute @workgroup_size(%d)
fn main(@builtin(global_invocation_id) gid: vec3<u32>) {
	let i = gid.x;
	if (i < p.n) {
		b%[2]d[p.off.y + i] = p.alpha * b%[3]d[p.off.x + i] + b%[2]d[p.off.y + i];
	}
}
`, compute.ScaleAccumulateGroupSize, y, x)
	return sb.String()
}
