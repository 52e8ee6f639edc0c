// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package symbol

// PoolingBuilder is a helper to build a 2D pooling node.
// Create it with Pooling, set the desired parameters and call Done.
type PoolingBuilder struct {
	x                   *Node
	name                string
	poolType            PoolType
	window, stride, pad [2]int
	global              bool
}

// Pooling prepares a spatial reduction of x, shaped `[batch, channels, height, width]`.
//
// The defaults are max pooling, stride 1 and no padding. The window size has no default and
// must be set, except for global pooling. Output sizes use the "valid" convention:
// `floor((in + 2*pad - window) / stride) + 1`.
func Pooling(x *Node) *PoolingBuilder {
	pool := &PoolingBuilder{x: x}
	return pool.Max().Strides(1).NoPadding()
}

// Max selects max pooling. This is the default.
func (pool *PoolingBuilder) Max() *PoolingBuilder {
	pool.poolType = PoolTypeMax
	return pool
}

// Avg selects average pooling.
func (pool *PoolingBuilder) Avg() *PoolingBuilder {
	pool.poolType = PoolTypeAvg
	return pool
}

// Type sets the aggregation used.
func (pool *PoolingBuilder) Type(poolType PoolType) *PoolingBuilder {
	pool.poolType = poolType
	return pool
}

// WindowSize sets the same pooling window size for both spatial axes.
func (pool *PoolingBuilder) WindowSize(size int) *PoolingBuilder {
	return pool.WindowPerAxis(size, size)
}

// WindowPerAxis sets the pooling window height and width.
func (pool *PoolingBuilder) WindowPerAxis(height, width int) *PoolingBuilder {
	pool.window = [2]int{height, width}
	return pool
}

// Strides sets the same stride for both spatial axes. The default is 1.
func (pool *PoolingBuilder) Strides(stride int) *PoolingBuilder {
	return pool.StridePerAxis(stride, stride)
}

// StridePerAxis sets the stride for height and width.
func (pool *PoolingBuilder) StridePerAxis(height, width int) *PoolingBuilder {
	pool.stride = [2]int{height, width}
	return pool
}

// Padding sets the padding added to both sides of both spatial axes.
func (pool *PoolingBuilder) Padding(pad int) *PoolingBuilder {
	pool.pad = [2]int{pad, pad}
	return pool
}

// NoPadding removes any padding. This is the default.
func (pool *PoolingBuilder) NoPadding() *PoolingBuilder {
	pool.pad = [2]int{}
	return pool
}

// Global makes the pooling aggregate the whole spatial extent of x, ignoring the window size.
func (pool *PoolingBuilder) Global(global bool) *PoolingBuilder {
	pool.global = global
	return pool
}

// Name sets the name of the node.
func (pool *PoolingBuilder) Name(name string) *PoolingBuilder {
	pool.name = name
	return pool
}

// Done creates the Pooling node with the configured parameters.
func (pool *PoolingBuilder) Done() *Node {
	return newNode(OpTypePooling, pool.name, map[string]any{
		ParamPoolType:   pool.poolType,
		ParamKernel:     pool.window,
		ParamStride:     pool.stride,
		ParamPad:        pool.pad,
		ParamGlobalPool: pool.global,
	}, pool.x)
}
