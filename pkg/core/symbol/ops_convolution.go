// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package symbol

// ConvolutionBuilder is a helper to build a 2D convolution node.
// Create it with Convolution, set the desired parameters and
// when all is set, call Done.
type ConvolutionBuilder struct {
	x                   *Node
	name                string
	numFilter           int
	kernel, stride, pad [2]int
	noBias              bool
}

// Convolution prepares a 2D convolution on x, shaped `[batch, channels, height, width]`.
//
// It returns a ConvolutionBuilder object that can be further configured. Once the
// configuration is finished, call ConvolutionBuilder.Done, and it will return
// the new node.
//
// Two parameters need setting: Filters and KernelSize (or KernelSizePerAxis). Their values
// are not checked here: like any other shape problem, they are reported by InferShapes.
//
// The defaults are stride 1, no padding and a trainable bias.
func Convolution(x *Node) *ConvolutionBuilder {
	conv := &ConvolutionBuilder{x: x}
	return conv.Strides(1).NoPadding().UseBias(true)
}

// Filters sets the number of output channels.
func (conv *ConvolutionBuilder) Filters(numFilter int) *ConvolutionBuilder {
	conv.numFilter = numFilter
	return conv
}

// KernelSize sets the same kernel size for both spatial axes.
func (conv *ConvolutionBuilder) KernelSize(size int) *ConvolutionBuilder {
	return conv.KernelSizePerAxis(size, size)
}

// KernelSizePerAxis sets the kernel height and width.
func (conv *ConvolutionBuilder) KernelSizePerAxis(height, width int) *ConvolutionBuilder {
	conv.kernel = [2]int{height, width}
	return conv
}

// Strides sets the same stride for both spatial axes. The default is 1.
//
// The stride is how many steps to move after a convolution. A value of 2 will halve the input
// size, since a convolution will be done at every other position.
func (conv *ConvolutionBuilder) Strides(stride int) *ConvolutionBuilder {
	return conv.StridePerAxis(stride, stride)
}

// StridePerAxis sets the stride for height and width.
func (conv *ConvolutionBuilder) StridePerAxis(height, width int) *ConvolutionBuilder {
	conv.stride = [2]int{height, width}
	return conv
}

// Padding sets the implicit zero padding added to both sides of both spatial axes.
// A 3x3 kernel with padding 1 and stride 1 preserves the spatial size of the input.
func (conv *ConvolutionBuilder) Padding(pad int) *ConvolutionBuilder {
	return conv.PaddingPerAxis(pad, pad)
}

// PaddingPerAxis sets the implicit zero padding for height and width.
func (conv *ConvolutionBuilder) PaddingPerAxis(height, width int) *ConvolutionBuilder {
	conv.pad = [2]int{height, width}
	return conv
}

// NoPadding removes any paddings, so if the kernel spatial dimensions > 1,
// the output will be reduced on the edges. This is the default.
func (conv *ConvolutionBuilder) NoPadding() *ConvolutionBuilder {
	return conv.PaddingPerAxis(0, 0)
}

// UseBias sets whether to add a trainable bias term to the convolution. Default is true.
func (conv *ConvolutionBuilder) UseBias(useBias bool) *ConvolutionBuilder {
	conv.noBias = !useBias
	return conv
}

// Name sets the name of the node, also used as prefix of its weight and bias arguments.
func (conv *ConvolutionBuilder) Name(name string) *ConvolutionBuilder {
	conv.name = name
	return conv
}

// Done creates the Convolution node with the configured parameters.
func (conv *ConvolutionBuilder) Done() *Node {
	return newNode(OpTypeConvolution, conv.name, map[string]any{
		ParamNumFilter: conv.numFilter,
		ParamKernel:    conv.kernel,
		ParamStride:    conv.stride,
		ParamPad:       conv.pad,
		ParamNoBias:    conv.noBias,
	}, conv.x)
}
