// Package shaders holds the GLSL sources for the vkpresent pipeline. Run
// go generate with glslc from the Vulkan SDK on the path to build the SPIR-V
// files the renderer loads.
package shaders

//go:generate glslc simple.vert -o simple.vert.spv
//go:generate glslc simple.frag -o simple.frag.spv
