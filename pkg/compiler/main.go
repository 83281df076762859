// Package compiler turns assembly source for the stack machine into program
// words the emulator loads directly.
//
// Pipeline: source → BuildTree → BuildSkeleton (macro expansion) → asm.Encode → []uint16
package compiler
