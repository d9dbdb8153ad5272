package utils

import "fmt"

// Combines little-endian bytes into an unsigned integer.
// Only the first 4 bytes carry meaning, anything past bit 31 is dropped.
func CombineUnsigned(b []byte) uint32 {
	var combined uint32
	for i, v := range b {
		combined |= uint32(v) << (8 * i)
	}
	return combined
}

// Combines little-endian bytes into a signed integer (two's complement
// when all 4 bytes are given).
func CombineSigned(b []byte) int32 {
	return int32(CombineUnsigned(b))
}

// Print a Colored Block in terminal
func ColoredBlock(block string, red int, green int, blue int) string {
	return fmt.Sprintf("\033[48;2;%d;%d;%dm%s\033[0m", red, green, blue, block)
}
