package crypto

import (
	"fmt"
	"math"
)

// safeIntToUint32 converts a length to the 4-byte wire width, checking for
// overflow and negative values.
//
// CWE-190: Integer Overflow or Wraparound
// gosec G115: Integer overflow check
func safeIntToUint32(val int) (uint32, error) {
	if val < 0 {
		return 0, fmt.Errorf("cannot convert negative int to uint32: %d", val)
	}
	if uint64(val) > math.MaxUint32 {
		return 0, fmt.Errorf("int value exceeds uint32 max: %d (max: %d)", val, uint64(math.MaxUint32))
	}
	return uint32(val), nil
}

// safeUint32ToInt converts a declared wire length to int. On 32-bit
// platforms values above MaxInt32 are rejected.
//
// CWE-190: Integer Overflow or Wraparound
func safeUint32ToInt(val uint32) (int, error) {
	if uint64(val) > uint64(math.MaxInt) {
		return 0, fmt.Errorf("uint32 value exceeds int max: %d", val)
	}
	return int(val), nil
}
