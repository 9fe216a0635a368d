// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2025, Voznote authors

package audio

import (
	"encoding/binary"
	"fmt"
)

func SamplesByteToInt16(input []byte, output []int16) int {
	if len(output) < len(input)/2 {
		panic("SamplesByteToInt16 output is too small buffer")
	}

	j := 0
	for i := 0; i+1 < len(input); i, j = i+2, j+1 {
		output[j] = int16(binary.LittleEndian.Uint16(input[i : i+2]))
	}
	return len(input) / 2
}

func SamplesInt16ToBytes(input []int16, output []byte) int {
	if len(output) < len(input)*2 {
		panic(fmt.Sprintf("SamplesInt16ToBytes output is too small buffer. expected=%d, received=%d", len(input)*2, len(output)))
	}

	j := 0
	for _, sample := range input {
		binary.LittleEndian.PutUint16(output[j:j+2], uint16(sample))
		j += 2
	}
	return len(input) * 2
}

// PCMSum sums readBuf into dstBuf with int16 saturation. dstBuf acts as
// accumulator and must be at least len(readBuf).
func PCMSum(dstBuf []byte, readBuf []byte) {
	n := len(readBuf)
	for i := 0; i+1 < n; i += 2 {
		current := int16(binary.LittleEndian.Uint16(dstBuf[i:]))
		frame := int16(binary.LittleEndian.Uint16(readBuf[i:]))

		mixed32 := int32(current) + int32(frame)
		var mixed int16
		switch {
		case mixed32 > 32767: //int16 max
			mixed = 32767
		case mixed32 < -32768:
			mixed = -32768
		default:
			mixed = int16(mixed32)
		}

		binary.LittleEndian.PutUint16(dstBuf[i:], uint16(mixed))
	}
}
