package scope

import (
	"fmt"
	"strconv"
)

// FrameOverhead is the number of bytes the instrument adds around the samples
// of a curve? response: '#', the digit count, five length digits and the
// trailing terminator.
const FrameOverhead = 8

// LengthDigits is the digit count the instrument uses for the block length.
const LengthDigits = 5

// SampleOffset is the position of the first sample in a frame.
const SampleOffset = 2 + LengthDigits

// BlockHeader is the IEEE 488.2 definite length block prefix #<n><length>.
type BlockHeader struct {
	Digits int
	Length int
}

// Size is the number of bytes taken by the prefix.
func (h BlockHeader) Size() int {
	return 2 + h.Digits
}

func ParseBlockHeader(frame []byte) (BlockHeader, error) {
	var header BlockHeader
	if len(frame) < 2 {
		return header, &ErrMalformedHeader{Reason: "frame shorter than block prefix"}
	}
	if frame[0] != '#' {
		return header, &ErrMalformedHeader{Reason: fmt.Sprintf("expected '#', got 0x%02x", frame[0])}
	}
	if frame[1] < '1' || frame[1] > '9' {
		return header, &ErrMalformedHeader{Reason: fmt.Sprintf("invalid digit count 0x%02x", frame[1])}
	}
	header.Digits = int(frame[1] - '0')
	if len(frame) < header.Size() {
		return header, &ErrMalformedHeader{Reason: "truncated length field"}
	}
	length, err := strconv.Atoi(string(frame[2:header.Size()]))
	if err != nil || length < 0 {
		return header, &ErrMalformedHeader{Reason: fmt.Sprintf("invalid length field %q", frame[2:header.Size()])}
	}
	header.Length = length
	return header, nil
}

// DecodeFrame strips the block prefix of a curve? response and returns the
// recordLength signed samples that follow it. The prefix must carry
// LengthDigits length digits so that samples start at SampleOffset. Anything
// after the samples (the terminator) is ignored.
func DecodeFrame(frame []byte, recordLength int) ([]int8, error) {
	want := recordLength + FrameOverhead
	if len(frame) < want {
		return nil, &ErrFrameTooShort{Got: len(frame), Want: want}
	}
	header, err := ParseBlockHeader(frame)
	if err != nil {
		return nil, err
	}
	if header.Digits != LengthDigits {
		return nil, &ErrMalformedHeader{Reason: fmt.Sprintf("%d length digits, want %d", header.Digits, LengthDigits)}
	}
	if header.Length != recordLength {
		return nil, &ErrLengthMismatch{Got: header.Length, Want: recordLength}
	}
	samples := make([]int8, recordLength)
	for i, b := range frame[SampleOffset : SampleOffset+recordLength] {
		value := int8(b)
		// -128 is outside the ribinary range of the instrument
		if value < -127 {
			value = -127
		}
		samples[i] = value
	}
	return samples, nil
}
