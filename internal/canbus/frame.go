package canbus

import (
	"fmt"
	"math"

	"go.einride.tech/can"

	"github.com/san-kum/pmsmsolve/internal/pmsm"
)

// DefaultFrameID carries the current-reference command.
const DefaultFrameID uint32 = 0x210

// Signal layout, little endian, DLC 8:
//
//	bits  0-15  id_ref    int16   0.01 A
//	bits 16-31  iq_ref    int16   0.01 A
//	bits 32-47  va_calc   uint16  0.01 V
//	bit  48     fw
//	bit  49     mode (1 = mtpa)
//	bit  50     not_converged
//	bit  51     current_limited
//	bits 56-63  counter
const (
	frameLength = 8

	CurrentScale = 0.01
	VoltageScale = 0.01

	bitFW             = 48
	bitMTPA           = 49
	bitNotConverged   = 50
	bitCurrentLimited = 51
)

// Command is the decoded content of a current-reference frame.
type Command struct {
	IdRef          float64
	IqRef          float64
	VaCalc         float64
	FW             bool
	MTPA           bool
	NotConverged   bool
	CurrentLimited bool
	Counter        uint8
}

// EncodeSolution packs sol into a frame. Values outside the signal range
// saturate.
func EncodeSolution(id uint32, sol *pmsm.Solution, status pmsm.Status, counter uint8) (can.Frame, error) {
	f := can.Frame{ID: id, Length: frameLength}

	f.Data.SetSignedBitsLittleEndian(0, 16, signedRaw(sol.IdRef, CurrentScale, 16))
	f.Data.SetSignedBitsLittleEndian(16, 16, signedRaw(sol.IqRef, CurrentScale, 16))
	f.Data.SetUnsignedBitsLittleEndian(32, 16, unsignedRaw(sol.VaCalc, VoltageScale, 16))
	f.Data.SetBit(bitFW, sol.FW)
	f.Data.SetBit(bitMTPA, sol.Mode == pmsm.ModeMTPA)
	f.Data.SetBit(bitNotConverged, status != pmsm.StatusOK)
	f.Data.SetBit(bitCurrentLimited, sol.CurrentLimited)
	f.Data.SetUnsignedBitsLittleEndian(56, 8, uint64(counter))

	if err := f.Validate(); err != nil {
		return can.Frame{}, fmt.Errorf("encode frame 0x%X: %w", id, err)
	}
	return f, nil
}

func DecodeSolution(f can.Frame) (Command, error) {
	if f.Length != frameLength {
		return Command{}, fmt.Errorf("frame 0x%X expects DLC %d, got %d", f.ID, frameLength, f.Length)
	}
	return Command{
		IdRef:          float64(f.Data.SignedBitsLittleEndian(0, 16)) * CurrentScale,
		IqRef:          float64(f.Data.SignedBitsLittleEndian(16, 16)) * CurrentScale,
		VaCalc:         float64(f.Data.UnsignedBitsLittleEndian(32, 16)) * VoltageScale,
		FW:             f.Data.Bit(bitFW),
		MTPA:           f.Data.Bit(bitMTPA),
		NotConverged:   f.Data.Bit(bitNotConverged),
		CurrentLimited: f.Data.Bit(bitCurrentLimited),
		Counter:        uint8(f.Data.UnsignedBitsLittleEndian(56, 8)),
	}, nil
}

func signedRaw(v, scale float64, bits uint8) int64 {
	max := float64(int64(1)<<(bits-1) - 1)
	min := -float64(int64(1) << (bits - 1))
	if math.IsNaN(v) {
		return 0
	}
	return int64(clamp(math.Round(v/scale), min, max))
}

func unsignedRaw(v, scale float64, bits uint8) uint64 {
	max := float64(uint64(1)<<bits - 1)
	if math.IsNaN(v) {
		return 0
	}
	return uint64(clamp(math.Round(v/scale), 0, max))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
