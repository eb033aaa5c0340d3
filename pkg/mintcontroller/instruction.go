package mintcontroller

import (
	"bytes"
	"fmt"

	bin "github.com/gagliardetto/binary"
)

// Instruction tags. The first byte of the instruction data selects the
// variant; the remaining bytes are a little-endian u64 payload.
const (
	TagInitialize uint8 = 0
	TagFaucetMint uint8 = 1
)

// Instruction is the closed set of operations the program accepts.
type Instruction interface {
	isInstruction()
	Encode() ([]byte, error)
}

// Initialize writes a fresh Config with the given cooldown.
type Initialize struct {
	CooldownSeconds uint64
}

// FaucetMint issues Amount base units to the recipient token account.
type FaucetMint struct {
	Amount uint64
}

func (Initialize) isInstruction() {}
func (FaucetMint) isInstruction() {}

func (ix Initialize) Encode() ([]byte, error) {
	return encodeTagged(TagInitialize, ix.CooldownSeconds)
}

func (ix FaucetMint) Encode() ([]byte, error) {
	return encodeTagged(TagFaucetMint, ix.Amount)
}

func encodeTagged(tag uint8, value uint64) ([]byte, error) {
	buf := new(bytes.Buffer)
	enc := bin.NewBorshEncoder(buf)
	if err := enc.WriteUint8(tag); err != nil {
		return nil, fmt.Errorf("failed to write instruction tag: %w", err)
	}
	if err := enc.WriteUint64(value, bin.LE); err != nil {
		return nil, fmt.Errorf("failed to write instruction payload: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeInstruction parses instruction data into one of the closed variants.
// An unknown tag or truncated payload fails with ErrInvalidInstructionData.
func DecodeInstruction(data []byte) (Instruction, error) {
	dec := bin.NewBorshDecoder(data)

	tag, err := dec.ReadUint8()
	if err != nil {
		return nil, ErrInvalidInstructionData
	}

	switch tag {
	case TagInitialize:
		seconds, err := dec.ReadUint64(bin.LE)
		if err != nil {
			return nil, ErrInvalidInstructionData
		}
		return Initialize{CooldownSeconds: seconds}, nil
	case TagFaucetMint:
		amount, err := dec.ReadUint64(bin.LE)
		if err != nil {
			return nil, ErrInvalidInstructionData
		}
		return FaucetMint{Amount: amount}, nil
	default:
		return nil, ErrInvalidInstructionData
	}
}
