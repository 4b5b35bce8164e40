package scratch

import (
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

const (
	// IRMagic starts every encoded Assembly
	IRMagic = "SCRAPIR"

	// IRVersion is bumped on incompatible IR changes
	IRVersion uint16 = 1

	maxIRNesting = 4096
)

type irEnvelope struct {
	Magic    string    `cbor:"1,keyasint"`
	Version  uint16    `cbor:"2,keyasint"`
	Assembly *Assembly `cbor:"3,keyasint"`
}

var (
	irEncMode cbor.EncMode
	irDecMode cbor.DecMode
)

func init() {
	var err error
	if irEncMode, err = cbor.CoreDetEncOptions().EncMode(); err != nil {
		panic(err)
	}
	irDecMode, err = cbor.DecOptions{
		MaxNestedLevels:   maxIRNesting,
		ExtraReturnErrors: cbor.ExtraDecErrorUnknownField,
	}.DecMode()
	if err != nil {
		panic(err)
	}
}

// EncodeAssembly serializes a to deterministic CBOR
func EncodeAssembly(a *Assembly) ([]byte, error) {
	data, err := irEncMode.Marshal(irEnvelope{Magic: IRMagic, Version: IRVersion, Assembly: a})
	if err != nil {
		return nil, fmt.Errorf("encode assembly: %w", err)
	}
	return data, nil
}

// DecodeAssembly parses the output of EncodeAssembly
func DecodeAssembly(data []byte) (*Assembly, error) {
	var env irEnvelope
	if err := irDecMode.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode assembly: %w", err)
	}
	if env.Magic != IRMagic {
		return nil, fmt.Errorf("decode assembly: bad magic %q", env.Magic)
	}
	if env.Version != IRVersion {
		return nil, fmt.Errorf("decode assembly: unsupported version %d (want %d)", env.Version, IRVersion)
	}
	if env.Assembly == nil {
		return &Assembly{}, nil
	}
	return env.Assembly, nil
}

// WriteAssembly encodes a to w
func WriteAssembly(w io.Writer, a *Assembly) error {
	data, err := EncodeAssembly(a)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// ReadAssembly decodes an Assembly from all of r
func ReadAssembly(r io.Reader) (*Assembly, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read assembly: %w", err)
	}
	return DecodeAssembly(data)
}
