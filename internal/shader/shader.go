// Package shader loads precompiled SPIR-V binaries.
package shader

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
)

// Magic is the first word of every SPIR-V module.
const Magic uint32 = 0x07230203

var (
	ErrEmpty     = errors.New("shader: empty binary")
	ErrAlignment = errors.New("shader: binary length is not a multiple of 4")
	ErrMagic     = errors.New("shader: not a SPIR-V binary")
)

// Load reads the SPIR-V module at path. Missing files surface as an error
// wrapping fs.ErrNotExist.
func Load(path string) ([]uint32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read shader %s: %w", path, err)
	}
	code, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return code, nil
}

// Decode converts raw SPIR-V bytes into words. Only little-endian modules are
// accepted, which is what glslc and glslangValidator emit.
func Decode(data []byte) ([]uint32, error) {
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	if len(data)%4 != 0 {
		return nil, ErrAlignment
	}
	code := make([]uint32, len(data)/4)
	for i := range code {
		code[i] = binary.LittleEndian.Uint32(data[i*4:])
	}
	if code[0] != Magic {
		return nil, ErrMagic
	}
	return code, nil
}
