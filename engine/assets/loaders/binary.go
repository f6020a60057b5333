package loaders

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/matms/mat-engine/engine/resources"
)

// BinaryLoader reads a file verbatim, typically SPIR-V produced by glslc.
type BinaryLoader struct{}

func (bl *BinaryLoader) Load(path string, params interface{}) (*resources.Resource, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	name := path
	if p, ok := params.(map[string]string); ok && p["name"] != "" {
		name = p["name"]
	}

	return &resources.Resource{
		Type:     resources.ResourceTypeBinary,
		Name:     name,
		FullPath: path,
		DataSize: uint64(len(buf)),
		Data:     buf,
	}, nil
}

func (bl *BinaryLoader) Unload(res *resources.Resource) error {
	res.Data = nil
	res.DataSize = 0
	return nil
}

// BytesToBytecode reinterprets little-endian SPIR-V bytes as 32-bit words.
func BytesToBytecode(b []byte) ([]uint32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("bytecode length %d is not a multiple of 4", len(b))
	}
	byteCode := make([]uint32, len(b)/4)
	for i := range byteCode {
		byteCode[i] = binary.LittleEndian.Uint32(b[i*4:])
	}
	return byteCode, nil
}
