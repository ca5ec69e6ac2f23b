package loader

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// buildModuleFile assembles bytes matching §6's field order directly with
// encoding/binary, independent of Load's own reader helpers, so a decode bug
// in one doesn't mask a bug in the other.
func buildModuleFile(t *testing.T, typ BinaryType, metadata map[string]string, externFuncs, externBlocks []string, jumpTable []uint64, funcs, blocks AddressMap, code []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	buf.Write(Magic[:])
	buf.WriteByte(byte(typ))

	writeCString := func(s string) {
		buf.WriteString(s)
		buf.WriteByte(0)
	}
	writeU32 := func(n uint32) {
		require.NoError(t, binary.Write(&buf, binary.BigEndian, n))
	}
	writeU64 := func(n uint64) {
		require.NoError(t, binary.Write(&buf, binary.BigEndian, n))
	}

	writeU32(uint32(len(metadata)))
	for k, v := range metadata {
		writeCString(k)
		writeCString(v)
	}

	writeU32(uint32(len(externFuncs)))
	for _, n := range externFuncs {
		writeCString(n)
	}

	writeU32(uint32(len(externBlocks)))
	for _, n := range externBlocks {
		writeCString(n)
	}

	writeU32(uint32(len(jumpTable)))
	for _, addr := range jumpTable {
		writeU64(addr)
	}

	writeU32(uint32(len(funcs)))
	for name, addr := range funcs {
		writeCString(name)
		writeU64(addr)
	}

	writeU32(uint32(len(blocks)))
	for name, addr := range blocks {
		writeCString(name)
		writeU64(addr)
	}

	buf.Write(code)
	return buf.Bytes()
}

func writeTempModule(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.module")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestLoadRoundTripsExecutableModule(t *testing.T) {
	code := []byte{0x00, 0x01, 0x02, 0x03, 0x04, 0x05}
	data := buildModuleFile(t, Executable,
		map[string]string{"arity:main": "0"},
		[]string{"native_print"},
		nil,
		[]uint64{0, 3},
		AddressMap{"main": 0, "helper": 4},
		AddressMap{"handler": 2},
		code,
	)
	path := writeTempModule(t, data)

	m, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, Executable, m.Type)
	require.Equal(t, "0", m.Metadata["arity:main"])
	require.Equal(t, []string{"native_print"}, m.ExternalFuncs)
	require.Empty(t, m.ExternalBlocks)
	require.Equal(t, []uint64{0, 3}, m.JumpTable)
	require.Equal(t, uint64(0), m.Functions["main"])
	require.Equal(t, uint64(4), m.Functions["helper"])
	require.Equal(t, uint64(2), m.Blocks["handler"])
	require.Equal(t, code, m.Code)
	require.Equal(t, path, m.Path)
}

func TestLoadRejectsBadMagic(t *testing.T) {
	data := buildModuleFile(t, Executable, nil, nil, nil, nil, AddressMap{"main": 0}, nil, []byte{0x00})
	data[0] = 'X'
	path := writeTempModule(t, data)

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.module"))
	require.Error(t, err)
}

func TestFunctionSizeUsesNextAddressBoundary(t *testing.T) {
	m := &Module{
		Functions: AddressMap{"main": 0, "helper": 10},
		Blocks:    AddressMap{"handler": 6},
		Code:      make([]byte, 20),
	}
	n, err := m.FunctionSize("main")
	require.NoError(t, err)
	require.Equal(t, 6, n)

	n, err = m.FunctionSize("helper")
	require.NoError(t, err)
	require.Equal(t, 10, n)

	n, err = m.BlockSize("handler")
	require.NoError(t, err)
	require.Equal(t, 4, n)
}

func TestFunctionSizeUndefinedNameFails(t *testing.T) {
	m := &Module{Functions: AddressMap{}, Blocks: AddressMap{}, Code: nil}
	_, err := m.FunctionSize("nope")
	require.Error(t, err)
	_, err = m.BlockSize("nope")
	require.Error(t, err)
}
