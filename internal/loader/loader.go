// Package loader reads Viua's binary module file format (§6). Native-library
// imports are not resolved here: the kernel searches the library path for
// them (internal/kernel/native.go).
package loader

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// Magic is the fixed 8-byte header every module file begins with.
var Magic = [8]byte{'V', 'I', 'U', 'A', 'M', 'O', 'D', '\x01'}

// BinaryType distinguishes an executable module (has a main entry) from a
// library module (exports functions for others to import).
type BinaryType byte

const (
	Executable BinaryType = iota
	Library
)

// AddressMap maps a function or block name to its byte offset into Code.
type AddressMap map[string]uint64

// Module is the loaded, owning handle to one module file's contents.
type Module struct {
	Type             BinaryType
	Metadata         map[string]string
	ExternalFuncs    []string
	ExternalBlocks   []string
	JumpTable        []uint64
	Functions        AddressMap
	Blocks           AddressMap
	Code             []byte
	Path             string
}

// FunctionSize returns the byte length of the named function by looking at
// the smallest address map entry or code end) greater than its offset, the
// "per-function sizes from the address map" step §4.3 names explicitly.
func (m *Module) FunctionSize(name string) (int, error) {
	start, ok := m.Functions[name]
	if !ok {
		return 0, fmt.Errorf("loader: undefined function %q", name)
	}
	return m.sizeFrom(start), nil
}

// BlockSize is FunctionSize's counterpart for named blocks.
func (m *Module) BlockSize(name string) (int, error) {
	start, ok := m.Blocks[name]
	if !ok {
		return 0, fmt.Errorf("loader: undefined block %q", name)
	}
	return m.sizeFrom(start), nil
}

func (m *Module) sizeFrom(start uint64) int {
	end := uint64(len(m.Code))
	for _, addr := range m.Functions {
		if addr > start && addr < end {
			end = addr
		}
	}
	for _, addr := range m.Blocks {
		if addr > start && addr < end {
			end = addr
		}
	}
	return int(end - start)
}

// Load reads and validates a module file from path, per §6's field order:
// magic, binary-type marker, metadata, external-function/block signature
// lists, jump table, function/block address maps, code segment.
func Load(path string) (*Module, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("loader: %w", err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	m := &Module{Path: path, Metadata: make(map[string]string)}

	var magic [8]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, fmt.Errorf("loader: reading magic header: %w", err)
	}
	if magic != Magic {
		return nil, fmt.Errorf("loader: %q is not a viua module (bad magic header)", path)
	}

	typeByte, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("loader: reading binary-type marker: %w", err)
	}
	m.Type = BinaryType(typeByte)

	if m.Metadata, err = readMetadata(r); err != nil {
		return nil, fmt.Errorf("loader: reading metadata: %w", err)
	}
	if m.ExternalFuncs, err = readNameList(r); err != nil {
		return nil, fmt.Errorf("loader: reading external-function list: %w", err)
	}
	if m.ExternalBlocks, err = readNameList(r); err != nil {
		return nil, fmt.Errorf("loader: reading external-block list: %w", err)
	}
	if m.JumpTable, err = readJumpTable(r); err != nil {
		return nil, fmt.Errorf("loader: reading jump table: %w", err)
	}
	if m.Functions, err = readAddressMap(r); err != nil {
		return nil, fmt.Errorf("loader: reading function address map: %w", err)
	}
	if m.Blocks, err = readAddressMap(r); err != nil {
		return nil, fmt.Errorf("loader: reading block address map: %w", err)
	}
	code, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("loader: reading code segment: %w", err)
	}
	m.Code = code
	return m, nil
}

func readCountPrefixedU32(r *bufio.Reader) (uint32, error) {
	var n uint32
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return 0, err
	}
	return n, nil
}

func readCString(r *bufio.Reader) (string, error) {
	s, err := r.ReadString(0)
	if err != nil {
		return "", err
	}
	return s[:len(s)-1], nil
}

func readMetadata(r *bufio.Reader) (map[string]string, error) {
	n, err := readCountPrefixedU32(r)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, n)
	for i := uint32(0); i < n; i++ {
		key, err := readCString(r)
		if err != nil {
			return nil, err
		}
		val, err := readCString(r)
		if err != nil {
			return nil, err
		}
		out[key] = val
	}
	return out, nil
}

func readNameList(r *bufio.Reader) ([]string, error) {
	n, err := readCountPrefixedU32(r)
	if err != nil {
		return nil, err
	}
	out := make([]string, n)
	for i := range out {
		if out[i], err = readCString(r); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func readJumpTable(r *bufio.Reader) ([]uint64, error) {
	n, err := readCountPrefixedU32(r)
	if err != nil {
		return nil, err
	}
	out := make([]uint64, n)
	for i := range out {
		if err := binary.Read(r, binary.BigEndian, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func readAddressMap(r *bufio.Reader) (AddressMap, error) {
	n, err := readCountPrefixedU32(r)
	if err != nil {
		return nil, err
	}
	out := make(AddressMap, n)
	for i := uint32(0); i < n; i++ {
		name, err := readCString(r)
		if err != nil {
			return nil, err
		}
		var offset uint64
		if err := binary.Read(r, binary.BigEndian, &offset); err != nil {
			return nil, err
		}
		out[name] = offset
	}
	return out, nil
}
