// Package crush compiles and decompiles CRUSH placement maps: a
// human-editable DSL describing a storage cluster's device/bucket/type/rule
// hierarchy, and a compact binary wire form a runtime placement kernel
// consumes. Both directions are pure bytes<->bytes functions with no I/O of
// their own.
package crush

import (
	"github.com/crushlang/crush/internal/codec"
	"github.com/crushlang/crush/internal/crushmap"
	"github.com/crushlang/crush/internal/decompiler"
	"github.com/crushlang/crush/internal/dsl"
	"github.com/crushlang/crush/internal/placement"
)

// Map is the compiled, finalized form of a CRUSH map.
type Map = crushmap.Map

// Compile parses DSL source and returns the binary wire form of the
// resulting Map.
func Compile(source string) ([]byte, error) {
	m, err := dsl.Compile(source)
	if err != nil {
		return nil, err
	}
	return codec.Encode(m)
}

// CompileToMap parses DSL source and returns the finalized Map itself,
// without encoding it, for callers that want to run the placement kernel
// or inspect the map directly.
func CompileToMap(source string) (*Map, error) {
	return dsl.Compile(source)
}

// Decompile decodes binary data and renders it back as DSL source (§4.6).
func Decompile(data []byte) (string, error) {
	m, err := codec.Decode(data)
	if err != nil {
		return "", err
	}
	return decompiler.Decompile(m)
}

// DecodeMap decodes binary data into a finalized Map without rendering it
// to text.
func DecodeMap(data []byte) (*Map, error) {
	return codec.Decode(data)
}

// Place runs the reference placement kernel's rule named rule over map m
// (§4.4). This is the optional reference implementation of the kernel
// contract; the compiler itself never calls it.
func Place(m *Map, rule string, inputKey uint64, replicaCount int) ([]crushmap.DeviceID, error) {
	return placement.PlaceByName(m, rule, inputKey, replicaCount)
}
