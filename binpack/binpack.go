// Package binpack encodes and decodes primitive numeric values driven by a
// compact format-string grammar: zero or more groups of
// [endian][count]type, e.g. "<d<B3Q".
//
// The endian table and the type sizes reproduce a legacy producer
// bit-for-bit: every marker except '<' selects big-endian, and the h/H
// types are 1 byte wide, not 2. Both deviations are load-bearing for wire
// compatibility and must not be corrected.
package binpack

import (
	"context"
	"encoding/binary"
	"math"
	"regexp"

	"github.com/uyouii/distribution-algorithms/common"
	"github.com/uyouii/distribution-algorithms/utils"
	"go.uber.org/zap"
)

var formatRegexp = regexp.MustCompile(`([@=<>!])?([0-9]*)([cbBhHiIlLqQfd])`)

type typeKind int

const (
	kindSigned typeKind = iota
	kindUnsigned
	kindFloat
)

type typeInfo struct {
	size int
	kind typeKind
}

// h/H are 1 byte in the legacy table.
var typeTable = map[byte]typeInfo{
	'c': {1, kindUnsigned},
	'b': {1, kindSigned},
	'B': {1, kindUnsigned},
	'h': {1, kindSigned},
	'H': {1, kindUnsigned},
	'i': {4, kindSigned},
	'I': {4, kindUnsigned},
	'l': {4, kindSigned},
	'L': {4, kindUnsigned},
	'q': {8, kindSigned},
	'Q': {8, kindUnsigned},
	'f': {4, kindFloat},
	'd': {8, kindFloat},
}

type formatGroup struct {
	order binary.ByteOrder
	count int
	typ   byte
	info  typeInfo
}

func parseFormat(format string) []formatGroup {
	matches := formatRegexp.FindAllStringSubmatch(format, -1)
	groups := make([]formatGroup, 0, len(matches))
	for _, m := range matches {
		var order binary.ByteOrder = binary.BigEndian
		if m[1] == "<" {
			order = binary.LittleEndian
		}
		count := 1
		if m[2] != "" {
			count = 0
			for _, c := range m[2] {
				count = count*10 + int(c-'0')
			}
		}
		typ := m[3][0]
		groups = append(groups, formatGroup{
			order: order,
			count: count,
			typ:   typ,
			info:  typeTable[typ],
		})
	}
	return groups
}

func totalSlots(groups []formatGroup) int {
	res := 0
	for _, g := range groups {
		res += g.count
	}
	return res
}

// Pack encodes values in format order, one value per group occurrence.
// A nil value encodes as numeric zero of the declared type.
func Pack(ctx context.Context, format string, values []any) ([]byte, error) {
	logger := utils.GetLogger(ctx)

	groups := parseFormat(format)
	if len(groups) == 0 {
		logger.Warn("pack format matches no groups", zap.String("format", format))
		return nil, common.ErrorMalformedFormat
	}

	if len(values) != totalSlots(groups) {
		logger.Warn("pack value count mismatch",
			zap.String("format", format), zap.Int("want", totalSlots(groups)), zap.Int("got", len(values)))
		return nil, common.ErrorInvalidValue
	}

	res := []byte{}
	slot := 0
	for _, g := range groups {
		for i := 0; i < g.count; i++ {
			encoded, err := packValue(g, values[slot])
			if err != nil {
				logger.Warn("pack value not encodable",
					zap.String("format", format), zap.Int("slot", slot), zap.Any("value", values[slot]))
				return nil, err
			}
			res = append(res, encoded...)
			slot++
		}
	}
	return res, nil
}

// Unpack decodes data symmetrically to Pack. It fails when the format
// demands more bytes than the buffer holds or leaves trailing bytes.
func Unpack(ctx context.Context, format string, data []byte) ([]any, error) {
	logger := utils.GetLogger(ctx)

	groups := parseFormat(format)
	if len(groups) == 0 {
		logger.Warn("unpack format matches no groups", zap.String("format", format))
		return nil, common.ErrorMalformedFormat
	}

	need := 0
	for _, g := range groups {
		need += g.count * g.info.size
	}
	if need != len(data) {
		logger.Warn("unpack buffer size mismatch",
			zap.String("format", format), zap.Int("need", need), zap.Int("have", len(data)))
		return nil, common.ErrorBufferSize
	}

	res := []any{}
	offset := 0
	for _, g := range groups {
		for i := 0; i < g.count; i++ {
			res = append(res, unpackValue(g, data[offset:offset+g.info.size]))
			offset += g.info.size
		}
	}
	return res, nil
}

func packValue(g formatGroup, value any) ([]byte, error) {
	buf := make([]byte, g.info.size)

	if g.info.kind == kindFloat {
		f, ok := asFloat64(value)
		if !ok {
			return nil, common.ErrorInvalidValue
		}
		if g.info.size == 4 {
			g.order.PutUint32(buf, math.Float32bits(float32(f)))
		} else {
			g.order.PutUint64(buf, math.Float64bits(f))
		}
		return buf, nil
	}

	bits, ok := asUint64(value)
	if !ok {
		return nil, common.ErrorInvalidValue
	}
	switch g.info.size {
	case 1:
		buf[0] = byte(bits)
	case 4:
		g.order.PutUint32(buf, uint32(bits))
	case 8:
		g.order.PutUint64(buf, bits)
	}
	return buf, nil
}

func unpackValue(g formatGroup, data []byte) any {
	var bits uint64
	switch g.info.size {
	case 1:
		bits = uint64(data[0])
	case 4:
		bits = uint64(g.order.Uint32(data))
	case 8:
		bits = g.order.Uint64(data)
	}

	switch g.info.kind {
	case kindFloat:
		if g.info.size == 4 {
			return float64(math.Float32frombits(uint32(bits)))
		}
		return math.Float64frombits(bits)
	case kindSigned:
		switch g.info.size {
		case 1:
			return int64(int8(bits))
		case 4:
			return int64(int32(bits))
		default:
			return int64(bits)
		}
	default:
		return bits
	}
}

// asUint64 returns the two's-complement bit pattern of an integral value.
// Floats are accepted only when losslessly convertible.
func asUint64(value any) (uint64, bool) {
	switch v := value.(type) {
	case nil:
		return 0, true
	case uint64:
		return v, true
	case uint32:
		return uint64(v), true
	case uint:
		return uint64(v), true
	case uint8:
		return uint64(v), true
	case int:
		return uint64(int64(v)), true
	case int8:
		return uint64(int64(v)), true
	case int32:
		return uint64(int64(v)), true
	case int64:
		return uint64(v), true
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) || math.IsNaN(v) {
			return 0, false
		}
		if v < -(1<<63) || v >= 1<<64 {
			return 0, false
		}
		if v < 0 {
			return uint64(int64(v)), true
		}
		return uint64(v), true
	default:
		return 0, false
	}
}

func asFloat64(value any) (float64, bool) {
	switch v := value.(type) {
	case nil:
		return 0, true
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint64:
		return float64(v), true
	default:
		return 0, false
	}
}
