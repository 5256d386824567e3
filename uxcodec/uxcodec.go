// Package uxcodec converts distributional values to and from the two
// interoperable wire encodings: compact binary Ux-bytes and ASCII-hex
// Ux-string.
//
// Every numeric field is little-endian on the bytes wire and big-endian on
// the hex wire. The asymmetry comes from the producers and must be kept.
package uxcodec

import (
	"context"
	"encoding/hex"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/uyouii/distribution-algorithms/binpack"
	"github.com/uyouii/distribution-algorithms/common"
	"github.com/uyouii/distribution-algorithms/distvalue"
	"github.com/uyouii/distribution-algorithms/model"
	"github.com/uyouii/distribution-algorithms/utils"
	"go.uber.org/zap"
)

// particle prefix, literal "Ux", hex payload
var uxStringRegexp = regexp.MustCompile(`^([-+]?[0-9]*\.?[0-9]+|(?i:nan)|[-+]?(?i:inf))?Ux([0-9A-Fa-f]+)$`)

const (
	// URType + sample count + mean + UR order, beyond the particle
	headerSize = 1 + 8 + 8 + 4

	rawMassSize = 8
)

func positionSize(doublePrecision bool) int {
	if doublePrecision {
		return 8
	}
	return 4
}

func positionType(doublePrecision bool) string {
	if doublePrecision {
		return "d"
	}
	return "f"
}

// DecodeString parses an Ux-string. It returns nil with a sentinel error
// and logs one warning line per failure cause.
func DecodeString(ctx context.Context, input string, doublePrecision bool) (*distvalue.DistributionalValue, error) {
	logger := utils.GetLogger(ctx)

	m := uxStringRegexp.FindStringSubmatch(input)
	if m == nil {
		logger.Warn("ux string does not match the header grammar", zap.String("input", input))
		return nil, common.ErrorMalformedHeader
	}

	var particle *float64
	if m[1] != "" {
		p, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			logger.Warn("ux string particle not parseable", zap.String("particle", m[1]))
			return nil, common.ErrorMalformedHeader
		}
		particle = &p
	}

	payload, err := hex.DecodeString(m[2])
	if err != nil {
		logger.Warn("ux string payload is not valid hex", zap.Error(err))
		return nil, common.ErrorMalformedHeader
	}

	v, err := decodePayload(ctx, payload, doublePrecision, false)
	if err != nil {
		return nil, err
	}
	v.ParticleValue = particle
	return v, nil
}

// DecodeBytes parses an Ux-bytes buffer.
func DecodeBytes(ctx context.Context, data []byte, doublePrecision bool) (*distvalue.DistributionalValue, error) {
	logger := utils.GetLogger(ctx)

	if len(data) < 8 {
		logger.Warn("ux bytes shorter than the particle field", zap.Int("len", len(data)))
		return nil, common.ErrorBufferSize
	}

	values, err := binpack.Unpack(ctx, "<d", data[:8])
	if err != nil {
		return nil, err
	}
	particle := values[0].(float64)

	v, err := decodePayload(ctx, data[8:], doublePrecision, true)
	if err != nil {
		return nil, err
	}
	v.ParticleValue = &particle
	return v, nil
}

// decodePayload reads the shared logical schema beyond the particle.
// littleEndian selects the bytes-wire byte order; the hex wire is big.
func decodePayload(ctx context.Context, payload []byte, doublePrecision, littleEndian bool) (*distvalue.DistributionalValue, error) {
	logger := utils.GetLogger(ctx)

	headerFormat, deltaFormat := "BQdI", positionType(doublePrecision)+"Q"
	if littleEndian {
		headerFormat = "<B<Q<d<I"
		deltaFormat = "<" + positionType(doublePrecision) + "<Q"
	}

	if len(payload) < headerSize {
		logger.Warn("ux payload shorter than the header",
			zap.Int("len", len(payload)), zap.Int("need", headerSize))
		return nil, common.ErrorBufferSize
	}

	header, err := binpack.Unpack(ctx, headerFormat, payload[:headerSize])
	if err != nil {
		return nil, err
	}
	urType := uint8(header[0].(uint64))
	// header[1] is the reserved sample count
	mean := header[2].(float64)
	urOrder := int(header[3].(uint64))

	if urOrder > distvalue.MaxUROrder {
		logger.Warn("ur order out of range", zap.Int("urOrder", urOrder))
		return nil, common.ErrorOutOfRange
	}

	deltaSize := positionSize(doublePrecision) + rawMassSize
	if len(payload)-headerSize < urOrder*deltaSize {
		logger.Warn("ux payload shorter than the delta table",
			zap.Int("urOrder", urOrder), zap.Int("have", len(payload)-headerSize),
			zap.Int("need", urOrder*deltaSize))
		return nil, common.ErrorBufferSize
	}

	deltas := make([]model.DiracDelta, 0, urOrder)
	offset := headerSize
	for i := 0; i < urOrder; i++ {
		fields, err := binpack.Unpack(ctx, deltaFormat, payload[offset:offset+deltaSize])
		if err != nil {
			return nil, err
		}
		deltas = append(deltas, model.NewDiracDeltaRaw(fields[0].(float64), fields[1].(uint64)))
		offset += deltaSize
	}

	v := distvalue.New(deltas)
	v.URType = urType
	v.DoublePrecision = doublePrecision
	v.PrimeMean(mean)
	return v, nil
}

// EncodeString renders the value as an Ux-string with uppercase hex.
func EncodeString(ctx context.Context, v *distvalue.DistributionalValue) (string, error) {
	payload, err := encodePayload(ctx, v, false)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	if v.ParticleValue != nil {
		sb.WriteString(formatParticle(*v.ParticleValue))
	}
	sb.WriteString("Ux")
	sb.WriteString(strings.ToUpper(hex.EncodeToString(payload)))
	return sb.String(), nil
}

// EncodeBytes renders the value as an Ux-bytes buffer. An absent particle
// is encoded as NaN.
func EncodeBytes(ctx context.Context, v *distvalue.DistributionalValue) ([]byte, error) {
	particle := math.NaN()
	if v.ParticleValue != nil {
		particle = *v.ParticleValue
	}

	res, err := binpack.Pack(ctx, "<d", []any{particle})
	if err != nil {
		return nil, err
	}
	payload, err := encodePayload(ctx, v, true)
	if err != nil {
		return nil, err
	}
	return append(res, payload...), nil
}

func encodePayload(ctx context.Context, v *distvalue.DistributionalValue, littleEndian bool) ([]byte, error) {
	headerFormat, deltaFormat := "BQdI", positionType(v.DoublePrecision)+"Q"
	if littleEndian {
		headerFormat = "<B<Q<d<I"
		deltaFormat = "<" + positionType(v.DoublePrecision) + "<Q"
	}

	mean, ok := v.Mean()
	if !ok {
		mean = math.NaN()
	}

	urOrder := v.UROrder()
	// the reserved sample count slot carries the UR order
	res, err := binpack.Pack(ctx, headerFormat, []any{v.URType, uint64(urOrder), mean, uint64(urOrder)})
	if err != nil {
		return nil, err
	}

	for _, d := range v.Deltas() {
		encoded, err := binpack.Pack(ctx, deltaFormat, []any{d.Position, d.RawMass()})
		if err != nil {
			return nil, err
		}
		res = append(res, encoded...)
	}
	return res, nil
}

func formatParticle(p float64) string {
	switch {
	case math.IsNaN(p):
		return "nan"
	case math.IsInf(p, -1):
		return "-inf"
	case math.IsInf(p, 1):
		return "inf"
	default:
		return strconv.FormatFloat(p, 'f', -1, 64)
	}
}
