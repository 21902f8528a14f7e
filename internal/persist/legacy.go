package persist

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/specialistvlad/flowgraph/internal/blockdef"
	"github.com/specialistvlad/flowgraph/internal/flowgraph"
)

// Format 0 stored block state as parameters.
const (
	legacyEnabled    = "_enabled"
	legacyCoordinate = "_coordinate"
	legacyRotation   = "_rotation"
	legacyBusSink    = "_bus_sink"
	legacyBusSource  = "_bus_source"
)

// upgradeLegacyBlock moves format 0 state parameters into the record's state
// fields. Values that do not parse are left at their defaults and reported.
func upgradeLegacyBlock(rec BlockRecord) (BlockRecord, error) {
	var result *multierror.Error
	out := rec
	out.Params = nil
	for _, p := range rec.Params {
		switch p.Key {
		case legacyEnabled:
			state, err := legacyState(p.Value)
			if err != nil {
				result = multierror.Append(result, err)
				continue
			}
			out.State = string(state)
		case legacyCoordinate:
			c, err := legacyCoordinateValue(p.Value)
			if err != nil {
				result = multierror.Append(result, err)
				continue
			}
			out.Coordinate = c
		case legacyRotation:
			r, err := strconv.Atoi(strings.TrimSpace(p.Value))
			if err != nil {
				result = multierror.Append(result, fmt.Errorf("invalid rotation %q", p.Value))
				continue
			}
			out.Rotation = r
		case legacyBusSink:
			out.BusSink = legacyBool(p.Value)
		case legacyBusSource:
			out.BusSource = legacyBool(p.Value)
		default:
			out.Params = append(out.Params, p)
		}
	}
	return out, result.ErrorOrNil()
}

// legacyState reads "True"/"False" or the numeric 0 (disabled), 1 (enabled)
// and 2 (bypassed).
func legacyState(s string) (flowgraph.State, error) {
	s = strings.TrimSpace(s)
	if s == "2" {
		return flowgraph.StateBypassed, nil
	}
	on, err := strconv.ParseBool(s)
	if err != nil {
		return "", fmt.Errorf("invalid enabled flag %q", s)
	}
	if on {
		return flowgraph.StateEnabled, nil
	}
	return flowgraph.StateDisabled, nil
}

// legacyCoordinateValue reads "(x, y)".
func legacyCoordinateValue(s string) ([]int, error) {
	inner := strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(s), "("), ")")
	parts := strings.Split(inner, ",")
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid coordinate %q", s)
	}
	out := make([]int, 2)
	for i, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid coordinate %q", s)
		}
		out[i] = n
	}
	return out, nil
}

func legacyBool(s string) bool {
	on, err := strconv.ParseBool(strings.TrimSpace(s))
	return err == nil && on
}

// remapLegacyMessageKeys translates positional keys of a format 0 message
// connection into port keys. Format 0 numbered every port of a block by
// position, so the index is into the full port list. Stream connections and
// keys that are not positions are returned unchanged.
func remapLegacyMessageKeys(src, sink *flowgraph.Block, srcKey, sinkKey string) (string, string) {
	si, err := strconv.Atoi(srcKey)
	if err != nil {
		return srcKey, sinkKey
	}
	ki, err := strconv.Atoi(sinkKey)
	if err != nil {
		return srcKey, sinkKey
	}
	sources, sinks := src.Sources(), sink.Sinks()
	if si < 0 || si >= len(sources) || ki < 0 || ki >= len(sinks) {
		return srcKey, sinkKey
	}
	sp, kp := sources[si], sinks[ki]
	if sp.Domain() == blockdef.DomainMessage && kp.Domain() == blockdef.DomainMessage {
		return sp.Key(), kp.Key()
	}
	return srcKey, sinkKey
}
