package aa

import "strconv"

// encode renders v in the AA wire grammar. The package only decodes;
// this exists so tests can state round-trip properties.
func encode(v *Value) []byte {
	return appendValue(nil, v)
}

func appendValue(dst []byte, v *Value) []byte {
	switch v.Kind() {
	case KindString:
		return appendScalar(dst, MarkerString, v.str)
	case KindNumber:
		return appendScalar(dst, MarkerNumber, string(v.num))
	case KindBool:
		if v.b {
			return appendScalar(dst, MarkerBool, "1")
		}
		return appendScalar(dst, MarkerBool, "0")
	case KindSequence:
		dst = appendHeader(dst, MarkerSequence, len(v.items))
		for _, item := range v.items {
			dst = appendValue(dst, item)
		}
		return dst
	case KindMap:
		dst = appendHeader(dst, MarkerMap, len(v.pairs))
		for _, e := range v.pairs {
			dst = appendScalar(dst, MarkerString, e.Key)
			dst = appendValue(dst, e.Value)
		}
		return dst
	default:
		panic("encode: invalid value")
	}
}

func appendScalar(dst []byte, marker byte, payload string) []byte {
	dst = appendHeader(dst, marker, len(payload))
	return append(dst, payload...)
}

func appendHeader(dst []byte, marker byte, n int) []byte {
	dst = append(dst, marker)
	dst = strconv.AppendInt(dst, int64(n), 10)
	return append(dst, Delimiter)
}
