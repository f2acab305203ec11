package get

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// convert turns a raw source value into T.
func convert[T any](raw any) (T, error) {
	var (
		out T
		err error
	)

	switch p := any(&out).(type) {
	case *string:
		*p, err = cast.ToStringE(raw)
	case *bool:
		*p, err = cast.ToBoolE(raw)
	case *int:
		*p, err = cast.ToIntE(raw)
	case *int8:
		*p, err = cast.ToInt8E(raw)
	case *int16:
		*p, err = cast.ToInt16E(raw)
	case *int32:
		*p, err = cast.ToInt32E(raw)
	case *int64:
		*p, err = cast.ToInt64E(raw)
	case *uint:
		*p, err = cast.ToUintE(raw)
	case *uint8:
		*p, err = cast.ToUint8E(raw)
	case *uint16:
		*p, err = cast.ToUint16E(raw)
	case *uint32:
		*p, err = cast.ToUint32E(raw)
	case *uint64:
		*p, err = cast.ToUint64E(raw)
	case *float32:
		*p, err = cast.ToFloat32E(raw)
	case *float64:
		*p, err = cast.ToFloat64E(raw)
	case *time.Duration:
		*p, err = cast.ToDurationE(raw)
	case *[]string:
		// Environment lists are comma separated.
		if s, ok := raw.(string); ok {
			*p = splitList(s)
			return out, nil
		}
		*p, err = cast.ToStringSliceE(raw)
	default:
		var zero T
		return zero, fmt.Errorf("%w: %T", ErrUnsupportedType, out)
	}

	if err != nil {
		var zero T
		return zero, fmt.Errorf("%w: %w", ErrConvert, err)
	}
	return out, nil
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
