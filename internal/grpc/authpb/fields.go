package authpb

import (
	"fmt"
	"time"

	"google.golang.org/protobuf/types/known/structpb"
)

// Message собирает Struct из пар ключ-значение. Допустимы string, bool, float64 и time.Time;
// время передаётся строкой RFC 3339 с наносекундами.
func Message(fields map[string]any) (*structpb.Struct, error) {
	const op = "authpb.Message"
	values := make(map[string]*structpb.Value, len(fields))
	for k, v := range fields {
		switch val := v.(type) {
		case string:
			values[k] = structpb.NewStringValue(val)
		case bool:
			values[k] = structpb.NewBoolValue(val)
		case float64:
			values[k] = structpb.NewNumberValue(val)
		case time.Time:
			values[k] = structpb.NewStringValue(val.UTC().Format(time.RFC3339Nano))
		default:
			return nil, fmt.Errorf("%s: unsupported type %T for field %q", op, v, k)
		}
	}
	return &structpb.Struct{Fields: values}, nil
}

// String возвращает строковое поле или пустую строку.
func String(s *structpb.Struct, key string) string {
	return s.GetFields()[key].GetStringValue()
}

// Bool возвращает логическое поле или false.
func Bool(s *structpb.Struct, key string) bool {
	return s.GetFields()[key].GetBoolValue()
}

// Number возвращает числовое поле или 0.
func Number(s *structpb.Struct, key string) float64 {
	return s.GetFields()[key].GetNumberValue()
}

// Time разбирает поле, записанное Message из time.Time.
func Time(s *structpb.Struct, key string) (time.Time, error) {
	const op = "authpb.Time"
	raw := String(s, key)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: field %q: %w", op, key, err)
	}
	return t, nil
}
