package utils

import (
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

var ErrNilPayload = errors.New("payload is nil")

// DecodePayload converts a message payload decoded into a generic value
// (maps, slices, numbers) into T.
func DecodePayload[T any](payload any) (T, error) {
	var result T
	if payload == nil {
		return result, ErrNilPayload
	}
	data, err := jsoniter.Marshal(payload)
	if err != nil {
		return result, errors.WithMessage(err, "marshal json")
	}
	if err := jsoniter.Unmarshal(data, &result); err != nil {
		return result, errors.WithMessage(err, "unmarshal json")
	}
	return result, nil
}
