// Package encoding provides the CBOR modes used for every byte that is hashed,
// signed or stored. Encoding is deterministic so that all the nodes produce
// the same bytes for the same value.
package encoding

import (
	"github.com/fxamacker/cbor/v2"
	"golang.org/x/xerrors"
)

// EncMode is the deterministic encoding mode.
var EncMode = func() cbor.EncMode {
	encMode, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	return encMode
}()

// DecMode is the strict decoding mode. Duplicate map keys are rejected so
// that a value has a single encoding.
var DecMode = func() cbor.DecMode {
	decMode, err := cbor.DecOptions{
		DupMapKey:       cbor.DupMapKeyEnforcedAPF,
		IndefLength:     cbor.IndefLengthForbidden,
		MaxNestedLevels: 64,
	}.DecMode()
	if err != nil {
		panic(err)
	}
	return decMode
}()

// Marshal returns the deterministic encoding of the value.
func Marshal(v interface{}) ([]byte, error) {
	data, err := EncMode.Marshal(v)
	if err != nil {
		return nil, xerrors.Errorf("couldn't encode %T: %v", v, err)
	}

	return data, nil
}

// Unmarshal decodes the data into the value.
func Unmarshal(data []byte, v interface{}) error {
	err := DecMode.Unmarshal(data, v)
	if err != nil {
		return xerrors.Errorf("couldn't decode %T: %v", v, err)
	}

	return nil
}
