package version

import (
	"sync"

	"golang.org/x/xerrors"
)

var registry = struct {
	sync.Mutex
	known map[Method][]FeatureVersion
}{
	known: make(map[Method][]FeatureVersion),
}

// Dispatcher is the lookup table of the implementations of a versioned
// operation, indexed by ordinal.
type Dispatcher[F any] struct {
	method Method
	impls  []F
}

// NewDispatcher creates the lookup table of an operation where the nth
// implementation is the one of ordinal n. It registers the known ordinals so
// that the tables can be checked against them. It panics if the operation
// already has a dispatcher, as two of them would disagree on the known
// ordinals.
func NewDispatcher[F any](method Method, impls ...F) Dispatcher[F] {
	known := make([]FeatureVersion, len(impls))
	for i := range impls {
		known[i] = FeatureVersion(i)
	}

	registry.Lock()
	defer registry.Unlock()

	_, found := registry.known[method]
	if found {
		panic("version: duplicate dispatcher for " + string(method))
	}

	registry.known[method] = known

	return Dispatcher[F]{
		method: method,
		impls:  impls,
	}
}

// Method returns the operation of the dispatcher.
func (d Dispatcher[F]) Method() Method {
	return d.method
}

// Resolve returns the implementation selected by the table.
func (d Dispatcher[F]) Resolve(pv *PlatformVersion) (F, error) {
	var zero F

	v, err := Check(pv, d.method)
	if err != nil {
		return zero, err
	}

	return d.impls[v], nil
}

// Check returns the ordinal of the operation if an implementation exists for
// it, otherwise an UnknownVersionMismatch error.
func Check(pv *PlatformVersion, m Method) (FeatureVersion, error) {
	v, found := pv.Method(m)
	if !found {
		return 0, xerrors.Errorf("method %s not defined in protocol version %d",
			m, pv.ProtocolVersion)
	}

	known := Known(m)

	if int(v) >= len(known) {
		return 0, UnknownVersionMismatch{
			Method:        m,
			KnownVersions: known,
			Received:      v,
		}
	}

	return v, nil
}

// Known returns the ordinals implemented for the operation, or nil if no
// dispatcher is registered.
func Known(m Method) []FeatureVersion {
	registry.Lock()
	defer registry.Unlock()

	known := registry.known[m]
	if known == nil {
		return nil
	}

	return append([]FeatureVersion{}, known...)
}

// Registered returns the operations that have a dispatcher.
func Registered() []Method {
	registry.Lock()
	defer registry.Unlock()

	methods := make([]Method, 0, len(registry.known))
	for m := range registry.known {
		methods = append(methods, m)
	}

	return methods
}
