package common

import (
	"encoding/json"
	"fmt"
	"path"
	"reflect"
	"sync"
)

// registry maps a type name to a zero value of that type so interface
// values can be decoded by InterfaceMarshaler.
var registry = struct {
	sync.RWMutex
	types map[string]reflect.Type
}{types: make(map[string]reflect.Type)}

// registerString converts the input type to the string key in the registry.
// Pointers get a trailing "*" so T and *T are distinct entries.
func registerString(i interface{}) string {
	t := reflect.TypeOf(i)
	suffix := ""
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
		suffix = "*"
	}
	return path.Join(t.PkgPath(), t.Name()) + suffix
}

// Register records an underlying type to allow encoding and decoding
// as a value of an interface with InterfaceMarshaler. Usually, types
// will be registered in an init() function of a package, in the spirit
// of encoding/gob. Like gob, Register panics if the type is already
// registered. A type and a pointer to that type are different entries.
func Register(i interface{}) {
	name := registerString(i)
	t := reflect.TypeOf(i)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	registry.Lock()
	defer registry.Unlock()
	if _, ok := registry.types[name]; ok {
		panic("common/Register: type " + name + " already registered")
	}
	registry.types[name] = t
}

// NotRegistered is returned if the type is not registered
type NotRegistered struct {
	Type string
}

func (n *NotRegistered) Error() string {
	return fmt.Sprintf("common: type %s not registered", n.Type)
}

// newFromString returns a pointer to a new zero value of the registered type
// and whether the registered entry was a pointer type.
func newFromString(name string) (reflect.Value, bool, error) {
	registry.RLock()
	t, ok := registry.types[name]
	registry.RUnlock()
	if !ok {
		return reflect.Value{}, false, &NotRegistered{Type: name}
	}
	isPtr := name[len(name)-1] == '*'
	return reflect.New(t), isPtr, nil
}

// InterfaceMarshaler helps marshal and unmarshal interface values, such as
// the Scaler of a fitted pipeline. Types must first be registered using
// Register().
type InterfaceMarshaler struct {
	I interface{}
}

type typeMarshaler struct {
	Type  string
	Value interface{}
}

type typeUnmarshaler struct {
	Type  string
	Value json.RawMessage
}

func (m InterfaceMarshaler) MarshalJSON() ([]byte, error) {
	if m.I == nil {
		return []byte("null"), nil
	}
	name := registerString(m.I)
	registry.RLock()
	_, ok := registry.types[name]
	registry.RUnlock()
	if !ok {
		return nil, &NotRegistered{Type: name}
	}
	return json.Marshal(&typeMarshaler{
		Type:  name,
		Value: m.I,
	})
}

func (m *InterfaceMarshaler) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		m.I = nil
		return nil
	}
	t := &typeUnmarshaler{}
	if err := json.Unmarshal(data, t); err != nil {
		return err
	}
	val, isPtr, err := newFromString(t.Type)
	if err != nil {
		return fmt.Errorf("common: error unmarshaling interface: %w", err)
	}
	if err := json.Unmarshal([]byte(t.Value), val.Interface()); err != nil {
		return err
	}
	if isPtr {
		m.I = val.Interface()
	} else {
		m.I = val.Elem().Interface()
	}
	return nil
}
