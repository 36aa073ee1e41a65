package envserver

import (
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"
)

// wireMessage is implemented by every EnvService request and response.
// Values travel as dynamic protobuf messages built from envFile.
type wireMessage interface {
	messageName() protoreflect.Name
	encode(fields)
	decode(fields)
}

// toProto builds the protobuf form of v.
func toProto(v wireMessage) proto.Message {
	m := dynamicpb.NewMessage(messageDescriptor(v.messageName()))
	v.encode(fields{m})
	return m
}

// newProto returns an empty protobuf message of v's type.
func newProto(v wireMessage) *dynamicpb.Message {
	return dynamicpb.NewMessage(messageDescriptor(v.messageName()))
}

// fields reads and writes message fields by their proto names.
type fields struct {
	m protoreflect.Message
}

func (f fields) fd(name string) protoreflect.FieldDescriptor {
	fd := f.m.Descriptor().Fields().ByName(protoreflect.Name(name))
	if fd == nil {
		panic(fmt.Sprintf("envserver: %s has no field %q", f.m.Descriptor().FullName(), name))
	}
	return fd
}

func (f fields) setString(name, v string) { f.m.Set(f.fd(name), protoreflect.ValueOfString(v)) }

func (f fields) setInt(name string, v int) {
	f.m.Set(f.fd(name), protoreflect.ValueOfInt32(int32(v)))
}

func (f fields) setInt64(name string, v int64) { f.m.Set(f.fd(name), protoreflect.ValueOfInt64(v)) }

func (f fields) setBool(name string, v bool) { f.m.Set(f.fd(name), protoreflect.ValueOfBool(v)) }

func (f fields) setDouble(name string, v float64) {
	f.m.Set(f.fd(name), protoreflect.ValueOfFloat64(v))
}

func (f fields) setBytes(name string, v []byte) {
	if len(v) == 0 {
		return
	}
	f.m.Set(f.fd(name), protoreflect.ValueOfBytes(v))
}

func (f fields) appendInts(name string, vs ...int) {
	if len(vs) == 0 {
		return
	}
	l := f.m.Mutable(f.fd(name)).List()
	for _, v := range vs {
		l.Append(protoreflect.ValueOfInt32(int32(v)))
	}
}

func (f fields) appendBools(name string, vs ...bool) {
	if len(vs) == 0 {
		return
	}
	l := f.m.Mutable(f.fd(name)).List()
	for _, v := range vs {
		l.Append(protoreflect.ValueOfBool(v))
	}
}

func (f fields) appendFloats(name string, vs ...float32) {
	if len(vs) == 0 {
		return
	}
	l := f.m.Mutable(f.fd(name)).List()
	for _, v := range vs {
		l.Append(protoreflect.ValueOfFloat32(v))
	}
}

func (f fields) appendStrings(name string, vs ...string) {
	if len(vs) == 0 {
		return
	}
	l := f.m.Mutable(f.fd(name)).List()
	for _, v := range vs {
		l.Append(protoreflect.ValueOfString(v))
	}
}

// message returns the mutable sub-message stored in name.
func (f fields) message(name string) fields {
	return fields{f.m.Mutable(f.fd(name)).Message()}
}

func (f fields) has(name string) bool { return f.m.Has(f.fd(name)) }

func (f fields) getString(name string) string { return f.m.Get(f.fd(name)).String() }

func (f fields) getInt(name string) int { return int(f.m.Get(f.fd(name)).Int()) }

func (f fields) getInt64(name string) int64 { return f.m.Get(f.fd(name)).Int() }

func (f fields) getBool(name string) bool { return f.m.Get(f.fd(name)).Bool() }

func (f fields) getDouble(name string) float64 { return f.m.Get(f.fd(name)).Float() }

func (f fields) getBytes(name string) []byte { return f.m.Get(f.fd(name)).Bytes() }

func (f fields) getInts(name string) []int {
	l := f.m.Get(f.fd(name)).List()
	if l.Len() == 0 {
		return nil
	}
	out := make([]int, l.Len())
	for i := range out {
		out[i] = int(l.Get(i).Int())
	}
	return out
}

func (f fields) getBools(name string) []bool {
	l := f.m.Get(f.fd(name)).List()
	if l.Len() == 0 {
		return nil
	}
	out := make([]bool, l.Len())
	for i := range out {
		out[i] = l.Get(i).Bool()
	}
	return out
}

func (f fields) getFloats(name string) []float32 {
	l := f.m.Get(f.fd(name)).List()
	if l.Len() == 0 {
		return nil
	}
	out := make([]float32, l.Len())
	for i := range out {
		out[i] = float32(l.Get(i).Float())
	}
	return out
}

func (f fields) getStrings(name string) []string {
	l := f.m.Get(f.fd(name)).List()
	if l.Len() == 0 {
		return nil
	}
	out := make([]string, l.Len())
	for i := range out {
		out[i] = l.Get(i).String()
	}
	return out
}

// get returns the read-only sub-message stored in name.
func (f fields) getMessage(name string) fields {
	return fields{f.m.Get(f.fd(name)).Message()}
}
