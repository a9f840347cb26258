// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlogic

import (
	"reflect"
	"strings"

	"github.com/pkg/errors"
)

// field is a struct field bound to a module port.
type field struct {
	index int
	port  *Port
	input bool
}

// bindFields matches the tagged fields of struct type typ with the ports of
// h.
//
// The field tag must be `hw:"in"` or `hw:"out"`. By default, the port name
// is the field name in lowercase. A specific port name can be forced by
// adding it in the tag: `hw:"in,port_name"`.
//
func bindFields(typ reflect.Type, h *Header) ([]field, error) {
	var fs []field
	n := typ.NumField()
	for i := 0; i < n; i++ {
		f := typ.Field(i)
		tag, ok := f.Tag.Lookup("hw")
		if !ok {
			continue
		}
		name := strings.ToLower(f.Name)
		tv := strings.Split(tag, ",")
		if len(tv) == 2 && tv[1] != "" {
			name = tv[1]
		}
		var fd field
		fd.index = i
		switch tv[0] {
		case "in":
			fd.input = true
			fd.port = h.Input(name)
		case "out":
			fd.port = h.Output(name)
		default:
			return nil, errors.Errorf("unsupported tag %q for field %q in %q", tag, f.Name, typ.Name())
		}
		if fd.port == nil {
			return nil, errors.Errorf("no %s port %s in module %s for field %q", tv[0], name, h.Name, f.Name)
		}
		switch k := f.Type.Kind(); k {
		case reflect.Bool:
			if fd.port.Width != 1 {
				return nil, errors.Errorf("field %q: bool field for %d bits port %s", f.Name, fd.port.Width, name)
			}
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			if fd.port.Width > f.Type.Bits() {
				return nil, errors.Errorf("field %q: %d bits port %s does not fit in %s", f.Name, fd.port.Width, name, f.Type)
			}
		default:
			return nil, errors.Errorf("unsupported type %q for field %q in %q", k, f.Name, typ.Name())
		}
		fs = append(fs, fd)
	}
	return fs, nil
}

// Eval evaluates the design with the input values found in the struct
// pointed to by v and stores the output values into it.
//
// Input and output ports are identified by field tags: `hw:"in"` or
// `hw:"out"`. The port name defaults to the field name in lowercase and can
// be set explicitly with `hw:"in,port_name"`. One bit ports map to bool or
// integer fields, multi-bit ports to integer fields.
//
//	var add struct {
//		A   uint8 `hw:"in"`
//		B   uint8 `hw:"in"`
//		Sum uint8 `hw:"out,s"`
//	}
//	err := d.Eval(&add)
//
func (d *Design) Eval(v interface{}) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Struct {
		return errors.Errorf("Eval needs a pointer to a struct, got %T", v)
	}
	h, err := d.Header()
	if err != nil {
		return err
	}
	if h == nil {
		return errors.Errorf("%s has no module header", d.path)
	}
	e := rv.Elem()
	fs, err := bindFields(e.Type(), h)
	if err != nil {
		return err
	}
	inputs := make(map[string]bool)
	for _, f := range fs {
		if !f.input {
			continue
		}
		x := uintValue(e.Field(f.index))
		w := f.port.Width
		for i, b := range f.port.Bits {
			inputs[b] = x>>uint(w-1-i)&1 != 0
		}
	}
	outs, err := d.Execute(inputs)
	if err != nil {
		return err
	}
	for _, f := range fs {
		if f.input {
			continue
		}
		var x uint64
		for _, b := range f.port.Bits {
			x <<= 1
			if outs[b] == 1 {
				x |= 1
			}
		}
		setUint(e.Field(f.index), x)
	}
	return nil
}

func uintValue(v reflect.Value) uint64 {
	switch v.Kind() {
	case reflect.Bool:
		if v.Bool() {
			return 1
		}
		return 0
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return uint64(v.Int())
	}
	return v.Uint()
}

func setUint(v reflect.Value, x uint64) {
	switch v.Kind() {
	case reflect.Bool:
		v.SetBool(x != 0)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		w := v.Type().Bits()
		// sign extend from the field width
		v.SetInt(int64(x<<uint(64-w)) >> uint(64-w))
	default:
		v.SetUint(x)
	}
}
