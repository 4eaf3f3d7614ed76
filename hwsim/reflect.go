// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwsim

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Updater is the interface that custom components built using reflection must implement.
// See MakePart.
//
type Updater interface {
	Update(*Circuit)
}

// pinField maps a struct field to one or more pins.
type pinField struct {
	index  int
	input  bool
	pin    Pin
	count  int // number of pins for [N]int fields, 0 for int fields
	prefix string
}

func (f *pinField) pins() Pins {
	if f.count == 0 {
		return Pins{f.pin}
	}
	ps := make(Pins, f.count)
	for i := range ps {
		ps[i] = Pin{f.prefix + strconv.Itoa(i), f.pin.Width}
	}
	return ps
}

// MakePart wraps an Updater into a custom component. t must be a pointer to a
// struct. Input/output pins are identified by field tags.
//
// The field tag must be `hw:"in"` or `hw:"out"` to identify input and output
// pins. By default, the pin name is the field name in lowercase and the pin is
// 1 bit wide. A specific pin name and width can be forced by adding them in
// the tag: `hw:"in,pin_name"` or `hw:"out,data[64]"`. An empty name keeps the
// default: `hw:"out,[8]"`.
//
// Pin fields must be of type int; they receive the wire number of the pin.
// Fields of type [N]int declare N pins named <pin>_0 to <pin>_<N-1>.
//
// When mounted, each part gets a copy of *t, so untagged fields can be used to
// configure the part. t may be a nil pointer.
//
func MakePart(t Updater) *PartSpec {
	typ := reflect.TypeOf(t)
	if typ.Kind() != reflect.Ptr || typ.Elem().Kind() != reflect.Struct {
		panic(errors.Errorf("unsupported type %q: must be a pointer to a struct", typ))
	}
	typ = typ.Elem()

	sp := &PartSpec{
		Name: typ.Name(),
	}

	var fields []pinField
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		tag, ok := f.Tag.Lookup("hw")
		if !ok {
			continue
		}
		pf := pinField{index: i, pin: Pin{strings.ToLower(f.Name), 1}}
		tv := strings.Split(tag, ",")
		switch tv[0] {
		case "in":
			pf.input = true
		case "out":
		default:
			panic(errors.Errorf("unsupported tag %q for field %q in %q", tag, f.Name, typ.Name()))
		}
		switch len(tv) {
		case 1:
		case 2:
			if err := pf.parseName(tv[1]); err != nil {
				panic(errors.Wrapf(err, "field %q in %q", f.Name, typ.Name()))
			}
		default:
			panic(errors.Errorf("unsupported tag %q for field %q in %q", tag, f.Name, typ.Name()))
		}

		ft := f.Type
		switch k := ft.Kind(); {
		case k == reflect.Array && ft.Elem().Kind() == reflect.Int:
			pf.count = ft.Len()
			pf.prefix = pf.pin.Name + "_"
		case k == reflect.Int:
		default:
			panic(errors.Errorf("unsupported type %q for field %q in %q", k, f.Name, typ.Name()))
		}

		if pf.input {
			sp.Inputs = append(sp.Inputs, pf.pins()...)
		} else {
			sp.Outputs = append(sp.Outputs, pf.pins()...)
		}
		fields = append(fields, pf)
	}
	if err := checkPins(sp.Inputs, sp.Outputs); err != nil {
		panic(errors.Wrapf(err, "part %q", typ.Name()))
	}
	var tmpl reflect.Value
	if v := reflect.ValueOf(t); !v.IsNil() {
		tmpl = v.Elem()
	}
	sp.Mount = mountPart(typ, tmpl, fields)
	return sp
}

// parseName parses the optional "name[width]" part of a field tag.
func (f *pinField) parseName(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if s[0] == '[' {
		s = f.pin.Name + s
	}
	ps, err := ParseIO(s)
	if err != nil {
		return err
	}
	if len(ps) != 1 {
		return errors.Errorf("invalid pin spec %q", s)
	}
	f.pin = ps[0]
	return nil
}

func checkPins(in, out Pins) error {
	seen := make(map[string]bool, len(in)+len(out))
	for _, ps := range []Pins{in, out} {
		for _, p := range ps {
			if seen[p.Name] {
				return errors.New("duplicate pin name " + p.Name)
			}
			seen[p.Name] = true
		}
	}
	return nil
}

// mountPart returns a MountFn creating a new instance of typ for each mount,
// initialized from tmpl when valid.
func mountPart(typ reflect.Type, tmpl reflect.Value, fields []pinField) MountFn {
	return func(s *Socket) []Component {
		v := reflect.New(typ)
		e := v.Elem()
		if tmpl.IsValid() {
			e.Set(tmpl)
		}
		for i := range fields {
			f := &fields[i]
			fv := e.Field(f.index)
			if f.count == 0 {
				fv.SetInt(int64(s.Pin(f.pin.Name)))
				continue
			}
			for j := 0; j < f.count; j++ {
				fv.Index(j).SetInt(int64(s.Pin(f.prefix + strconv.Itoa(j))))
			}
		}

		comp := v.Interface().(Updater)
		return []Component{comp.Update}
	}
}
