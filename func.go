// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package typemapper

import (
	"fmt"
	"reflect"
	"runtime"
)

// ruleFunc wraps a user function used by a member rule, either as a
// value function or as a condition.
//
// Value functions have the signature `func(S) V` or `func(S) (V, error)`.
// Conditions have the signature `func(S) bool` or `func(S) (bool, error)`.
// S must accept the source type of the configuration that registered the
// rule. That may be an interface the source type implements.
//
// Rules inherited from a base configuration carry an upcast that projects
// the derived source onto the base source before calling the function.
type ruleFunc struct {
	fn     reflect.Value
	in     reflect.Type
	out    reflect.Type
	hasErr bool
	upcast UpcastFunc
}

// newRuleFunc validates f and wraps it. source is the source type of the
// configuration the function is registered on.
func newRuleFunc(f interface{}, source reflect.Type) (*ruleFunc, error) {
	if f == nil {
		return nil, fmt.Errorf("fn should be a function, got nil")
	}

	fv := reflect.ValueOf(f)
	ft := fv.Type()
	if k := ft.Kind(); k != reflect.Func {
		return nil, fmt.Errorf("fn should be a function, got %s", k)
	}
	if fv.IsNil() {
		return nil, fmt.Errorf("fn should be a function, got nil %s", ft)
	}

	if ft.NumIn() != 1 || ft.IsVariadic() {
		return nil, fmt.Errorf("fn must take exactly one argument, got %s", ft)
	}

	// Get our output. If the last result is an error type then we
	// don't treat it as the value.
	numOut := ft.NumOut()
	hasErr := numOut == 2 && ft.Out(1) == errType
	if numOut != 1 && !hasErr {
		return nil, fmt.Errorf("fn must return a value and optionally an error, got %s", ft)
	}
	if ft.Out(0) == errType {
		return nil, fmt.Errorf("fn must return a value, got %s", ft)
	}

	if in := ft.In(0); !source.AssignableTo(in) {
		return nil, fmt.Errorf("fn argument %s does not accept source type %s", in, source)
	}

	return &ruleFunc{
		fn:     fv,
		in:     ft.In(0),
		out:    ft.Out(0),
		hasErr: hasErr,
	}, nil
}

// newConditionFunc is newRuleFunc restricted to functions returning bool.
func newConditionFunc(f interface{}, source reflect.Type) (*ruleFunc, error) {
	result, err := newRuleFunc(f, source)
	if err != nil {
		return nil, err
	}

	if result.out.Kind() != reflect.Bool {
		return nil, fmt.Errorf("condition must return bool, got %s", result.fn.Type())
	}

	return result, nil
}

// call calls the function with src, upcasting it first if necessary.
func (f *ruleFunc) call(src reflect.Value) (reflect.Value, error) {
	if f.upcast != nil {
		src = f.upcast(src)
	}

	out := f.fn.Call([]reflect.Value{src})
	if f.hasErr {
		if err := out[1]; !err.IsNil() {
			return reflect.Value{}, err.Interface().(error)
		}
	}

	return out[0], nil
}

// through returns a copy of f that first projects its argument with u.
// The projection composes with any projection f already has, so rules
// inherited through a chain of configurations walk all the way up.
func (f *ruleFunc) through(u UpcastFunc) *ruleFunc {
	if f == nil {
		return nil
	}

	result := *f
	result.upcast = composeUpcast(u, f.upcast)
	return &result
}

// Name returns the name of the function, looked up using the program
// counter. If no friendly name can be found, then this defaults to the
// function type signature.
func (f *ruleFunc) Name() string {
	if rfunc := runtime.FuncForPC(f.fn.Pointer()); rfunc != nil {
		return rfunc.Name()
	}

	return f.fn.Type().String()
}

// String returns the name for this function. See Name.
func (f *ruleFunc) String() string {
	return f.Name()
}
