package router

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strconv"

	"github.com/BillixOfficial/rewards-backend/pkg/errorx"
	"github.com/BillixOfficial/rewards-backend/pkg/xcontext"

	"github.com/gorilla/sessions"
)

func wrapHandler[Request, Response any](
	r *Router,
	method string,
	handler HandlerFunc[Request, Response],
) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		ctx := xcontext.WithHTTPRequest(r.ctx, req)
		ctx = xcontext.WithHTTPWriter(ctx, w)

		func() {
			var err error
			for _, middleware := range r.befores {
				ctx, err = middleware(ctx)
				if err != nil {
					xcontext.SetError(ctx, err)
					return
				}
			}

			request := new(Request)
			switch method {
			case http.MethodGet:
				err = bindQuery(req.URL.Query(), request)
			default:
				err = bindBody(req, request)
			}

			if err != nil {
				xcontext.Logger(ctx).Debugf("Cannot bind the request: %v", err)
				xcontext.SetError(ctx, errorx.New(errorx.BadRequest, "Cannot bind the request"))
				return
			}

			if err := bindSession(ctx, request); err != nil {
				xcontext.Logger(ctx).Debugf("Cannot bind the session: %v", err)
				xcontext.SetError(ctx, errorx.New(errorx.BadRequest, "Cannot bind the session"))
				return
			}

			resp, err := handler(ctx, request)
			if err != nil {
				xcontext.SetError(ctx, err)
				return
			}

			xcontext.SetResponse(ctx, resp)

			for _, middleware := range r.afters {
				ctx, err = middleware(ctx)
				if err != nil {
					xcontext.SetError(ctx, err)
					return
				}
			}
		}()

		for _, closer := range r.closers {
			closer(ctx)
		}

		handleResponse(ctx)
	}
}

func bindBody(req *http.Request, out any) error {
	if err := json.NewDecoder(req.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return err
	}

	return nil
}

// bindSession fills fields tagged with session from the cookie session. A
// "delete" option removes the value from the session after it is read, which
// makes one-shot values like the oauth2 state single use.
func bindSession(ctx context.Context, out any) error {
	v := reflect.ValueOf(out).Elem()
	if v.Kind() != reflect.Struct {
		return errors.New("the request must be a struct")
	}

	t := v.Type()
	touched := false
	var session *sessions.Session

	for i := 0; i < t.NumField(); i++ {
		tag, ok := t.Field(i).Tag.Lookup("session")
		if !ok {
			continue
		}

		name := tag
		deleteAfterRead := false
		if idx := indexComma(tag); idx >= 0 {
			name, deleteAfterRead = tag[:idx], tag[idx+1:] == "delete"
		}

		if session == nil {
			var err error
			session, err = xcontext.SessionStore(ctx).Get(
				xcontext.HTTPRequest(ctx), xcontext.Configs(ctx).Session.Name)
			if err != nil {
				return err
			}
		}

		value, ok := session.Values[name]
		if ok {
			fieldValue := reflect.ValueOf(value)
			if !fieldValue.Type().AssignableTo(v.Field(i).Type()) {
				return errors.New("mismatched type of session value " + name)
			}

			v.Field(i).Set(fieldValue)
		}

		if deleteAfterRead {
			delete(session.Values, name)
			touched = true
		}
	}

	if touched {
		return session.Save(xcontext.HTTPRequest(ctx), xcontext.HTTPWriter(ctx))
	}

	return nil
}

// bindQuery fills out with query parameters. Parameters are matched with
// struct fields by the json tag.
func bindQuery(values url.Values, out any) error {
	v := reflect.ValueOf(out).Elem()
	if v.Kind() != reflect.Struct {
		return errors.New("the request must be a struct")
	}

	return bindStruct(values, v)
}

func bindStruct(values url.Values, v reflect.Value) error {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.Anonymous {
			if err := bindStruct(values, v.Field(i)); err != nil {
				return err
			}
			continue
		}

		name, ok := field.Tag.Lookup("json")
		if !ok {
			continue
		}

		if idx := indexComma(name); idx >= 0 {
			name = name[:idx]
		}

		if name == "" || name == "-" {
			continue
		}

		value := values.Get(name)
		if value == "" {
			continue
		}

		if err := setField(v.Field(i), value); err != nil {
			return err
		}
	}

	return nil
}

func setField(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(n)

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetUint(n)

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)

	default:
		return errors.New("unsupported field type " + field.Kind().String())
	}

	return nil
}

func indexComma(s string) int {
	for i := range s {
		if s[i] == ',' {
			return i
		}
	}

	return -1
}
