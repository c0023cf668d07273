package server

import (
	"math"
	"time"

	mdwerror "github.com/msto63/laplace/foundation/core/error"
	"github.com/msto63/laplace/internal/service"
	"github.com/msto63/laplace/pkg/core/health"
	"google.golang.org/protobuf/types/known/structpb"
)

// Wire format. Every message is a google.protobuf.Struct:
//
//	Compute              {k, ymin, ymax, norm?, extrema?}
//	ComputeFromEnergies  {k, emin, ehomo, elumo, emax, norm?, extrema?}
//	  -> {id, k, ymin, ymax, ratio, norm, weights[], exponents[], max_error,
//	      iterations, cached, duration_ms, extrema[{x, error}]?, alternates?}
//	Table                {ymin, ymax, norm?, orders[]}
//	  -> {id, duration_ms, entries[{k, response?, error?}]}
//	Health               {} -> {service, version, status, uptime_seconds, checks[]}

type fields map[string]*structpb.Value

func fieldsOf(s *structpb.Struct) fields {
	if s == nil {
		return fields{}
	}
	return fields(s.GetFields())
}

func badField(key, msg string) *mdwerror.Error {
	return mdwerror.New(msg).
		WithCode(mdwerror.CodeInvalidFormat).
		WithOperation("server.decode").
		WithDetail("field", key)
}

func (f fields) number(key string) (float64, error) {
	v, ok := f[key]
	if !ok {
		return 0, badField(key, "missing field "+key)
	}
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, badField(key, "field "+key+" must be a number")
	}
	return n.NumberValue, nil
}

func (f fields) integer(key string) (int, error) {
	x, err := f.number(key)
	if err != nil {
		return 0, err
	}
	if x != math.Trunc(x) || math.Abs(x) > math.MaxInt32 {
		return 0, badField(key, "field "+key+" must be an integer")
	}
	return int(x), nil
}

func (f fields) str(key string) string {
	return f[key].GetStringValue()
}

func (f fields) boolean(key string) bool {
	return f[key].GetBoolValue()
}

func (f fields) numbers(key string) ([]float64, error) {
	v, ok := f[key]
	if !ok {
		return nil, nil
	}
	list, ok := v.GetKind().(*structpb.Value_ListValue)
	if !ok {
		return nil, badField(key, "field "+key+" must be a list")
	}
	out := make([]float64, len(list.ListValue.GetValues()))
	for i, item := range list.ListValue.GetValues() {
		n, ok := item.GetKind().(*structpb.Value_NumberValue)
		if !ok {
			return nil, badField(key, "field "+key+" must hold numbers")
		}
		out[i] = n.NumberValue
	}
	return out, nil
}

func list(xs []float64) []interface{} {
	out := make([]interface{}, len(xs))
	for i, x := range xs {
		out[i] = x
	}
	return out
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func fromMillis(ms float64) time.Duration {
	return time.Duration(ms * float64(time.Millisecond))
}

// Requests

func decodeRequest(s *structpb.Struct) (service.Request, error) {
	f := fieldsOf(s)
	var (
		req service.Request
		err error
	)
	if req.K, err = f.integer("k"); err != nil {
		return req, err
	}
	if req.Ymin, err = f.number("ymin"); err != nil {
		return req, err
	}
	if req.Ymax, err = f.number("ymax"); err != nil {
		return req, err
	}
	req.Norm = f.str("norm")
	req.Extrema = f.boolean("extrema")
	return req, nil
}

func encodeRequest(req service.Request) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]interface{}{
		"k":       req.K,
		"ymin":    req.Ymin,
		"ymax":    req.Ymax,
		"norm":    req.Norm,
		"extrema": req.Extrema,
	})
}

func decodeEnergiesRequest(s *structpb.Struct) (service.EnergiesRequest, error) {
	f := fieldsOf(s)
	var (
		req service.EnergiesRequest
		err error
	)
	if req.K, err = f.integer("k"); err != nil {
		return req, err
	}
	for key, dst := range map[string]*float64{
		"emin": &req.Emin, "ehomo": &req.Ehomo, "elumo": &req.Elumo, "emax": &req.Emax,
	} {
		if *dst, err = f.number(key); err != nil {
			return req, err
		}
	}
	req.Norm = f.str("norm")
	req.Extrema = f.boolean("extrema")
	return req, nil
}

func encodeEnergiesRequest(req service.EnergiesRequest) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]interface{}{
		"k":       req.K,
		"emin":    req.Emin,
		"ehomo":   req.Ehomo,
		"elumo":   req.Elumo,
		"emax":    req.Emax,
		"norm":    req.Norm,
		"extrema": req.Extrema,
	})
}

func decodeTableRequest(s *structpb.Struct) (service.TableRequest, error) {
	f := fieldsOf(s)
	var (
		req service.TableRequest
		err error
	)
	if req.Ymin, err = f.number("ymin"); err != nil {
		return req, err
	}
	if req.Ymax, err = f.number("ymax"); err != nil {
		return req, err
	}
	req.Norm = f.str("norm")
	orders, err := f.numbers("orders")
	if err != nil {
		return req, err
	}
	for _, k := range orders {
		if k != math.Trunc(k) {
			return req, badField("orders", "orders must be integers")
		}
		req.Orders = append(req.Orders, int(k))
	}
	return req, nil
}

func encodeTableRequest(req service.TableRequest) (*structpb.Struct, error) {
	orders := make([]interface{}, len(req.Orders))
	for i, k := range req.Orders {
		orders[i] = k
	}
	return structpb.NewStruct(map[string]interface{}{
		"ymin":   req.Ymin,
		"ymax":   req.Ymax,
		"norm":   req.Norm,
		"orders": orders,
	})
}

// Responses

func responseMap(r *service.Response) map[string]interface{} {
	m := map[string]interface{}{
		"id":          r.ID,
		"k":           r.K,
		"ymin":        r.Ymin,
		"ymax":        r.Ymax,
		"ratio":       r.Ratio,
		"norm":        r.Norm,
		"weights":     list(r.Weights),
		"exponents":   list(r.Exponents),
		"max_error":   r.MaxError,
		"iterations":  r.Iterations,
		"cached":      r.Cached,
		"duration_ms": millis(r.Duration),
	}
	if r.Extrema != nil {
		ext := make([]interface{}, len(r.Extrema))
		for i, e := range r.Extrema {
			ext[i] = map[string]interface{}{"x": e.X, "error": e.Error}
		}
		m["extrema"] = ext
		m["alternates"] = r.Alternates
	}
	return m
}

func encodeResponse(r *service.Response) (*structpb.Struct, error) {
	return structpb.NewStruct(responseMap(r))
}

func decodeResponse(s *structpb.Struct) (*service.Response, error) {
	f := fieldsOf(s)
	r := &service.Response{
		ID:         f.str("id"),
		Norm:       f.str("norm"),
		Cached:     f.boolean("cached"),
		Alternates: f.boolean("alternates"),
	}
	var err error
	if r.K, err = f.integer("k"); err != nil {
		return nil, err
	}
	if r.Iterations, err = f.integer("iterations"); err != nil {
		return nil, err
	}
	for key, dst := range map[string]*float64{
		"ymin": &r.Ymin, "ymax": &r.Ymax, "ratio": &r.Ratio, "max_error": &r.MaxError,
	} {
		if *dst, err = f.number(key); err != nil {
			return nil, err
		}
	}
	ms, err := f.number("duration_ms")
	if err != nil {
		return nil, err
	}
	r.Duration = fromMillis(ms)
	if r.Weights, err = f.numbers("weights"); err != nil {
		return nil, err
	}
	if r.Exponents, err = f.numbers("exponents"); err != nil {
		return nil, err
	}
	if v, ok := f["extrema"]; ok {
		for _, item := range v.GetListValue().GetValues() {
			ef := fieldsOf(item.GetStructValue())
			x, err := ef.number("x")
			if err != nil {
				return nil, err
			}
			e, err := ef.number("error")
			if err != nil {
				return nil, err
			}
			r.Extrema = append(r.Extrema, service.Extremum{X: x, Error: e})
		}
		if r.Extrema == nil {
			r.Extrema = []service.Extremum{}
		}
	}
	return r, nil
}

func encodeTableResponse(t *service.TableResponse) (*structpb.Struct, error) {
	entries := make([]interface{}, len(t.Entries))
	for i, e := range t.Entries {
		m := map[string]interface{}{"k": e.K}
		if e.Response != nil {
			m["response"] = responseMap(e.Response)
		}
		if e.Error != "" {
			m["error"] = e.Error
		}
		entries[i] = m
	}
	return structpb.NewStruct(map[string]interface{}{
		"id":          t.ID,
		"duration_ms": millis(t.Duration),
		"entries":     entries,
	})
}

func decodeTableResponse(s *structpb.Struct) (*service.TableResponse, error) {
	f := fieldsOf(s)
	t := &service.TableResponse{ID: f.str("id")}
	if ms, err := f.number("duration_ms"); err == nil {
		t.Duration = fromMillis(ms)
	}
	for _, item := range f["entries"].GetListValue().GetValues() {
		ef := fieldsOf(item.GetStructValue())
		k, err := ef.integer("k")
		if err != nil {
			return nil, err
		}
		entry := service.TableEntry{K: k, Error: ef.str("error")}
		if rv, ok := ef["response"]; ok {
			if entry.Response, err = decodeResponse(rv.GetStructValue()); err != nil {
				return nil, err
			}
		}
		t.Entries = append(t.Entries, entry)
	}
	return t, nil
}

func encodeReport(r *health.Report) (*structpb.Struct, error) {
	checks := make([]interface{}, len(r.Checks))
	for i, c := range r.Checks {
		checks[i] = map[string]interface{}{
			"name":        c.Name,
			"status":      string(c.Status),
			"message":     c.Message,
			"duration_ms": millis(c.Duration),
		}
	}
	return structpb.NewStruct(map[string]interface{}{
		"service":        r.Service,
		"version":        r.Version,
		"status":         string(r.Status),
		"uptime_seconds": r.Uptime.Seconds(),
		"checks":         checks,
	})
}

func decodeReport(s *structpb.Struct) *health.Report {
	f := fieldsOf(s)
	r := &health.Report{
		Service: f.str("service"),
		Version: f.str("version"),
		Status:  health.Status(f.str("status")),
	}
	if secs, err := f.number("uptime_seconds"); err == nil {
		r.Uptime = time.Duration(secs * float64(time.Second))
	}
	for _, item := range f["checks"].GetListValue().GetValues() {
		cf := fieldsOf(item.GetStructValue())
		c := health.CheckResult{
			Name:    cf.str("name"),
			Status:  health.Status(cf.str("status")),
			Message: cf.str("message"),
		}
		if ms, err := cf.number("duration_ms"); err == nil {
			c.Duration = fromMillis(ms)
		}
		r.Checks = append(r.Checks, c)
	}
	return r
}
