package keyword

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

var (
	contextType  = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType    = reflect.TypeOf((*error)(nil)).Elem()
	durationType = reflect.TypeOf(time.Duration(0))
)

// keywordMethods maps normalized names to the exported methods of Library.
var keywordMethods = func() map[string]reflect.Method {
	t := reflect.TypeOf((*Library)(nil))
	methods := make(map[string]reflect.Method, t.NumMethod())
	for i := 0; i < t.NumMethod(); i++ {
		m := t.Method(i)
		methods[Normalize(m.Name)] = m
	}
	return methods
}()

type param struct {
	name       string
	defaultVal *string
	variadic   bool
}

func parseParams(args []string) []param {
	params := make([]param, 0, len(args))
	for _, a := range args {
		if strings.HasPrefix(a, "*") {
			params = append(params, param{name: a[1:], variadic: true})
			continue
		}
		if name, def, ok := strings.Cut(a, "="); ok {
			params = append(params, param{name: name, defaultVal: &def})
			continue
		}
		params = append(params, param{name: a})
	}
	return params
}

// Run executes a keyword by its legacy name. String arguments of the form
// name=value bind to the parameter with that name, write name\=value to pass
// the text literally. Keywords returning several values return them as a
// slice.
func (l *Library) Run(ctx context.Context, name string, args ...any) (any, error) {
	entry, ok := Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w '%s'", ErrUnknownKeyword, name)
	}
	if !entry.Implemented {
		return nil, &NotImplementedError{Keyword: entry.Name}
	}
	m, ok := keywordMethods[Normalize(entry.Name)]
	if !ok {
		return nil, &NotImplementedError{Keyword: entry.Name}
	}

	log.Debugf("run keyword: %s", entry.Name)
	in, err := l.bindArguments(ctx, entry, m, args)
	if err != nil {
		return nil, err
	}
	result, err := handleResults(m.Func.Call(in))
	if err != nil {
		log.Debugf("keyword %s failed: %v", entry.Name, err)
		l.runOnFailure(ctx, entry.Name)
		return nil, err
	}
	return result, nil
}

// bindArguments builds the reflect call arguments, receiver included.
func (l *Library) bindArguments(ctx context.Context, entry Entry, m reflect.Method, args []any) ([]reflect.Value, error) {
	params := parseParams(entry.Args)
	values := make([]any, len(params))
	set := make([]bool, len(params))
	var rest []any
	namedSeen := false

	for _, arg := range args {
		if s, ok := arg.(string); ok {
			if idx, value, named := namedArgument(params, s); named {
				if set[idx] {
					return nil, fmt.Errorf("keyword '%s' got multiple values for argument '%s'", entry.Name, params[idx].name)
				}
				values[idx], set[idx] = value, true
				namedSeen = true
				continue
			}
			arg = strings.ReplaceAll(s, `\=`, "=")
		}
		if namedSeen {
			return nil, fmt.Errorf("keyword '%s': positional argument after named arguments", entry.Name)
		}
		idx := firstUnset(params, set)
		switch {
		case idx >= 0:
			values[idx], set[idx] = arg, true
		case len(params) > 0 && params[len(params)-1].variadic:
			rest = append(rest, arg)
		default:
			return nil, fmt.Errorf("keyword '%s' expected at most %d arguments, got %d", entry.Name, len(params), len(args))
		}
	}

	mt := m.Func.Type()
	in := []reflect.Value{reflect.ValueOf(l)}
	pi := 0
	for i := 1; i < mt.NumIn(); i++ {
		t := mt.In(i)
		if t == contextType {
			in = append(in, reflect.ValueOf(ctx))
			continue
		}
		if pi >= len(params) {
			return nil, fmt.Errorf("keyword '%s' has more parameters than declared arguments", entry.Name)
		}
		p := params[pi]
		pi++
		if p.variadic {
			elem := t.Elem()
			for _, r := range rest {
				v, err := convertToType(r, elem)
				if err != nil {
					return nil, fmt.Errorf("keyword '%s' argument '%s': %w", entry.Name, p.name, err)
				}
				in = append(in, v)
			}
			continue
		}
		value := values[pi-1]
		if !set[pi-1] {
			if p.defaultVal == nil {
				return nil, fmt.Errorf("keyword '%s' missing value for argument '%s'", entry.Name, p.name)
			}
			value = *p.defaultVal
		}
		v, err := convertToType(value, t)
		if err != nil {
			return nil, fmt.Errorf("keyword '%s' argument '%s': %w", entry.Name, p.name, err)
		}
		in = append(in, v)
	}
	return in, nil
}

func namedArgument(params []param, arg string) (int, string, bool) {
	name, value, ok := strings.Cut(arg, "=")
	if !ok || strings.HasSuffix(name, `\`) {
		return 0, "", false
	}
	for i, p := range params {
		if !p.variadic && p.name == name {
			return i, value, true
		}
	}
	return 0, "", false
}

func firstUnset(params []param, set []bool) int {
	for i, p := range params {
		if p.variadic {
			return -1
		}
		if !set[i] {
			return i
		}
	}
	return -1
}

// convertToType converts an argument to the parameter type. Strings are
// parsed, anything else must be assignable or is formatted first.
func convertToType(value any, targetType reflect.Type) (reflect.Value, error) {
	if value != nil && reflect.TypeOf(value).AssignableTo(targetType) {
		return reflect.ValueOf(value), nil
	}
	input := ""
	if value != nil {
		input = strings.TrimSpace(fmt.Sprint(value))
	}

	if targetType == durationType {
		d, err := parseTimeString(input)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(d), nil
	}

	switch targetType.Kind() {
	case reflect.String:
		if value == nil {
			return reflect.ValueOf("").Convert(targetType), nil
		}
		return reflect.ValueOf(fmt.Sprint(value)).Convert(targetType), nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if input == "" {
			return reflect.Zero(targetType), nil
		}
		val, err := strconv.ParseInt(input, 10, 64)
		if err != nil {
			f, errFloat := strconv.ParseFloat(input, 64)
			if errFloat != nil {
				return reflect.Value{}, fmt.Errorf("cannot convert %q to integer: %v", input, err)
			}
			val = int64(f)
		}
		return reflect.ValueOf(val).Convert(targetType), nil

	case reflect.Float32, reflect.Float64:
		if input == "" {
			return reflect.Zero(targetType), nil
		}
		val, err := strconv.ParseFloat(input, 64)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("cannot convert %q to float: %v", input, err)
		}
		return reflect.ValueOf(val).Convert(targetType), nil

	case reflect.Bool:
		return reflect.ValueOf(isTruthy(input)), nil

	default:
		return reflect.Value{}, fmt.Errorf("unsupported parameter type: %s", targetType.String())
	}
}

// isTruthy follows the legacy rule: every string is true except the empty
// string and false, no, off, 0 and none in any case.
func isTruthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "false", "no", "off", "0", "none":
		return false
	}
	return true
}

var timeStringPattern = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(milliseconds?|millis|ms|seconds?|secs?|s|minutes?|mins?|m|hours?|h)\b`)

var timeUnits = map[string]time.Duration{
	"ms": time.Millisecond, "millis": time.Millisecond, "millisecond": time.Millisecond, "milliseconds": time.Millisecond,
	"s": time.Second, "sec": time.Second, "secs": time.Second, "second": time.Second, "seconds": time.Second,
	"m": time.Minute, "min": time.Minute, "mins": time.Minute, "minute": time.Minute, "minutes": time.Minute,
	"h": time.Hour, "hour": time.Hour, "hours": time.Hour,
}

// parseTimeString accepts Go durations ("1m30s"), plain seconds ("2.5")
// and legacy time strings ("1 minute 30 seconds").
func parseTimeString(input string) (time.Duration, error) {
	if input == "" {
		return 0, nil
	}
	if d, err := time.ParseDuration(input); err == nil {
		return d, nil
	}
	if f, err := strconv.ParseFloat(input, 64); err == nil {
		return time.Duration(f * float64(time.Second)), nil
	}
	matches := timeStringPattern.FindAllStringSubmatch(input, -1)
	if len(matches) == 0 {
		return 0, fmt.Errorf("invalid time string %q", input)
	}
	var total time.Duration
	for _, m := range matches {
		f, _ := strconv.ParseFloat(m[1], 64)
		total += time.Duration(f * float64(timeUnits[strings.ToLower(m[2])]))
	}
	return total, nil
}

// handleResults splits the trailing error from the returned values.
func handleResults(results []reflect.Value) (any, error) {
	if n := len(results); n > 0 && results[n-1].Type() == errorType {
		if errValue := results[n-1]; !errValue.IsNil() {
			return nil, errValue.Interface().(error)
		}
		results = results[:n-1]
	}
	switch len(results) {
	case 0:
		return nil, nil
	case 1:
		return results[0].Interface(), nil
	}
	values := make([]any, len(results))
	for i, r := range results {
		values[i] = r.Interface()
	}
	return values, nil
}

// runOnFailure executes the registered keyword once. Its own failure is
// only logged.
func (l *Library) runOnFailure(ctx context.Context, failed string) {
	keyword := l.Options().RunOnFailure
	if keyword == "" || strings.EqualFold(keyword, "nothing") {
		return
	}
	if !l.runningOnFailure.CompareAndSwap(false, true) {
		return
	}
	defer l.runningOnFailure.Store(false)

	log.Debugf("keyword %s failed, running %s", failed, keyword)
	if _, err := l.Run(ctx, keyword); err != nil {
		if errors.Is(err, ErrNotImplemented) || errors.Is(err, ErrUnknownKeyword) {
			log.Warnf("run on failure keyword %s: %v", keyword, err)
			return
		}
		log.Warnf("run on failure keyword %s failed: %v", keyword, err)
	}
}
