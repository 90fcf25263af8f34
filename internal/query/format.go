package query

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/fivetwenty-io/jsonapi-client/internal/constants"
)

const nullToken = "null"

// FormatValue renders a constant or captured value as a filter literal.
// Sequences render as comma-joined quoted elements.
func FormatValue(value any) string {
	if value == nil {
		return nullToken
	}

	switch typed := value.(type) {
	case string:
		return quote(typed)
	case bool:
		return quote(strconv.FormatBool(typed))
	case time.Time:
		return quote(typed.Format(constants.FilterDateTimeLayout))
	case time.Duration:
		return quote(FormatDuration(typed))
	case int:
		return strconv.Itoa(typed)
	case int8:
		return strconv.FormatInt(int64(typed), 10)
	case int16:
		return strconv.FormatInt(int64(typed), 10)
	case int32:
		return strconv.FormatInt(int64(typed), 10)
	case int64:
		return strconv.FormatInt(typed, 10)
	case uint:
		return strconv.FormatUint(uint64(typed), 10)
	case uint8:
		return strconv.FormatUint(uint64(typed), 10)
	case uint16:
		return strconv.FormatUint(uint64(typed), 10)
	case uint32:
		return strconv.FormatUint(uint64(typed), 10)
	case uint64:
		return strconv.FormatUint(typed, 10)
	case float32:
		return strconv.FormatFloat(float64(typed), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nullToken
		}

		return FormatValue(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		return formatSequence(rv)
	case reflect.String:
		return quote(rv.String())
	case reflect.Bool:
		return quote(strconv.FormatBool(rv.Bool()))
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.Float32:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 32)
	case reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 64)
	default:
		return fmt.Sprint(value)
	}
}

func formatSequence(rv reflect.Value) string {
	if rv.Kind() == reflect.Slice && rv.IsNil() {
		return ""
	}

	elements := make([]string, 0, rv.Len())
	for i := range rv.Len() {
		elements = append(elements, FormatElement(rv.Index(i).Interface()))
	}

	return strings.Join(elements, ",")
}

// FormatElement renders one element of a sequence. Elements are always quoted
// except for null.
func FormatElement(value any) string {
	rendered := FormatValue(value)
	if rendered == nullToken || strings.HasPrefix(rendered, "'") {
		return rendered
	}

	return quote(rendered)
}

// FormatDuration renders d as [-][d.]hh:mm:ss[.fffffff].
func FormatDuration(d time.Duration) string {
	var sb strings.Builder

	// The magnitude is kept unsigned so math.MinInt64 does not overflow.
	magnitude := uint64(d)
	if d < 0 {
		sb.WriteByte('-')

		magnitude = uint64(-(d + 1)) + 1
	}

	const (
		second = uint64(time.Second)
		minute = uint64(time.Minute)
		hour   = uint64(time.Hour)
		day    = 24 * hour
	)

	days := magnitude / day
	magnitude %= day
	hours := magnitude / hour
	magnitude %= hour
	minutes := magnitude / minute
	magnitude %= minute
	seconds := magnitude / second
	magnitude %= second

	if days > 0 {
		sb.WriteString(strconv.FormatUint(days, 10))
		sb.WriteByte('.')
	}

	fmt.Fprintf(&sb, "%02d:%02d:%02d", hours, minutes, seconds)

	// 100ns ticks
	if ticks := magnitude / 100; ticks > 0 {
		fmt.Fprintf(&sb, ".%07d", ticks)
	}

	return sb.String()
}

func quote(s string) string {
	return "'" + s + "'"
}
