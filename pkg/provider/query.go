package provider

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/opst/sciportal/pkg/entity"
)

// Query encodes search parameters into a query string.
//
// Internal parameters (starting with "_") and nil are omitted.
// Slices become repeated keys. Times are formatted in RFC 3339.
func Query(params entity.SearchParams) url.Values {
	q := url.Values{}
	for k, v := range params {
		if entity.IsInternal(k) {
			continue
		}
		switch vv := v.(type) {
		case nil:
		case []string:
			for _, s := range vv {
				q.Add(k, s)
			}
		case []any:
			for _, s := range vv {
				q.Add(k, queryValue(s))
			}
		default:
			q.Add(k, queryValue(v))
		}
	}
	return q
}

func queryValue(v any) string {
	switch vv := v.(type) {
	case string:
		return vv
	case bool:
		return strconv.FormatBool(vv)
	case time.Time:
		return vv.Format(time.RFC3339)
	case *time.Time:
		return vv.Format(time.RFC3339)
	case fmt.Stringer:
		return vv.String()
	}
	return fmt.Sprint(v)
}
