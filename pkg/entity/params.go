package entity

import (
	"slices"
	"strings"
)

// ParentIdListParam is the search parameter carrying ids of ancestors.
const ParentIdListParam = "_parentIdList"

// SearchParams are query conditions.
//
// Keys starting with "_" are internal. They are not sent to the server.
type SearchParams map[string]any

// IsInternal reports the key is not to be sent to the server.
func IsInternal(key string) bool {
	return strings.HasPrefix(key, "_")
}

// ParentIds returns ids of ancestors in the parameters.
func (p SearchParams) ParentIds() []string {
	ids, _ := p[ParentIdListParam].([]string)
	return slices.Clone(ids)
}

// With returns a copy of p with key set to value.
func (p SearchParams) With(key string, value any) SearchParams {
	c := make(SearchParams, len(p)+1)
	for k, v := range p {
		c[k] = v
	}
	c[key] = value
	return c
}

// WithParentIds returns a copy of p scoped under the ancestors.
func (p SearchParams) WithParentIds(ids ...string) SearchParams {
	return p.With(ParentIdListParam, slices.Clone(ids))
}
