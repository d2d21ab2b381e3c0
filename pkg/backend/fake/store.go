package fake

import (
	"fmt"
	"maps"
	"strconv"
	"strings"
	"sync"
)

// store keeps items in memory, by concrete collection paths.
type store struct {
	mu     sync.Mutex
	items  map[string][]map[string]any
	nextId map[string]int
	files  map[string][]byte
}

func newStore(conf Config) *store {
	s := &store{
		items:  map[string][]map[string]any{},
		nextId: map[string]int{},
		files:  map[string][]byte{},
	}
	for collection, items := range conf.Data {
		collection = strings.Trim(collection, "/")
		for _, item := range items {
			s.items[collection] = append(s.items[collection], maps.Clone(item))
			if id, err := strconv.Atoi(fmt.Sprint(item["id"])); err == nil && s.nextId[collection] <= id {
				s.nextId[collection] = id + 1
			}
		}
	}
	return s
}

func (s *store) issueId(collection string) int {
	id := max(s.nextId[collection], 1)
	s.nextId[collection] = id + 1
	return id
}

// find returns the index of the item identified by lookup in collection.
//
// s.mu should be locked.
func (s *store) find(collection string, lookupField string, lookup string) (int, bool) {
	for i, item := range s.items[collection] {
		if fmt.Sprint(item["id"]) == lookup {
			return i, true
		}
		if lookupField != "" && fmt.Sprint(item[lookupField]) == lookup {
			return i, true
		}
	}
	return -1, false
}

// collectionsOf returns concrete collections of the template with parent ids.
//
// s.mu should be locked.
func (s *store) collectionsOf(template string) map[string][]string {
	ret := map[string][]string{}
	for collection := range s.items {
		if ids, ok := matchTemplate(template, collection); ok {
			ret[collection] = ids
		}
	}
	return ret
}

// matchTemplate matches a concrete path against a template and extracts ids.
func matchTemplate(template string, concrete string) ([]string, bool) {
	ts := strings.Split(template, "/")
	cs := strings.Split(concrete, "/")
	if len(ts) != len(cs) {
		return nil, false
	}
	ids := []string{}
	for i := range ts {
		if ts[i] == placeholder {
			ids = append(ids, cs[i])
			continue
		}
		if ts[i] != cs[i] {
			return nil, false
		}
	}
	return ids, true
}

// concrete replaces placeholders in the template with ids.
func concrete(template string, ids []string) (string, error) {
	segs := strings.Split(template, "/")
	n := 0
	for i, s := range segs {
		if s != placeholder {
			continue
		}
		if len(ids) <= n {
			return "", fmt.Errorf("%s needs more ids than %v", template, ids)
		}
		segs[i] = ids[n]
		n += 1
	}
	return strings.Join(segs, "/"), nil
}
