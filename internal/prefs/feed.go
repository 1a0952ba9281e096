package prefs

import (
	"log"

	"github.com/fentz26/taskboard/internal/feed"
)

type searchFilterJSON struct {
	Column *string `json:"column"`
	Value  *string `json:"value"`
}

// sortConfigJSON mirrors the stored shape, where either field may be null.
type sortConfigJSON struct {
	Key       *string `json:"key"`
	Direction *string `json:"direction"`
}

// LoadSearchFilter returns the stored filter, or the default filter when the
// entry is missing, malformed or names an unknown column.
func (f *File) LoadSearchFilter() feed.SearchFilter {
	var v searchFilterJSON
	if !f.Get(KeySearchFilter, &v) || v.Column == nil || v.Value == nil || !feed.ValidColumn(*v.Column) {
		return feed.DefaultSearchFilter
	}
	return feed.SearchFilter{Column: *v.Column, Value: *v.Value}
}

// LoadSortConfig returns the stored sort order, or no sort when the entry is
// missing or malformed. Both fields must be present; each may be null.
func (f *File) LoadSortConfig() feed.SortConfig {
	var v map[string]*string
	if !f.Get(KeySortConfig, &v) {
		return feed.SortConfig{}
	}
	key, hasKey := v["key"]
	dir, hasDir := v["direction"]
	if !hasKey || !hasDir {
		return feed.SortConfig{}
	}

	var c feed.SortConfig
	if key != nil {
		if !feed.ValidColumn(*key) {
			return feed.SortConfig{}
		}
		c.Key = *key
	}
	if dir != nil {
		switch d := feed.SortDirection(*dir); d {
		case feed.SortAsc, feed.SortDesc:
			c.Direction = d
		default:
			return feed.SortConfig{}
		}
	}
	return c
}

// SaveSearchFilter stores sf. The default filter removes the entry.
func (f *File) SaveSearchFilter(sf feed.SearchFilter) error {
	if sf == feed.DefaultSearchFilter {
		return f.Delete(KeySearchFilter)
	}
	return f.Set(KeySearchFilter, searchFilterJSON{Column: &sf.Column, Value: &sf.Value})
}

// SaveSortConfig stores c. An inactive sort removes the entry.
func (f *File) SaveSortConfig(c feed.SortConfig) error {
	if !c.Active() {
		return f.Delete(KeySortConfig)
	}
	dir := string(c.Direction)
	return f.Set(KeySortConfig, sortConfigJSON{Key: &c.Key, Direction: &dir})
}

// Bind applies the stored preferences to s and saves them whenever the
// search filter or sort order of s changes. Save failures are logged.
func Bind(f *File, s *feed.Store) {
	if err := s.SetSearchFilter(f.LoadSearchFilter()); err != nil {
		log.Printf("prefs: %v", err)
	}
	if err := s.SetSortConfig(f.LoadSortConfig()); err != nil {
		log.Printf("prefs: %v", err)
	}

	s.Observe(func(c feed.Change) {
		if c&feed.ChangeQuery == 0 {
			return
		}
		if err := f.SaveSearchFilter(s.SearchFilter()); err != nil {
			log.Printf("prefs: save search filter: %v", err)
		}
		if err := f.SaveSortConfig(s.SortConfig()); err != nil {
			log.Printf("prefs: save sort config: %v", err)
		}
	})
}
