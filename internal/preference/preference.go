// Package preference picks one hash among the regional variants of a game.
package preference

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	"github.com/JohnDeved/rahash/internal/util"
)

// ErrNoCandidates is returned when there is nothing to choose from.
var ErrNoCandidates = errors.New("no region candidates")

// Candidate is one hash variant of a game.
type Candidate struct {
	Hash string `json:"hash"`
	Name string `json:"name"`
}

// Region groups the candidates released under one region code.
type Region struct {
	Code       string
	Candidates []Candidate
}

// RegionMap maps region codes to candidates, keeping insertion order.
// It encodes to and from a JSON object.
type RegionMap []Region

// Get returns the candidates for code, compared case-insensitively.
func (m RegionMap) Get(code string) ([]Candidate, bool) {
	for _, r := range m {
		if strings.EqualFold(r.Code, code) {
			return r.Candidates, true
		}
	}
	return nil, false
}

// Add appends c under code, creating the region at the end if needed.
func (m *RegionMap) Add(code string, c Candidate) {
	for i := range *m {
		if (*m)[i].Code == code {
			(*m)[i].Candidates = append((*m)[i].Candidates, c)
			return
		}
	}
	*m = append(*m, Region{Code: code, Candidates: []Candidate{c}})
}

// Codes lists region codes in order.
func (m RegionMap) Codes() []string {
	out := make([]string, len(m))
	for i, r := range m {
		out[i] = r.Code
	}
	return out
}

// MarshalJSON encodes the map as an object in region order.
func (m RegionMap) MarshalJSON() ([]byte, error) {
	w := util.NewObjectWriter()
	for _, r := range m {
		cands := r.Candidates
		if cands == nil {
			cands = []Candidate{}
		}
		w.Field(r.Code, cands)
	}
	return w.Bytes()
}

// UnmarshalJSON decodes an object, keeping member order.
func (m *RegionMap) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	var out RegionMap
	err := util.WalkObject(dec, func(code string) error {
		var cands []Candidate
		if err := dec.Decode(&cands); err != nil {
			return err
		}
		out = append(out, Region{Code: code, Candidates: cands})
		return nil
	})
	if err != nil {
		return err
	}
	*m = out
	return nil
}

// Order is a region priority list, highest first. Its codes double as the
// tokens searched for in candidate names.
type Order []string

// DefaultOrder is ES > USA > WORLD > EUROPE > JPN.
var DefaultOrder = Order{"ES", "USA", "WORLD", "EUROPE", "JPN"}

// Selection is the outcome of Select.
type Selection struct {
	Region    string    `json:"region"`
	Candidate Candidate `json:"candidate"`
	// Preferred is false when no candidate name carried a preference token
	// and the first candidate was taken by default.
	Preferred bool `json:"preferred"`
}

// Select picks a region, then a candidate within it.
//
// The region is the first code of order present in m, or the first region
// of m if none is. Within it, the first candidate whose name contains any
// code of order (ignoring case) wins; failing that, the first candidate.
func Select(m RegionMap, order Order) (Selection, error) {
	if len(m) == 0 {
		return Selection{}, ErrNoCandidates
	}
	if order == nil {
		order = DefaultOrder
	}

	region := m[0]
	for _, code := range order {
		if i := m.index(code); i >= 0 {
			region = m[i]
			break
		}
	}
	if len(region.Candidates) == 0 {
		return Selection{}, ErrNoCandidates
	}

	for _, c := range region.Candidates {
		name := strings.ToUpper(c.Name)
		for _, token := range order {
			token = strings.TrimSpace(token)
			if token != "" && strings.Contains(name, strings.ToUpper(token)) {
				return Selection{Region: region.Code, Candidate: c, Preferred: true}, nil
			}
		}
	}
	return Selection{Region: region.Code, Candidate: region.Candidates[0]}, nil
}

func (m RegionMap) index(code string) int {
	for i, r := range m {
		if strings.EqualFold(r.Code, code) {
			return i
		}
	}
	return -1
}
