// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package region holds the static country/state/county hierarchy. The tree
// is embedded at compile time and immutable at runtime; a flat by-code
// index is derived once at load. Unknown codes resolve to a not-found
// result, never an error — callers translate that to a 404.
package region

import (
	"embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

//go:embed data/regions.json
var embedded embed.FS

// ParentRef is a lightweight reference to an ancestor region, ordered
// child-to-root on the owning Region.
type ParentRef struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// City is a populated place used for hotspot address resolution.
type City struct {
	Name       string `json:"name"`
	StateCode  string `json:"stateCode"`
	CountyCode string `json:"countyCode"`
}

// Region is one node of the hierarchy. County records are synthesized from
// their parent state's subregion list and inherit the state's features.
type Region struct {
	Code       string      `json:"code"`
	Name       string      `json:"name"`
	Features   []string    `json:"features,omitempty"`
	Parents    []ParentRef `json:"parents,omitempty"`
	Subregions []ParentRef `json:"subregions,omitempty"`
}

// DetailedName joins the region name with its ancestors' names,
// e.g. "Pickaway County, Ohio, United States".
func (r *Region) DetailedName() string {
	parts := []string{r.Name}
	for _, p := range r.Parents {
		parts = append(parts, p.Name)
	}
	return strings.Join(parts, ", ")
}

// node mirrors the JSON shape of the embedded data file.
type node struct {
	Code       string   `json:"code"`
	Name       string   `json:"name"`
	Features   []string `json:"features"`
	Subregions []node   `json:"subregions"`
	Cities     []City   `json:"cities"`
}

// Registry resolves region codes against the loaded hierarchy.
type Registry struct {
	byCode    map[string]*Region
	cities    map[string][]City // keyed by state code
	countries []*Region
}

// Load parses the embedded hierarchy file and builds the registry.
func Load() (*Registry, error) {
	data, err := embedded.ReadFile("data/regions.json")
	if err != nil {
		return nil, fmt.Errorf("region data read: %w", err)
	}
	return NewRegistry(data)
}

// NewRegistry builds a registry from raw JSON. Exposed so tests can load
// a small fixture tree.
func NewRegistry(data []byte) (*Registry, error) {
	var countries []node
	if err := json.Unmarshal(data, &countries); err != nil {
		return nil, fmt.Errorf("region data parse: %w", err)
	}

	reg := &Registry{
		byCode: make(map[string]*Region),
		cities: make(map[string][]City),
	}

	for _, cn := range countries {
		country := &Region{Code: cn.Code, Name: cn.Name, Features: cn.Features}
		for _, sn := range cn.Subregions {
			country.Subregions = append(country.Subregions, ParentRef{Code: sn.Code, Name: sn.Name})

			state := &Region{
				Code:     sn.Code,
				Name:     sn.Name,
				Features: sn.Features,
				Parents:  []ParentRef{{Code: country.Code, Name: country.Name}},
			}
			for _, kn := range sn.Subregions {
				state.Subregions = append(state.Subregions, ParentRef{Code: kn.Code, Name: kn.Name})

				// Counties carry the state's features and a
				// child-to-root parents chain.
				county := &Region{
					Code:     kn.Code,
					Name:     kn.Name,
					Features: sn.Features,
					Parents: []ParentRef{
						{Code: state.Code, Name: state.Name},
						{Code: country.Code, Name: country.Name},
					},
				}
				if !strings.HasPrefix(kn.Code, sn.Code+"-") {
					return nil, fmt.Errorf("county %q is not under state %q", kn.Code, sn.Code)
				}
				reg.byCode[county.Code] = county
			}
			if len(sn.Cities) > 0 {
				reg.cities[state.Code] = sn.Cities
			}
			reg.byCode[state.Code] = state
		}
		reg.byCode[country.Code] = country
		reg.countries = append(reg.countries, country)
	}

	return reg, nil
}

// Get resolves a code at any level. The second return is false for codes
// not present in the hierarchy.
func (reg *Registry) Get(code string) (*Region, bool) {
	r, ok := reg.byCode[code]
	return r, ok
}

// StateByCode returns the state record for a two-segment code.
func (reg *Registry) StateByCode(code string) (*Region, bool) {
	r, ok := reg.byCode[code]
	if !ok || len(strings.Split(code, "-")) != 2 {
		return nil, false
	}
	return r, true
}

// CountyByCode returns the county record for a three-segment code.
func (reg *Registry) CountyByCode(code string) (*Region, bool) {
	r, ok := reg.byCode[code]
	if !ok || len(strings.Split(code, "-")) != 3 {
		return nil, false
	}
	return r, true
}

// Cities returns the known cities of a state, or nil.
func (reg *Registry) Cities(stateCode string) []City {
	return reg.cities[stateCode]
}

// Countries returns the top-level regions in file order.
func (reg *Registry) Countries() []*Region {
	return reg.countries
}

// All returns every region sorted by code. Used by the public v1 regions
// endpoint.
func (reg *Registry) All() []*Region {
	out := make([]*Region, 0, len(reg.byCode))
	for _, r := range reg.byCode {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}
