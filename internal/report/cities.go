package report

import (
	"errors"
	"fmt"
	"strings"
)

// City identifies one of the fixed service areas a report can be uploaded for.
type City string

const (
	NoviSad   City = "novi_sad"
	Sombor    City = "sombor"
	Vrsac     City = "vrsac"
	Zrenjanin City = "zrenjanin"
	Vrbas     City = "vrbas"
	Kikinda   City = "kikinda"
)

// DefaultCity is shown when the dashboard opens.
const DefaultCity = NoviSad

// Cities lists every known city in tab order.
var Cities = []City{NoviSad, Sombor, Vrsac, Zrenjanin, Vrbas, Kikinda}

var cityNames = map[City]string{
	NoviSad:   "Novi Sad",
	Sombor:    "Sombor",
	Vrsac:     "Vršac",
	Zrenjanin: "Zrenjanin",
	Vrbas:     "Vrbas",
	Kikinda:   "Kikinda",
}

var ErrUnknownCity = errors.New("unknown city")

// ParseCity lower-cases s and checks it against the known cities.
func ParseCity(s string) (City, error) {
	c := City(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("%w: %s", ErrUnknownCity, s)
	}
	return c, nil
}

func (c City) Valid() bool {
	_, ok := cityNames[c]
	return ok
}

// DisplayName is the human readable city name, or the raw id for unknown
// cities.
func (c City) DisplayName() string {
	if name, ok := cityNames[c]; ok {
		return name
	}
	return string(c)
}
