package geo

import (
	"sort"
	"strings"
)

// Point is a WGS84 coordinate pair.
type Point struct {
	Lat float64
	Lon float64
}

// stateCentroids maps canonical region names to a representative interior
// point. Entries cover the states and union territories appearing in CPCB
// monitoring exports, including pre-2019 names such as JAMMU & KASHMIR
// alongside LADAKH.
var stateCentroids = map[string]Point{
	"ANDHRA PRADESH":            {15.9129, 79.7400},
	"ARUNACHAL PRADESH":         {28.2180, 94.7278},
	"ASSAM":                     {26.2006, 92.9376},
	"BIHAR":                     {25.0961, 85.3131},
	"CHHATTISGARH":              {21.2787, 81.8661},
	"GOA":                       {15.2993, 74.1240},
	"GUJARAT":                   {22.2587, 71.1924},
	"HARYANA":                   {29.0588, 76.0856},
	"HIMACHAL PRADESH":          {31.1048, 77.1734},
	"JHARKHAND":                 {23.6102, 85.2799},
	"KARNATAKA":                 {15.3173, 75.7139},
	"KERALA":                    {10.8505, 76.2711},
	"MADHYA PRADESH":            {22.9734, 78.6569},
	"MAHARASHTRA":               {19.7515, 75.7139},
	"MANIPUR":                   {24.6637, 93.9063},
	"MEGHALAYA":                 {25.4670, 91.3662},
	"MIZORAM":                   {23.1645, 92.9376},
	"NAGALAND":                  {26.1584, 94.5624},
	"ODISHA":                    {20.9517, 85.0985},
	"PUNJAB":                    {31.1471, 75.3412},
	"RAJASTHAN":                 {27.0238, 74.2179},
	"SIKKIM":                    {27.5330, 88.5122},
	"TAMIL NADU":                {11.1271, 78.6569},
	"TELANGANA":                 {18.1124, 79.0193},
	"TRIPURA":                   {23.9408, 91.9882},
	"UTTAR PRADESH":             {26.8467, 80.9462},
	"UTTARAKHAND":               {30.0668, 79.0193},
	"WEST BENGAL":               {22.9868, 87.8550},
	"DAMAN & DIU":               {20.3974, 72.8328},
	"DADRA & NAGAR HAVELI":      {20.1809, 73.0169},
	"DELHI":                     {28.7041, 77.1025},
	"JAMMU & KASHMIR":           {33.7782, 76.5762},
	"LADAKH":                    {34.1526, 77.5771},
	"LAKSHADWEEP":               {10.5667, 72.6417},
	"PUDUCHERRY":                {11.9416, 79.8083},
	"ANDAMAN & NICOBAR ISLANDS": {11.7401, 92.6586},
	"CHANDIGARH":                {30.7333, 76.7794},
}

// CanonicalRegion normalizes a raw state cell for table lookup.
func CanonicalRegion(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// Lookup resolves a raw region name to its centroid. The second return is
// false when the name is not in the gazetteer.
func Lookup(raw string) (Point, bool) {
	p, ok := stateCentroids[CanonicalRegion(raw)]
	return p, ok
}

// Regions returns every known canonical region name in sorted order.
func Regions() []string {
	names := make([]string, 0, len(stateCentroids))
	for name := range stateCentroids {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
