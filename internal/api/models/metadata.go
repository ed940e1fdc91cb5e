package models

// Metadata describes the accepted inputs of the route endpoints.
type Metadata struct {
	Filters          []FilterInfo     `json:"filters"`
	RequestModes     []string         `json:"request_modes"`
	QueryParams      []QueryParam     `json:"query_params"`
	CoordinateBounds CoordinateBounds `json:"coordinate_bounds"`
	TransportMethods []string         `json:"transport_methods"`
}

// FilterInfo is one route preference filter.
type FilterInfo struct {
	Value int    `json:"value"`
	Name  string `json:"name"`
}

// QueryParam describes an optional query-string parameter.
type QueryParam struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Required bool   `json:"required"`
	Nullable bool   `json:"nullable"`
}

// CoordinateBounds are the accepted coordinate ranges.
type CoordinateBounds struct {
	Latitude  Range `json:"latitude"`
	Longitude Range `json:"longitude"`
}

// Range is an inclusive numeric range.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}
