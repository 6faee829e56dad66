package domain

// Supplier is a medicine supplier with its committed daily capacity per medicine ID
type Supplier struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Location string         `json:"location"`
	Capacity map[string]int `json:"capacity"`
}

// Clone returns a copy that does not share the capacity map
func (s Supplier) Clone() Supplier {
	capacity := make(map[string]int, len(s.Capacity))
	for k, v := range s.Capacity {
		capacity[k] = v
	}
	s.Capacity = capacity
	return s
}
