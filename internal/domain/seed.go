package domain

import "time"

// DefaultAreas is the West Province hierarchy used when no other reference data is loaded
func DefaultAreas() []Area {
	return []Area{
		{ID: "state-01", Name: "West Province", Type: AreaState, Population: 5000000},
		{ID: "dist-01", Name: "Capital District", Type: AreaDistrict, ParentID: "state-01", Population: 2000000},
		{ID: "dist-02", Name: "Coastal District", Type: AreaDistrict, ParentID: "state-01", Population: 1500000},
		{ID: "city-01", Name: "Metro City", Type: AreaCity, ParentID: "dist-01", Population: 1200000},
		{ID: "city-02", Name: "Old Town", Type: AreaCity, ParentID: "dist-01", Population: 800000},
		{ID: "city-03", Name: "Port Hub", Type: AreaCity, ParentID: "dist-02", Population: 900000},
		{ID: "city-04", Name: "Beach Town", Type: AreaCity, ParentID: "dist-02", Population: 600000},
	}
}

// DefaultMedicines seeds the inventory store on first start
func DefaultMedicines(now time.Time) []Medicine {
	return []Medicine{
		{ID: "1", Name: "Amoxicillin", Category: "Antibiotic", Stock: 12000, CriticalThreshold: 5000, Expiry: "2025-10-01", LastStockUpdate: now},
		{ID: "2", Name: "Paracetamol", Category: "Analgesic", Stock: 50000, CriticalThreshold: 10000, Expiry: "2026-01-15", LastStockUpdate: now},
		{ID: "3", Name: "Tamiflu", Category: "Antiviral", Stock: 2000, CriticalThreshold: 3000, Expiry: "2024-12-01", LastStockUpdate: now},
		{ID: "4", Name: "ORS Packets", Category: "Hydration", Stock: 8000, CriticalThreshold: 4000, Expiry: "2026-05-20", LastStockUpdate: now},
	}
}

// DefaultSuppliers seeds the supplier store on first start
func DefaultSuppliers() []Supplier {
	return []Supplier{
		{ID: "sup-01", Name: "Global Pharma Corp", Location: "Metropolis", Capacity: map[string]int{"1": 1000, "2": 5000}},
	}
}
