package model

// Coordinates is a WGS84 position
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// BusinessRecord is one generated business entry
type BusinessRecord struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Category     string       `json:"category"`
	Address      string       `json:"address"`
	Phone        string       `json:"phone,omitempty"`
	Website      string       `json:"website,omitempty"`
	Rating       *float64     `json:"rating,omitempty"`
	ReviewCount  *int         `json:"reviewCount,omitempty"`
	OpeningHours string       `json:"openingHours,omitempty"`
	Coordinates  *Coordinates `json:"coordinates,omitempty"`
}

// Clone returns a deep copy of the record
func (b BusinessRecord) Clone() BusinessRecord {
	b.Rating = clonePtr(b.Rating)
	b.ReviewCount = clonePtr(b.ReviewCount)
	b.Coordinates = clonePtr(b.Coordinates)
	return b
}
