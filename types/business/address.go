package business

// Address is a plain postal address record used for both order ship/bill
// addresses and stock location origins.
type Address struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	Region     string `json:"region"`
	Country    string `json:"country"`
	PostalCode string `json:"postal_code"`
}

// Coordinates is a latitude/longitude pair for single-jurisdiction tax
// estimates.
type Coordinates struct {
	Latitude  string `json:"latitude"`
	Longitude string `json:"longitude"`
}
