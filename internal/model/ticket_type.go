package model

// TicketType is a priced category of seats (e.g. VIP, Standard). Names
// are unique and prices are stored with two decimals.
type TicketType struct {
	ID    uint64  `json:"id"`    // ticket_types.id
	Name  string  `json:"name"`  // ticket_types.name
	Price float64 `json:"price"` // ticket_types.price
}
