package testutil

import "github.com/mobil-koeln/tickets/internal/models"

// Sample tickets used across tests

// AliceTicket is an open ticket in building A
var AliceTicket = models.Ticket{
	ID:       "t0",
	Names:    "Alice",
	Location: "Bldg A",
	Issue:    "No power",
}

// BobTicket is an open ticket in room 2
var BobTicket = models.Ticket{
	ID:       "t1",
	Names:    "Bob",
	Location: "Rm 2",
	Issue:    "Leak",
}

// CarolTicket is an open ticket in the lobby
var CarolTicket = models.Ticket{
	ID:       "t2",
	Names:    "Carol, Dave",
	Location: "Lobby",
	Issue:    "Door stuck",
}

// SampleTickets returns the sample tickets in arrival order.
func SampleTickets() []models.Ticket {
	return []models.Ticket{AliceTicket, BobTicket, CarolTicket}
}

// SampleCollection returns the sample tickets as a collection.
func SampleCollection() models.Collection {
	return models.NewCollection(SampleTickets())
}

// CollectionOf builds a collection from the given tickets.
func CollectionOf(tickets ...models.Ticket) models.Collection {
	return models.NewCollection(tickets)
}

// SampleImportYAML is a valid ticket import file
const SampleImportYAML = `- names: Alice
  location: Bldg A
  issue: No power
- names: Bob
  location: Rm 2
  issue: Leak
`

// InvalidImportYAML has a ticket without a location
const InvalidImportYAML = `- names: Alice
  location: Bldg A
  issue: No power
- names: Bob
  location: "  "
  issue: Leak
`
