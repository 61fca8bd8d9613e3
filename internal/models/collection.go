package models

// Collection is an immutable snapshot of the ticket collection in arrival
// order, indexed by ticket ID.
type Collection struct {
	tickets []Ticket
	index   map[string]int
}

// NewCollection builds a collection from tickets in arrival order. When an
// ID occurs more than once only the first occurrence is kept.
func NewCollection(tickets []Ticket) Collection {
	c := Collection{
		tickets: make([]Ticket, 0, len(tickets)),
		index:   make(map[string]int, len(tickets)),
	}
	for _, t := range tickets {
		if _, dup := c.index[t.ID]; dup {
			continue
		}
		c.index[t.ID] = len(c.tickets)
		c.tickets = append(c.tickets, t)
	}
	return c
}

// Len returns the number of tickets.
func (c Collection) Len() int {
	return len(c.tickets)
}

// At returns the ticket at position i.
func (c Collection) At(i int) Ticket {
	return c.tickets[i]
}

// Tickets returns a copy of the tickets in arrival order.
func (c Collection) Tickets() []Ticket {
	out := make([]Ticket, len(c.tickets))
	copy(out, c.tickets)
	return out
}

// Lookup returns the ticket with the given ID.
func (c Collection) Lookup(id string) (Ticket, bool) {
	i, ok := c.index[id]
	if !ok {
		return Ticket{}, false
	}
	return c.tickets[i], true
}

// IndexOf returns the position of the ticket with the given ID, or -1.
func (c Collection) IndexOf(id string) int {
	if i, ok := c.index[id]; ok {
		return i
	}
	return -1
}
