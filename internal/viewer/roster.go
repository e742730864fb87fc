package viewer

// roster tracks the clients watching a session. It is owned by the session goroutine.
type roster struct {
	clients map[string]*Client
}

func newRoster() *roster {
	return &roster{clients: make(map[string]*Client)}
}

func (r *roster) add(c *Client) { r.clients[c.ID] = c }

// remove detaches c and closes its send queue. It reports whether c was attached.
func (r *roster) remove(c *Client) bool {
	if _, ok := r.clients[c.ID]; !ok {
		return false
	}
	delete(r.clients, c.ID)
	close(c.send)
	return true
}

func (r *roster) len() int { return len(r.clients) }

func (r *roster) broadcast(msg *Message) {
	for _, c := range r.clients {
		c.Send(msg)
	}
}

func (r *roster) closeAll() {
	for id, c := range r.clients {
		delete(r.clients, id)
		close(c.send)
	}
}

func (r *roster) viewersMessage() *Message {
	p := ViewersPayload{Count: len(r.clients)}
	for _, c := range r.clients {
		if c.Controller {
			p.Controllers++
		}
	}
	return newMessage(TypeViewers, p)
}
