package worker

// EventSubscriber registers dispatcher handlers.
type EventSubscriber interface {
	RegisterHandlers()
}

// StartEventSubscribers wires event-driven services to the dispatcher.
func StartEventSubscribers(subscribers ...EventSubscriber) {
	for _, s := range subscribers {
		if s != nil {
			s.RegisterHandlers()
		}
	}
}
