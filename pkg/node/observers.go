package node

// Event names an invalidation notification.
type Event int

const (
	DrawInvalidated Event = iota
	BoundingBoxInvalidated
	TotalInvalidated
	TransformationInvalidated
)

func eventOf(t Tier) Event {
	switch t {
	case TierBoundingBox:
		return BoundingBoxInvalidated
	case TierTotal:
		return TotalInvalidated
	case TierTransformation:
		return TransformationInvalidated
	default:
		return DrawInvalidated
	}
}

// ObserverID identifies a registered callback for Off.
type ObserverID int

type observer struct {
	id    ObserverID
	event Event
	fn    func(Node)
}

type observers struct {
	next ObserverID
	list []observer
}

func (o *observers) add(ev Event, fn func(Node)) ObserverID {
	o.next++
	o.list = append(o.list, observer{id: o.next, event: ev, fn: fn})
	return o.next
}

func (o *observers) remove(id ObserverID) {
	for i, ob := range o.list {
		if ob.id == id {
			o.list = append(o.list[:i], o.list[i+1:]...)
			return
		}
	}
}

func (o *observers) emit(ev Event, n Node) {
	// Callbacks may unsubscribe while we iterate.
	list := append([]observer(nil), o.list...)
	for _, ob := range list {
		if ob.event == ev {
			ob.fn(n)
		}
	}
}
