package service

// Topic names the part of the state that changed
type Topic string

const (
	TopicCart     Topic = "cart"
	TopicSaved    Topic = "saved"
	TopicWishlist Topic = "wishlist"
	TopicSession  Topic = "session"
	TopicUsers    Topic = "users"
	TopicReviews  Topic = "reviews"
	TopicCatalog  Topic = "catalog"
	TopicCheckout Topic = "checkout"
)

// Change is delivered to listeners after a mutation has been persisted
type Change struct {
	Topic     Topic `json:"topic"`
	CartCount int   `json:"cart_count"`
}

// Listener reacts to state changes
type Listener func(Change)

// Notifier fans state changes out to the rendering layer
type Notifier struct {
	listeners []Listener
}

// NewNotifier creates a notifier with no listeners
func NewNotifier() *Notifier {
	return &Notifier{}
}

// Subscribe registers l for every future change
func (n *Notifier) Subscribe(l Listener) {
	n.listeners = append(n.listeners, l)
}

// Publish delivers c to every listener in subscription order
func (n *Notifier) Publish(c Change) {
	for _, l := range n.listeners {
		l(c)
	}
}
