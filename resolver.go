package markupmsg

// Resolver turns a framework tag into a component. Resolve reports false for
// tags it does not own so the next resolver in the chain can try; an error
// aborts processing of the whole page.
type Resolver interface {
	Resolve(container *MarkupContainer, stream *MarkupStream, tag *Tag) (bool, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(container *MarkupContainer, stream *MarkupStream, tag *Tag) (bool, error)

// Resolve implements Resolver.
func (f ResolverFunc) Resolve(container *MarkupContainer, stream *MarkupStream, tag *Tag) (bool, error) {
	return f(container, stream, tag)
}

// Registry is the resolver chain, tried in registration order.
type Registry struct {
	resolvers []Resolver
}

func NewRegistry() *Registry {
	return &Registry{}
}

// NewDefaultRegistry returns a chain holding the message resolver, switched
// on or off by s.MessagesEnabled.
func NewDefaultRegistry(s Settings) *Registry {
	r := NewRegistry()
	r.Register(NewMessageResolver(s.MessagesEnabled))
	return r
}

func (r *Registry) Register(res Resolver) {
	if res == nil {
		return
	}
	r.resolvers = append(r.resolvers, res)
}

// Len returns the number of registered resolvers.
func (r *Registry) Len() int { return len(r.resolvers) }

// Resolve offers tag to each resolver until one handles it or fails.
func (r *Registry) Resolve(container *MarkupContainer, stream *MarkupStream, tag *Tag) (bool, error) {
	for _, res := range r.resolvers {
		handled, err := res.Resolve(container, stream, tag)
		if err != nil {
			return false, err
		}
		if handled {
			return true, nil
		}
	}
	return false, nil
}
