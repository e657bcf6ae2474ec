package di

// contextualTarget is what a contextual binding substitutes: either another
// identifier or a producer function.
type contextualTarget struct {
	identifier string
	factory    Factory
}

// ContextualBinding is the fluent builder for contextual overrides:
//
//	c.When("app.ReportService").Needs(TypeKey[Mailer]()).Give("app.SMTPMailer")
//
// The override applies only while the container is building the recorded
// consumer; resolving the needed identifier directly still returns the
// default binding.
type ContextualBinding struct {
	container *container
	consumer  string
	needs     string
}

// Needs records the identifier the consumer asks for.
func (b *ContextualBinding) Needs(identifier string) *ContextualBinding {
	b.needs = identifier

	return b
}

// Give records the substitution target: a string identifier aliasing another
// binding, a Factory producer, or a constant value.
func (b *ContextualBinding) Give(target any) *ContextualBinding {
	var ct contextualTarget

	switch t := target.(type) {
	case string:
		ct.identifier = t
	case Factory:
		ct.factory = t
	case func(Container) (any, error):
		ct.factory = t
	default:
		value := target
		ct.factory = func(Container) (any, error) { return value, nil }
	}

	b.container.mu.Lock()
	defer b.container.mu.Unlock()

	overrides := b.container.contextual[b.consumer]
	if overrides == nil {
		overrides = make(map[string]contextualTarget)
		b.container.contextual[b.consumer] = overrides
	}

	overrides[b.needs] = ct

	return b
}

// contextualFor looks up an override for (consumer, needed).
func (c *container) contextualFor(consumer, needed string) (contextualTarget, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	overrides, ok := c.contextual[consumer]
	if !ok {
		return contextualTarget{}, false
	}

	target, ok := overrides[needed]

	return target, ok
}
