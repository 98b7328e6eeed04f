package displayname

import (
	"slices"

	"github.com/Sumatoshi-tech/displayname/pkg/jsast"
)

// inject classifies class and inserts the displayName property when it qualifies.
func (t *Transformer) inject(class *jsast.Class, name string) Outcome {
	if !IsComponent(class) {
		return OutcomeNotComponent
	}

	if HasDisplayName(class) {
		return OutcomeAlreadyNamed
	}

	class.Members = slices.Insert(class.Members, 0, jsast.Member(NewDisplayName(name)))

	return OutcomeInjected
}

// IsComponent reports whether the class body has a method keyed `render`.
// Computed, quoted, numeric and private keys never match.
func IsComponent(class *jsast.Class) bool {
	if class == nil {
		return false
	}

	for _, member := range class.Members {
		switch m := member.(type) {
		case *jsast.Method:
			if name, ok := jsast.KeyName(m.Key); ok && name == RenderMethod {
				return true
			}
		case *jsast.Property, *jsast.StaticBlock, *jsast.OtherMember:
		}
	}

	return false
}

// HasDisplayName reports whether the class body already has a property keyed
// `displayName`, static or not. Its value is never inspected.
func HasDisplayName(class *jsast.Class) bool {
	if class == nil {
		return false
	}

	for _, member := range class.Members {
		switch m := member.(type) {
		case *jsast.Property:
			if name, ok := jsast.KeyName(m.Key); ok && name == PropertyName {
				return true
			}
		case *jsast.Method, *jsast.StaticBlock, *jsast.OtherMember:
		}
	}

	return false
}

// NewDisplayName builds `static displayName = "<name>"`. The node has no source span.
func NewDisplayName(name string) *jsast.Property {
	return &jsast.Property{
		Key:    &jsast.Ident{Name: PropertyName},
		Static: true,
		Value:  &jsast.StringLit{Value: name},
	}
}
