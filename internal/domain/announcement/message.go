// internal/domain/announcement/message.go
package announcement

// Provenance tells whether a message came from the generator or the fallback pool.
type Provenance string

const (
	ProvenanceGenerated Provenance = "generated"
	ProvenanceFallback  Provenance = "fallback"
)

// Message is a composed announcement ready for delivery.
type Message struct {
	Text       string
	Provenance Provenance
}
