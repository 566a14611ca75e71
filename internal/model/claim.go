package model

// AssertionKind categorizes a sub-assertion of a decomposed claim
type AssertionKind string

const (
	KindWho      AssertionKind = "who"      // Actor the claim is about
	KindWhat     AssertionKind = "what"     // Action or event asserted
	KindWhere    AssertionKind = "where"    // Location or platform hint
	KindWhen     AssertionKind = "when"     // Asserted time frame
	KindHow      AssertionKind = "how"      // Asserted mechanism
	KindWhy      AssertionKind = "why"      // Asserted motive
	KindPlatform AssertionKind = "platform" // Platform the claim circulated on
)

// SubAssertion is one typed fragment of a decomposed claim
type SubAssertion struct {
	Kind       AssertionKind `json:"kind"`
	Text       string        `json:"text"`
	Entity     string        `json:"entity,omitempty"` // Optional related-entity tag
	Confidence float64       `json:"confidence"`       // [0,1]; 0 until verification runs
}

// ClaimProvenance records where an extracted claim came from
type ClaimProvenance string

const (
	ProvenanceText   ClaimProvenance = "text"
	ProvenanceImage  ClaimProvenance = "image"
	ProvenanceHybrid ClaimProvenance = "hybrid"
)

// Claim is a claim decomposed into typed sub-assertions.
// Created by the extraction collaborator with all sub-assertion confidences
// at zero; the verifier produces a scored copy, which is read-only thereafter.
type Claim struct {
	Text              string            `json:"text"`
	SubAssertions     []SubAssertion    `json:"sub_assertions"`
	OverallConfidence float64           `json:"overall_confidence"`
	ExtractedFrom     ClaimProvenance   `json:"extracted_from"`
	ExtractConfidence float64           `json:"extract_confidence,omitempty"` // Extractor's own confidence, not verification
	Metadata          map[string]string `json:"metadata,omitempty"`           // Diagnostic annotations only, never business logic
}

// Assertion returns the first sub-assertion of the given kind, or nil.
func (c *Claim) Assertion(kind AssertionKind) *SubAssertion {
	for i := range c.SubAssertions {
		if c.SubAssertions[i].Kind == kind {
			return &c.SubAssertions[i]
		}
	}
	return nil
}

// Clone returns a deep copy of the claim. The verifier scores a clone so the
// extractor's output is never mutated in place.
func (c *Claim) Clone() *Claim {
	out := &Claim{
		Text:              c.Text,
		OverallConfidence: c.OverallConfidence,
		ExtractedFrom:     c.ExtractedFrom,
		ExtractConfidence: c.ExtractConfidence,
	}
	if c.SubAssertions != nil {
		out.SubAssertions = make([]SubAssertion, len(c.SubAssertions))
		copy(out.SubAssertions, c.SubAssertions)
	}
	if c.Metadata != nil {
		out.Metadata = make(map[string]string, len(c.Metadata))
		for k, v := range c.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}

// Annotate records a diagnostic key/value on the claim's metadata.
func (c *Claim) Annotate(key, value string) {
	if c.Metadata == nil {
		c.Metadata = make(map[string]string)
	}
	c.Metadata[key] = value
}
