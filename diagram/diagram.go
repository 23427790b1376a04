package diagram

// Extraction is a diagram pulled out of an agent message, ready to render.
type Extraction struct {
	Code     string // repaired source; empty when the message has no diagram
	Method   Method
	Metadata Metadata
}

func (e Extraction) HasDiagram() bool {
	return e.Code != ""
}

// Parse runs the extractor chain, the repair pass and metadata extraction.
func Parse(src Source) Extraction {
	code, method := Extract(src)
	if code != "" {
		code = Repair(code)
	}
	return Extraction{
		Code:     code,
		Method:   method,
		Metadata: ExtractMetadata(src),
	}
}
