package exchange

import (
	"encoding/json"
)

// JSON is the native exchange format.
type JSON struct{}

func (JSON) Name() string      { return "json" }
func (JSON) Extension() string { return ".json" }

func (JSON) Encode(doc Document) ([]byte, error) {
	doc.HistoricalInfo = sorted(doc.HistoricalInfo)
	return json.MarshalIndent(doc, "", "    ")
}

func (JSON) Decode(b []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(b, &doc); err != nil {
		return Document{}, Errorf(CodeParseFileError, "decode json: %w", err)
	}
	return doc, nil
}
