package exchange

import (
	"go.mongodb.org/mongo-driver/v2/bson"
)

// BSON stores the same document shape as JSON in binary form.
type BSON struct{}

func (BSON) Name() string      { return "bson" }
func (BSON) Extension() string { return ".bson" }

func (BSON) Encode(doc Document) ([]byte, error) {
	doc.HistoricalInfo = sorted(doc.HistoricalInfo)
	return bson.Marshal(doc)
}

func (BSON) Decode(b []byte) (Document, error) {
	var doc Document
	if err := bson.Unmarshal(b, &doc); err != nil {
		return Document{}, Errorf(CodeParseFileError, "decode bson: %w", err)
	}
	return doc, nil
}
