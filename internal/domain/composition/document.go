package composition

import (
	"bytes"
	"encoding/json"

	"github.com/turtacn/perovskite-json/pkg/errors"
	ptypes "github.com/turtacn/perovskite-json/pkg/types/perovskite"
)

// DocumentIndent is the indentation of written documents.
const DocumentIndent = "    "

// EncodeDocument renders doc as indented JSON in its fixed key order.  HTML
// characters are left unescaped so SMILES strings stay readable.
func EncodeDocument(doc ptypes.Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", DocumentIndent)
	if err := enc.Encode(doc); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDocumentEncode, "encode composition document")
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// DecodeDocument parses a document previously written by EncodeDocument.
func DecodeDocument(data []byte) (ptypes.Document, error) {
	var doc ptypes.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return ptypes.Document{}, errors.Wrap(err, errors.ErrCodeDocumentRead, "decode composition document")
	}
	return doc, nil
}
