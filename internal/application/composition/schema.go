package composition

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/turtacn/perovskite-json/pkg/errors"
	ptypes "github.com/turtacn/perovskite-json/pkg/types/perovskite"
)

const schemaURL = "document.schema.json"

//go:embed schema/document.schema.json
var documentSchema []byte

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

// DocumentSchema returns the raw JSON schema of a composition document.
func DocumentSchema() []byte {
	return append([]byte(nil), documentSchema...)
}

func loadSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource(schemaURL, bytes.NewReader(documentSchema)); err != nil {
			schemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		compiledSchema, schemaErr = compiler.Compile(schemaURL)
	})
	return compiledSchema, schemaErr
}

// ValidateDocument checks raw against the document schema and verifies that
// every per-site list is parallel to the site's ions.
func ValidateDocument(raw []byte) error {
	schema, err := loadSchema()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "document schema unavailable")
	}

	var payload interface{}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		return errors.Wrap(err, errors.ErrCodeDocumentRead, "document is not valid JSON")
	}
	if err := schema.Validate(payload); err != nil {
		return errors.Wrap(err, errors.ErrCodeDocumentSchema, "document violates schema")
	}

	var doc ptypes.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return errors.Wrap(err, errors.ErrCodeDocumentRead, "failed to decode document")
	}
	return checkParallel(&doc)
}

func checkParallel(doc *ptypes.Document) error {
	for _, site := range ptypes.Sites {
		sec := doc.Section(site)
		n := len(sec.Ions)
		lens := []struct {
			field string
			n     int
		}{
			{"coef", len(sec.Coefficients)},
			{"SMILES", len(sec.SMILES)},
			{"molecular_formula", len(sec.MolecularFormulas)},
			{"IUPAC_names", len(sec.IUPACNames)},
			{"common_names", len(sec.CommonNames)},
			{"cas_numbers", len(sec.CASNumbers)},
			{"parent_SMILES", len(sec.ParentSMILES)},
			{"parent_IUPAC_names", len(sec.ParentIUPACNames)},
			{"parent_cas_numbers", len(sec.ParentCASNumbers)},
		}
		for _, l := range lens {
			if l.n != n {
				return errors.Newf(errors.ErrCodeDocumentSchema,
					"%s_%s has %d entries, %s_ions has %d", site, l.field, l.n, site, n)
			}
		}
	}
	return nil
}
