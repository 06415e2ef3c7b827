// Package schema validates OCN mandate payloads and CloudEvents against the
// versioned JSON Schema (draft 2020-12) documents kept under common/.
//
// The package is built from four pieces:
//   - Store: resolves a (category, name) identifier to a schema file, parses it,
//     checks it against the draft 2020-12 meta-schema and caches it
//   - ValidatorCache: compiles store documents into validators, cached by identifier
//   - EventTypeRegistry: the fixed table from CloudEvent wire types to event schemas
//   - ContractValidator: the entry point combining the three
//
// Both caches are insert-only and keep only successful results, so a schema
// that failed to load is read again on the next request.
//
// Basic usage:
//
//	store := schema.NewStore(schema.WithBasePath("/srv/ocn-common"))
//	cv := schema.NewContractValidator(schema.NewValidatorCache(store), schema.NewEventTypeRegistry())
//
//	if err := cv.ValidateCloudEvent(body, "ocn.orca.decision.v1"); err != nil {
//	    if errors.Is(err, schema.ErrValidationFailed) {
//	        // reject the event
//	    }
//	    return err
//	}
//
//	// Diagnostics: every violation, never an error
//	for _, v := range cv.Violations(body, "intent_mandate", schema.CategoryMandate) {
//	    fmt.Println(v.Path, v.Message)
//	}
package schema
