package graph

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	metaValidatorOnce sync.Once
	metaValidatorInst *validator.Validate
)

// metadataValidator returns the shared struct-tag validator used to check a
// WorkflowSpec's authoring metadata (name, schema_version, variable
// declarations) before Validate runs the heavier structural/semantic graph
// checks. This is a distinct concern from Validate: a spec can be
// well-formed metadata-wise and still be a structurally invalid graph, or
// vice versa.
func metadataValidator() *validator.Validate {
	metaValidatorOnce.Do(func() {
		v := validator.New()
		_ = v.RegisterValidation("schema_version", func(fl validator.FieldLevel) bool {
			return fl.Field().String() == SchemaVersion
		})
		metaValidatorInst = v
	})
	return metaValidatorInst
}

// ValidateMetadata checks the WorkflowSpec's descriptive fields and declared
// variables against their struct tags, independent of graph shape.
func ValidateMetadata(spec *WorkflowSpec) error {
	if err := metadataValidator().Struct(spec); err != nil {
		return fmt.Errorf("metadata: %s", formatValidationError(err))
	}
	return nil
}

func formatValidationError(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}
