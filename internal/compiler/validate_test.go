package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/symtrace/internal/ir"
)

func codes(errs []ValidationError) []string {
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Code)
	}
	return out
}

func TestValidateTypeSpec(t *testing.T) {
	tests := []struct {
		name  string
		spec  ir.TypeSpec
		codes []string
	}{
		{
			name: "valid",
			spec: ir.TypeSpec{Name: "Tensor", Methods: []string{"relu", "__add__"}, Properties: []string{"T"}},
		},
		{
			name:  "lowercase type name",
			spec:  ir.TypeSpec{Name: "tensor", Methods: []string{"relu"}},
			codes: []string{ErrTypeNameInvalid},
		},
		{
			name:  "empty type name",
			spec:  ir.TypeSpec{Methods: []string{"relu"}},
			codes: []string{ErrTypeNameInvalid},
		},
		{
			name:  "no members",
			spec:  ir.TypeSpec{Name: "Empty"},
			codes: []string{ErrTypeNoMembers},
		},
		{
			name: "derived type without members",
			spec: ir.TypeSpec{Name: "Parameter", Extends: "Tensor"},
		},
		{
			name:  "method and property conflict",
			spec:  ir.TypeSpec{Name: "Tensor", Methods: []string{"shape"}, Properties: []string{"shape"}},
			codes: []string{ErrMemberConflict},
		},
		{
			name:  "member not an identifier",
			spec:  ir.TypeSpec{Name: "Tensor", Methods: []string{"to-dense"}},
			codes: []string{ErrInvalidMember},
		},
		{
			name:  "duplicate member",
			spec:  ir.TypeSpec{Name: "Tensor", Methods: []string{"relu", "relu"}},
			codes: []string{ErrDuplicateName},
		},
		{
			name:  "reserved getattr",
			spec:  ir.TypeSpec{Name: "Tensor", Methods: []string{"getattr"}},
			codes: []string{ErrReservedProtocol},
		},
		{
			name:  "reserved call is case-insensitive",
			spec:  ir.TypeSpec{Name: "Tensor", Properties: []string{"Call"}},
			codes: []string{ErrReservedProtocol},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := Validate(tt.spec)
			if len(tt.codes) == 0 {
				assert.Empty(t, errs)
				return
			}
			assert.Equal(t, tt.codes, codes(errs))
		})
	}
}

func TestValidateAcceptsPointer(t *testing.T) {
	errs := Validate(&ir.TypeSpec{Name: "bad", Methods: []string{"relu"}})
	require.Len(t, errs, 1)
	assert.Equal(t, "name", errs[0].Field)
}

func TestValidateCollectsAllErrors(t *testing.T) {
	spec := ir.TypeSpec{
		Name:    "bad",
		Methods: []string{"relu", "relu", "1x"},
	}

	errs := Validate(spec)
	assert.ElementsMatch(t, []string{ErrTypeNameInvalid, ErrDuplicateName, ErrInvalidMember}, codes(errs))
}

func TestValidateUnsupportedType(t *testing.T) {
	errs := Validate(42)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrUnsupportedIRType, errs[0].Code)
	assert.Contains(t, errs[0].Message, "int")
}

func TestValidateCatalog(t *testing.T) {
	specs := []ir.TypeSpec{
		{Name: "Tensor", Methods: []string{"relu"}},
		{Name: "Tensor", Methods: []string{"view"}},
		{Name: "Orphan", Extends: "Missing"},
		{Name: "Loop", Extends: "Loop"},
	}

	errs := Validate(specs)
	require.Len(t, errs, 3)

	assert.Equal(t, ErrDuplicateName, errs[0].Code)
	assert.Equal(t, "types[1].name", errs[0].Field)

	assert.Equal(t, ErrUnknownExtends, errs[1].Code)
	assert.Equal(t, "types[2].extends", errs[1].Field)

	assert.Equal(t, ErrExtendsCycle, errs[2].Code)
	assert.Equal(t, "type Loop extends itself", errs[2].Message)
}

func TestValidateCatalogPrefixesFields(t *testing.T) {
	specs := []ir.TypeSpec{
		{Name: "Tensor", Methods: []string{"relu"}},
		{Name: "Module", Methods: []string{"forward", "forward"}},
	}

	errs := Validate(specs)
	require.Len(t, errs, 1)
	assert.Equal(t, "types[1].methods[1]", errs[0].Field)
}

func TestValidationErrorFormatting(t *testing.T) {
	err := ValidationError{Field: "methods[0]", Message: "bad", Code: ErrInvalidMember}
	assert.Equal(t, "[E104] methods[0]: bad", err.Error())

	err.Line = 3
	assert.Equal(t, "[E104] line 3: methods[0]: bad", err.Error())
}
