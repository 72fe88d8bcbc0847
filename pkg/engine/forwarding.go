package engine

import (
	"github.com/tramite-io/tramite/pkg/models"
)

// FieldMapping copies one payload field from source to child, optionally
// transformed. Keeping the mapping as data makes each forwarding auditable
// and testable in isolation.
type FieldMapping struct {
	Source      string
	Destination string
	Transform   func(value string) string
}

// Forwarding describes how one request type finalizes into a child request in
// another department. Destinations are resolved by well-known directory codes
// at finalize time; a missing lookup aborts the whole operation.
type Forwarding struct {
	SourceTypeCode            string
	DestinationTypeCode       string
	DestinationDepartmentCode string
	DestinationCostCenterCode string

	// RequiredFields must be present in the caller's extra fields or already on
	// the source payload.
	RequiredFields []string

	Fields []FieldMapping

	// Defaults computes child payload values not covered by the field
	// mappings, e.g. the back-reference to the source protocol.
	Defaults func(source *models.Solicitation) map[string]string
}

// Request type codes with a forwarding rule.
const (
	TypeCodeRequisicaoPessoal = "RQ_063"
	TypeCodeIncentivoEducacao = "RQ_091"
	TypeCodeAdmissao          = "RQ_076"
	TypeCodeLancamentoFolha   = "RQ_092"
	DepartmentCodePessoal     = "DP"
	CostCenterCodeDepPessoal  = "CC-DP"
)

// forwardings is the closed table of forwardable types. Anything not listed
// here rejects finalize-and-forward with ErrUnsupportedType.
var forwardings = map[string]*Forwarding{
	TypeCodeRequisicaoPessoal: {
		SourceTypeCode:            TypeCodeRequisicaoPessoal,
		DestinationTypeCode:       TypeCodeAdmissao,
		DestinationDepartmentCode: DepartmentCodePessoal,
		DestinationCostCenterCode: CostCenterCodeDepPessoal,
		RequiredFields:            []string{"cargo", "salario", "data_admissao"},
		Fields: []FieldMapping{
			{Source: "cargo", Destination: "cargo"},
			{Source: "salario", Destination: "salario"},
			{Source: "data_admissao", Destination: "data_admissao"},
			{Source: "candidato", Destination: "colaborador"},
			{Source: "centro_custo", Destination: "centro_custo"},
		},
		Defaults: func(source *models.Solicitation) map[string]string {
			return map[string]string{
				"origem_protocolo": source.Protocolo,
			}
		},
	},
	TypeCodeIncentivoEducacao: {
		SourceTypeCode:            TypeCodeIncentivoEducacao,
		DestinationTypeCode:       TypeCodeLancamentoFolha,
		DestinationDepartmentCode: DepartmentCodePessoal,
		DestinationCostCenterCode: CostCenterCodeDepPessoal,
		RequiredFields:            []string{"beneficiario", "valor_calculado"},
		Fields: []FieldMapping{
			{Source: "beneficiario", Destination: "colaborador"},
			{Source: "valor_calculado", Destination: "valor"},
			{Source: "instituicao", Destination: "observacao"},
		},
		Defaults: func(source *models.Solicitation) map[string]string {
			return map[string]string{
				"origem_protocolo": source.Protocolo,
				"rubrica":          "incentivo-educacao",
			}
		},
	},
}

// ForwardingForType returns the forwarding rule of a type code, or nil.
func ForwardingForType(typeCode string) *Forwarding {
	return forwardings[typeCode]
}
