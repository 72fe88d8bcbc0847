package template

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tramite-io/tramite/pkg/models"
)

func fullContext() Context {
	return Context{
		Protocolo:         "RQ250114-0042",
		TipoCodigo:        "RQ_063",
		TipoNome:          "Requisição de Pessoal",
		Solicitante:       "Ana Souza",
		DepartamentoAtual: "Recursos Humanos",
		Link:              "http://tramite.local/solicitations/abc",
	}
}

func TestRender_SubstitutesEveryPlaceholder(t *testing.T) {
	tmpl := &models.MessageTemplate{
		Subject: "{protocolo} de {solicitante}",
		Body:    "{tipoCodigo}/{tipoNome} está em {departamentoAtual}: {link}",
	}

	rendered := Render(tmpl, fullContext())

	assert.Equal(t, "RQ250114-0042 de Ana Souza", rendered.Subject)
	assert.Equal(t, "RQ_063/Requisição de Pessoal está em Recursos Humanos: http://tramite.local/solicitations/abc", rendered.Body)
}

func TestRender_UnknownPlaceholderKeptVerbatim(t *testing.T) {
	tmpl := &models.MessageTemplate{
		Subject: "{protocolo} {naoExiste}",
		Body:    "{outro}",
	}

	rendered := Render(tmpl, fullContext())

	assert.Equal(t, "RQ250114-0042 {naoExiste}", rendered.Subject)
	assert.Equal(t, "{outro}", rendered.Body)
}

func TestRender_NilTemplateUsesDefault(t *testing.T) {
	rendered := Render(nil, fullContext())

	assert.Contains(t, rendered.Subject, "RQ250114-0042")
	assert.Contains(t, rendered.Body, "Recursos Humanos")
	assert.Contains(t, rendered.Body, "http://tramite.local/solicitations/abc")
}

func TestRenderApproval_NilTemplateUsesApprovalDefault(t *testing.T) {
	rendered := RenderApproval(nil, fullContext())

	assert.Contains(t, rendered.Subject, "Aprovação pendente")
	assert.Contains(t, rendered.Body, "aguarda sua aprovação")
}

func TestRender_EmptyContextLeavesBlanks(t *testing.T) {
	tmpl := &models.MessageTemplate{Subject: "[{protocolo}]", Body: "{link}"}

	rendered := Render(tmpl, Context{})

	assert.Equal(t, "[]", rendered.Subject)
	assert.Empty(t, rendered.Body)
}
