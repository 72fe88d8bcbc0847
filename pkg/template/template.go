// Package template renders notification subjects and bodies from workflow
// node templates with placeholder substitution.
package template

import (
	"strings"

	"github.com/tramite-io/tramite/pkg/models"
)

// Context carries the values substituted into a template. The placeholder set
// is fixed and part of the external contract: {protocolo}, {tipoCodigo},
// {tipoNome}, {solicitante}, {departamentoAtual}, {link}. Placeholders the
// resolver does not know are left verbatim so a partially configured template
// still renders instead of failing.
type Context struct {
	Protocolo         string
	TipoCodigo        string
	TipoNome          string
	Solicitante       string
	DepartamentoAtual string
	Link              string
}

// Rendered is the subject/body pair ready for dispatch.
type Rendered struct {
	Subject string
	Body    string
}

// Built-in templates used when a node has none configured.
var (
	defaultNotification = &models.MessageTemplate{
		Subject: "Solicitação {protocolo} - {tipoNome}",
		Body: "A solicitação {protocolo} ({tipoCodigo} - {tipoNome}), aberta por {solicitante}, " +
			"chegou ao setor {departamentoAtual}.\n\nAcompanhe em: {link}",
	}

	defaultApproval = &models.MessageTemplate{
		Subject: "Aprovação pendente - solicitação {protocolo}",
		Body: "A solicitação {protocolo} ({tipoCodigo} - {tipoNome}), aberta por {solicitante}, " +
			"aguarda sua aprovação.\n\nDecida em: {link}",
	}
)

// Render substitutes the placeholder set into the given template. A nil
// template falls back to the built-in notification default.
func Render(tmpl *models.MessageTemplate, renderCtx Context) Rendered {
	if tmpl == nil {
		tmpl = defaultNotification
	}

	replacer := strings.NewReplacer(
		"{protocolo}", renderCtx.Protocolo,
		"{tipoCodigo}", renderCtx.TipoCodigo,
		"{tipoNome}", renderCtx.TipoNome,
		"{solicitante}", renderCtx.Solicitante,
		"{departamentoAtual}", renderCtx.DepartamentoAtual,
		"{link}", renderCtx.Link,
	)

	return Rendered{
		Subject: replacer.Replace(tmpl.Subject),
		Body:    replacer.Replace(tmpl.Body),
	}
}

// RenderApproval renders the approval-request template of a node, falling
// back to the built-in approval default.
func RenderApproval(tmpl *models.MessageTemplate, renderCtx Context) Rendered {
	if tmpl == nil {
		tmpl = defaultApproval
	}

	return Render(tmpl, renderCtx)
}
