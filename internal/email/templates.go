package email

import (
	"bytes"
	"fmt"
	htemplate "html/template"
	ttemplate "text/template"
	"time"
)

// Kind identifica la plantilla.
type Kind string

const (
	KindVerification  Kind = "verification"
	KindPasswordReset Kind = "password_reset"
	KindWelcome       Kind = "welcome"
)

// Params son las variables disponibles en todas las plantillas.
type Params struct {
	Name string
	Link string
	TTL  string
	App  string
}

type template struct {
	subject string
	html    *htemplate.Template
	text    *ttemplate.Template
}

// Templates renderiza los tres tipos de email.
type Templates struct {
	app string
	set map[Kind]template
}

// NewTemplates parsea las plantillas por defecto. appName aparece en asunto y cuerpo.
func NewTemplates(appName string) (*Templates, error) {
	if appName == "" {
		appName = "idgate"
	}
	t := &Templates{app: appName, set: make(map[Kind]template)}
	for kind, src := range defaults {
		h, err := htemplate.New(string(kind) + "_html").Parse(src.html)
		if err != nil {
			return nil, fmt.Errorf("email: parse %s html: %w", kind, err)
		}
		x, err := ttemplate.New(string(kind) + "_text").Parse(src.text)
		if err != nil {
			return nil, fmt.Errorf("email: parse %s text: %w", kind, err)
		}
		t.set[kind] = template{subject: src.subject, html: h, text: x}
	}
	return t, nil
}

// Render devuelve asunto, HTML y texto plano.
func (t *Templates) Render(kind Kind, p Params) (subject, html, text string, err error) {
	tpl, ok := t.set[kind]
	if !ok {
		return "", "", "", fmt.Errorf("email: unknown template %q", kind)
	}
	if p.App == "" {
		p.App = t.app
	}
	var hb, tb bytes.Buffer
	if err := tpl.html.Execute(&hb, p); err != nil {
		return "", "", "", fmt.Errorf("email: render %s html: %w", kind, err)
	}
	if err := tpl.text.Execute(&tb, p); err != nil {
		return "", "", "", fmt.Errorf("email: render %s text: %w", kind, err)
	}
	return fmt.Sprintf(tpl.subject, t.app), hb.String(), tb.String(), nil
}

var defaults = map[Kind]struct{ subject, html, text string }{
	KindVerification: {
		subject: "Verificá tu email en %s",
		html: `<p>Hola {{.Name}},</p>
<p>Confirmá tu dirección de email haciendo click en el siguiente link:</p>
<p><a href="{{.Link}}">Verificar email</a></p>
<p>El link vence en {{.TTL}}.</p>`,
		text: `Hola {{.Name}},

Confirmá tu dirección de email abriendo este link:
{{.Link}}

El link vence en {{.TTL}}.
`,
	},
	KindPasswordReset: {
		subject: "Restablecé tu contraseña de %s",
		html: `<p>Hola {{.Name}},</p>
<p>Recibimos un pedido para restablecer tu contraseña.</p>
<p><a href="{{.Link}}">Elegir una nueva contraseña</a></p>
<p>El link vence en {{.TTL}}. Si no fuiste vos, ignorá este mensaje.</p>`,
		text: `Hola {{.Name}},

Recibimos un pedido para restablecer tu contraseña:
{{.Link}}

El link vence en {{.TTL}}. Si no fuiste vos, ignorá este mensaje.
`,
	},
	KindWelcome: {
		subject: "Bienvenido a %s",
		html: `<p>Hola {{.Name}},</p>
<p>Tu cuenta en {{.App}} ya está lista.</p>`,
		text: `Hola {{.Name}},

Tu cuenta en {{.App}} ya está lista.
`,
	},
}

// FormatTTL expresa d en castellano para las plantillas ("1 hora", "10 minutos").
func FormatTTL(d time.Duration) string {
	switch {
	case d >= time.Hour && d%time.Hour == 0:
		if h := int(d / time.Hour); h != 1 {
			return fmt.Sprintf("%d horas", h)
		}
		return "1 hora"
	case d >= time.Minute:
		if m := int(d / time.Minute); m != 1 {
			return fmt.Sprintf("%d minutos", m)
		}
		return "1 minuto"
	default:
		return fmt.Sprintf("%d segundos", int(d/time.Second))
	}
}
